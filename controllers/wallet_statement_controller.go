package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
)

// DownloadWalletStatement generates a PDF statement of the user's recent ledger
// entries.
func DownloadWalletStatement(c *gin.Context) {
	utils.LogInfo("DownloadWalletStatement called")
	userVal, exists := c.Get("user")
	if !exists {
		utils.LogError("User not found in context")
		utils.Unauthorized(c, "User not found")
		return
	}
	user, ok := userVal.(models.User)
	if !ok {
		utils.LogError("Invalid user type in context")
		utils.BadRequest(c, "Invalid user in context", nil)
		return
	}

	wallet, err := getWalletByUserID(config.DB, user.ID)
	if err != nil {
		utils.LogError("Wallet not found for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	var transactions []models.Transaction
	err = config.DB.Preload("Type").Preload("State").
		Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&transactions).Error
	if err != nil {
		utils.LogError("Failed to fetch transactions for wallet %s: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to fetch transactions", nil)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, "Becoin")
	pdf.SetFont("Arial", "", 12)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "WALLET STATEMENT")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(90, 8, "Holder: "+user.Username)
	pdf.Cell(90, 8, "Generated: "+time.Now().Format("2006-01-02 15:04:05"))
	pdf.Ln(8)
	pdf.Cell(90, 8, "Balance: "+wallet.Balance.String()+" becoin")
	pdf.Ln(12)

	// Table header
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 8, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(55, 8, "Type", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 8, "Balance", "1", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for _, t := range transactions {
		pdf.CellFormat(35, 7, t.CreatedAt.Format("2006-01-02 15:04"), "1", 0, "", false, 0, "")
		pdf.CellFormat(55, 7, t.Type.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, t.State.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, t.Amount.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, t.PostBalance.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(7)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.LogError("Failed to generate statement PDF for wallet %s: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to generate statement", nil)
		return
	}
	utils.LogInfo("Statement generated for wallet %s with %d entries", wallet.ID, len(transactions))

	filename := fmt.Sprintf("statement-%s.pdf", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "application/pdf", buf.Bytes())
}

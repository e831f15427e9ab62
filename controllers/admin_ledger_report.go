package controllers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

// DownloadLedgerReportExcel exports the period's ledger entries as a
// spreadsheet for back-office reconciliation.
func DownloadLedgerReportExcel(c *gin.Context) {
	utils.LogInfo("DownloadLedgerReportExcel called")

	period := c.DefaultQuery("period", "day")
	utils.LogDebug("Generating ledger report for period: %s", period)

	now := time.Now()
	var startDate, endDate time.Time

	switch period {
	case "day":
		startDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endDate = now
	case "week":
		endDate = now
		startDate = now.AddDate(0, 0, -7)
	case "month":
		endDate = now
		startDate = now.AddDate(0, -1, 0)
	default:
		utils.LogError("Invalid period specified: %s", period)
		utils.BadRequest(c, "Invalid period", "Period must be day, week, or month")
		return
	}

	var transactions []models.Transaction
	err := config.DB.Preload("Type").Preload("State").
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Order("created_at DESC").
		Find(&transactions).Error
	if err != nil {
		utils.LogError("Failed to fetch transactions: %v", err)
		utils.InternalServerError(c, "Failed to fetch transactions", nil)
		return
	}
	utils.LogDebug("Retrieved %d ledger entries for report", len(transactions))

	totalsByType := make(map[string]decimal.Decimal)
	countsByType := make(map[string]int)
	for _, t := range transactions {
		totalsByType[t.Type.Code] = totalsByType[t.Type.Code].Add(t.Amount)
		countsByType[t.Type.Code]++
	}

	file := xlsx.NewFile()

	summary, err := file.AddSheet("Summary")
	if err != nil {
		utils.InternalServerError(c, "Failed to build report", nil)
		return
	}
	header := summary.AddRow()
	header.AddCell().Value = "Type"
	header.AddCell().Value = "Count"
	header.AddCell().Value = "Total becoin"
	for code, total := range totalsByType {
		row := summary.AddRow()
		row.AddCell().Value = code
		row.AddCell().Value = fmt.Sprintf("%d", countsByType[code])
		row.AddCell().Value = total.String()
	}

	detail, err := file.AddSheet("Transactions")
	if err != nil {
		utils.InternalServerError(c, "Failed to build report", nil)
		return
	}
	detailHeader := detail.AddRow()
	for _, col := range []string{"Date", "Wallet", "Type", "Status", "Amount", "Post balance", "Counterparty wallet", "Reference"} {
		detailHeader.AddCell().Value = col
	}
	for _, t := range transactions {
		row := detail.AddRow()
		row.AddCell().Value = t.CreatedAt.Format("2006-01-02 15:04:05")
		row.AddCell().Value = t.WalletID
		row.AddCell().Value = t.Type.Code
		row.AddCell().Value = t.State.Code
		row.AddCell().Value = t.Amount.String()
		row.AddCell().Value = t.PostBalance.String()
		if t.RelatedWalletID != nil {
			row.AddCell().Value = *t.RelatedWalletID
		} else {
			row.AddCell().Value = ""
		}
		if t.Reference != nil {
			row.AddCell().Value = *t.Reference
		} else {
			row.AddCell().Value = ""
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		utils.LogError("Failed to write report: %v", err)
		utils.InternalServerError(c, "Failed to write report", nil)
		return
	}
	utils.LogInfo("Ledger report generated for period %s with %d entries", period, len(transactions))

	filename := fmt.Sprintf("ledger-report-%s-%s.xlsx", period, now.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

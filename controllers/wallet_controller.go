package controllers

import (
	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
)

// GetWallet returns the authenticated user's wallet.
func GetWallet(c *gin.Context) {
	utils.LogInfo("GetWallet called")
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

	utils.Success(c, "Wallet retrieved successfully", gin.H{
		"wallet": gin.H{
			"id":      wallet.ID,
			"balance": wallet.Balance,
			"alias":   wallet.Alias,
		},
	})
}

// GetWalletTransactions returns the user's ledger entries, newest first.
func GetWalletTransactions(c *gin.Context) {
	utils.LogInfo("GetWalletTransactions called")
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

	pagination := utils.NewPagination(c)

	var total int64
	if err := config.DB.Model(&models.Transaction{}).
		Where("wallet_id = ?", wallet.ID).Count(&total).Error; err != nil {
		utils.LogError("Failed to count transactions for wallet %s: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to fetch transactions", nil)
		return
	}
	pagination.SetTotal(total)

	var transactions []models.Transaction
	err = config.DB.Preload("Type").Preload("State").
		Where("wallet_id = ?", wallet.ID).
		Order("created_at DESC").
		Limit(pagination.Limit).Offset(pagination.Offset).
		Find(&transactions).Error
	if err != nil {
		utils.LogError("Failed to fetch transactions for wallet %s: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to fetch transactions", nil)
		return
	}

	items := make([]gin.H, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, gin.H{
			"id":                t.ID,
			"type":              t.Type.Code,
			"status":            t.State.Code,
			"amount":            t.Amount,
			"post_balance":      t.PostBalance,
			"related_wallet_id": t.RelatedWalletID,
			"reference":         t.Reference,
			"created_at":        t.CreatedAt,
		})
	}

	utils.SuccessWithPagination(c, "Transactions retrieved successfully", items,
		pagination.Total, pagination.Page, pagination.Limit)
}

package controllers

import (
	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateCharge publishes a QR charge prompt against the authenticated user's
// wallet. Paying it transfers the fixed amount and deletes the prompt.
func CreateCharge(c *gin.Context) {
	utils.LogInfo("CreateCharge called")
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

	var req struct {
		Amount  decimal.Decimal `json:"amount" binding:"required"`
		Concept string          `json:"concept"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid charge request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount is required", err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		utils.RespondError(c, utils.ErrInvalidAmount)
		return
	}

	wallet, err := getWalletByUserID(config.DB, user.ID)
	if err != nil {
		utils.LogError("Wallet not found for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	charge := models.AmountToCharge{
		WalletID:     wallet.ID,
		AmountBecoin: req.Amount,
		Concept:      req.Concept,
	}
	if err := config.DB.Create(&charge).Error; err != nil {
		utils.LogError("Failed to create charge for wallet %s: %v", wallet.ID, err)
		utils.InternalServerError(c, "Failed to create charge", nil)
		return
	}
	utils.LogInfo("Charge %s of %s becoin created for wallet %s", charge.ID, charge.AmountBecoin, wallet.ID)

	utils.Created(c, "Charge created successfully", gin.H{
		"charge": gin.H{
			"id":      charge.ID,
			"amount":  charge.AmountBecoin,
			"concept": charge.Concept,
		},
	})
}

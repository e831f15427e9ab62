package controllers

import (
	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// transferBetweenWallets moves becoin from one wallet to another inside the
// caller's database transaction: ordered locks, debit, credit, and one mirrored
// ledger entry per wallet. chargeID, when set, names a consumed AmountToCharge
// prompt deleted in the same unit of work. Returns the source wallet with its
// new balance.
func transferBetweenWallets(tx *gorm.DB, fromWalletID, toWalletID string, amount decimal.Decimal, sendType, receiveType string, chargeID *string) (*models.Wallet, error) {
	if !amount.IsPositive() {
		return nil, utils.ErrInvalidAmount
	}

	source, destination, err := lockWalletPair(tx, fromWalletID, toWalletID)
	if err != nil {
		return nil, err
	}

	if err := applyWalletDelta(tx, source, amount.Neg()); err != nil {
		return nil, err
	}
	if err := applyWalletDelta(tx, destination, amount); err != nil {
		return nil, err
	}

	_, err = recordTransaction(tx, source.ID, sendType, models.StateCompleted,
		amount, source.Balance, &destination.ID, nil)
	if err != nil {
		return nil, err
	}
	_, err = recordTransaction(tx, destination.ID, receiveType, models.StateCompleted,
		amount, destination.Balance, &source.ID, nil)
	if err != nil {
		return nil, err
	}

	if chargeID != nil {
		result := tx.Delete(&models.AmountToCharge{}, "id = ?", *chargeID)
		if result.Error != nil {
			return nil, utils.WrapError(result.Error, "failed to consume charge prompt")
		}
		if result.RowsAffected == 0 {
			return nil, utils.NotFoundError("Charge prompt not found", nil)
		}
	}

	return source, nil
}

// Transfer sends becoin from the authenticated user's wallet to another wallet.
func Transfer(c *gin.Context) {
	utils.LogInfo("Transfer called")
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
		ToWalletID string          `json:"to_wallet_id"`
		Amount     decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid transfer request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount is required", err.Error())
		return
	}
	// Without an explicit destination the platform wallet is the counterparty.
	if req.ToWalletID == "" {
		req.ToWalletID = config.App.PlatformWalletID
	}
	if req.ToWalletID == "" {
		utils.BadRequest(c, "to_wallet_id is required", nil)
		return
	}
	utils.LogDebug("Transfer request - User: %s, To wallet: %s, Amount: %s", user.ID, req.ToWalletID, req.Amount)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	sourceWallet, err := getWalletByUserID(tx, user.ID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Wallet not found for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	wallet, err := transferBetweenWallets(tx, sourceWallet.ID, req.ToWalletID, req.Amount,
		models.TypeTransferSend, models.TypeTransferReceived, nil)
	if err != nil {
		tx.Rollback()
		utils.LogError("Transfer failed for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit transfer for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit transfer", nil)
		return
	}
	utils.LogInfo("Transfer of %s becoin from wallet %s to wallet %s completed", req.Amount, wallet.ID, req.ToWalletID)

	utils.Success(c, "Transfer completed successfully", gin.H{
		"wallet": gin.H{
			"id":      wallet.ID,
			"balance": wallet.Balance,
		},
	})
}

// PayCharge settles a QR charge prompt: the prompt fixes the destination wallet
// and amount, and is consumed atomically with the transfer so it cannot be paid
// twice.
func PayCharge(c *gin.Context) {
	utils.LogInfo("PayCharge called")
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
		ChargeID string `json:"charge_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid charge payment request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. charge_id is required", err.Error())
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var charge models.AmountToCharge
	if err := tx.First(&charge, "id = ?", req.ChargeID).Error; err != nil {
		tx.Rollback()
		utils.LogError("Charge prompt %s not found: %v", req.ChargeID, err)
		utils.NotFound(c, "Charge prompt not found")
		return
	}

	sourceWallet, err := getWalletByUserID(tx, user.ID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Wallet not found for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	wallet, err := transferBetweenWallets(tx, sourceWallet.ID, charge.WalletID, charge.AmountBecoin,
		models.TypeTransferSend, models.TypeTransferReceived, &charge.ID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Charge payment failed for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit charge payment for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit charge payment", nil)
		return
	}
	utils.LogInfo("Charge %s paid from wallet %s", charge.ID, wallet.ID)

	utils.Success(c, "Charge paid successfully", gin.H{
		"wallet": gin.H{
			"id":      wallet.ID,
			"balance": wallet.Balance,
		},
		"concept": charge.Concept,
		"amount":  charge.AmountBecoin,
	})
}

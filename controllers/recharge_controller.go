package controllers

import (
	"errors"

	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InitiateRecharge registers a bank-transfer funding request. The wallet is not
// credited here: a PENDING RECHARGE ledger entry and a PENDING RechargeTransfer
// row are written, and the credit happens when the transfer is confirmed.
func InitiateRecharge(c *gin.Context) {
	utils.LogInfo("InitiateRecharge called")
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
		AmountUSD        decimal.Decimal `json:"amount_usd" binding:"required"`
		Reference        string          `json:"reference" binding:"required"`
		PaymentAccountID string          `json:"payment_account_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid recharge request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount_usd, reference and payment_account_id are required", err.Error())
		return
	}
	if !req.AmountUSD.IsPositive() {
		utils.LogError("Non-positive recharge amount from user %s: %s", user.ID, req.AmountUSD)
		utils.RespondError(c, utils.ErrInvalidAmount)
		return
	}
	utils.LogDebug("Recharge request - User: %s, Amount: %s USD, Reference: %s", user.ID, req.AmountUSD, req.Reference)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	recharge, wallet, err := createRechargeTransfer(tx, user.ID, req.PaymentAccountID, req.Reference, req.AmountUSD)
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to create recharge for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit recharge for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit recharge", nil)
		return
	}
	utils.LogInfo("Recharge %s initiated for user %s: %s USD -> %s becoin", recharge.ID, user.ID, recharge.AmountUSD, recharge.AmountBecoin)

	utils.Created(c, "Recharge registered, pending bank confirmation", gin.H{
		"recharge": gin.H{
			"id":            recharge.ID,
			"reference":     recharge.Reference,
			"amount_usd":    recharge.AmountUSD,
			"amount_becoin": recharge.AmountBecoin,
			"status":        models.StatePending,
		},
		"wallet": gin.H{
			"id":      wallet.ID,
			"balance": wallet.Balance,
		},
	})
}

// createRechargeTransfer writes the PENDING ledger entry and recharge row inside
// the caller's database transaction.
func createRechargeTransfer(tx *gorm.DB, userID, paymentAccountID, reference string, amountUSD decimal.Decimal) (*models.RechargeTransfer, *models.Wallet, error) {
	wallet, err := getWalletByUserID(tx, userID)
	if err != nil {
		return nil, nil, err
	}

	var account models.PaymentAccount
	if err := tx.First(&account, "id = ? AND is_active = ?", paymentAccountID, true).Error; err != nil {
		return nil, nil, utils.NotFoundError("Payment account not found", err)
	}

	var existing models.RechargeTransfer
	err = tx.First(&existing, "reference = ?", reference).Error
	if err == nil {
		return nil, nil, utils.ErrDuplicateReference
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, utils.WrapError(err, "failed to check recharge reference")
	}

	amountBecoin := utils.USDToBecoin(amountUSD, config.App.BecoinPriceUSD)

	transaction, err := recordTransaction(tx, wallet.ID, models.TypeRecharge, models.StatePending,
		amountBecoin, wallet.Balance, nil, &reference)
	if err != nil {
		return nil, nil, err
	}

	pending, err := lookupTransactionState(tx, models.StatePending)
	if err != nil {
		return nil, nil, err
	}

	recharge := models.RechargeTransfer{
		UserID:           userID,
		PaymentAccountID: account.ID,
		Reference:        reference,
		AmountUSD:        amountUSD,
		AmountBecoin:     amountBecoin,
		StateID:          pending.ID,
		TransactionID:    transaction.ID,
	}
	if err := tx.Create(&recharge).Error; err != nil {
		// A concurrent submission with the same reference can slip past the
		// pre-check; the unique index is the authority.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, utils.ErrDuplicateReference
		}
		return nil, nil, utils.WrapError(err, "failed to create recharge transfer")
	}
	return &recharge, wallet, nil
}

// CompleteRecharge confirms a pending recharge inside the caller's database
// transaction: credits the wallet, stamps the ledger entry's post balance and
// moves both rows to COMPLETED. A recharge already in a terminal state is
// rejected with ErrNotPending so a repeated gateway callback can never credit
// the wallet twice. The recharge row is locked for the rest of the database
// transaction so concurrent callbacks serialize on it.
func CompleteRecharge(tx *gorm.DB, rechargeID string) (*models.RechargeTransfer, error) {
	var recharge models.RechargeTransfer
	if err := forUpdate(tx).Preload("State").First(&recharge, "id = ?", rechargeID).Error; err != nil {
		return nil, utils.NotFoundError("Recharge not found", err)
	}
	if recharge.State.Code != models.StatePending {
		return nil, utils.ErrNotPending
	}

	wallet, err := getWalletByUserID(tx, recharge.UserID)
	if err != nil {
		return nil, err
	}
	wallet, err = lockWallet(tx, wallet.ID)
	if err != nil {
		return nil, err
	}

	if err := applyWalletDelta(tx, wallet, recharge.AmountBecoin); err != nil {
		return nil, err
	}
	if err := setTransactionState(tx, recharge.TransactionID, models.StateCompleted, wallet.Balance); err != nil {
		return nil, err
	}

	completed, err := lookupTransactionState(tx, models.StateCompleted)
	if err != nil {
		return nil, err
	}
	err = advanceWorkflowState(tx, &models.RechargeTransfer{}, recharge.ID, recharge.StateID,
		map[string]interface{}{"state_id": completed.ID})
	if err != nil {
		return nil, err
	}
	return &recharge, nil
}

// FailRecharge marks a pending recharge and its ledger entry FAILED inside the
// caller's database transaction. No balance was ever applied, so none changes.
// The row lock keeps a racing completion from slipping in between the state
// check and the flip.
func FailRecharge(tx *gorm.DB, rechargeID string) (*models.RechargeTransfer, error) {
	var recharge models.RechargeTransfer
	if err := forUpdate(tx).Preload("State").First(&recharge, "id = ?", rechargeID).Error; err != nil {
		return nil, utils.NotFoundError("Recharge not found", err)
	}
	if recharge.State.Code != models.StatePending {
		return nil, utils.ErrNotPending
	}

	wallet, err := getWalletByUserID(tx, recharge.UserID)
	if err != nil {
		return nil, err
	}

	if err := setTransactionState(tx, recharge.TransactionID, models.StateFailed, wallet.Balance); err != nil {
		return nil, err
	}

	failed, err := lookupTransactionState(tx, models.StateFailed)
	if err != nil {
		return nil, err
	}
	err = advanceWorkflowState(tx, &models.RechargeTransfer{}, recharge.ID, recharge.StateID,
		map[string]interface{}{"state_id": failed.ID})
	if err != nil {
		return nil, err
	}
	return &recharge, nil
}

// RechargeCompleted confirms a bank transfer was received for a recharge.
func RechargeCompleted(c *gin.Context) {
	utils.LogInfo("RechargeCompleted called")
	rechargeID := c.Param("id")

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	recharge, err := CompleteRecharge(tx, rechargeID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to complete recharge %s: %v", rechargeID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit recharge completion %s: %v", rechargeID, err)
		utils.InternalServerError(c, "Failed to commit recharge completion", nil)
		return
	}
	utils.LogInfo("Recharge %s completed, wallet credited %s becoin", recharge.ID, recharge.AmountBecoin)

	sendRechargeReceipt(recharge)

	utils.Success(c, "Recharge completed, wallet credited", gin.H{
		"recharge": gin.H{
			"id":            recharge.ID,
			"reference":     recharge.Reference,
			"amount_becoin": recharge.AmountBecoin,
			"status":        models.StateCompleted,
		},
	})
}

// RechargeFailed records that a bank transfer never arrived or was rejected.
func RechargeFailed(c *gin.Context) {
	utils.LogInfo("RechargeFailed called")
	rechargeID := c.Param("id")

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	recharge, err := FailRecharge(tx, rechargeID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to fail recharge %s: %v", rechargeID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit recharge failure %s: %v", rechargeID, err)
		utils.InternalServerError(c, "Failed to commit recharge failure", nil)
		return
	}
	utils.LogInfo("Recharge %s marked failed", recharge.ID)

	utils.Success(c, "Recharge marked as failed", gin.H{
		"recharge": gin.H{
			"id":        recharge.ID,
			"reference": recharge.Reference,
			"status":    models.StateFailed,
		},
	})
}

func sendRechargeReceipt(recharge *models.RechargeTransfer) {
	var user models.User
	if err := config.DB.First(&user, "id = ?", recharge.UserID).Error; err != nil {
		utils.LogError("Failed to load user %s for receipt: %v", recharge.UserID, err)
		return
	}
	wallet, err := getWalletByUserID(config.DB, recharge.UserID)
	if err != nil {
		utils.LogError("Failed to load wallet for receipt: %v", err)
		return
	}
	go utils.SendReceiptEmail(user.Email, "Recharge completed",
		"Your bank transfer was confirmed and your wallet has been credited.",
		recharge.AmountBecoin.String(), wallet.Balance.String())
}

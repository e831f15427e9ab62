package controllers

import (
	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Withdraw reserves becoin for an external payout. The wallet is debited
// immediately so the funds cannot be spent while the payout is in flight; a
// failed payout re-credits them.
func Withdraw(c *gin.Context) {
	utils.LogInfo("Withdraw called")
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
		Amount            decimal.Decimal `json:"amount" binding:"required"`
		WithdrawAccountID string          `json:"withdraw_account_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid withdraw request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount and withdraw_account_id are required", err.Error())
		return
	}
	if !req.Amount.IsPositive() {
		utils.LogError("Non-positive withdraw amount from user %s: %s", user.ID, req.Amount)
		utils.RespondError(c, utils.ErrInvalidAmount)
		return
	}
	utils.LogDebug("Withdraw request - User: %s, Amount: %s becoin", user.ID, req.Amount)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var account models.WithdrawAccount
	if err := tx.First(&account, "id = ? AND user_id = ? AND is_active = ?",
		req.WithdrawAccountID, user.ID, true).Error; err != nil {
		tx.Rollback()
		utils.LogError("Withdraw account %s not found for user %s: %v", req.WithdrawAccountID, user.ID, err)
		utils.NotFound(c, "Withdraw account not found")
		return
	}

	wallet, err := getWalletByUserID(tx, user.ID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Wallet not found for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}
	wallet, err = lockWallet(tx, wallet.ID)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, err)
		return
	}

	if err := applyWalletDelta(tx, wallet, req.Amount.Neg()); err != nil {
		tx.Rollback()
		utils.LogError("Withdraw debit failed for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	transaction, err := recordTransaction(tx, wallet.ID, models.TypeWithdraw, models.StatePending,
		req.Amount, wallet.Balance, nil, nil)
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to record withdraw transaction for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	pending, err := lookupTransactionState(tx, models.StatePending)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, err)
		return
	}

	withdraw := models.UserWithdraw{
		UserID:            user.ID,
		WalletID:          wallet.ID,
		WithdrawAccountID: account.ID,
		AmountBecoin:      req.Amount,
		AmountUSD:         utils.BecoinToUSD(req.Amount, config.App.BecoinPriceUSD),
		StateID:           pending.ID,
		TransactionID:     transaction.ID,
	}
	if err := tx.Create(&withdraw).Error; err != nil {
		tx.Rollback()
		utils.LogError("Failed to create withdraw for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create withdraw", nil)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit withdraw for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit withdraw", nil)
		return
	}
	utils.LogInfo("Withdraw %s created for user %s, %s becoin reserved", withdraw.ID, user.ID, req.Amount)

	utils.Created(c, "Withdraw registered, funds reserved pending payout", gin.H{
		"withdraw": gin.H{
			"id":            withdraw.ID,
			"amount_becoin": withdraw.AmountBecoin,
			"amount_usd":    withdraw.AmountUSD,
			"status":        models.StatePending,
		},
		"wallet": gin.H{
			"id":      wallet.ID,
			"balance": wallet.Balance,
		},
	})
}

// CompleteWithdraw finalizes a pending withdraw inside the caller's database
// transaction. The debit was applied at creation, so only the states move.
func CompleteWithdraw(tx *gorm.DB, withdrawID, observation, reference string) (*models.UserWithdraw, error) {
	var withdraw models.UserWithdraw
	if err := forUpdate(tx).Preload("State").First(&withdraw, "id = ?", withdrawID).Error; err != nil {
		return nil, utils.NotFoundError("Withdraw not found", err)
	}
	if withdraw.State.Code != models.StatePending {
		return nil, utils.ErrNotPending
	}

	wallet, err := lockWallet(tx, withdraw.WalletID)
	if err != nil {
		return nil, err
	}

	if err := setTransactionState(tx, withdraw.TransactionID, models.StateCompleted, wallet.Balance); err != nil {
		return nil, err
	}

	completed, err := lookupTransactionState(tx, models.StateCompleted)
	if err != nil {
		return nil, err
	}
	err = advanceWorkflowState(tx, &models.UserWithdraw{}, withdraw.ID, withdraw.StateID,
		map[string]interface{}{
			"state_id":    completed.ID,
			"observation": observation,
			"reference":   reference,
		})
	if err != nil {
		return nil, err
	}
	return &withdraw, nil
}

// FailWithdraw reverses a pending withdraw inside the caller's database
// transaction: the reserved becoin is credited back and both rows move to
// FAILED. Terminal withdrawals are rejected so a repeat call cannot re-credit.
func FailWithdraw(tx *gorm.DB, withdrawID, observation, reference string) (*models.UserWithdraw, error) {
	var withdraw models.UserWithdraw
	if err := forUpdate(tx).Preload("State").First(&withdraw, "id = ?", withdrawID).Error; err != nil {
		return nil, utils.NotFoundError("Withdraw not found", err)
	}
	if withdraw.State.Code != models.StatePending {
		return nil, utils.ErrNotPending
	}

	wallet, err := lockWallet(tx, withdraw.WalletID)
	if err != nil {
		return nil, err
	}

	if err := applyWalletDelta(tx, wallet, withdraw.AmountBecoin); err != nil {
		return nil, err
	}
	if err := setTransactionState(tx, withdraw.TransactionID, models.StateFailed, wallet.Balance); err != nil {
		return nil, err
	}

	failed, err := lookupTransactionState(tx, models.StateFailed)
	if err != nil {
		return nil, err
	}
	err = advanceWorkflowState(tx, &models.UserWithdraw{}, withdraw.ID, withdraw.StateID,
		map[string]interface{}{
			"state_id":    failed.ID,
			"observation": observation,
			"reference":   reference,
		})
	if err != nil {
		return nil, err
	}
	return &withdraw, nil
}

// WithdrawCompleted confirms the external payout went through.
func WithdrawCompleted(c *gin.Context) {
	utils.LogInfo("WithdrawCompleted called")
	finishWithdraw(c, true)
}

// WithdrawFailed records a rejected payout and returns the reserved funds.
func WithdrawFailed(c *gin.Context) {
	utils.LogInfo("WithdrawFailed called")
	finishWithdraw(c, false)
}

func finishWithdraw(c *gin.Context, success bool) {
	withdrawID := c.Param("id")

	var req struct {
		Observation string `json:"observation"`
		Reference   string `json:"reference"`
	}
	// Body is optional for both callbacks.
	_ = c.ShouldBindJSON(&req)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var withdraw *models.UserWithdraw
	var err error
	if success {
		withdraw, err = CompleteWithdraw(tx, withdrawID, req.Observation, req.Reference)
	} else {
		withdraw, err = FailWithdraw(tx, withdrawID, req.Observation, req.Reference)
	}
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to finish withdraw %s: %v", withdrawID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit withdraw %s: %v", withdrawID, err)
		utils.InternalServerError(c, "Failed to commit withdraw", nil)
		return
	}

	status := models.StateCompleted
	message := "Withdraw completed"
	if !success {
		status = models.StateFailed
		message = "Withdraw failed, funds returned to wallet"
	}
	utils.LogInfo("Withdraw %s finished with status %s", withdraw.ID, status)

	if success {
		sendWithdrawReceipt(withdraw)
	}

	utils.Success(c, message, gin.H{
		"withdraw": gin.H{
			"id":            withdraw.ID,
			"amount_becoin": withdraw.AmountBecoin,
			"status":        status,
		},
	})
}

func sendWithdrawReceipt(withdraw *models.UserWithdraw) {
	var user models.User
	if err := config.DB.First(&user, "id = ?", withdraw.UserID).Error; err != nil {
		utils.LogError("Failed to load user %s for receipt: %v", withdraw.UserID, err)
		return
	}
	wallet, err := getWalletByUserID(config.DB, withdraw.UserID)
	if err != nil {
		utils.LogError("Failed to load wallet for receipt: %v", err)
		return
	}
	go utils.SendReceiptEmail(user.Email, "Withdraw completed",
		"Your payout was sent to your withdraw account.",
		withdraw.AmountBecoin.String(), wallet.Balance.String())
}

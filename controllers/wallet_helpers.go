package controllers

import (
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The wallet helpers are the only code allowed to touch a wallet balance. Every
// caller runs them inside its own database transaction; the helpers never open
// or commit one themselves.

// getWalletByUserID resolves a user's wallet without locking it.
func getWalletByUserID(db *gorm.DB, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.First(&wallet, "user_id = ?", userID).Error; err != nil {
		return nil, utils.NotFoundError("Wallet not found", err)
	}
	return &wallet, nil
}

// forUpdate adds a row lock on databases that support one. The sqlite test
// database serializes writers on the whole file, so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockWallet fetches a wallet row with an update lock held until commit.
func lockWallet(tx *gorm.DB, walletID string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := forUpdate(tx).First(&wallet, "id = ?", walletID).Error; err != nil {
		return nil, utils.NotFoundError("Wallet not found", err)
	}
	return &wallet, nil
}

// lockWalletPair locks two wallet rows in ascending id order so concurrent
// opposite-direction transfers cannot deadlock.
func lockWalletPair(tx *gorm.DB, firstID, secondID string) (*models.Wallet, *models.Wallet, error) {
	if firstID == secondID {
		return nil, nil, utils.NewAppError(400, "Cannot transfer to the same wallet", nil)
	}

	lowID, highID := firstID, secondID
	if highID < lowID {
		lowID, highID = highID, lowID
	}

	low, err := lockWallet(tx, lowID)
	if err != nil {
		return nil, nil, err
	}
	high, err := lockWallet(tx, highID)
	if err != nil {
		return nil, nil, err
	}

	if low.ID == firstID {
		return low, high, nil
	}
	return high, low, nil
}

// applyWalletDelta applies a balance delta to a locked wallet row and refuses
// any delta that would drive the balance negative.
func applyWalletDelta(tx *gorm.DB, wallet *models.Wallet, delta decimal.Decimal) error {
	newBalance := wallet.Balance.Add(delta)
	if newBalance.IsNegative() {
		return utils.ErrInsufficientFunds
	}

	if err := tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
		Update("balance", newBalance).Error; err != nil {
		return utils.WrapError(err, "failed to update wallet balance")
	}
	wallet.Balance = newBalance
	return nil
}

// lookupTransactionType resolves a transaction type catalog row by code.
func lookupTransactionType(db *gorm.DB, code string) (*models.TransactionType, error) {
	var t models.TransactionType
	if err := db.First(&t, "code = ?", code).Error; err != nil {
		return nil, utils.NotFoundError("Transaction type not found", err)
	}
	return &t, nil
}

// lookupTransactionState resolves a transaction state catalog row by code.
func lookupTransactionState(db *gorm.DB, code string) (*models.TransactionState, error) {
	var s models.TransactionState
	if err := db.First(&s, "code = ?", code).Error; err != nil {
		return nil, utils.NotFoundError("Transaction state not found", err)
	}
	return &s, nil
}

// recordTransaction writes one ledger entry. postBalance must be the owning
// wallet's balance after the mutation the entry documents.
func recordTransaction(tx *gorm.DB, walletID, typeCode, stateCode string, amount, postBalance decimal.Decimal, relatedWalletID, reference *string) (*models.Transaction, error) {
	txType, err := lookupTransactionType(tx, typeCode)
	if err != nil {
		return nil, err
	}
	txState, err := lookupTransactionState(tx, stateCode)
	if err != nil {
		return nil, err
	}

	transaction := models.Transaction{
		WalletID:        walletID,
		TypeID:          txType.ID,
		StateID:         txState.ID,
		Amount:          amount,
		PostBalance:     postBalance,
		RelatedWalletID: relatedWalletID,
		Reference:       reference,
	}
	if err := tx.Create(&transaction).Error; err != nil {
		return nil, utils.WrapError(err, "failed to record transaction")
	}
	return &transaction, nil
}

// setTransactionState moves a PENDING ledger entry to a terminal state and
// restamps its post-mutation balance. Terminal entries are immutable: the row
// is fetched under a lock and the flip is conditional on it still being
// PENDING, so two racing callbacks cannot both win.
func setTransactionState(tx *gorm.DB, transactionID, stateCode string, postBalance decimal.Decimal) error {
	var transaction models.Transaction
	if err := forUpdate(tx).Preload("State").First(&transaction, "id = ?", transactionID).Error; err != nil {
		return utils.NotFoundError("Transaction not found", err)
	}
	if transaction.State.Code != models.StatePending {
		return utils.ErrNotPending
	}

	state, err := lookupTransactionState(tx, stateCode)
	if err != nil {
		return err
	}
	return advanceWorkflowState(tx, &models.Transaction{}, transactionID, transaction.StateID,
		map[string]interface{}{
			"state_id":     state.ID,
			"post_balance": postBalance,
		})
}

// advanceWorkflowState flips a workflow row out of the state it was fetched
// in. The update is conditional on that state still holding, so when two
// callbacks race the loser affects zero rows and gets ErrNotPending instead
// of overwriting a terminal state.
func advanceWorkflowState(tx *gorm.DB, model interface{}, rowID, fromStateID string, updates map[string]interface{}) error {
	result := tx.Model(model).
		Where("id = ? AND state_id = ?", rowID, fromStateID).
		Updates(updates)
	if result.Error != nil {
		return utils.WrapError(result.Error, "failed to update workflow state")
	}
	if result.RowsAffected == 0 {
		return utils.ErrNotPending
	}
	return nil
}

package controllers

import (
	"net/http"
	"testing"

	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRechargeIsPendingAndDoesNotCredit(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	recharge, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-001", dec("10.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	// 10 USD at 0.05 USD per becoin is 200 becoin.
	assert.True(t, dec("200").Equal(recharge.AmountBecoin), "got %s", recharge.AmountBecoin)
	requireBalance(t, db, wallet.ID, "0.00")

	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TypeRecharge, entries[0].Type.Code)
	assert.Equal(t, models.StatePending, entries[0].State.Code)
	assert.True(t, dec("200").Equal(entries[0].Amount))
	require.NotNil(t, entries[0].Reference)
	assert.Equal(t, "BANK-REF-001", *entries[0].Reference)
}

func TestCompleteRechargeCreditsExactlyOnce(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	recharge, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-002", dec("10.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	tx = db.Begin()
	_, err = CompleteRecharge(tx, recharge.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	requireBalance(t, db, wallet.ID, "200.00")

	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StateCompleted, entries[0].State.Code)
	assert.True(t, dec("200").Equal(entries[0].PostBalance))

	// A repeated confirmation must be rejected and must not credit again.
	tx = db.Begin()
	_, err = CompleteRecharge(tx, recharge.ID)
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)
	requireBalance(t, db, wallet.ID, "200.00")
}

func TestFailRechargeLeavesBalanceUntouched(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "50.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	recharge, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-003", dec("10.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	tx = db.Begin()
	_, err = FailRecharge(tx, recharge.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	requireBalance(t, db, wallet.ID, "50.00")

	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StateFailed, entries[0].State.Code)

	// A failed recharge can never be completed afterwards.
	tx = db.Begin()
	_, err = CompleteRecharge(tx, recharge.ID)
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)
	requireBalance(t, db, wallet.ID, "50.00")
}

func TestCompletedRechargeCannotBeFailed(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	recharge, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-007", dec("10.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	tx = db.Begin()
	_, err = CompleteRecharge(tx, recharge.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)
	requireBalance(t, db, wallet.ID, "200.00")

	// A late failure callback must not reverse the credit or the states.
	tx = db.Begin()
	_, err = FailRecharge(tx, recharge.ID)
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)

	requireBalance(t, db, wallet.ID, "200.00")
	var reloaded models.RechargeTransfer
	require.NoError(t, db.Preload("State").First(&reloaded, "id = ?", recharge.ID).Error)
	assert.Equal(t, models.StateCompleted, reloaded.State.Code)
	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StateCompleted, entries[0].State.Code)
}

func TestRechargeReferenceUniqueIndexBacksUpPrecheck(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	first, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-008", dec("10.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	// A concurrent submission slips past the pre-check and hits the unique
	// index; the translated error is what maps to the duplicate conflict.
	dup := models.RechargeTransfer{
		UserID:           alice.ID,
		PaymentAccountID: account.ID,
		Reference:        "BANK-REF-008",
		AmountUSD:        first.AmountUSD,
		AmountBecoin:     first.AmountBecoin,
		StateID:          first.StateID,
		TransactionID:    first.TransactionID,
	}
	err = db.Create(&dup).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestRechargeDuplicateReferenceRejected(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUser(t, db, "alice", "0.00")
	bob, _ := createTestUser(t, db, "bob", "0.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	_, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-004", dec("10.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	// Same bank reference, even from another user, is a duplicate.
	tx = db.Begin()
	_, _, err = createRechargeTransfer(tx, bob.ID, account.ID, "BANK-REF-004", dec("5.00"))
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrDuplicateReference)
}

func TestRechargeHandlerRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)

	router := newTestRouter(alice)
	router.POST("/v1/recharges", InitiateRecharge)

	w := performRequest(t, router, "POST", "/v1/recharges", gin.H{
		"amount_usd":         "-10",
		"reference":          "BANK-REF-005",
		"payment_account_id": account.ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	requireBalance(t, db, wallet.ID, "0.00")
}

func TestRechargeCompletedHandlerRepeatedCallbackConflicts(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)

	tx := db.Begin()
	recharge, _, err := createRechargeTransfer(tx, alice.ID, account.ID, "BANK-REF-006", dec("2.00"))
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	router := newTestRouter(alice)
	router.PUT("/v1/admin/recharges/:id/completed", RechargeCompleted)

	w := performRequest(t, router, "PUT", "/v1/admin/recharges/"+recharge.ID+"/completed", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	requireBalance(t, db, wallet.ID, "40.00")

	w = performRequest(t, router, "PUT", "/v1/admin/recharges/"+recharge.ID+"/completed", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	requireBalance(t, db, wallet.ID, "40.00")
}

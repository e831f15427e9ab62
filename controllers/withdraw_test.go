package controllers

import (
	"net/http"
	"testing"

	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawDebitsImmediately(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "50.00")
	account := createTestWithdrawAccount(t, db, alice.ID)

	router := newTestRouter(alice)
	router.POST("/v1/withdraws", Withdraw)

	w := performRequest(t, router, "POST", "/v1/withdraws", gin.H{
		"amount":              "50",
		"withdraw_account_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	requireBalance(t, db, wallet.ID, "0.00")

	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TypeWithdraw, entries[0].Type.Code)
	assert.Equal(t, models.StatePending, entries[0].State.Code)
	assert.True(t, dec("50").Equal(entries[0].Amount))
	assert.True(t, dec("0").Equal(entries[0].PostBalance))

	var withdraw models.UserWithdraw
	require.NoError(t, db.Preload("State").First(&withdraw, "user_id = ?", alice.ID).Error)
	assert.Equal(t, models.StatePending, withdraw.State.Code)
	// 50 becoin at 0.05 USD per becoin is 2.50 USD.
	assert.True(t, dec("2.50").Equal(withdraw.AmountUSD), "got %s", withdraw.AmountUSD)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "10.00")
	account := createTestWithdrawAccount(t, db, alice.ID)

	router := newTestRouter(alice)
	router.POST("/v1/withdraws", Withdraw)

	w := performRequest(t, router, "POST", "/v1/withdraws", gin.H{
		"amount":              "40",
		"withdraw_account_id": account.ID,
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	requireBalance(t, db, wallet.ID, "10.00")

	var count int64
	require.NoError(t, db.Model(&models.UserWithdraw{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithdrawRejectsForeignAccount(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "50.00")
	bob, _ := createTestUser(t, db, "bob", "0.00")
	bobAccount := createTestWithdrawAccount(t, db, bob.ID)

	router := newTestRouter(alice)
	router.POST("/v1/withdraws", Withdraw)

	w := performRequest(t, router, "POST", "/v1/withdraws", gin.H{
		"amount":              "10",
		"withdraw_account_id": bobAccount.ID,
	})
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	requireBalance(t, db, wallet.ID, "50.00")
}

func TestFailWithdrawRestoresReservedFunds(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "50.00")
	account := createTestWithdrawAccount(t, db, alice.ID)

	router := newTestRouter(alice)
	router.POST("/v1/withdraws", Withdraw)
	w := performRequest(t, router, "POST", "/v1/withdraws", gin.H{
		"amount":              "50",
		"withdraw_account_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	requireBalance(t, db, wallet.ID, "0.00")

	var withdraw models.UserWithdraw
	require.NoError(t, db.First(&withdraw, "user_id = ?", alice.ID).Error)

	tx := db.Begin()
	_, err := FailWithdraw(tx, withdraw.ID, "Bank rejected the payout", "PAYOUT-001")
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	requireBalance(t, db, wallet.ID, "50.00")

	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StateFailed, entries[0].State.Code)
	assert.True(t, dec("50").Equal(entries[0].PostBalance))

	require.NoError(t, db.First(&withdraw, "id = ?", withdraw.ID).Error)
	assert.Equal(t, "Bank rejected the payout", withdraw.Observation)

	// A second failure callback must not re-credit.
	tx = db.Begin()
	_, err = FailWithdraw(tx, withdraw.ID, "again", "")
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)
	requireBalance(t, db, wallet.ID, "50.00")
}

func TestCompleteWithdrawKeepsDebit(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "80.00")
	account := createTestWithdrawAccount(t, db, alice.ID)

	router := newTestRouter(alice)
	router.POST("/v1/withdraws", Withdraw)
	w := performRequest(t, router, "POST", "/v1/withdraws", gin.H{
		"amount":              "30",
		"withdraw_account_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var withdraw models.UserWithdraw
	require.NoError(t, db.First(&withdraw, "user_id = ?", alice.ID).Error)

	tx := db.Begin()
	_, err := CompleteWithdraw(tx, withdraw.ID, "Payout sent", "PAYOUT-002")
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	requireBalance(t, db, wallet.ID, "50.00")

	entries := walletEntries(t, db, wallet.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StateCompleted, entries[0].State.Code)

	// A completed withdraw cannot be failed back into the wallet.
	tx = db.Begin()
	_, err = FailWithdraw(tx, withdraw.ID, "", "")
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)
	requireBalance(t, db, wallet.ID, "50.00")
}

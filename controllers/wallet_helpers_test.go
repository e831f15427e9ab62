package controllers

import (
	"testing"

	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two callbacks racing the same PENDING row both fetch it before either
// commits; the guarded update makes the loser affect zero rows instead of
// overwriting the winner's terminal state.
func TestWorkflowStateFlipRejectsLoser(t *testing.T) {
	db := setupTestDB(t)
	_, wallet := createTestUser(t, db, "alice", "0.00")

	tx := db.Begin()
	transaction, err := recordTransaction(tx, wallet.ID, models.TypeRecharge, models.StatePending,
		dec("10"), dec("0"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	pendingID := transaction.StateID
	var completed, failed models.TransactionState
	require.NoError(t, db.First(&completed, "code = ?", models.StateCompleted).Error)
	require.NoError(t, db.First(&failed, "code = ?", models.StateFailed).Error)

	// The winner flips PENDING to COMPLETED.
	tx = db.Begin()
	err = advanceWorkflowState(tx, &models.Transaction{}, transaction.ID, pendingID,
		map[string]interface{}{"state_id": completed.ID})
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	// The loser still holds its stale PENDING view of the row.
	tx = db.Begin()
	err = advanceWorkflowState(tx, &models.Transaction{}, transaction.ID, pendingID,
		map[string]interface{}{"state_id": failed.ID})
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)

	var reloaded models.Transaction
	require.NoError(t, db.Preload("State").First(&reloaded, "id = ?", transaction.ID).Error)
	assert.Equal(t, models.StateCompleted, reloaded.State.Code)
}

func TestSetTransactionStateTerminalIsImmutable(t *testing.T) {
	db := setupTestDB(t)
	_, wallet := createTestUser(t, db, "alice", "0.00")

	tx := db.Begin()
	transaction, err := recordTransaction(tx, wallet.ID, models.TypeRecharge, models.StatePending,
		dec("10"), dec("0"), nil, nil)
	require.NoError(t, err)
	require.NoError(t, setTransactionState(tx, transaction.ID, models.StateCompleted, dec("10")))
	require.NoError(t, tx.Commit().Error)

	tx = db.Begin()
	err = setTransactionState(tx, transaction.ID, models.StateFailed, dec("0"))
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)

	var reloaded models.Transaction
	require.NoError(t, db.Preload("State").First(&reloaded, "id = ?", transaction.ID).Error)
	assert.Equal(t, models.StateCompleted, reloaded.State.Code)
	assert.True(t, dec("10").Equal(reloaded.PostBalance))
}

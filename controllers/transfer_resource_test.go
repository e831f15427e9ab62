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

func createTestResource(t *testing.T, db *gorm.DB, name, unitPriceUSD string) models.Resource {
	t.Helper()

	resource := models.Resource{
		Name:         name,
		UnitPriceUSD: dec(unitPriceUSD),
		IsActive:     true,
	}
	require.NoError(t, db.Create(&resource).Error)
	return resource
}

func TestPurchaseResourceByTransferCreatesPendingRecord(t *testing.T) {
	db := setupTestDB(t)
	alice, wallet := createTestUser(t, db, "alice", "100.00")
	account := createTestPaymentAccount(t, db)
	resource := createTestResource(t, db, "Compost bin", "12.50")

	router := newTestRouter(alice)
	router.POST("/v1/user-resources/purchase-transfer", PurchaseResourceByTransfer)

	w := performRequest(t, router, "POST", "/v1/user-resources/purchase-transfer", gin.H{
		"resource_id":        resource.ID,
		"quantity":           3,
		"reference":          "BANK-RES-001",
		"payment_account_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var transfer models.TransferResource
	require.NoError(t, db.Preload("State").First(&transfer, "reference = ?", "BANK-RES-001").Error)
	assert.Equal(t, models.StatePending, transfer.State.Code)
	assert.Equal(t, 3, transfer.Quantity)
	assert.True(t, dec("37.50").Equal(transfer.AmountUSD), "got %s", transfer.AmountUSD)

	// A resource purchase is not a wallet movement.
	requireBalance(t, db, wallet.ID, "100.00")
	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&models.UserResource{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteTransferResourceMintsHoldingOnce(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)
	resource := createTestResource(t, db, "Compost bin", "12.50")

	router := newTestRouter(alice)
	router.POST("/v1/user-resources/purchase-transfer", PurchaseResourceByTransfer)
	w := performRequest(t, router, "POST", "/v1/user-resources/purchase-transfer", gin.H{
		"resource_id":        resource.ID,
		"quantity":           2,
		"reference":          "BANK-RES-002",
		"payment_account_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var transfer models.TransferResource
	require.NoError(t, db.First(&transfer, "reference = ?", "BANK-RES-002").Error)

	tx := db.Begin()
	_, err := CompleteTransferResource(tx, transfer.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	var holdings []models.UserResource
	require.NoError(t, db.Where("user_id = ?", alice.ID).Find(&holdings).Error)
	require.Len(t, holdings, 1)
	assert.Equal(t, resource.ID, holdings[0].ResourceID)
	assert.Equal(t, 2, holdings[0].Quantity)

	// Repeated confirmation mints nothing.
	tx = db.Begin()
	_, err = CompleteTransferResource(tx, transfer.ID)
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)

	require.NoError(t, db.Where("user_id = ?", alice.ID).Find(&holdings).Error)
	assert.Len(t, holdings, 1)
}

func TestFailTransferResourceMintsNothing(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)
	resource := createTestResource(t, db, "Compost bin", "12.50")

	router := newTestRouter(alice)
	router.POST("/v1/user-resources/purchase-transfer", PurchaseResourceByTransfer)
	w := performRequest(t, router, "POST", "/v1/user-resources/purchase-transfer", gin.H{
		"resource_id":        resource.ID,
		"quantity":           1,
		"reference":          "BANK-RES-003",
		"payment_account_id": account.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var transfer models.TransferResource
	require.NoError(t, db.First(&transfer, "reference = ?", "BANK-RES-003").Error)

	tx := db.Begin()
	_, err := FailTransferResource(tx, transfer.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit().Error)

	require.NoError(t, db.Preload("State").First(&transfer, "id = ?", transfer.ID).Error)
	assert.Equal(t, models.StateFailed, transfer.State.Code)

	var count int64
	require.NoError(t, db.Model(&models.UserResource{}).Count(&count).Error)
	assert.Zero(t, count)

	// A failed purchase cannot be completed later.
	tx = db.Begin()
	_, err = CompleteTransferResource(tx, transfer.ID)
	tx.Rollback()
	require.ErrorIs(t, err, utils.ErrNotPending)
}

func TestPurchaseResourceDuplicateReference(t *testing.T) {
	db := setupTestDB(t)
	alice, _ := createTestUser(t, db, "alice", "0.00")
	account := createTestPaymentAccount(t, db)
	resource := createTestResource(t, db, "Compost bin", "12.50")

	router := newTestRouter(alice)
	router.POST("/v1/user-resources/purchase-transfer", PurchaseResourceByTransfer)

	body := gin.H{
		"resource_id":        resource.ID,
		"quantity":           1,
		"reference":          "BANK-RES-004",
		"payment_account_id": account.ID,
	}
	w := performRequest(t, router, "POST", "/v1/user-resources/purchase-transfer", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = performRequest(t, router, "POST", "/v1/user-resources/purchase-transfer", body)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var count int64
	require.NoError(t, db.Model(&models.TransferResource{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

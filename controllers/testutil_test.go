package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory sqlite database, runs the migrations and
// catalog seed, and points the package globals at it for the duration of the
// test. Each test gets its own database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes
	// access the way sqlite expects.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.MigrateAndSeed(db))

	config.DB = db
	config.App = &config.Config{
		BecoinPriceUSD: dec("0.05"),
	}
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// createTestUser creates a user with a wallet holding the given balance.
func createTestUser(t *testing.T, db *gorm.DB, username, balance string) (models.User, models.Wallet) {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
	}
	require.NoError(t, db.Create(&user).Error)

	wallet := models.Wallet{
		UserID:  user.ID,
		Balance: dec(balance),
	}
	require.NoError(t, db.Create(&wallet).Error)
	return user, wallet
}

func createTestPaymentAccount(t *testing.T, db *gorm.DB) models.PaymentAccount {
	t.Helper()

	account := models.PaymentAccount{
		Bank:     "Test Bank",
		Number:   "0001234567",
		Holder:   "Becoin Platform",
		IsActive: true,
	}
	require.NoError(t, db.Create(&account).Error)
	return account
}

func createTestWithdrawAccount(t *testing.T, db *gorm.DB, userID string) models.WithdrawAccount {
	t.Helper()

	account := models.WithdrawAccount{
		UserID:   userID,
		Bank:     "Test Bank",
		Number:   "0007654321",
		Holder:   "Test User",
		IsActive: true,
	}
	require.NoError(t, db.Create(&account).Error)
	return account
}

func createTestEventPass(t *testing.T, db *gorm.DB, creatorID, price string, limit int) models.EventPass {
	t.Helper()

	event := models.EventPass{
		CreatorUserID:   creatorID,
		Name:            "Test Event",
		PriceBecoin:     dec(price),
		LimitTickets:    limit,
		IsRefundable:    true,
		RefundDaysLimit: 1,
		EventDate:       time.Now().AddDate(0, 0, 30),
		IsActive:        true,
	}
	require.NoError(t, db.Create(&event).Error)
	return event
}

// requireBalance reloads a wallet and asserts its balance.
func requireBalance(t *testing.T, db *gorm.DB, walletID, want string) {
	t.Helper()

	var wallet models.Wallet
	require.NoError(t, db.First(&wallet, "id = ?", walletID).Error)
	require.True(t, dec(want).Equal(wallet.Balance),
		"wallet %s balance: want %s, got %s", walletID, want, wallet.Balance)
}

// walletEntries loads a wallet's ledger entries oldest first, with the type
// and state catalogs preloaded.
func walletEntries(t *testing.T, db *gorm.DB, walletID string) []models.Transaction {
	t.Helper()

	var entries []models.Transaction
	err := db.Preload("Type").Preload("State").
		Where("wallet_id = ?", walletID).
		Order("created_at asc").
		Find(&entries).Error
	require.NoError(t, err)
	return entries
}

// newTestRouter builds a gin engine with the given user preloaded into the
// request context, standing in for the auth middleware.
func newTestRouter(user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Next()
	})
	return router
}

func performRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

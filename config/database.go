package config

import (
	"fmt"
	"log"

	"github.com/becoinhq/becoin-backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDB initializes the database connection and performs migrations
func InitDB() {
	config := App
	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			log.Fatal("Failed to load config:", err)
		}
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	DB = db

	if err := MigrateAndSeed(DB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
}

// MigrateAndSeed migrates the ledger schema and seeds the transaction type and
// state catalogs. It is safe to run repeatedly.
func MigrateAndSeed(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.PaymentAccount{},
		&models.WithdrawAccount{},
		&models.Wallet{},
		&models.TransactionType{},
		&models.TransactionState{},
		&models.Transaction{},
		&models.RechargeTransfer{},
		&models.UserWithdraw{},
		&models.EventPass{},
		&models.UserEventPass{},
		&models.Resource{},
		&models.TransferResource{},
		&models.UserResource{},
		&models.AmountToCharge{},
	)
	if err != nil {
		return err
	}
	return seedLedgerCatalogs(db)
}

func seedLedgerCatalogs(db *gorm.DB) error {
	states := []string{
		models.StatePending,
		models.StateCompleted,
		models.StateFailed,
	}
	for _, code := range states {
		var state models.TransactionState
		err := db.Where("code = ?", code).
			FirstOrCreate(&state, models.TransactionState{Code: code}).Error
		if err != nil {
			return fmt.Errorf("seed transaction state %s: %w", code, err)
		}
	}

	types := map[string]string{
		models.TypeRecharge:            "Becoin recharge from an external bank transfer",
		models.TypeTransferSend:        "Becoin sent to another wallet",
		models.TypeTransferReceived:    "Becoin received from another wallet",
		models.TypePurchaseEventPass:   "Event pass purchased",
		models.TypeSaleEventPass:       "Event pass sold",
		models.TypeRefundEventPass:     "Event pass refunded to buyer",
		models.TypeDevolutionEventPass: "Event pass sale returned by organizer",
		models.TypeWithdraw:            "Becoin withdrawn to an external account",
	}
	for code, description := range types {
		var t models.TransactionType
		err := db.Where("code = ?", code).
			FirstOrCreate(&t, models.TransactionType{Code: code, Description: description}).Error
		if err != nil {
			return fmt.Errorf("seed transaction type %s: %w", code, err)
		}
	}
	return nil
}

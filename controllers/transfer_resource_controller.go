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

// PurchaseResourceByTransfer registers a bank-transfer purchase of a resource.
// This is a purchase record, not a wallet movement: no ledger entry is written
// and no balance changes. Confirmation mints the holding.
func PurchaseResourceByTransfer(c *gin.Context) {
	utils.LogInfo("PurchaseResourceByTransfer called")
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
		ResourceID       string `json:"resource_id" binding:"required"`
		Quantity         int    `json:"quantity" binding:"required,min=1"`
		Reference        string `json:"reference" binding:"required"`
		PaymentAccountID string `json:"payment_account_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid resource purchase request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. resource_id, quantity, reference and payment_account_id are required", err.Error())
		return
	}
	utils.LogDebug("Resource purchase - User: %s, Resource: %s, Quantity: %d", user.ID, req.ResourceID, req.Quantity)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var resource models.Resource
	if err := tx.First(&resource, "id = ? AND is_active = ?", req.ResourceID, true).Error; err != nil {
		tx.Rollback()
		utils.LogError("Resource %s not found: %v", req.ResourceID, err)
		utils.NotFound(c, "Resource not found")
		return
	}

	var account models.PaymentAccount
	if err := tx.First(&account, "id = ? AND is_active = ?", req.PaymentAccountID, true).Error; err != nil {
		tx.Rollback()
		utils.LogError("Payment account %s not found: %v", req.PaymentAccountID, err)
		utils.NotFound(c, "Payment account not found")
		return
	}

	var existing models.TransferResource
	err := tx.First(&existing, "reference = ?", req.Reference).Error
	if err == nil {
		tx.Rollback()
		utils.LogError("Duplicate resource transfer reference %s", req.Reference)
		utils.RespondError(c, utils.ErrDuplicateReference)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		utils.InternalServerError(c, "Failed to check transfer reference", nil)
		return
	}

	pending, err := lookupTransactionState(tx, models.StatePending)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, err)
		return
	}

	transfer := models.TransferResource{
		UserID:           user.ID,
		ResourceID:       resource.ID,
		PaymentAccountID: account.ID,
		Reference:        req.Reference,
		Quantity:         req.Quantity,
		AmountUSD:        resource.UnitPriceUSD.Mul(decimal.NewFromInt(int64(req.Quantity))),
		StateID:          pending.ID,
	}
	if err := tx.Create(&transfer).Error; err != nil {
		tx.Rollback()
		utils.LogError("Failed to create resource transfer for user %s: %v", user.ID, err)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondError(c, utils.ErrDuplicateReference)
			return
		}
		utils.InternalServerError(c, "Failed to create resource transfer", nil)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit resource transfer for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit resource transfer", nil)
		return
	}
	utils.LogInfo("Resource transfer %s created for user %s: %d x %s", transfer.ID, user.ID, transfer.Quantity, resource.Name)

	utils.Created(c, "Resource purchase registered, pending bank confirmation", gin.H{
		"transfer_resource": gin.H{
			"id":         transfer.ID,
			"resource":   resource.Name,
			"quantity":   transfer.Quantity,
			"amount_usd": transfer.AmountUSD,
			"reference":  transfer.Reference,
			"status":     models.StatePending,
		},
	})
}

// CompleteTransferResource confirms a pending resource purchase inside the
// caller's database transaction and mints the buyer's holding.
func CompleteTransferResource(tx *gorm.DB, transferID string) (*models.TransferResource, error) {
	var transfer models.TransferResource
	if err := forUpdate(tx).Preload("State").First(&transfer, "id = ?", transferID).Error; err != nil {
		return nil, utils.NotFoundError("Resource transfer not found", err)
	}
	if transfer.State.Code != models.StatePending {
		return nil, utils.ErrNotPending
	}

	// Win the state flip before minting: a caller that lost the race gets
	// ErrNotPending and creates nothing.
	completed, err := lookupTransactionState(tx, models.StateCompleted)
	if err != nil {
		return nil, err
	}
	err = advanceWorkflowState(tx, &models.TransferResource{}, transfer.ID, transfer.StateID,
		map[string]interface{}{"state_id": completed.ID})
	if err != nil {
		return nil, err
	}

	holding := models.UserResource{
		UserID:     transfer.UserID,
		ResourceID: transfer.ResourceID,
		Quantity:   transfer.Quantity,
	}
	if err := tx.Create(&holding).Error; err != nil {
		return nil, utils.WrapError(err, "failed to mint resource holding")
	}
	return &transfer, nil
}

// FailTransferResource marks a pending resource purchase FAILED inside the
// caller's database transaction. Nothing else changes.
func FailTransferResource(tx *gorm.DB, transferID string) (*models.TransferResource, error) {
	var transfer models.TransferResource
	if err := forUpdate(tx).Preload("State").First(&transfer, "id = ?", transferID).Error; err != nil {
		return nil, utils.NotFoundError("Resource transfer not found", err)
	}
	if transfer.State.Code != models.StatePending {
		return nil, utils.ErrNotPending
	}

	failed, err := lookupTransactionState(tx, models.StateFailed)
	if err != nil {
		return nil, err
	}
	err = advanceWorkflowState(tx, &models.TransferResource{}, transfer.ID, transfer.StateID,
		map[string]interface{}{"state_id": failed.ID})
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

// TransferResourceCompleted confirms the bank transfer for a resource purchase.
func TransferResourceCompleted(c *gin.Context) {
	utils.LogInfo("TransferResourceCompleted called")
	finishTransferResource(c, true)
}

// TransferResourceFailed records a rejected or missing bank transfer.
func TransferResourceFailed(c *gin.Context) {
	utils.LogInfo("TransferResourceFailed called")
	finishTransferResource(c, false)
}

func finishTransferResource(c *gin.Context, success bool) {
	transferID := c.Param("id")

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var transfer *models.TransferResource
	var err error
	if success {
		transfer, err = CompleteTransferResource(tx, transferID)
	} else {
		transfer, err = FailTransferResource(tx, transferID)
	}
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to finish resource transfer %s: %v", transferID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit resource transfer %s: %v", transferID, err)
		utils.InternalServerError(c, "Failed to commit resource transfer", nil)
		return
	}

	status := models.StateCompleted
	message := "Resource purchase completed, holding minted"
	if !success {
		status = models.StateFailed
		message = "Resource purchase marked as failed"
	}
	utils.LogInfo("Resource transfer %s finished with status %s", transfer.ID, status)

	utils.Success(c, message, gin.H{
		"transfer_resource": gin.H{
			"id":        transfer.ID,
			"reference": transfer.Reference,
			"quantity":  transfer.Quantity,
			"status":    status,
		},
	})
}

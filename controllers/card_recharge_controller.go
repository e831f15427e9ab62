package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"
)

// InitiateCardRecharge starts a card-funded recharge through the payment
// gateway. A gateway order is created first, then the same PENDING recharge
// rows as the bank flow, keyed by the gateway order id.
func InitiateCardRecharge(c *gin.Context) {
	utils.LogInfo("InitiateCardRecharge called")
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
		PaymentAccountID string          `json:"payment_account_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid card recharge request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. amount_usd and payment_account_id are required", err.Error())
		return
	}
	if !req.AmountUSD.IsPositive() {
		utils.RespondError(c, utils.ErrInvalidAmount)
		return
	}

	// Round to the currency's minor unit first so the gateway order and the
	// stored recharge amount can never disagree on sub-cent input.
	amountUSD := req.AmountUSD.RoundBank(2)
	amountCents := usdToCents(amountUSD)
	client := razorpay.NewClient(config.App.RazorpayKey, config.App.RazorpaySecret)
	orderData := map[string]interface{}{
		"amount":          amountCents,
		"currency":        "USD",
		"receipt":         "recharge_" + user.ID,
		"payment_capture": 1,
	}

	order, err := client.Order.Create(orderData, nil)
	if err != nil {
		utils.LogError("Failed to create gateway order for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create gateway order", nil)
		return
	}
	orderID := fmt.Sprintf("%v", order["id"])
	utils.LogDebug("Gateway order %s created for user %s", orderID, user.ID)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	recharge, wallet, err := createRechargeTransfer(tx, user.ID, req.PaymentAccountID, orderID, amountUSD)
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to create card recharge for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit card recharge for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit card recharge", nil)
		return
	}
	utils.LogInfo("Card recharge %s initiated for user %s via order %s", recharge.ID, user.ID, orderID)

	utils.Created(c, "Card recharge order created", gin.H{
		"order_id": orderID,
		"key":      config.App.RazorpayKey,
		"recharge": gin.H{
			"id":            recharge.ID,
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

// VerifyCardRecharge validates the gateway callback signature and, when it
// checks out, drives the same completion path as a confirmed bank transfer.
func VerifyCardRecharge(c *gin.Context) {
	utils.LogInfo("VerifyCardRecharge called")

	var req struct {
		OrderID   string `json:"order_id" binding:"required"`
		PaymentID string `json:"payment_id" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid card verification request: %v", err)
		utils.BadRequest(c, "Invalid request", err.Error())
		return
	}

	if !verifyGatewaySignature(req.OrderID, req.PaymentID, req.Signature, config.App.RazorpaySecret) {
		utils.LogError("Gateway signature mismatch for order %s", req.OrderID)
		utils.BadRequest(c, "Payment verification failed", gin.H{"retry": true})
		return
	}
	utils.LogDebug("Gateway signature verified for order %s", req.OrderID)

	var recharge models.RechargeTransfer
	if err := config.DB.First(&recharge, "reference = ?", req.OrderID).Error; err != nil {
		utils.LogError("No recharge found for gateway order %s: %v", req.OrderID, err)
		utils.NotFound(c, "Recharge not found for this order")
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	completed, err := CompleteRecharge(tx, recharge.ID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to complete card recharge %s: %v", recharge.ID, err)
		utils.RespondError(c, err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit card recharge %s: %v", recharge.ID, err)
		utils.InternalServerError(c, "Failed to commit card recharge", nil)
		return
	}
	utils.LogInfo("Card recharge %s completed via payment %s", completed.ID, req.PaymentID)

	sendRechargeReceipt(completed)

	utils.Success(c, "Money added to wallet successfully", gin.H{
		"recharge": gin.H{
			"id":            completed.ID,
			"amount_becoin": completed.AmountBecoin,
			"status":        models.StateCompleted,
		},
	})
}

// usdToCents converts a USD amount to the gateway's minor unit. Half-to-even
// at two fraction digits, same as every other USD boundary.
func usdToCents(amountUSD decimal.Decimal) int64 {
	return amountUSD.RoundBank(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// verifyGatewaySignature checks the HMAC-SHA256 the gateway signs its
// callbacks with.
func verifyGatewaySignature(orderID, paymentID, signature, secret string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

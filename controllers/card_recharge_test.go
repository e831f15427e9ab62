package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUSDToCentsRoundsAtTheBoundary(t *testing.T) {
	assert.EqualValues(t, 1000, usdToCents(dec("10.00")))
	assert.EqualValues(t, 999, usdToCents(dec("9.99")))

	// Sub-cent input is settled half-to-even before the minor-unit
	// conversion, so the order matches the stored recharge amount.
	assert.EqualValues(t, 1000, usdToCents(dec("10.005")))
	assert.EqualValues(t, 1002, usdToCents(dec("10.015")))
	assert.EqualValues(t, 0, usdToCents(dec("0.004")))
}

func TestVerifyGatewaySignature(t *testing.T) {
	secret := "test-secret"
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("order_123|pay_456"))
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, verifyGatewaySignature("order_123", "pay_456", signature, secret))
	assert.False(t, verifyGatewaySignature("order_123", "pay_456", signature, "other-secret"))
	assert.False(t, verifyGatewaySignature("order_999", "pay_456", signature, secret))
	assert.False(t, verifyGatewaySignature("order_123", "pay_456", "tampered", secret))
}

package controllers

import (
	"time"

	"github.com/becoinhq/becoin-backend/config"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"github.com/gin-gonic/gin"
)

// PurchaseEventPass sells one ticket: debit buyer, credit organizer, two
// mirrored ledger entries, ticket row with a price snapshot and the inventory
// counter bump. All five effects commit together or not at all.
func PurchaseEventPass(c *gin.Context) {
	utils.LogInfo("PurchaseEventPass called")
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
	eventPassID := c.Param("id")

	var req struct {
		HolderName     string `json:"holder_name" binding:"required"`
		HolderPhone    string `json:"holder_phone"`
		HolderDocument string `json:"holder_document"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError("Invalid purchase request from user %s: %v", user.ID, err)
		utils.BadRequest(c, "Invalid request. holder_name is required", err.Error())
		return
	}
	utils.LogDebug("Event pass purchase - User: %s, Event pass: %s", user.ID, eventPassID)

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	// The event row is locked alongside the wallets: the sold counter is hot
	// under concurrent sales of the same event.
	var event models.EventPass
	if err := forUpdate(tx).First(&event, "id = ? AND is_active = ?", eventPassID, true).Error; err != nil {
		tx.Rollback()
		utils.LogError("Event pass %s not found: %v", eventPassID, err)
		utils.NotFound(c, "Event pass not found")
		return
	}

	if event.SoldTickets >= event.LimitTickets {
		tx.Rollback()
		utils.LogError("Event pass %s sold out (%d/%d)", event.ID, event.SoldTickets, event.LimitTickets)
		utils.RespondError(c, utils.ErrInventoryExhausted)
		return
	}

	buyerWallet, err := getWalletByUserID(tx, user.ID)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, err)
		return
	}
	organizerWallet, err := getWalletByUserID(tx, event.CreatorUserID)
	if err != nil {
		tx.Rollback()
		utils.LogError("Organizer wallet not found for event %s: %v", event.ID, err)
		utils.RespondError(c, err)
		return
	}

	_, err = transferBetweenWallets(tx, buyerWallet.ID, organizerWallet.ID, event.PriceBecoin,
		models.TypePurchaseEventPass, models.TypeSaleEventPass, nil)
	if err != nil {
		tx.Rollback()
		utils.LogError("Purchase transfer failed for user %s: %v", user.ID, err)
		utils.RespondError(c, err)
		return
	}

	ticket := models.UserEventPass{
		UserID:         user.ID,
		EventPassID:    event.ID,
		HolderName:     req.HolderName,
		HolderPhone:    req.HolderPhone,
		HolderDocument: req.HolderDocument,
		PricePaid:      event.PriceBecoin,
	}
	if err := tx.Create(&ticket).Error; err != nil {
		tx.Rollback()
		utils.LogError("Failed to create ticket for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to create ticket", nil)
		return
	}

	if err := tx.Model(&models.EventPass{}).Where("id = ?", event.ID).
		Update("sold_tickets", event.SoldTickets+1).Error; err != nil {
		tx.Rollback()
		utils.LogError("Failed to update sold tickets for event %s: %v", event.ID, err)
		utils.InternalServerError(c, "Failed to update event inventory", nil)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit purchase for user %s: %v", user.ID, err)
		utils.InternalServerError(c, "Failed to commit purchase", nil)
		return
	}
	utils.LogInfo("Ticket %s sold for event %s to user %s at %s becoin", ticket.ID, event.ID, user.ID, ticket.PricePaid)

	utils.Created(c, "Event pass purchased successfully", gin.H{
		"ticket": gin.H{
			"id":          ticket.ID,
			"event_pass":  event.Name,
			"holder_name": ticket.HolderName,
			"price_paid":  ticket.PricePaid,
		},
	})
}

// RefundEventPass reverses a ticket purchase if the event's refund policy still
// allows it: credit buyer, debit organizer, decrement the sold counter and
// retire the ticket.
func RefundEventPass(c *gin.Context) {
	utils.LogInfo("RefundEventPass called")
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
	ticketID := c.Param("id")

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var ticket models.UserEventPass
	if err := forUpdate(tx).First(&ticket, "id = ? AND user_id = ?", ticketID, user.ID).Error; err != nil {
		tx.Rollback()
		utils.LogError("Ticket %s not found for user %s: %v", ticketID, user.ID, err)
		utils.NotFound(c, "Ticket not found")
		return
	}

	if ticket.IsConsumed {
		tx.Rollback()
		utils.LogError("Refund rejected, ticket %s already consumed", ticket.ID)
		utils.RespondError(c, utils.ErrAlreadyConsumed)
		return
	}
	if ticket.IsRefunded {
		tx.Rollback()
		utils.LogError("Refund rejected, ticket %s already refunded", ticket.ID)
		utils.RespondError(c, utils.ErrAlreadyRefunded)
		return
	}

	var event models.EventPass
	if err := forUpdate(tx).First(&event, "id = ?", ticket.EventPassID).Error; err != nil {
		tx.Rollback()
		utils.LogError("Event pass %s not found: %v", ticket.EventPassID, err)
		utils.NotFound(c, "Event pass not found")
		return
	}

	// Refunds close refund_days_limit days before the event starts.
	refundDeadline := event.EventDate.AddDate(0, 0, -event.RefundDaysLimit)
	if !event.IsRefundable || time.Now().After(refundDeadline) {
		tx.Rollback()
		utils.LogError("Refund window expired for ticket %s (event %s)", ticket.ID, event.ID)
		utils.RespondError(c, utils.ErrRefundWindowExpired)
		return
	}

	buyerWallet, err := getWalletByUserID(tx, ticket.UserID)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, err)
		return
	}
	organizerWallet, err := getWalletByUserID(tx, event.CreatorUserID)
	if err != nil {
		tx.Rollback()
		utils.RespondError(c, err)
		return
	}

	if organizerWallet.Balance.LessThan(ticket.PricePaid) {
		tx.Rollback()
		utils.LogError("Organizer wallet %s cannot cover refund of %s", organizerWallet.ID, ticket.PricePaid)
		utils.RespondError(c, utils.ErrInsufficientOrganizerFunds)
		return
	}

	_, err = transferBetweenWallets(tx, organizerWallet.ID, buyerWallet.ID, ticket.PricePaid,
		models.TypeDevolutionEventPass, models.TypeRefundEventPass, nil)
	if err != nil {
		tx.Rollback()
		utils.LogError("Refund transfer failed for ticket %s: %v", ticket.ID, err)
		utils.RespondError(c, err)
		return
	}

	soldTickets := event.SoldTickets - 1
	if soldTickets < 0 {
		soldTickets = 0
	}
	if err := tx.Model(&models.EventPass{}).Where("id = ?", event.ID).
		Update("sold_tickets", soldTickets).Error; err != nil {
		tx.Rollback()
		utils.LogError("Failed to update sold tickets for event %s: %v", event.ID, err)
		utils.InternalServerError(c, "Failed to update event inventory", nil)
		return
	}

	now := time.Now()
	err = tx.Model(&models.UserEventPass{}).Where("id = ?", ticket.ID).
		Updates(map[string]interface{}{
			"is_refunded": true,
			"is_active":   false,
			"refunded_at": now,
		}).Error
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to update ticket %s: %v", ticket.ID, err)
		utils.InternalServerError(c, "Failed to update ticket", nil)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit refund for ticket %s: %v", ticket.ID, err)
		utils.InternalServerError(c, "Failed to commit refund", nil)
		return
	}
	utils.LogInfo("Ticket %s refunded, %s becoin returned to user %s", ticket.ID, ticket.PricePaid, user.ID)

	utils.Success(c, "Event pass refunded successfully", gin.H{
		"ticket": gin.H{
			"id":          ticket.ID,
			"price_paid":  ticket.PricePaid,
			"refunded_at": now,
		},
	})
}

// ConsumeEventPass redeems a ticket at the point of sale. No balance moves, but
// the check-and-set still runs inside a database transaction so concurrent
// redemptions of the same ticket cannot both succeed.
func ConsumeEventPass(c *gin.Context) {
	utils.LogInfo("ConsumeEventPass called")
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

	ticketID := c.Query("user_eventpass_id")
	eventPassID := c.Query("eventpass_id")
	walletID := c.Query("wallet_id")
	if ticketID == "" || eventPassID == "" || walletID == "" {
		utils.BadRequest(c, "user_eventpass_id, eventpass_id and wallet_id are required", nil)
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		utils.LogError("Failed to begin transaction: %v", tx.Error)
		utils.InternalServerError(c, "Failed to begin transaction", nil)
		return
	}

	var ticket models.UserEventPass
	if err := forUpdate(tx).First(&ticket, "id = ? AND event_pass_id = ?", ticketID, eventPassID).Error; err != nil {
		tx.Rollback()
		utils.LogError("Ticket %s not found for event %s: %v", ticketID, eventPassID, err)
		utils.NotFound(c, "Ticket not found")
		return
	}

	var event models.EventPass
	if err := tx.First(&event, "id = ?", ticket.EventPassID).Error; err != nil {
		tx.Rollback()
		utils.LogError("Event pass %s not found: %v", ticket.EventPassID, err)
		utils.NotFound(c, "Event pass not found")
		return
	}

	// Only the organizer's own wallet may validate tickets for its event, and
	// the wallet presented must belong to the authenticated operator.
	var wallet models.Wallet
	if err := tx.First(&wallet, "id = ?", walletID).Error; err != nil {
		tx.Rollback()
		utils.LogError("Wallet %s not found: %v", walletID, err)
		utils.NotFound(c, "Wallet not found")
		return
	}
	if wallet.UserID != event.CreatorUserID || wallet.UserID != user.ID {
		tx.Rollback()
		utils.LogError("Wallet %s is not the organizer wallet for event %s", walletID, event.ID)
		utils.Forbidden(c, "This wallet cannot validate tickets for this event")
		return
	}

	if !ticket.IsActive {
		tx.Rollback()
		c.JSON(200, gin.H{"success": false, "message": "Ticket is no longer active"})
		return
	}
	if ticket.IsConsumed {
		tx.Rollback()
		utils.LogError("Ticket %s already consumed", ticket.ID)
		utils.RespondError(c, utils.ErrAlreadyConsumed)
		return
	}
	if ticket.IsRefunded {
		tx.Rollback()
		utils.LogError("Ticket %s already refunded", ticket.ID)
		utils.RespondError(c, utils.ErrAlreadyRefunded)
		return
	}

	now := time.Now()
	err := tx.Model(&models.UserEventPass{}).Where("id = ?", ticket.ID).
		Updates(map[string]interface{}{
			"is_consumed": true,
			"redeemed_at": now,
		}).Error
	if err != nil {
		tx.Rollback()
		utils.LogError("Failed to consume ticket %s: %v", ticket.ID, err)
		utils.InternalServerError(c, "Failed to consume ticket", nil)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.LogError("Failed to commit ticket consumption %s: %v", ticket.ID, err)
		utils.InternalServerError(c, "Failed to commit ticket consumption", nil)
		return
	}
	utils.LogInfo("Ticket %s consumed for event %s", ticket.ID, event.ID)

	c.JSON(200, gin.H{
		"success": true,
		"message": "Ticket redeemed successfully",
		"ticket": gin.H{
			"id":          ticket.ID,
			"holder_name": ticket.HolderName,
			"event_pass":  event.Name,
			"redeemed_at": now,
		},
	})
}

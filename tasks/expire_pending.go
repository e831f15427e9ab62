package tasks

import (
	"sync"
	"time"

	"github.com/becoinhq/becoin-backend/controllers"
	"github.com/becoinhq/becoin-backend/models"
	"github.com/becoinhq/becoin-backend/utils"
	"gorm.io/gorm"
)

// StartPendingSweep launches the background job that fails external
// confirmation requests stuck in PENDING longer than the deadline. A zero
// deadline disables the sweep. The returned stop function shuts the ticker
// goroutine down and is safe to call more than once.
func StartPendingSweep(db *gorm.DB, deadline, interval time.Duration) func() {
	if deadline <= 0 {
		utils.LogInfo("Pending sweep disabled")
		return func() {}
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				utils.LogInfo("Pending sweep stopped")
				return
			case <-ticker.C:
				SweepStalePending(db, deadline)
			}
		}
	}()
	utils.LogInfo("Pending sweep started, deadline %s, interval %s", deadline, interval)

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// SweepStalePending fails every recharge, withdraw and resource transfer that
// has been PENDING longer than the deadline. Each row moves in its own database
// transaction so one bad row cannot wedge the sweep.
func SweepStalePending(db *gorm.DB, deadline time.Duration) {
	cutoff := time.Now().Add(-deadline)

	var pending models.TransactionState
	if err := db.First(&pending, "code = ?", models.StatePending).Error; err != nil {
		utils.LogError("Sweep: pending state missing: %v", err)
		return
	}

	var recharges []models.RechargeTransfer
	if err := db.Where("state_id = ? AND created_at < ?", pending.ID, cutoff).Find(&recharges).Error; err != nil {
		utils.LogError("Sweep: failed to list stale recharges: %v", err)
	}
	for _, r := range recharges {
		tx := db.Begin()
		if _, err := controllers.FailRecharge(tx, r.ID); err != nil {
			tx.Rollback()
			utils.LogError("Sweep: failed to expire recharge %s: %v", r.ID, err)
			continue
		}
		if err := tx.Commit().Error; err != nil {
			utils.LogError("Sweep: failed to commit recharge expiry %s: %v", r.ID, err)
			continue
		}
		utils.LogInfo("Sweep: recharge %s expired after %s pending", r.ID, deadline)
	}

	var withdraws []models.UserWithdraw
	if err := db.Where("state_id = ? AND created_at < ?", pending.ID, cutoff).Find(&withdraws).Error; err != nil {
		utils.LogError("Sweep: failed to list stale withdraws: %v", err)
	}
	for _, w := range withdraws {
		tx := db.Begin()
		if _, err := controllers.FailWithdraw(tx, w.ID, "Expired by pending sweep", ""); err != nil {
			tx.Rollback()
			utils.LogError("Sweep: failed to expire withdraw %s: %v", w.ID, err)
			continue
		}
		if err := tx.Commit().Error; err != nil {
			utils.LogError("Sweep: failed to commit withdraw expiry %s: %v", w.ID, err)
			continue
		}
		utils.LogInfo("Sweep: withdraw %s expired, funds returned", w.ID)
	}

	var transfers []models.TransferResource
	if err := db.Where("state_id = ? AND created_at < ?", pending.ID, cutoff).Find(&transfers).Error; err != nil {
		utils.LogError("Sweep: failed to list stale resource transfers: %v", err)
	}
	for _, t := range transfers {
		tx := db.Begin()
		if _, err := controllers.FailTransferResource(tx, t.ID); err != nil {
			tx.Rollback()
			utils.LogError("Sweep: failed to expire resource transfer %s: %v", t.ID, err)
			continue
		}
		if err := tx.Commit().Error; err != nil {
			utils.LogError("Sweep: failed to commit resource transfer expiry %s: %v", t.ID, err)
			continue
		}
		utils.LogInfo("Sweep: resource transfer %s expired", t.ID)
	}
}

package routes

import (
	"github.com/becoinhq/becoin-backend/controllers"
	"github.com/becoinhq/becoin-backend/middleware"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter initializes and returns the Gin router with all routes
func SetupRouter() *gin.Engine {
	router := gin.Default()

	store := cookie.NewStore([]byte("becoin-session-key"))
	store.Options(sessions.Options{
		MaxAge:   60 * 60 * 24, // 1 day
		Path:     "/",
		Secure:   false, // Set to true in production with HTTPS
		HttpOnly: true,
	})
	router.Use(sessions.Sessions("becoin", store))

	api := router.Group("/v1")
	{
		user := api.Group("")
		user.Use(middleware.AuthMiddleware())
		{
			// Wallet
			user.GET("/wallet", controllers.GetWallet)
			user.GET("/wallet/transactions", controllers.GetWalletTransactions)
			user.GET("/wallet/statement", controllers.DownloadWalletStatement)

			// Transfers
			user.POST("/transfers", controllers.Transfer)
			user.POST("/transfers/charge", controllers.PayCharge)
			user.POST("/charges", controllers.CreateCharge)

			// Recharges
			user.POST("/recharges", controllers.InitiateRecharge)
			user.POST("/recharges/card", controllers.InitiateCardRecharge)
			user.POST("/recharges/card/verify", controllers.VerifyCardRecharge)

			// Withdraws
			user.POST("/withdraws", controllers.Withdraw)

			// Event passes
			user.POST("/event-passes/:id/purchase", controllers.PurchaseEventPass)
			user.POST("/user-event-passes/:id/refund", controllers.RefundEventPass)
			user.POST("/user-event-passes/consume", controllers.ConsumeEventPass)

			// Resources
			user.POST("/user-resources/purchase-transfer", controllers.PurchaseResourceByTransfer)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			// External confirmation callbacks
			admin.PUT("/recharges/:id/completed", controllers.RechargeCompleted)
			admin.PUT("/recharges/:id/failed", controllers.RechargeFailed)
			admin.POST("/withdraws/:id/completed", controllers.WithdrawCompleted)
			admin.POST("/withdraws/:id/failed", controllers.WithdrawFailed)
			admin.PUT("/transfer-resources/:id/completed", controllers.TransferResourceCompleted)
			admin.PUT("/transfer-resources/:id/failed", controllers.TransferResourceFailed)

			// Reports
			admin.GET("/reports/transactions", controllers.DownloadLedgerReportExcel)
		}
	}

	return router
}

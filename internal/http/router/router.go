package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ugcmarket/ugc-backend/internal/config"
	"github.com/ugcmarket/ugc-backend/internal/http/handlers"
	"github.com/ugcmarket/ugc-backend/internal/http/middleware"
	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/service"
)

// Handlers собирает все хэндлеры приложения для передачи в SetupRouter.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Job          *handlers.JobHandler
	Application  *handlers.ApplicationHandler
	Conversation *handlers.ConversationHandler
	Dispute      *handlers.DisputeHandler
	Payment      *handlers.PaymentHandler
	Payout       *handlers.PayoutHandler
	Notification *handlers.NotificationHandler
	Media        *handlers.MediaHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
	WS           *handlers.WSHandler
}

// SetupRouter настраивает все маршруты приложения.
func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.StaticFS("/media/files", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	// Аутентификация: публичные маршруты под отдельным rate limit
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.POST("/logout", h.Auth.Logout)
	}

	// Публичные маршруты
	api.GET("/jobs", h.Job.List)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), h.Job.Get)
	api.GET("/creators/:id", middleware.UUIDValidator("id"), h.Auth.GetCreatorProfile)
	api.GET("/ws", h.WS.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/me", h.Auth.Me)
		protected.PUT("/me/brand", h.Auth.UpdateBrandProfile)
		protected.PUT("/me/creator", h.Auth.UpdateCreatorProfile)

		// Задания: жизненный цикл со стороны бренда
		protected.POST("/jobs", h.Job.Create)
		protected.GET("/jobs/my", h.Job.ListMine)
		protected.PUT("/jobs/:id", middleware.UUIDValidator("id"), h.Job.Update)
		protected.POST("/jobs/:id/publish", middleware.UUIDValidator("id"), h.Job.Publish)
		protected.POST("/jobs/:id/pause", middleware.UUIDValidator("id"), h.Job.Pause)
		protected.POST("/jobs/:id/unpause", middleware.UUIDValidator("id"), h.Job.Unpause)
		protected.POST("/jobs/:id/close", middleware.UUIDValidator("id"), h.Job.Close)
		protected.POST("/jobs/:id/cancel", middleware.UUIDValidator("id"), h.Job.Cancel)
		protected.POST("/jobs/:id/resubmit", middleware.UUIDValidator("id"), h.Job.Resubmit)

		// Сдача и приёмка работы
		protected.POST("/jobs/:id/submissions", middleware.UUIDValidator("id"), h.Job.SubmitWork)
		protected.GET("/jobs/:id/submissions", middleware.UUIDValidator("id"), h.Job.ListSubmissions)
		protected.POST("/jobs/:id/approve", middleware.UUIDValidator("id"), h.Job.ApproveWork)
		protected.POST("/jobs/:id/request-changes", middleware.UUIDValidator("id"), h.Job.RequestChanges)

		// Отклики и приглашения
		protected.POST("/jobs/:id/applications", middleware.UUIDValidator("id"), h.Application.Apply)
		protected.GET("/jobs/:id/applications", middleware.UUIDValidator("id"), h.Application.ListByJob)
		protected.POST("/jobs/:id/invitations", middleware.UUIDValidator("id"), h.Application.Invite)
		protected.GET("/applications/my", h.Application.ListMine)
		protected.GET("/applications/:id", middleware.UUIDValidator("id"), h.Application.Get)
		protected.POST("/applications/:id/accept", middleware.UUIDValidator("id"), h.Application.Accept)
		protected.POST("/applications/:id/reject", middleware.UUIDValidator("id"), h.Application.Reject)
		protected.POST("/applications/:id/withdraw", middleware.UUIDValidator("id"), h.Application.Withdraw)
		protected.GET("/invitations/my", h.Application.ListInvitations)
		protected.POST("/invitations/:id/accept", middleware.UUIDValidator("id"), h.Application.AcceptInvitation)
		protected.POST("/invitations/:id/decline", middleware.UUIDValidator("id"), h.Application.DeclineInvitation)

		// Переписка
		protected.GET("/conversations/my", h.Conversation.ListMine)
		protected.GET("/conversations/:id", middleware.UUIDValidator("id"), h.Conversation.Get)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversation.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversation.SendMessage)

		// Платежи и escrow
		protected.GET("/payments/wallets", h.Payment.ListWallets)
		protected.GET("/payments/wallets/:currency", h.Payment.GetWallet)
		protected.GET("/payments/ledger", h.Payment.ListLedger)
		protected.GET("/jobs/:id/escrow", middleware.UUIDValidator("id"), h.Payment.GetEscrow)
		protected.POST("/jobs/:id/escrow/fund", middleware.UUIDValidator("id"), h.Payment.FundEscrow)

		// Вывод средств
		protected.POST("/payouts", h.Payout.Request)
		protected.GET("/payouts/my", h.Payout.ListMine)
		protected.GET("/payouts/:id", middleware.UUIDValidator("id"), h.Payout.Get)
		protected.POST("/payouts/:id/cancel", middleware.UUIDValidator("id"), h.Payout.Cancel)

		// Споры
		protected.POST("/jobs/:id/disputes", middleware.UUIDValidator("id"), h.Dispute.Open)
		protected.GET("/disputes/my", h.Dispute.ListMine)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), h.Dispute.Get)
		protected.GET("/disputes/:id/messages", middleware.UUIDValidator("id"), h.Dispute.ListMessages)
		protected.POST("/disputes/:id/messages", middleware.UUIDValidator("id"), h.Dispute.AddMessage)

		// Уведомления
		protected.GET("/notifications", h.Notification.List)
		protected.GET("/notifications/unread/count", h.Notification.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
		protected.PUT("/notifications/read-all", h.Notification.MarkAllAsRead)

		// Вложения
		protected.POST("/media", h.Media.Upload)
		protected.GET("/media", h.Media.ListMine)
		protected.DELETE("/media/:id", middleware.UUIDValidator("id"), h.Media.Delete)
	}

	// Админские маршруты
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/moderation", h.Admin.ModerationQueue)
		admin.POST("/moderation/:id/approve", middleware.UUIDValidator("id"), h.Admin.ApproveJob)
		admin.POST("/moderation/:id/reject", middleware.UUIDValidator("id"), h.Admin.RejectJob)
		admin.GET("/disputes", h.Dispute.ListOpen)
		admin.POST("/disputes/:id/resolve-refund", middleware.UUIDValidator("id"), h.Dispute.ResolveRefund)
		admin.POST("/disputes/:id/resolve-release", middleware.UUIDValidator("id"), h.Dispute.ResolveRelease)
		admin.GET("/payouts", h.Payout.ListPending)
		admin.POST("/payouts/:id/approve", middleware.UUIDValidator("id"), h.Payout.Approve)
		admin.POST("/payouts/:id/reject", middleware.UUIDValidator("id"), h.Payout.Reject)
		admin.POST("/wallets/adjust", h.Admin.ManualAdjust)
		admin.GET("/settings", h.Admin.GetSettings)
		admin.PUT("/settings", h.Admin.UpdateSettings)
		admin.GET("/events", h.Admin.ListEvents)
	}

	return r
}

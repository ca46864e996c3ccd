package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/cache"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/config"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/handlers"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/middleware"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/repository"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/services"
	chatws "github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/websocket"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/pkg/logger"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) error {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	var unreadCache *cache.UnreadCounts
	if cfg.RedisURL != "" {
		var err error
		unreadCache, err = cache.NewUnreadCounts(cfg.RedisURL)
		if err != nil {
			return err
		}
		logger.Get().Info().Msg("unread-count cache enabled")
	}

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret)
	directoryHandler := handlers.NewDirectoryHandler(profileRepo)

	chatHub := chatws.NewHub()
	go chatHub.Run()
	chatService := services.NewChatService(db, messageRepo, userRepo, profileRepo, unreadCache)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)

	billingService := services.NewBillingService(userRepo, services.BillingConfig{
		SecretKey:      cfg.StripeSecretKey,
		PremiumPriceID: cfg.StripePremiumPriceID,
		SuccessURL:     cfg.CheckoutSuccessURL,
		CancelURL:      cfg.CheckoutCancelURL,
		PortalURL:      cfg.PortalReturnURL,
	})
	billingHandler := handlers.NewBillingHandler(billingService, userRepo, cfg.StripeWebhookSecret)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Provider-facing: authenticated by signature header, not bearer token.
	if cfg.BillingEnabled() {
		api.Post("/stripe-webhook", billingHandler.Webhook)
	}

	api.Post("/send-message", middleware.AuthRequired(cfg.JWTSecret), chatHandler.SendMessage)
	if cfg.BillingEnabled() {
		api.Post("/handle-payment-success", middleware.AuthRequired(cfg.JWTSecret), billingHandler.PaymentSuccess)
	}

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/read", chatHandler.MarkConversationRead)

	messages := authProtected.Group("/messages")
	messages.Get("/unread-count", chatHandler.UnreadCount)

	coaches := authProtected.Group("/coaches")
	coaches.Get("", directoryHandler.ListCoaches)
	coaches.Get("/:id", directoryHandler.GetCoachDetail)

	if cfg.BillingEnabled() {
		billing := authProtected.Group("/billing", middleware.RequireRole("user", "coach"))
		billing.Post("/checkout", billingHandler.CreateCheckout)
		billing.Post("/portal", billingHandler.CreatePortal)
	}

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))

	return registerDocsRoutes(app, cfg)
}

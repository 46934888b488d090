// Package router assembles the HTTP API.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v7"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"budgetify/internal/handlers"
	"budgetify/internal/ledger"
	"budgetify/internal/middleware"
	"budgetify/internal/models"
	"budgetify/internal/services"

	_ "budgetify/internal/docs" // registers the swagger spec
)

// Deps holds everything the router needs to build handlers.
type Deps struct {
	DB     *gorm.DB
	Ledger *ledger.Ledger
	Runner handlers.PostingRunner

	// Redis is optional and only used by the health check.
	Redis *redis.Client

	// PostingAPIKey guards /api/v1/internal/postings/run.
	PostingAPIKey string

	// Notifications is shared with the poster so both write through the same service.
	Notifications services.NotificationServicer
}

// New builds the gin engine with every route mounted.
func New(deps Deps) *gin.Engine {
	db := deps.DB

	userService := services.NewUserService(db)
	cardService := services.NewCardService(db, deps.Ledger)
	piggyBankService := services.NewPiggyBankService(db, deps.Ledger)
	transactionService := services.NewTransactionService(db, deps.Ledger)
	subscriptionService := services.NewSubscriptionService(db, deps.Ledger)
	obligationService := services.NewObligationService(db, deps.Ledger)
	auditService := services.NewAuditService(db)
	notificationService := deps.Notifications
	if notificationService == nil {
		notificationService = services.NewNotificationService(db, nil)
	}

	authHandler := handlers.NewAuthHandler(userService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	cardHandler := handlers.NewCardHandler(cardService, auditService)
	piggyBankHandler := handlers.NewPiggyBankHandler(piggyBankService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, auditService)
	obligationHandler := handlers.NewObligationHandler(obligationService, auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	postingHandler := handlers.NewPostingHandler(deps.Runner, auditService)
	healthHandler := handlers.NewHealthHandler(db, deps.Redis)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", healthHandler.Health)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/profile", authHandler.GetProfile)
	protected.PATCH("/profile", authHandler.UpdateProfile)

	cards := protected.Group("/cards")
	cards.POST("", cardHandler.CreateCard)
	cards.GET("", cardHandler.GetUserCards)
	cards.GET("/:id", cardHandler.GetCardByID)
	cards.PUT("/:id", cardHandler.UpdateCard)
	cards.DELETE("/:id", cardHandler.DeleteCard)

	piggyBanks := protected.Group("/piggy-banks")
	piggyBanks.POST("", piggyBankHandler.CreatePiggyBank)
	piggyBanks.GET("", piggyBankHandler.GetUserPiggyBanks)
	piggyBanks.GET("/:id", piggyBankHandler.GetPiggyBankByID)
	piggyBanks.PUT("/:id", piggyBankHandler.UpdatePiggyBank)
	piggyBanks.DELETE("/:id", piggyBankHandler.DeletePiggyBank)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.GetUserSubscriptions)
	subscriptions.GET("/:id", subscriptionHandler.GetSubscriptionByID)
	subscriptions.PUT("/:id", subscriptionHandler.UpdateSubscription)
	subscriptions.DELETE("/:id", subscriptionHandler.DeleteSubscription)

	obligations := protected.Group("/obligations")
	obligations.POST("", obligationHandler.CreateObligation)
	obligations.GET("", obligationHandler.GetUserObligations)
	obligations.GET("/:id", obligationHandler.GetObligationByID)
	obligations.PUT("/:id", obligationHandler.UpdateObligation)
	obligations.DELETE("/:id", obligationHandler.DeleteObligation)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetUserNotifications)
	notifications.PUT("/:id/read", notificationHandler.MarkRead)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRole(models.UserRoleAdmin))
	admin.POST("/postings/run", postingHandler.RunPostings)
	admin.GET("/users", userHandler.ListUsers)
	admin.GET("/users/:id", userHandler.GetUser)
	admin.DELETE("/users/:id", userHandler.DeleteUser)
	admin.GET("/notifications/emails", userHandler.ListEmails)

	internalAPI := v1.Group("/internal")
	internalAPI.Use(middleware.APIKeyMiddleware(deps.PostingAPIKey))
	internalAPI.POST("/postings/run", postingHandler.RunPostings)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

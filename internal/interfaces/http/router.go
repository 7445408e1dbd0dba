// Package http wires repositories, services and usecases into the gin
// engine and registers the route table.
package http

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	accountUsecases "vtm/internal/application/account/usecases"
	paymentUsecases "vtm/internal/application/payment/usecases"
	"vtm/internal/domain/account"
	"vtm/internal/domain/billing"
	"vtm/internal/infrastructure/auth"
	"vtm/internal/infrastructure/config"
	"vtm/internal/infrastructure/identity"
	"vtm/internal/infrastructure/payment"
	"vtm/internal/infrastructure/repository"
	"vtm/internal/interfaces/http/handlers"
	"vtm/internal/interfaces/http/middleware"
	"vtm/internal/shared/db"
	"vtm/internal/shared/logger"
)

// Router holds the configured gin engine and its handlers.
type Router struct {
	engine         *gin.Engine
	authHandler    *handlers.AuthHandler
	paymentHandler *handlers.PaymentHandler
	jwtService     *auth.JWTService
}

func NewRouter(database *gorm.DB, cfg *config.Config, log logger.Interface) (*Router, error) {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	catalog := billing.DefaultCatalog()
	if cfg.Plans.CatalogPath != "" {
		loaded, err := billing.LoadCatalog(cfg.Plans.CatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	jwtService := auth.NewJWTService(
		cfg.Auth.JWT.Secret,
		cfg.Auth.JWT.SessionExpHours,
		cfg.Auth.JWT.PaymentIntentExpMinutes,
	)

	accountRepo := repository.NewAccountRepository(database)
	ledgerRepo := repository.NewLedgerRepository(database)
	sequenceRepo := repository.NewSequenceRepository(database)
	txManager := db.NewTransactionManager(database)

	allocator := account.NewIdentityAllocator(sequenceRepo)
	verifier := identity.NewHTTPVerifier(&cfg.Identity, log)
	gateway := payment.NewPayPalGateway(&cfg.PayPal, log)

	syncAccountUC := accountUsecases.NewSyncAccountUseCase(verifier, accountRepo, allocator, jwtService, log)
	createIntentUC := paymentUsecases.NewCreatePaymentIntentUseCase(catalog, gateway, jwtService, cfg.Server.PaymentPageURL, log)
	inspectIntentUC := paymentUsecases.NewInspectPaymentIntentUseCase(catalog, jwtService)
	reconcileUC := paymentUsecases.NewReconcilePaymentUseCase(
		catalog, gateway, jwtService, accountRepo, ledgerRepo, txManager, log)

	return &Router{
		engine:         gin.New(),
		authHandler:    handlers.NewAuthHandler(syncAccountUC, log),
		paymentHandler: handlers.NewPaymentHandler(createIntentUC, inspectIntentUC, reconcileUC, log),
		jwtService:     jwtService,
	}, nil
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes(cfg *config.Config, log logger.Interface) {
	r.engine.Use(middleware.Logger(log))
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api")
	{
		api.POST("/auth/sync", r.authHandler.Sync)

		paymentGroup := api.Group("/payment")
		{
			paymentGroup.POST("/intent", middleware.SessionAuth(r.jwtService), r.paymentHandler.CreateIntent)
			paymentGroup.POST("/verify-intent", r.paymentHandler.VerifyIntent)
			paymentGroup.POST("/capture", r.paymentHandler.Capture)
		}
	}
}

// GetEngine returns the underlying gin engine
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

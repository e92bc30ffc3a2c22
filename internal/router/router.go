package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmedonly00/Go-Delivery-sub001/config"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/domain"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/handler"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/middleware"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/repository"
	"github.com/ahmedonly00/Go-Delivery-sub001/internal/service"
	"github.com/ahmedonly00/Go-Delivery-sub001/pkg/gateway"
)

// Deps groups the wired services the router needs beyond the DB.
type Deps struct {
	Collections  map[domain.Gateway]gateway.CollectionProvider
	Disbursement gateway.DisbursementProvider
}

func Setup(cfg *config.Config, db *gorm.DB, deps Deps) (*gin.Engine, *service.SweepService) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	limiter := middleware.NewRequestLimiter(&cfg.RateLimit)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	restaurantRepo := repository.NewRestaurantRepository(db)
	txRepo := repository.NewPaymentTxRepository(db)
	disbRepo := repository.NewDisbursementRepository(db)
	eventRepo := repository.NewGatewayEventRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	orderSvc := service.NewOrderService(db, orderRepo, restaurantRepo, auditRepo)
	disbSvc := service.NewDisbursementService(db, orderRepo, disbRepo, restaurantRepo, eventRepo, auditRepo, deps.Disbursement)
	reconciler := service.NewReconciler(db, txRepo, disbRepo, orderRepo, eventRepo, auditRepo, disbSvc)
	paymentSvc := service.NewPaymentService(db, txRepo, orderRepo, eventRepo, auditRepo, reconciler, deps.Collections)
	sweepSvc := service.NewSweepService(txRepo, disbRepo, reconciler, deps.Collections, deps.Disbursement, cfg.Sweep.GracePeriod)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, userRepo)
	orderHandler := handler.NewOrderHandler(orderSvc, orderRepo)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	momoWebhook := handler.NewMomoWebhookHandler(&cfg.Momo, reconciler, auditRepo)
	airtelWebhook := handler.NewAirtelWebhookHandler(&cfg.Airtel, reconciler, auditRepo)
	disbWebhook := handler.NewDisbursementWebhookHandler(&cfg.Disbursement, reconciler, auditRepo)
	disbHandler := handler.NewDisbursementHandler(disbSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	operatorMw := middleware.RequireRole(domain.RoleOperator)
	staffMw := middleware.RequireRole(domain.RoleRestaurant, domain.RoleBiker, domain.RoleOperator)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", middleware.LimitAPI(limiter), authHandler.Login)

		orders := api.Group("/orders")
		orders.Use(middleware.LimitAPI(limiter), authMw)
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.ListMine)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/transition", staffMw, orderHandler.Transition)
			orders.POST("/:id/cancel", orderHandler.Cancel)
		}

		payments := api.Group("/payments")
		payments.Use(middleware.LimitAPI(limiter), authMw)
		{
			payments.POST("", paymentHandler.Initiate)
			payments.GET("/:reference", paymentHandler.Status)
		}

		webhooks := api.Group("/webhooks")
		webhooks.Use(middleware.LimitWebhooks(limiter))
		{
			webhooks.POST("/momo", momoWebhook.Handle)
			webhooks.POST("/airtel", airtelWebhook.Handle)
			webhooks.POST("/disbursement", disbWebhook.Handle)
		}

		disbursements := api.Group("/disbursements")
		disbursements.Use(middleware.LimitAPI(limiter), authMw, operatorMw)
		{
			disbursements.POST("/:orderId", disbHandler.Trigger)
			disbursements.GET("/:orderId", disbHandler.Status)
		}
	}

	return r, sweepSvc
}

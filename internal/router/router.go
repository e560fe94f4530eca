package router

import (
	"time"

	"nexogym/internal/config"
	"nexogym/internal/handler"
	"nexogym/internal/infra"
	"nexogym/internal/middleware"
	"nexogym/internal/model"
	"nexogym/internal/repository"
	"nexogym/internal/service"
	"nexogym/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil; receipts and the gym access cache are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, metrics *infra.Metrics, stop <-chan struct{}) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	apiLimiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	loginLimiter := middleware.NewLoginLimiter()
	middleware.StartPurge(stop, apiLimiter, loginLimiter)

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(metrics))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(apiLimiter))

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	gymRepo := repository.NewGymRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewInventoryMovementRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var dispatcher service.ReceiptDispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
	}

	authSvc := service.NewAuthService(userRepo, cfg)
	moduleSvc := service.NewModuleService(gymRepo, rdb, time.Duration(cfg.GymCacheTTLMinutes)*time.Minute)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo)
	shiftSvc := service.NewShiftService(shiftRepo, expenseRepo, auditRepo, metrics)
	saleSvc := service.NewSaleService(saleRepo, shiftRepo, inventorySvc, dispatcher, metrics)
	reportSvc := service.NewReportService(reportRepo, shiftRepo, saleRepo, expenseRepo, movementRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	shiftH := handler.NewShiftHandler(shiftSvc)
	posH := handler.NewPOSHandler(saleSvc, shiftSvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(loginLimiter), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	operators := []model.Role{model.RoleReception, model.RoleAdmin}
	admins := []model.Role{model.RoleAdmin, model.RoleSuperAdmin}

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.RequireModule(moduleSvc, model.ModulePOS))
	{
		shifts := v1.Group("/shifts")
		{
			shifts.POST("/open", middleware.RequireRole(operators...), shiftH.Open)
			shifts.GET("/current", middleware.RequireRole(operators...), shiftH.Current)
			shifts.POST("/close", middleware.RequireRole(operators...), shiftH.Close)
			shifts.POST("/:id/force-close", middleware.RequireRole(admins...), shiftH.ForceClose)

			shifts.GET("", middleware.RequireRole(admins...), reportsH.ListShifts)
			shifts.GET("/open", middleware.RequireRole(admins...), reportsH.ListOpenShifts)
			shifts.GET("/:id/sales", middleware.RequireRole(admins...), reportsH.ShiftSales)
		}

		pos := v1.Group("/pos", middleware.RequireRole(operators...))
		{
			pos.POST("/sales", posH.RecordSale)
			pos.POST("/expenses", posH.RecordExpense)
		}
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

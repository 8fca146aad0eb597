package main

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/badurubalaji/msls-sub015/internal/handler"
	"github.com/badurubalaji/msls-sub015/internal/middleware"
	"github.com/badurubalaji/msls-sub015/internal/tenant"
	"github.com/badurubalaji/msls-sub015/pkg/authz"
	"github.com/badurubalaji/msls-sub015/pkg/cache"
	"github.com/badurubalaji/msls-sub015/pkg/config"
	"github.com/badurubalaji/msls-sub015/pkg/database"
	"github.com/badurubalaji/msls-sub015/pkg/jwtutil"
	"github.com/badurubalaji/msls-sub015/pkg/logger"
	"github.com/badurubalaji/msls-sub015/pkg/mailer"
	"github.com/badurubalaji/msls-sub015/pkg/objectstore"
	"github.com/badurubalaji/msls-sub015/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting school management service...", zap.String("environment", cfg.App.Env))

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize cache backend for tenant lookups
	c, err := cache.New(cfg)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	log.Info("Cache initialized", zap.String("kind", cfg.Cache.Kind))

	// Initialize object storage
	store, err := objectstore.New(context.Background(), &cfg.ObjectStore)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	log.Info("Object storage initialized", zap.String("bucket", cfg.ObjectStore.BucketName))

	// Initialize remaining collaborators
	jwt := jwtutil.New(&cfg.JWT)
	tenants := tenant.NewService(tenant.NewStore(db), c, cfg.Cache.DefaultTTL)
	mail := mailer.New(&cfg.SMTP)

	authHandler := handler.NewAuthHandler(db, jwt, tenants)
	tenantHandler := handler.NewTenantHandler(db, jwt, tenants)
	studentHandler := handler.NewStudentHandler(db)
	admissionHandler := handler.NewAdmissionHandler(db, mail)
	examHandler := handler.NewExamHandler(db)
	documentHandler := handler.NewDocumentHandler(db, store)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Public per-tenant admission submission; the tenant guard still
	// rejects unknown or inactive schools
	e.POST("/t/:tenant/admissions", admissionHandler.Submit, middleware.TenantContext(tenants))

	// API routes - all require authentication
	api := e.Group("/api", middleware.Auth(jwt))

	// Tenant management - doesn't require tenant context
	tenantsGroup := api.Group("/tenants")
	tenantsGroup.POST("", tenantHandler.Create)
	tenantsGroup.GET("", tenantHandler.ListMine)
	tenantsGroup.POST("/select", tenantHandler.Select)
	tenantsGroup.POST("/default", tenantHandler.SetDefault)

	// Tenant-scoped operations - the URL slug binds the tenant and every
	// database statement below runs under that tenant's RLS scope
	scoped := api.Group("/t/:tenant", middleware.TenantContext(tenants))
	scoped.GET("", tenantHandler.GetCurrent)

	students := scoped.Group("/students")
	students.GET("", studentHandler.List, middleware.Guards(authz.RequireAnyPermission("students:read", "students:write")))
	students.GET("/:id", studentHandler.Get, middleware.Guards(authz.RequireAnyPermission("students:read", "students:write")))
	students.POST("", studentHandler.Create, middleware.Guards(authz.RequirePermission("students:write")))
	students.PUT("/:id", studentHandler.Update, middleware.Guards(authz.RequirePermission("students:write")))
	students.DELETE("/:id", studentHandler.Delete, middleware.Guards(authz.RequirePermission("students:write")))
	students.POST("/:id/guardians", studentHandler.AddGuardian, middleware.Guards(authz.RequirePermission("students:write")))

	admissions := scoped.Group("/admissions")
	admissions.GET("", admissionHandler.List, middleware.Guards(authz.RequireAnyPermission("admissions:read", "admissions:write")))
	admissions.GET("/:id", admissionHandler.Get, middleware.Guards(authz.RequireAnyPermission("admissions:read", "admissions:write")))
	admissions.POST("/:id/review", admissionHandler.Review, middleware.Guards(authz.RequirePermission("admissions:write")))
	admissions.POST("/:id/decide", admissionHandler.Decide, middleware.Guards(authz.RequirePermission("admissions:write")))
	admissions.POST("/:id/enroll", admissionHandler.Enroll, middleware.Guards(authz.RequireAllPermissions("admissions:write", "students:write")))

	// Exams are a per-tenant feature
	exams := scoped.Group("/exams", middleware.Guards(authz.FeatureGuard("exams")))
	exams.GET("", examHandler.List, middleware.Guards(authz.RequireAnyPermission("exams:read", "exams:write")))
	exams.POST("", examHandler.Create, middleware.Guards(authz.RequirePermission("exams:write")))
	exams.DELETE("/:id", examHandler.Delete, middleware.Guards(authz.RequirePermission("exams:write")))
	exams.POST("/:id/results", examHandler.RecordResult, middleware.Guards(authz.RequirePermission("exams:write")))
	exams.GET("/:id/results", examHandler.ListResults, middleware.Guards(authz.RequireAnyPermission("exams:read", "exams:write")))

	// Document storage is a per-tenant feature
	documents := scoped.Group("/documents", middleware.Guards(authz.FeatureGuard("documents")))
	documents.POST("", documentHandler.Upload, middleware.Guards(authz.RequirePermission("documents:write")))
	documents.GET("", documentHandler.List, middleware.Guards(authz.RequireAnyPermission("documents:read", "documents:write")))
	documents.GET("/:id/download", documentHandler.Download, middleware.Guards(authz.RequireAnyPermission("documents:read", "documents:write")))
	documents.DELETE("/:id", documentHandler.Delete, middleware.Guards(authz.RequirePermission("documents:write")))

	// Apply the HTTP timeouts from configuration and start
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	log.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
	if err := e.Start(cfg.Server.Addr()); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}

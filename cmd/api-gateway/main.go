package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/rotation-portal-api/api/swagger"
	"github.com/noah-isme/rotation-portal-api/internal/handler"
	"github.com/noah-isme/rotation-portal-api/internal/middleware"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	"github.com/noah-isme/rotation-portal-api/internal/repository"
	"github.com/noah-isme/rotation-portal-api/internal/service"
	"github.com/noah-isme/rotation-portal-api/pkg/cache"
	"github.com/noah-isme/rotation-portal-api/pkg/config"
	"github.com/noah-isme/rotation-portal-api/pkg/database"
	"github.com/noah-isme/rotation-portal-api/pkg/logger"
	"github.com/noah-isme/rotation-portal-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/rotation-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/rotation-portal-api/pkg/middleware/requestid"
)

// @title Rotation Portal API
// @version 1.0.0
// @description Review and decision workflow for clinical rotation requests
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	readiness := map[string]handler.ReadinessCheck{"postgres": db.PingContext}

	approvalOpts := []service.ApprovalServiceOption{service.WithApprovalMetrics(metrics)}
	var catalogOpts []service.CatalogOption
	if cfg.Approvals.LockEnabled || cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		readiness["redis"] = redisCheck(redisClient)
		if cfg.Approvals.LockEnabled {
			approvalOpts = append(approvalOpts, service.WithApprovalLock(repository.NewApprovalLockRepository(redisClient), cfg.Approvals.LockTTL))
		}
		if cfg.Cache.Enabled {
			catalogOpts = append(catalogOpts, service.WithCatalogCache(repository.NewCacheRepository(redisClient, "rotation-portal:"), cfg.Cache.CatalogTTL))
		}
	}
	if cfg.Notifications.Enabled {
		conn, channel, err := messaging.NewRabbitMQ(cfg.Notifications)
		if err != nil {
			logr.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		defer conn.Close()
		defer channel.Close()
		notifier := service.NewDecisionNotifier(channel, cfg.Notifications.Queue, logr)
		approvalOpts = append(approvalOpts, service.WithDecisionPublisher(notifier))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health"))

	registerRoutes(r, cfg, db, logr, metrics, readiness, catalogOpts, approvalOpts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func registerRoutes(r *gin.Engine, cfg *config.Config, db *sqlx.DB, logr *zap.Logger, metrics *service.MetricsService, readiness map[string]handler.ReadinessCheck, catalogOpts []service.CatalogOption, approvalOpts []service.ApprovalServiceOption) {
	requestRepo := repository.NewRotationRequestRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	catalog := service.NewClinicalServiceCatalog(repository.NewClinicalServiceRepository(db), logr, catalogOpts...)
	approvals := service.NewApprovalService(service.ApprovalStores{
		Requests:        requestRepo,
		Candidates:      candidateRepo,
		TrainingCenters: repository.NewTrainingCenterRepository(db),
		Enrollments:     repository.NewEnrollmentRepository(db),
		Rotations:       repository.NewRotationAssignmentRepository(db),
	}, catalog, auditRepo, logr, approvalOpts...)
	requests := service.NewRotationRequestService(requestRepo, candidateRepo, logr)
	candidates := service.NewCandidateService(candidateRepo, requestRepo, auditRepo, validator.New(), logr)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	metricsHandler := handler.NewMetricsHandler(metrics, readiness)
	requestHandler := handler.NewRotationRequestHandler(requests, approvals)
	candidateHandler := handler.NewCandidateHandler(candidates)
	catalogHandler := handler.NewClinicalServiceHandler(catalog)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokens))
	deciders := middleware.RequireRoles(models.DecisionRoles...)

	api.GET("/rotation-requests", requestHandler.List)
	api.GET("/rotation-requests/:id", requestHandler.Get)
	api.POST("/rotation-requests/:id/approve", deciders, requestHandler.Approve)
	api.POST("/rotation-requests/:id/reject", deciders, requestHandler.Reject)
	api.POST("/rotation-requests/:id/resume", deciders, requestHandler.Resume)

	api.PATCH("/candidates/:id", deciders, candidateHandler.Update)
	api.DELETE("/candidates/:id", deciders, candidateHandler.Delete)

	api.GET("/clinical-services", catalogHandler.List)
}

func redisCheck(client *redis.Client) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

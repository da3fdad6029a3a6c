package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/akeamc/skool/internal/handler"
	"github.com/akeamc/skool/internal/middleware"
	"github.com/akeamc/skool/internal/models"
	"github.com/akeamc/skool/internal/repository"
	"github.com/akeamc/skool/internal/service"
	"github.com/akeamc/skool/internal/skolplattformen"
	"github.com/akeamc/skool/pkg/cache"
	"github.com/akeamc/skool/pkg/config"
	"github.com/akeamc/skool/pkg/database"
	"github.com/akeamc/skool/pkg/logger"
	corsmiddleware "github.com/akeamc/skool/pkg/middleware/cors"
	reqidmiddleware "github.com/akeamc/skool/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.RedisURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	endpoints := skolplattformen.DefaultEndpoints()
	authenticator := skolplattformen.Authenticator{
		Endpoints: endpoints,
		Timeout:   cfg.Upstream.LoginTimeout,
		Logger:    logr,
	}
	factory := func(session *models.Session) (service.Upstream, error) {
		return skolplattformen.NewClient(session, endpoints, cfg.Upstream.RPCTimeout, logr)
	}

	credentialsRepo := repository.NewCredentialsRepository(db, cfg.AESKey, logr)
	classRepo := repository.NewClassRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	sessionCache := repository.NewSessionCache(redisClient, cfg.AESKey, logr)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService([]byte(cfg.TokenSecret))
	sessionSvc := service.NewSessionService(credentialsRepo, sessionCache, authenticator, metricsSvc, logr)
	credentialsSvc := service.NewCredentialsService(db, credentialsRepo, classRepo, sessionCache, authenticator, factory, logr)
	shareSvc := service.NewShareService(linkRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(sessionSvc, credentialsRepo, shareSvc, factory, logr)
	classSvc := service.NewClassService(credentialsRepo, classRepo)

	credentialsHandler := handler.NewCredentialsHandler(credentialsSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	shareHandler := handler.NewShareHandler(shareSvc)
	classHandler := handler.NewClassHandler(classSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	authed := r.Group("/", middleware.Identity(tokenSvc))
	{
		authed.PUT("/credentials", credentialsHandler.Set)
		authed.GET("/credentials", credentialsHandler.Get)
		authed.DELETE("/credentials", credentialsHandler.Delete)

		authed.GET("/classes", classHandler.List)

		authed.POST("/schedule/links", shareHandler.Create)
		authed.GET("/schedule/links", shareHandler.List)
		authed.DELETE("/schedule/links/:id", shareHandler.Delete)
	}

	// Schedule reads accept either a bearer token or a share id; the
	// iCalendar feed is share-only since calendar apps cannot send headers.
	r.GET("/schedule", middleware.OptionalIdentity(tokenSvc), scheduleHandler.Lessons)
	r.GET("/schedule/ical", scheduleHandler.ICalendar)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

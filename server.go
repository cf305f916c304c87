package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/despasys/despasys_backend/config"
	"github.com/despasys/despasys_backend/handlers"
	"github.com/despasys/despasys_backend/middlewares"
	"github.com/despasys/despasys_backend/models"
	"github.com/despasys/despasys_backend/payments"
	"github.com/despasys/despasys_backend/recommendation"
	"github.com/despasys/despasys_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func corsConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	// In production only CORS_ALLOWED_ORIGINS may call the API; an empty list denies all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if config.IsProduction() {
		corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		if len(corsConfig.AllowOrigins) == 0 {
			corsConfig.AllowOrigins = []string{}
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Tenant-Id", "Idempotency-Key", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition", middlewares.CorrelationHeader)
	corsConfig.AllowCredentials = !corsConfig.AllowAllOrigins
	return corsConfig
}

// rateLimiter is opt-in through RATE_LIMIT_ENABLED. It keeps its own client so it
// can be installed before ConnectRedisWithRetry runs.
func rateLimiter() *middlewares.RateLimiter {
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		return nil
	}
	client := config.NewRedisClient()
	limit := int64(config.IntFromEnv("RATE_LIMIT_MAX_REQUESTS", 600))
	window := time.Duration(config.IntFromEnv("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	return middlewares.NewRateLimiter(client, limit, window)
}

func invoiceCharger(logger *logrus.Logger) handlers.InvoiceCharger {
	gateway, err := payments.NewMercadoPagoGateway(os.Getenv("MERCADOPAGO_ACCESS_TOKEN"))
	if err != nil {
		config.LogError(logger, "server.go", "invoiceCharger", "payments disabled", nil, err)
		return nil
	}
	return payments.NewCharger(gateway)
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var publisher workflow.Publisher
	var pubsubPublisher *config.PubSubPublisher
	if config.EventsEnabled() {
		pubsubPublisher = config.NewPubSubPublisher()
		publisher = pubsubPublisher
	}
	webNotifier := workflow.NewEventNotifier(publisher, logger, config.EventPublishTimeout(), workflow.EventSourceWeb)
	mobileNotifier := workflow.NewEventNotifier(publisher, logger, config.EventPublishTimeout(), workflow.EventSourceMobile)

	options := handlers.Options{
		Charger:     invoiceCharger(logger),
		Recommender: recommendation.NewService(recommendation.NewClient()),
		Logger:      logger,
	}
	webOptions, mobileOptions := options, options
	webOptions.Notifier = webNotifier
	mobileOptions.Notifier = mobileNotifier

	// The port opens before DB/Redis are ready; ReadinessGate answers 503 until then.
	if os.Getenv(gin.EnvGinMode) == "" && config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.ReadinessGate())
	r.Use(cors.New(corsConfig()))
	if limiter := rateLimiter(); limiter != nil {
		r.Use(limiter.RateLimitMiddleware)
	}
	r.Use(middlewares.ErrorLogger(logger))
	r.Use(gin.Recovery())
	r.Use(middlewares.LoaderMiddleware())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	handlers.RegisterRoutes(r.Group("/api", middlewares.SessionMiddleware()), handlers.New(webOptions))
	handlers.RegisterMobileRoutes(r.Group("/api/mobile", middlewares.MobileAuthMiddleware()), handlers.New(mobileOptions))
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	sqlDB, err := config.GetDB().DB()
	if err != nil {
		config.LogError(logger, "server.go", "main", "sql handle unavailable, pool will not be closed on shutdown", nil, err)
	}
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can hold DDL locks; SKIP_MIGRATIONS=true moves it to a separate job.
	if !config.SkipMigrations() {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info":   "Connection Established",
		"driver": config.DatabaseDriver(),
		"events": config.EventsEnabled(),
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// In-flight events get their publish timeout before the client goes away.
	webNotifier.Wait()
	mobileNotifier.Wait()
	if pubsubPublisher != nil {
		pubsubPublisher.Stop()
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

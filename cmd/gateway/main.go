// cmd/gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclients "ferreteria-gateway/internal/common/aws"
	"ferreteria-gateway/internal/common/config"
	"ferreteria-gateway/internal/common/database"
	"ferreteria-gateway/internal/common/logger"
	"ferreteria-gateway/internal/common/observability"
	"ferreteria-gateway/internal/common/validation"

	"ferreteria-gateway/internal/channels/api"
	"ferreteria-gateway/internal/channels/webhook"
	"ferreteria-gateway/internal/inventory"
	"ferreteria-gateway/internal/notify"
	"ferreteria-gateway/internal/pipeline"
	"ferreteria-gateway/internal/search"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting message gateway...",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	validator, err := validation.New()
	if err != nil {
		zapLog.Fatal("schema compilation failed", zap.Error(err))
	}

	// --- Downstream search capability ---
	var searchService search.Service = search.NewClient(
		cfg.Search.BaseURL,
		config.GetDuration(cfg.Search.Timeout),
		log,
	)

	var cachedService *search.CachedService
	if cfg.Cache.Enabled {
		redisClient, err := database.NewRedis(cfg.Cache.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer redisClient.Close()

		if err := retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx)
		}, 5, time.Second, zapLog, "redis ping"); err != nil {
			zapLog.Fatal("redis unavailable", zap.Error(err))
		}

		cachedService = search.NewCachedService(
			searchService,
			redisClient.Client,
			time.Duration(cfg.Cache.TTL)*time.Second,
			log,
		)
		searchService = cachedService
		zapLog.Info("search response cache enabled",
			zap.String("redis", cfg.Cache.Redis.Address),
			zap.Int("ttlSeconds", cfg.Cache.TTL))
	}

	// --- Pipeline ---
	normalizer := buildNormalizer(cfg)
	dispatcher := pipeline.NewDispatcher(
		searchService,
		cfg.Channels.ConversationalDefaultLimit,
		cfg.Channels.MaxLimit,
		log,
	)
	pipe := pipeline.New(
		normalizer,
		dispatcher,
		config.GetDuration(cfg.Search.Timeout),
		log,
		obs,
	)

	// --- Channel handlers ---
	webhookHandler := webhook.NewHandler(pipe, validator, log)
	apiHandler := api.NewHandler(pipe, validator, log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/message", webhookHandler.HandleMessage)
	mux.HandleFunc("POST /api/search", apiHandler.HandleSearch)
	mux.HandleFunc("POST /api/recommend", apiHandler.HandleRecommend)
	mux.HandleFunc("GET /api/products/{sku}", apiHandler.HandleProductDetail)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler(cfg))

	// --- Admin surface (inventory alerts, cache clear) ---
	if cfg.Database.Postgres.Host != "" {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres init failed", zap.Error(err))
		}
		defer pg.Close()

		if err := retryWithBackoff(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			defer cancel()
			return pg.Ping(pingCtx)
		}, 5, time.Second, zapLog, "postgres ping"); err != nil {
			zapLog.Fatal("postgres unavailable", zap.Error(err))
		}

		notifier := buildNotifier(ctx, cfg, log, zapLog)
		checker := inventory.NewChecker(pg.DB, cfg.Inventory, notifier, log)
		mux.Handle("POST /admin/inventory/check",
			adminOnly(cfg.Server.AdminAPIKey, inventoryCheckHandler(checker)))
		zapLog.Info("inventory check endpoint enabled")
	}

	if cachedService != nil {
		mux.Handle("POST /admin/cache/clear",
			adminOnly(cfg.Server.AdminAPIKey, cacheClearHandler(cachedService)))
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildNormalizer(cfg *config.Config) *pipeline.Normalizer {
	greetings := cfg.Channels.Greetings
	if len(greetings) == 0 {
		greetings = pipeline.DefaultGreetings
	}
	fillers := cfg.Channels.Fillers
	if len(fillers) == 0 {
		fillers = pipeline.DefaultFillers
	}
	return pipeline.NewNormalizer(greetings, fillers)
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger, zapLog *zap.Logger) *notify.Service {
	var email notify.EmailSender
	var sms notify.SMSPublisher

	if cfg.Notifications.AWS.SES.Enabled {
		client, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("ses init failed, email alerts disabled", zap.Error(err))
		} else {
			email = client
		}
	}

	if cfg.Notifications.AWS.SNS.Enabled {
		client, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Warn("sns init failed, sms alerts disabled", zap.Error(err))
		} else {
			sms = client
		}
	}

	return notify.NewService(cfg.Notifications, email, sms, log)
}

func healthHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	}
}

func inventoryCheckHandler(checker *inventory.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := checker.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(report)
	}
}

func cacheClearHandler(cache *search.CachedService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := cache.Clear(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "cleared", "deleted": deleted})
	}
}

func adminOnly(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiKey == "" || r.Header.Get("X-Api-Key") != apiKey {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid admin api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

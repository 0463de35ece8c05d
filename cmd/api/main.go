package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xelth-com/eckreceive/internal/ai"
	"github.com/xelth-com/eckreceive/internal/alias"
	"github.com/xelth-com/eckreceive/internal/assist"
	"github.com/xelth-com/eckreceive/internal/catalog"
	"github.com/xelth-com/eckreceive/internal/config"
	"github.com/xelth-com/eckreceive/internal/database"
	"github.com/xelth-com/eckreceive/internal/handlers"
	"github.com/xelth-com/eckreceive/internal/ledger"
	"github.com/xelth-com/eckreceive/internal/logging"
	"github.com/xelth-com/eckreceive/internal/matcher"
	"github.com/xelth-com/eckreceive/internal/printer"
	"github.com/xelth-com/eckreceive/internal/receipt"
	"github.com/xelth-com/eckreceive/internal/reconcile"
	"github.com/xelth-com/eckreceive/internal/services/odoo"
	"github.com/xelth-com/eckreceive/internal/storage"
	"github.com/xelth-com/eckreceive/internal/websocket"
)

const (
	sessionMaxAge = 12 * time.Hour
	pruneInterval = 15 * time.Minute
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.NodeEnv == "development")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatalw("Failed to connect to database", "error", err)
	}

	// 3. Auto-Migrate Schema
	if err := db.Migrate(); err != nil {
		logger.Warnw("Migration warning", "error", err)
	} else {
		logger.Info("Schema synchronized")
	}

	resolver := catalog.NewResolver(buildCatalog(cfg, db, logger), buildLookup(ctx, cfg, logger), logger)

	m, err := matcher.New(cfg.Matching.FuzzyAccept, cfg.Matching.FuzzyHigh, cfg.Matching.Strategy)
	if err != nil {
		logger.Fatalw("Invalid matching configuration", "error", err)
	}

	aliases := alias.NewGormRepository(db.DB)
	opts := reconcile.Options{
		Aliases:           aliases,
		Matcher:           m,
		Ledger:            ledger.NewGormLedger(db.DB),
		VarianceThreshold: cfg.Matching.VarianceThreshold,
		Log:               logger,
	}
	if cfg.Assist.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiClient(ctx, cfg.Assist.GeminiAPIKey, cfg.Assist.Model)
		if err != nil {
			logger.Warnw("Assisted matching disabled", "error", err)
		} else {
			defer gemini.Close()
			opts.Assist = assist.NewGeminiMatcher(gemini)
			logger.Info("Assisted matching enabled")
		}
	}
	orch := reconcile.NewOrchestrator(opts)

	var recognizer receipt.Recognizer
	if cfg.OCR.Endpoint != "" && cfg.OCR.APIKey != "" {
		recognizer = receipt.NewAzureRecognizer(cfg.OCR.Endpoint, cfg.OCR.APIKey, cfg.OCR.Enhance)
	} else {
		logger.Warn("Receipt OCR disabled, AZURE_VISION_ENDPOINT or AZURE_VISION_KEY missing")
	}

	var uploader storage.Uploader
	if s3, err := storage.NewS3Uploader(ctx, cfg.Storage); err != nil {
		logger.Warnw("Receipt upload disabled", "error", err)
	} else {
		uploader = s3
	}

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	sessions := reconcile.NewRegistry()
	go pruneSessions(ctx, sessions, logger)

	// 4. Set up HTTP router
	router := handlers.NewRouter(handlers.Deps{
		Sessions:     sessions,
		Orchestrator: orch,
		Resolver:     resolver,
		Aliases:      aliases,
		Recognizer:   recognizer,
		Uploader:     uploader,
		Hub:          hub,
		Slip:         printer.DefaultSlipConfig(),
		JWTSecret:    cfg.JWTSecret,
		Log:          logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infow("Server starting", "port", cfg.Port, "catalog", cfg.Catalog.Backend, "strategy", cfg.Matching.Strategy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("HTTP server shutdown error", "error", err)
	}

	// Close database (this also stops embedded PostgreSQL)
	if err := db.Close(); err != nil {
		logger.Errorw("Database close error", "error", err)
	}
	logger.Info("Shutdown complete")
}

func buildCatalog(cfg *config.Config, db *database.DB, logger *zap.SugaredLogger) catalog.Catalog {
	if cfg.Catalog.Backend == "odoo" {
		client := odoo.NewClient(cfg.Catalog.OdooURL, cfg.Catalog.OdooDatabase, cfg.Catalog.OdooUsername, cfg.Catalog.OdooPassword)
		if _, err := client.Authenticate(); err != nil {
			logger.Fatalw("Odoo authentication failed", "url", cfg.Catalog.OdooURL, "error", err)
		}
		logger.Infow("Using Odoo catalog", "url", cfg.Catalog.OdooURL)
		return catalog.NewOdooCatalog(client)
	}
	return catalog.NewGormCatalog(db.DB)
}

func buildLookup(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) catalog.Lookup {
	var lookup catalog.Lookup = catalog.NewOpenFoodFacts(cfg.Lookup.BaseURL, time.Duration(cfg.Lookup.TimeoutSeconds)*time.Second)
	if cfg.Lookup.RedisAddr == "" {
		return lookup
	}

	kv, err := catalog.NewRedisKV(ctx, cfg.Lookup.RedisAddr, cfg.Lookup.RedisPassword, cfg.Lookup.RedisDB)
	if err != nil {
		logger.Warnw("Lookup cache disabled", "addr", cfg.Lookup.RedisAddr, "error", err)
		return lookup
	}
	return catalog.NewCachedLookup(lookup, kv, time.Duration(cfg.Lookup.CacheTTLHours)*time.Hour, logger)
}

// pruneSessions drops abandoned sessions so the registry does not grow forever
func pruneSessions(ctx context.Context, sessions *reconcile.Registry, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Prune(sessionMaxAge); n > 0 {
				logger.Infow("Pruned idle receiving sessions", "count", n)
			}
		}
	}
}

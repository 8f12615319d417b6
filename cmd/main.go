package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"mediscan/internal/catalog"
	"mediscan/internal/matcher"
	"mediscan/internal/qrcode"
	"mediscan/internal/search"
	"mediscan/internal/server"
	"mediscan/pkg/config"
	"mediscan/pkg/database"
	"mediscan/pkg/jwtutil"
	"mediscan/pkg/logger"
	"mediscan/prometheus"
)

const serviceName = "mediscan"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mediscan: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Load configuration
	appConfig, err := config.Load(serviceName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	defer log.Sync() //nolint:errcheck

	log.Info("Starting mediscan", appConfig.LogConfig()...)

	// Initialize Prometheus metrics
	metrics := prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Load catalog
	src, db, err := catalogSource(appConfig, log)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	cat, err := catalog.Load(ctx, src, log)
	if err != nil {
		return err
	}
	metrics.RecordCatalog(cat.CountByCategory())

	// Remote matcher
	var m search.Matcher = matcher.Disabled{}
	if appConfig.Gemini.Enabled() {
		m = matcher.NewGeminiMatcher(matcher.GeminiConfig{
			BaseURL:   appConfig.Gemini.BaseURL,
			APIKey:    appConfig.Gemini.APIKey,
			Model:     appConfig.Gemini.Model,
			Timeout:   appConfig.Gemini.Timeout,
			RateLimit: appConfig.Gemini.RateLimit,
			Burst:     appConfig.Gemini.RateBurst,
		}, log)
		log.Info("AI search enabled", zap.String("model", appConfig.Gemini.Model))
	} else {
		log.Warn("GEMINI_API_KEY not set, searching with local matching only")
	}

	store := search.NewStore(search.StoreConfig{
		Size:     appConfig.Session.CacheSize,
		TTL:      appConfig.Session.TTL,
		Debounce: appConfig.Session.Debounce,
	}, cat, m, metrics, log, metrics.SetActiveSessions)

	jwtUtil := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey: appConfig.Session.SigningKey,
		Expiration: appConfig.Session.TTL,
	})

	qr := qrcode.NewGenerator(qrcode.Config{
		BaseURL:       appConfig.QR.BaseURL,
		Size:          appConfig.QR.Size,
		Margin:        &appConfig.QR.Margin,
		DefaultTarget: appConfig.QR.DefaultTarget,
	})

	e := server.New(server.Deps{
		Config:  appConfig,
		Catalog: cat,
		Store:   store,
		JWT:     jwtUtil,
		QR:      qr,
		Metrics: metrics,
	})

	// Start server with errgroup for graceful shutdown
	address := ":" + appConfig.Server.Port
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server", zap.String("address", address))
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", zap.Error(err))
		return err
	}

	log.Info("Server exited properly")
	return nil
}

// catalogSource picks the inventory source. The returned *gorm.DB is nil for
// the embedded source.
func catalogSource(appConfig *config.Config, log *zap.Logger) (catalog.Source, *gorm.DB, error) {
	if appConfig.Catalog.Source != config.CatalogSourcePostgres {
		return catalog.EmbeddedSource{}, nil, nil
	}

	db, err := database.InitDB(&appConfig.DB, log)
	if err != nil {
		return nil, nil, err
	}
	return catalog.NewGormSource(db), db, nil
}

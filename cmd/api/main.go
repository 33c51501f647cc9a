package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/mortgage-service/internal/config"
	"github.com/Dan9191/mortgage-service/internal/handler"
	"github.com/Dan9191/mortgage-service/internal/integrations/cbr"
	"github.com/Dan9191/mortgage-service/internal/middleware"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/repository"
	"github.com/Dan9191/mortgage-service/internal/scheduler"
	"github.com/Dan9191/mortgage-service/internal/service"
	"github.com/Dan9191/mortgage-service/internal/session"
	"github.com/Dan9191/mortgage-service/internal/utils/email"
	"github.com/Dan9191/mortgage-service/internal/view"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Program catalog
	programs := mortgage.DefaultPrograms()
	if cfg.ProgramsFile != "" {
		programs, err = config.LoadPrograms(cfg.ProgramsFile)
		if err != nil {
			logger.Fatalf("Failed to load programs: %v", err)
		}
	}
	catalog, err := mortgage.NewCatalog(programs)
	if err != nil {
		logger.Fatalf("Invalid program catalog: %v", err)
	}

	formatter, err := view.NewFormatter(cfg.Locale, cfg.CurrencySymbol)
	if err != nil {
		logger.Fatalf("Failed to set up formatting: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := repository.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Session storage
	var store session.Store
	if cfg.RedisAddr != "" {
		redisStore := session.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err := redisStore.Ping(ctx); err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		logger.Infof("Sessions stored in redis at %s", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore()
		logger.Info("Sessions stored in memory")
	}

	// Initialize layers
	resultsView := view.NewView(formatter)
	sessions := session.NewManager(store, catalog, resultsView, cfg.SessionTTL, logger)
	sender := email.NewSender(cfg, formatter, logger)
	svc := service.NewService(repo, sender, catalog, logger, cfg)
	keyRate := cbr.NewKeyRateCache(cbr.NewCBRClient(cfg.CBRURL, logger))
	h := handler.NewHandler(svc, sessions, keyRate, logger)

	// Background jobs
	jobs := scheduler.New(logger)
	if err := jobs.AddJob("key-rate", cfg.KeyRateSchedule, keyRate.Refresh); err != nil {
		logger.Fatalf("%v", err)
	}
	if err := jobs.AddJob("session-gc", cfg.SessionGCSchedule, func(context.Context) error {
		if n := sessions.EvictIdle(cfg.SessionTTL / 4); n > 0 {
			logger.Infof("Evicted %d idle sessions", n)
		}
		return nil
	}); err != nil {
		logger.Fatalf("%v", err)
	}
	go func() {
		if err := keyRate.Refresh(ctx); err != nil {
			logger.Warnf("Initial key rate fetch failed: %v", err)
		}
	}()
	jobs.Start()
	defer func() { <-jobs.Stop().Done() }()

	logger.WithFields(logrus.Fields{"program": catalog.Default().ID, "programs": len(catalog.All())}).Info("Program catalog loaded")

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	h.Routes(r, middleware.AuthMiddleware(cfg))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Errorf("Server failed: %v", err)
		return
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
}

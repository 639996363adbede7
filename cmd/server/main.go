package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spotledger/spotledger/internal/config"
	"github.com/spotledger/spotledger/internal/database"
	"github.com/spotledger/spotledger/internal/events"
	"github.com/spotledger/spotledger/internal/modules/journal"
	"github.com/spotledger/spotledger/internal/modules/ledger"
	"github.com/spotledger/spotledger/internal/modules/portfolio"
	"github.com/spotledger/spotledger/internal/modules/trading"
	"github.com/spotledger/spotledger/internal/scheduler"
	"github.com/spotledger/spotledger/internal/server"
	"github.com/spotledger/spotledger/pkg/logger"
)

func main() {
	// Load configuration first so the logger level is configurable
	cfg, err := config.Load()
	if err != nil {
		bootstrapLog := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrapLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting spotledger")

	// The ledger profile trades write speed for durability: the transaction
	// log is the source of truth for every balance.
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath,
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	tradeRepo := ledger.NewTradeRepository(db.Conn(), log)
	cashRepo := ledger.NewCashRepository(db.Conn(), log)
	journalRepo := journal.NewRepository(db.Conn(), log)

	// Services
	eventManager := events.NewManager(log)
	portfolioService := portfolio.NewService(tradeRepo, cashRepo, log)
	safetyService := trading.NewSafetyService(portfolioService, log)
	tradingService := trading.NewService(
		tradeRepo, cashRepo, journalRepo, safetyService, eventManager, log,
	)

	// Background maintenance
	sched := scheduler.New(log)
	if err := sched.AddJob("@daily", scheduler.NewLedgerMaintenanceJob(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register maintenance job")
	}
	if err := sched.AddJob("0 4 * * SUN", scheduler.NewIntegrityCheckJob(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register integrity check job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:              cfg.Port,
		Log:               log,
		DB:                db,
		TradingHandlers:   trading.NewHandlers(tradingService, tradeRepo, cashRepo, log),
		PortfolioHandlers: portfolio.NewHandlers(portfolioService, log),
		JournalHandlers:   journal.NewHandlers(journalRepo, log),
		DevMode:           cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

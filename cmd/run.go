package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fanpool/api"
	"fanpool/chain"
	"fanpool/config"
	"fanpool/database"
	"fanpool/events"
	"fanpool/metrics"
	"fanpool/repository"
	"fanpool/service"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting fanpool settlement engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize escrow source. Without an RPC endpoint reconciliation
	// degrades to ledger-only views.
	var escrowSource service.EscrowSource
	if cfg.EscrowRPCURL != "" {
		source, err := chain.NewEscrowSource(cfg.EscrowRPCURL, cfg.EscrowContractAddr)
		if err != nil {
			return fmt.Errorf("failed to initialize escrow source: %w", err)
		}
		defer source.Close()
		escrowSource = source
	} else {
		log.Warn("ESCROW_RPC_URL not set, balance summaries will be ledger-only")
		escrowSource = unavailableEscrowSource{}
	}

	// Initialize services
	escrowService := service.NewEscrowService(uowFactory, escrowSource, cfg.ReconcileTimeout)
	walletService := service.NewWalletService(uowFactory, escrowService)
	predictionService := service.NewPredictionService(uowFactory, cfg)
	settlementService := service.NewSettlementService(uowFactory, cfg)
	log.Println("Services initialized successfully")

	// Start metrics server
	metricsServer := metrics.StartServer(cfg.MetricsAddr, func(ctx context.Context) error {
		return db.Pool.Ping(ctx)
	})
	log.Printf("Metrics server listening on %s", cfg.MetricsAddr)

	// Start background sweepers
	go runSweepers(ctx, cfg.SweepInterval, predictionService, escrowService)

	// Start HTTP API
	server := api.NewServer(cfg.HTTPAddr, walletService, predictionService, settlementService)
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	log.Printf("API server listening on %s in %s mode", cfg.HTTPAddr, cfg.Environment)

	select {
	case err := <-serverErr:
		return fmt.Errorf("API server error: %w", err)
	case <-ctx.Done():
	}

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}

// runSweepers periodically closes expired predictions and releases stale
// escrow locks
func runSweepers(ctx context.Context, interval time.Duration, predictions service.PredictionService, escrow service.EscrowService) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if closed, err := predictions.CloseExpired(ctx); err != nil {
				log.WithError(err).Error("Failed to close expired predictions")
			} else if closed > 0 {
				log.WithField("count", closed).Info("Closed expired predictions")
			}

			if _, err := escrow.ExpireStaleLocks(ctx); err != nil {
				log.WithError(err).Error("Failed to expire stale escrow locks")
			}
		}
	}
}

// unavailableEscrowSource stands in when no RPC endpoint is configured
type unavailableEscrowSource struct{}

func (unavailableEscrowSource) EscrowBalance(ctx context.Context, userID int64) (int64, error) {
	return 0, fmt.Errorf("no escrow source configured")
}

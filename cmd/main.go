package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mohtashimnawaz/prediction/internal/auth"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/config"
	"github.com/mohtashimnawaz/prediction/internal/database"
	"github.com/mohtashimnawaz/prediction/internal/handlers"
	"github.com/mohtashimnawaz/prediction/internal/jobs"
	"github.com/mohtashimnawaz/prediction/internal/pricefeed"
	"github.com/mohtashimnawaz/prediction/internal/repository"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

// settlement bundles the custody backend the services run against.
type settlement struct {
	custody   blockchain.Custody
	vaults    blockchain.VaultLocator
	ownership blockchain.TokenOwnership
	escrow    *blockchain.Escrow
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	switch cfg.Database.Driver {
	case "sqlite":
		err = database.ConnectSQLite(cfg.Database.SQLitePath)
	default:
		err = database.Connect(cfg.GetDSN())
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())
	clock := services.SystemClock{}

	backend, err := newSettlement(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize custody: %v", err)
	}

	store, err := newObservationStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize price store: %v", err)
	}

	// Initialize services
	platformService := services.NewPlatformService(repo, clock)
	marketService := services.NewMarketService(repo, clock, backend.custody, backend.vaults, backend.ownership)
	resolutionService := services.NewResolutionService(repo, clock, store, cfg.Oracle.MaxStaleness)
	payoutService := services.NewPayoutService(repo, clock, backend.custody, backend.vaults, cfg.Solana.FeeBps)
	cardService := services.NewCardService(repo, clock, backend.ownership)

	// Background jobs
	priceResolver := jobs.NewPriceResolver(resolutionService, cfg.Jobs.ResolverInterval)
	pricePoller := jobs.NewPricePoller(
		pricefeed.NewPoller(store, cfg.Oracle.PriceFeeds, cfg.Oracle.PriceDecimals, clock.Now),
		cfg.Jobs.PollerInterval,
	)

	// Set up Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(router, handlers.Handlers{
		Auth:       handlers.NewAuthHandler(),
		Platform:   handlers.NewPlatformHandler(platformService),
		Market:     handlers.NewMarketHandler(marketService),
		Resolution: handlers.NewResolutionHandler(resolutionService),
		Payout:     handlers.NewPayoutHandler(payoutService),
		Card:       handlers.NewCardHandler(cardService),
		Blockchain: handlers.NewBlockchainHandler(backend.escrow),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		priceResolver.Start(gctx)
		return nil
	})
	g.Go(func() error {
		pricePoller.Start(gctx)
		return nil
	})

	// Wait for a signal or a failed worker, then stop everything
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		priceResolver.Stop()
		pricePoller.Stop()

		// Graceful shutdown with 5 second timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped with error: %v", err)
	}
	log.Println("Server exited")
}

// newSettlement uses the escrow program when one is configured and falls back
// to in-memory balances otherwise.
func newSettlement(cfg *config.Config) (*settlement, error) {
	if cfg.Solana.ProgramID == "" {
		log.Printf("[Custody] No escrow program configured, using in-memory custody (opening balance %d)", cfg.Solana.DevOpeningBalance)
		return &settlement{
			custody:   blockchain.NewMemoryCustody(cfg.Solana.DevOpeningBalance),
			vaults:    blockchain.HashVaults{Prefix: "dev"},
			ownership: blockchain.NewStaticOwnership(),
		}, nil
	}

	client := blockchain.NewSolanaClient(cfg.Solana.Network, cfg.Solana.RPCURL, cfg.Solana.ServerWalletPrivateKey)
	escrow, err := blockchain.NewEscrow(client, cfg.Solana.ProgramID)
	if err != nil {
		return nil, err
	}
	log.Printf("[Custody] Using escrow program %s on %s", cfg.Solana.ProgramID, client.RPCURL())
	return &settlement{
		custody:   blockchain.NewSolanaCustody(client, escrow),
		vaults:    escrow,
		ownership: client,
		escrow:    escrow,
	}, nil
}

func newObservationStore(ctx context.Context, cfg *config.Config) (pricefeed.Store, error) {
	if cfg.Redis.Addr == "" {
		log.Println("[PriceFeed] No Redis configured, keeping observations in memory")
		return pricefeed.NewMemoryStore(), nil
	}
	rdb, err := pricefeed.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	return pricefeed.NewRedisStore(rdb), nil
}

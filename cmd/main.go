package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"betvex/internal/auth"
	"betvex/internal/cache"
	"betvex/internal/chain"
	"betvex/internal/config"
	"betvex/internal/database"
	"betvex/internal/events"
	"betvex/internal/handlers"
	"betvex/internal/indexer"
	"betvex/internal/jobs"
	"betvex/internal/logger"
	"betvex/internal/metrics"
	"betvex/internal/services"
	"betvex/internal/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New("betvex-api", cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	db, err := database.Connect(cfg.GetDSN())
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zlog.Fatal("failed to connect to redis", zap.Error(err))
	}
	leaderboard := cache.NewLeaderboard(redisClient)

	// Receipts publisher is optional; nil when no brokers are configured
	receipts := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zlog)

	// Chain client, relayer and signer
	chainClient := chain.NewClient(cfg.Chain.Network, cfg.Chain.RPCURL, zlog)
	relayer, err := chain.NewRelayer(chainClient, cfg.Chain.RelayerPrivateKey, zlog)
	if err != nil {
		zlog.Fatal("failed to load relayer", zap.Error(err))
	}
	signer := chain.NewSigner(relayer)

	// Indexer client
	indexerClient := indexer.NewClient(cfg.Indexer.EndpointURL)

	// Websocket hub for live odds
	hub := ws.NewHub(func(r *http.Request) bool { return true })

	// Initialize services
	accountSuffix := "users.betvex." + cfg.Chain.Network
	accountService := services.NewAccountService(db, leaderboard, accountSuffix, zlog)
	relayService := services.NewRelayService(relayer, chainClient, cfg.Chain, cfg.App.MaxBetAmount, receipts, zlog)
	matchService := services.NewMatchService(indexerClient, redisClient, hub, zlog)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(accountService)
	relayHandler := handlers.NewRelayHandler(relayService, accountService, signer)
	gqlHandler := handlers.NewGQLHandler(indexerClient)
	matchHandler := handlers.NewMatchHandler(matchService, leaderboard)

	// Start match sync job
	syncJob := jobs.NewMatchSyncJob(matchService, zlog)
	syncJob.Start(ctx, 1*time.Minute)

	// Metrics and health server on its own port
	metricsSrv := metrics.StartServer(cfg.Server.MetricsPort, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	// Set up Gin router
	if cfg.Server.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(metrics.HTTPMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Account routes (public)
	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/create-account", authHandler.CreateAccount)
		authRoutes.POST("/check-account-exists", authHandler.CheckAccountExists)
		authRoutes.POST("/user", authHandler.GetUser)
		authRoutes.POST("/settings", authHandler.UpdateSettings)
		authRoutes.POST("/wallet", authHandler.WalletLogin)
		authRoutes.POST("/custodial-key", authHandler.CreateCustodialKey)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Public read routes
	router.GET("/api/matches", matchHandler.GetMatches)
	router.POST("/api/matches/potential-winnings", matchHandler.QuoteWinnings)
	router.POST("/api/bets", matchHandler.GetUserBets)
	router.GET("/api/leaderboard", matchHandler.GetLeaderboard)
	router.POST("/api/gql", gqlHandler.Proxy)

	// Live odds updates
	router.GET("/ws/matches", func(c *gin.Context) {
		hub.HandleWS(c.Writer, c.Request)
	})

	// Relayer routes (protected)
	relayRoutes := router.Group("/api/relayer")
	relayRoutes.Use(auth.AuthMiddleware())
	{
		relayRoutes.POST("/stake", relayHandler.Stake)
		relayRoutes.POST("/unstake", relayHandler.Unstake)
		relayRoutes.POST("/stake-info", relayHandler.StakeInfo)
		relayRoutes.POST("/swap", relayHandler.Swap)
		relayRoutes.POST("/create-account", relayHandler.CreateAccount)
		relayRoutes.POST("/faucet", relayHandler.Faucet)
		relayRoutes.POST("/distribute-rewards", relayHandler.DistributeRewards)
	}

	// Transaction routes (protected)
	txRoutes := router.Group("/api/transactions")
	txRoutes.Use(auth.AuthMiddleware())
	{
		txRoutes.POST("/relay", relayHandler.RelayTransactions)
		txRoutes.POST("/sign", relayHandler.SignAndSubmit)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		zlog.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("network", cfg.Chain.Network),
			zap.String("relayer", relayer.AccountID()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	cancel()

	// Graceful shutdown with 5 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	_ = metricsSrv.Shutdown(shutdownCtx)

	if err := receipts.Close(); err != nil {
		zlog.Warn("failed to close receipts publisher", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		zlog.Warn("failed to close redis", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		zlog.Warn("failed to close database", zap.Error(err))
	}

	zlog.Info("server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"pocketledger/internal/config"
	"pocketledger/internal/handlers"
	"pocketledger/internal/ledger"
	"pocketledger/internal/logger"
	"pocketledger/internal/middleware"
	"pocketledger/internal/storage"
	"pocketledger/internal/validator"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Open the durable store and start the ordered async writer
	store, err := storage.NewGormStore(appConfig)
	if err != nil {
		return fmt.Errorf("failed to open durable store: %w", err)
	}
	defer store.Close()

	writer := storage.NewWriter(store)
	defer writer.Close() // final flush

	// Build the ledger engine and hydrate it from the durable store
	txnStore := ledger.NewTransactionStore(store, writer, appConfig.DefaultCurrency)
	balanceStore := ledger.NewBalanceStore(store, writer, appConfig.DefaultCurrency)
	reconciler := ledger.NewReconciler(txnStore, balanceStore)

	ctx := context.Background()
	if err := txnStore.Load(ctx); err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if err := balanceStore.Load(ctx); err != nil {
		return fmt.Errorf("failed to load balance: %w", err)
	}

	// Initialize handlers
	transactionHandler := handlers.NewTransactionHandler(txnStore, reconciler)
	balanceHandler := handlers.NewBalanceHandler(balanceStore, txnStore, reconciler)

	// Register custom binding validators
	validator.Register()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.DELETE("", transactionHandler.ClearTransactions)
	transactions.GET("/spending", transactionHandler.SpendingByCategory)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
	transactions.POST("/:id/abandon", transactionHandler.AbandonTransaction)
	transactions.POST("/:id/commit", transactionHandler.RequestCommit)

	// Commit confirmation routes
	commits := v1.Group("/commits")
	commits.POST("/:token/confirm", transactionHandler.ConfirmCommit)
	commits.POST("/:token/cancel", transactionHandler.CancelCommit)

	// Balance routes
	balance := v1.Group("/balance")
	balance.GET("", balanceHandler.GetBalance)
	balance.GET("/potential", balanceHandler.GetPotentialBalance)
	balance.GET("/history", balanceHandler.GetHistory)
	balance.GET("/last-committed-time", balanceHandler.GetLastCommittedTime)
	balance.GET("/summary", balanceHandler.GetSummary)
	balance.POST("/deposit", balanceHandler.Deposit)
	balance.POST("/withdraw", balanceHandler.Withdraw)
	balance.POST("/recompute", balanceHandler.Recompute)
	balance.POST("/reset", balanceHandler.Reset)

	log.Infof("Starting ledger server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

package api

import (
	"context"
	"net/http"
	"time"

	"fanpool/service"

	"github.com/gin-gonic/gin"
)

// Server hosts the HTTP API
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// NewServer wires the handlers onto a gin router
func NewServer(
	addr string,
	wallets service.WalletService,
	predictions service.PredictionService,
	settlements service.SettlementService,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware())

	walletHandler := NewWalletHandler(wallets)
	predictionHandler := NewPredictionHandler(predictions)
	settlementHandler := NewSettlementHandler(settlements)

	v1 := router.Group("/v1")
	{
		wallet := v1.Group("/wallets/:userID")
		{
			wallet.POST("/deposit", walletHandler.Deposit)
			wallet.POST("/withdraw", walletHandler.Withdraw)
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/summary", walletHandler.GetSummary)
			wallet.GET("/transactions", walletHandler.ListTransactions)
		}

		prediction := v1.Group("/predictions")
		{
			prediction.POST("", predictionHandler.Create)
			prediction.GET("", predictionHandler.List)
			prediction.GET("/:predictionID", predictionHandler.Get)
			prediction.POST("/:predictionID/close", predictionHandler.Close)
			prediction.POST("/:predictionID/stakes", predictionHandler.PlaceStake)
			prediction.POST("/:predictionID/stakes/cancel", predictionHandler.CancelStake)
			prediction.POST("/:predictionID/quote", predictionHandler.QuoteStake)
			prediction.POST("/:predictionID/settle", settlementHandler.Settle)
			prediction.POST("/:predictionID/void", settlementHandler.Void)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/pollux-labs/garuda/ports"
	"github.com/pollux-labs/garuda/service"
	"github.com/rs/zerolog"
)

// SetupRouter sets up the Gin router
func SetupRouter(txService *service.TxService, store ports.Store, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	// Create handlers
	handlers := NewTxHandlers(txService, store)

	router.GET("/healthz", handlers.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/calls", handlers.ExecuteCall)
		v1.GET("/transactions/:hash", handlers.TransactionStatus)
		v1.GET("/sponsorship/status", handlers.SponsorshipStatus)
	}

	return router
}

package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/garuda/adapters/wallet"
	"github.com/layer-3/garuda/service"
)

// SetupRouter sets up the Gin router for the local control API.
func SetupRouter(manager *service.Manager, wallets *wallet.Registry, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logger(log))

	handlers := NewSessionHandlers(manager, wallets)

	session := router.Group("/session")
	{
		session.POST("/:walletId/token", handlers.Token)
		session.DELETE("/:walletId", handlers.Reset)
		session.POST("/connect", handlers.Connect)
		session.GET("/status", handlers.Status)
		session.DELETE("", handlers.ResetAll)
	}

	registry := router.Group("/wallets")
	{
		registry.PUT("/:walletId", handlers.RegisterWallet)
		registry.DELETE("/:walletId", handlers.RemoveWallet)
	}

	router.POST("/services/open", handlers.OpenServices)

	return router
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/auth"
)

type Handlers struct {
	Auth       *AuthHandler
	Platform   *PlatformHandler
	Market     *MarketHandler
	Resolution *ResolutionHandler
	Payout     *PayoutHandler
	Card       *CardHandler
	Blockchain *BlockchainHandler
}

// RegisterRoutes mounts the public and authenticated API on router.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.POST("/auth/wallet", h.Auth.WalletLogin)

	router.GET("/api/platform", h.Platform.GetPlatform)
	router.GET("/api/markets", h.Market.GetMarkets)
	router.GET("/api/markets/:id", h.Market.GetMarketByID)
	router.GET("/api/markets/:id/bets", h.Market.GetMarketBets)
	router.GET("/api/markets/:id/reconcile", h.Market.Reconcile)
	router.POST("/api/markets/:id/resolve/price", h.Resolution.ResolvePrice)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.POST("/platform", h.Platform.CreatePlatform)

		api.POST("/markets", h.Market.CreateMarket)
		api.POST("/markets/:id/wager", h.Market.PlaceWager)
		api.GET("/markets/:id/quote", h.Payout.GetQuote)
		api.POST("/markets/:id/claim", h.Payout.Claim)
		api.POST("/markets/:id/fee", h.Payout.CollectFee)
		api.GET("/bets", h.Market.GetMyBets)

		resolve := api.Group("/markets/:id/resolve")
		{
			resolve.POST("/manual", h.Resolution.ResolveManual)
			resolve.POST("/sports", h.Resolution.ResolveSports)
			resolve.POST("/weather", h.Resolution.ResolveWeather)
			resolve.POST("/social", h.Resolution.ResolveSocial)
		}

		api.POST("/cards", h.Card.MintCard)
		api.GET("/cards", h.Card.GetCards)
		api.POST("/cards/:mint/stats", h.Card.UpdateCardStats)
	}

	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(h.Platform.RequirePlatformAuthority())
	{
		admin.GET("/diagnostics", h.Blockchain.GetDiagnostics)
	}
}

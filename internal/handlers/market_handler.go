package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/repository"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

type MarketHandler struct {
	marketService *services.MarketService
}

func NewMarketHandler(marketService *services.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

// GetMarkets lists markets, newest first
// GET /api/markets?category=&resolved=&creator=&limit=&offset=
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	limit, offset := pagination(c)
	filter := repository.MarketFilter{
		Creator: c.Query("creator"),
		Limit:   limit,
		Offset:  offset,
	}
	if category := c.Query("category"); category != "" {
		parsed, err := models.ParseCategory(category)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Category = &parsed
	}
	if resolved := c.Query("resolved"); resolved != "" {
		b, err := strconv.ParseBool(resolved)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolved must be true or false"})
			return
		}
		filter.Resolved = &b
	}

	markets, total, err := h.marketService.ListMarkets(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"count":   len(markets),
		"total":   total,
	})
}

// GetMarketByID returns a market with its current state
// GET /api/markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	market, err := h.marketService.GetMarket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": market})
}

// GetMarketBets lists every bet placed on a market
// GET /api/markets/:id/bets
func (h *MarketHandler) GetMarketBets(c *gin.Context) {
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	bets, err := h.marketService.ListMarketBets(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": bets, "count": len(bets)})
}

// Reconcile checks the market pools against the sum of its bets
// GET /api/markets/:id/reconcile
func (h *MarketHandler) Reconcile(c *gin.Context) {
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	result, err := h.marketService.Reconcile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// CreateMarket creates a market owned by the caller
// POST /api/markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.marketService.CreateMarket(c.Request.Context(), wallet, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": market})
}

// PlaceWager stakes on one side of a market
// POST /api/markets/:id/wager
func (h *MarketHandler) PlaceWager(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	var req models.PlaceWagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := blockchain.WithDepositSignature(c.Request.Context(), req.DepositSignature)
	bet, err := h.marketService.PlaceWager(ctx, id, wallet, *req.Prediction, req.Amount, req.CardMint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": bet})
}

// GetMyBets lists the caller's bets
// GET /api/bets
func (h *MarketHandler) GetMyBets(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	bets, err := h.marketService.ListBettorBets(c.Request.Context(), wallet, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": bets, "count": len(bets)})
}

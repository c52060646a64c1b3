package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

type CardHandler struct {
	cardService *services.CardService
}

func NewCardHandler(cardService *services.CardService) *CardHandler {
	return &CardHandler{cardService: cardService}
}

// MintCard registers a card owned by the caller
// POST /api/cards
func (h *CardHandler) MintCard(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	var req models.MintCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.cardService.MintCard(c.Request.Context(), wallet, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": card})
}

// GetCards lists cards owned by ?owner=, defaulting to the caller
// GET /api/cards
func (h *CardHandler) GetCards(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	cards, err := h.cardService.ListCards(c.Request.Context(), c.DefaultQuery("owner", wallet))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cards, "count": len(cards)})
}

// UpdateCardStats records a win or loss reported by the card holder
// POST /api/cards/:mint/stats
func (h *CardHandler) UpdateCardStats(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	var req models.UpdateCardStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.cardService.UpdateCardStats(c.Request.Context(), c.Param("mint"), wallet, *req.Won)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": card})
}

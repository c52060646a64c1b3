package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

type PayoutHandler struct {
	payoutService *services.PayoutService
}

func NewPayoutHandler(payoutService *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// Claim pays out the caller's winnings. The body may name the bettor; it
// defaults to the caller and any other value is rejected by the service.
// POST /api/markets/:id/claim
func (h *PayoutHandler) Claim(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	var req struct {
		Bettor string `json:"bettor"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	bettor := req.Bettor
	if bettor == "" {
		bettor = wallet
	}

	amount, err := h.payoutService.Claim(c.Request.Context(), id, wallet, bettor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "amount": amount})
}

// CollectFee sends the platform fee to the treasury
// POST /api/markets/:id/fee
func (h *PayoutHandler) CollectFee(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	amount, err := h.payoutService.CollectFee(c.Request.Context(), id, wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "amount": amount})
}

// GetQuote shows the payout breakdown for the caller, or ?bettor=
// GET /api/markets/:id/quote
func (h *PayoutHandler) GetQuote(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	bettor := c.DefaultQuery("bettor", wallet)

	quote, err := h.payoutService.Quote(c.Request.Context(), id, bettor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": quote})
}

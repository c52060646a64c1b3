package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

type ResolutionHandler struct {
	resolver *services.ResolutionService
}

func NewResolutionHandler(resolver *services.ResolutionService) *ResolutionHandler {
	return &ResolutionHandler{resolver: resolver}
}

func (h *ResolutionHandler) respond(c *gin.Context, market *models.Market, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": market})
}

// POST /api/markets/:id/resolve/manual
func (h *ResolutionHandler) ResolveManual(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	var req models.ResolveManualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	market, err := h.resolver.ResolveManual(c.Request.Context(), id, wallet, *req.Outcome)
	h.respond(c, market, err)
}

// ResolvePrice is open to any caller.
// POST /api/markets/:id/resolve/price
func (h *ResolutionHandler) ResolvePrice(c *gin.Context) {
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	market, err := h.resolver.ResolvePrice(c.Request.Context(), id)
	h.respond(c, market, err)
}

// POST /api/markets/:id/resolve/sports
func (h *ResolutionHandler) ResolveSports(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	var req models.ResolveSportsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	market, err := h.resolver.ResolveSports(c.Request.Context(), id, wallet, req.TeamAScore, req.TeamBScore)
	h.respond(c, market, err)
}

// POST /api/markets/:id/resolve/weather
func (h *ResolutionHandler) ResolveWeather(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	var req models.ResolveWeatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	market, err := h.resolver.ResolveWeather(c.Request.Context(), id, wallet, req.RecordedValue)
	h.respond(c, market, err)
}

// POST /api/markets/:id/resolve/social
func (h *ResolutionHandler) ResolveSocial(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	id, ok := marketIDParam(c)
	if !ok {
		return
	}
	var req models.ResolveSocialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	market, err := h.resolver.ResolveSocial(c.Request.Context(), id, wallet, req.ActualValue)
	h.respond(c, market, err)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/models"
	"github.com/mohtashimnawaz/prediction/internal/services"
)

type PlatformHandler struct {
	platformService *services.PlatformService
}

func NewPlatformHandler(platformService *services.PlatformService) *PlatformHandler {
	return &PlatformHandler{platformService: platformService}
}

// GetPlatform returns the platform authority, treasury and totals
// GET /api/platform
func (h *PlatformHandler) GetPlatform(c *gin.Context) {
	platform, err := h.platformService.GetPlatform(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": platform})
}

// CreatePlatform initializes the platform; the caller becomes the fee authority
// POST /api/platform
func (h *PlatformHandler) CreatePlatform(c *gin.Context) {
	wallet, ok := callerWallet(c)
	if !ok {
		return
	}
	var req models.CreatePlatformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := h.platformService.CreatePlatform(c.Request.Context(), wallet, req.Treasury)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": platform})
}

// RequirePlatformAuthority only lets the platform fee authority through.
func (h *PlatformHandler) RequirePlatformAuthority() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := callerWallet(c)
		if !ok {
			c.Abort()
			return
		}
		platform, err := h.platformService.GetPlatform(c.Request.Context())
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if platform.Authority != wallet {
			c.JSON(http.StatusForbidden, gin.H{"error": "platform authority required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

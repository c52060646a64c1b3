package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/auth"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:    http.StatusBadRequest,
	apperr.KindConfig:        http.StatusUnprocessableEntity,
	apperr.KindState:         http.StatusConflict,
	apperr.KindAuthorization: http.StatusForbidden,
	apperr.KindEconomic:      http.StatusConflict,
	apperr.KindExternal:      http.StatusBadGateway,
}

var notFoundCodes = map[string]bool{
	apperr.ErrPlatformNotFound.Code: true,
	apperr.ErrMarketNotFound.Code:   true,
	apperr.ErrBetNotFound.Code:      true,
	apperr.ErrCardNotFound.Code:     true,
}

// StatusFor maps a domain error to an HTTP status. Unknown errors are 500.
func StatusFor(err error) int {
	e, ok := apperr.As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if notFoundCodes[e.Code] {
		return http.StatusNotFound
	}
	if status, ok := kindStatus[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes the error body. Internal errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(StatusFor(err), gin.H{
		"error": err.Error(),
		"code":  e.Code,
		"kind":  e.Kind,
	})
}

func callerWallet(c *gin.Context) (string, bool) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return wallet, true
}

func marketIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

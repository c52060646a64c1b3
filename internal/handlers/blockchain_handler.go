package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
)

type BlockchainHandler struct {
	escrow *blockchain.Escrow
}

// NewBlockchainHandler accepts a nil escrow when custody runs in memory.
func NewBlockchainHandler(escrow *blockchain.Escrow) *BlockchainHandler {
	return &BlockchainHandler{escrow: escrow}
}

// GetDiagnostics checks RPC connectivity, the authority key and vault derivation
// GET /api/admin/diagnostics
func (h *BlockchainHandler) GetDiagnostics(c *gin.Context) {
	if h.escrow == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "solana custody is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": h.escrow.RunDiagnostics(c.Request.Context())})
}

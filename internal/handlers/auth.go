package handlers

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mohtashimnawaz/prediction/internal/auth"
	"github.com/mohtashimnawaz/prediction/internal/blockchain"
	"github.com/mr-tron/base58"
)

// LoginWindow bounds how old a signed login message may be.
const LoginWindow = 5 * time.Minute

// LoginMessage is the text a wallet signs to log in.
func LoginMessage(timestamp int64) string {
	return fmt.Sprintf("Sign in to the prediction market at %d", timestamp)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	now func() time.Time
}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{now: time.Now}
}

// WalletLogin verifies an ed25519 signature over LoginMessage and issues a token
// for the wallet.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Signature     string `json:"signature" binding:"required"`
		Timestamp     int64  `json:"timestamp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !blockchain.ValidateWalletAddress(req.WalletAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	age := h.now().Sub(time.Unix(req.Timestamp, 0))
	if age < -LoginWindow || age > LoginWindow {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login message expired"})
		return
	}

	pubKey, err := base58.Decode(req.WalletAddress)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public key format"})
		return
	}

	// Wallets return base58; some clients send hex.
	sig, err := base58.Decode(req.Signature)
	if err != nil {
		sig, err = hex.DecodeString(req.Signature)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature format"})
			return
		}
	}

	if !ed25519.Verify(pubKey, []byte(LoginMessage(req.Timestamp)), sig) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	token, err := auth.GenerateToken(req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"wallet_address": req.WalletAddress,
		"expires_in":     int64(auth.TokenTTL.Seconds()),
	})
}

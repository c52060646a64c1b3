package blockchain

import (
	"context"
	"log"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// DiagnosticResult holds the result of a Solana connectivity diagnostic
type DiagnosticResult struct {
	RPCConnected    bool   `json:"rpc_connected"`
	RPCURL          string `json:"rpc_url"`
	RPCError        string `json:"rpc_error,omitempty"`
	LatestBlockhash string `json:"latest_blockhash,omitempty"`
	AuthorityKeySet bool   `json:"authority_key_set"`
	AuthorityPubkey string `json:"authority_pubkey,omitempty"`
	ProgramID       string `json:"program_id"`
	PlatformPDA     string `json:"platform_pda,omitempty"`
	TestVaultPDA    string `json:"test_vault_pda,omitempty"`
	PDAError        string `json:"pda_error,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// RunDiagnostics checks Solana RPC connectivity, the authority key, and PDA derivation
func (e *Escrow) RunDiagnostics(ctx context.Context) *DiagnosticResult {
	result := &DiagnosticResult{
		Timestamp: time.Now().Format(time.RFC3339),
		ProgramID: e.programID.String(),
		RPCURL:    e.client.RPCURL(),
	}

	log.Printf("[Diagnostics] Testing RPC connectivity...")
	blockhash, err := e.client.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		result.RPCError = err.Error()
		log.Printf("[Diagnostics] RPC failed: %v", err)
	} else {
		result.RPCConnected = true
		result.LatestBlockhash = blockhash.Value.Blockhash.String()
		log.Printf("[Diagnostics] RPC connected, blockhash: %s", result.LatestBlockhash)
	}

	if wallet, ok := e.client.Authority(); ok {
		result.AuthorityKeySet = true
		result.AuthorityPubkey = wallet.PublicKey().String()
	} else {
		log.Printf("[Diagnostics] Server wallet not configured, outbound transfers will fail")
	}

	if pda, _, err := e.PlatformPDA(); err != nil {
		result.PDAError = err.Error()
	} else {
		result.PlatformPDA = pda.String()
	}

	testPDA, _, err := e.VaultPDA(1)
	if err != nil {
		result.PDAError = err.Error()
		log.Printf("[Diagnostics] PDA derivation failed: %v", err)
	} else {
		result.TestVaultPDA = testPDA.String()
	}

	return result
}

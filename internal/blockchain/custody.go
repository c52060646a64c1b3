package blockchain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
)

// Custody moves funds between addresses. It either completes the transfer and
// returns a receipt signature or fails without moving anything.
type Custody interface {
	Transfer(ctx context.Context, from, to string, amount uint64) (string, error)
}

// TokenOwnership answers whether an owner holds exactly one unit of a mint.
type TokenOwnership interface {
	HasSingleUnit(ctx context.Context, owner, mint string) (bool, error)
}

// OwnershipRegistrar is implemented by ownership tables that are not backed by
// a token ledger and must be told about new holdings.
type OwnershipRegistrar interface {
	Grant(owner, mint string)
}

// VaultLocator derives the custody address of a market's pooled funds.
type VaultLocator interface {
	VaultAddress(marketID uint64) (string, error)
}

type depositKey struct{}

// WithDepositSignature attaches the signature of a client-submitted deposit.
// Inbound transfers on-chain are verified against it instead of being sent.
func WithDepositSignature(ctx context.Context, signature string) context.Context {
	if signature == "" {
		return ctx
	}
	return context.WithValue(ctx, depositKey{}, signature)
}

func DepositSignature(ctx context.Context) (string, bool) {
	sig, ok := ctx.Value(depositKey{}).(string)
	return sig, ok && sig != ""
}

// DepositVerifier looks up a submitted transfer by signature.
type DepositVerifier interface {
	VerifyTransaction(ctx context.Context, signature string) (*TransactionDetails, error)
}

// VaultReleaser sends funds out of a program-owned vault.
type VaultReleaser interface {
	Release(ctx context.Context, vault, recipient solana.PublicKey, amount uint64) (string, error)
}

// ErrDepositSignatureRequired is returned for inbound transfers without a
// client-submitted deposit. The server never moves funds out of a wallet.
var ErrDepositSignatureRequired = errors.New("inbound transfer requires a deposit signature")

// SolanaCustody verifies inbound deposits and releases outbound funds through
// the escrow program. Vaults are PDAs and sit off the ed25519 curve, so a
// source address on the curve is a wallet and the transfer must be a deposit.
type SolanaCustody struct {
	verifier DepositVerifier
	releaser VaultReleaser
}

func NewSolanaCustody(client *SolanaClient, escrow *Escrow) *SolanaCustody {
	return &SolanaCustody{verifier: client, releaser: escrow}
}

func (c *SolanaCustody) Transfer(ctx context.Context, from, to string, amount uint64) (string, error) {
	if sig, ok := DepositSignature(ctx); ok {
		return c.verifyDeposit(ctx, sig, from, to, amount)
	}

	vault, err := solana.PublicKeyFromBase58(from)
	if err != nil {
		return "", fmt.Errorf("invalid vault address: %w", err)
	}
	if solana.IsOnCurve(vault[:]) {
		return "", fmt.Errorf("%w: %s is a wallet, not a vault", ErrDepositSignatureRequired, from)
	}
	recipient, err := solana.PublicKeyFromBase58(to)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}
	return c.releaser.Release(ctx, vault, recipient, amount)
}

func (c *SolanaCustody) verifyDeposit(ctx context.Context, sig, from, to string, amount uint64) (string, error) {
	details, err := c.verifier.VerifyTransaction(ctx, sig)
	if err != nil {
		return "", fmt.Errorf("failed to verify deposit: %w", err)
	}
	if details == nil || !details.Confirmed {
		return "", fmt.Errorf("deposit %s not confirmed", sig)
	}
	if details.Sender != from || details.Receiver != to {
		return "", fmt.Errorf("deposit %s does not move funds from %s to %s", sig, from, to)
	}
	if details.Amount < amount {
		return "", fmt.Errorf("deposit %s carries %d, expected %d", sig, details.Amount, amount)
	}
	return sig, nil
}

// MemoryCustody keeps balances in process. Addresses that have never been
// seen start with the opening balance.
type MemoryCustody struct {
	mu       sync.Mutex
	opening  uint64
	balances map[string]uint64
}

func NewMemoryCustody(opening uint64) *MemoryCustody {
	return &MemoryCustody{opening: opening, balances: make(map[string]uint64)}
}

func (m *MemoryCustody) balance(addr string) uint64 {
	if b, ok := m.balances[addr]; ok {
		return b
	}
	return m.opening
}

func (m *MemoryCustody) Transfer(ctx context.Context, from, to string, amount uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fromBal := m.balance(from)
	if fromBal < amount {
		return "", fmt.Errorf("insufficient balance in %s: have %d, need %d", from, fromBal, amount)
	}
	toBal := m.balance(to)
	if toBal+amount < toBal {
		return "", fmt.Errorf("balance overflow in %s", to)
	}
	m.balances[from] = fromBal - amount
	m.balances[to] = toBal + amount
	return "mem-" + uuid.NewString(), nil
}

// Set overrides the balance of addr.
func (m *MemoryCustody) Set(addr string, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] = amount
}

func (m *MemoryCustody) Balance(addr string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance(addr)
}

// StaticOwnership treats a fixed owner→mint table as the token ledger.
type StaticOwnership struct {
	mu     sync.RWMutex
	owners map[string]string
}

func NewStaticOwnership() *StaticOwnership {
	return &StaticOwnership{owners: make(map[string]string)}
}

func (s *StaticOwnership) Grant(owner, mint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[mint] = owner
}

func (s *StaticOwnership) HasSingleUnit(ctx context.Context, owner, mint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owners[mint] == owner, nil
}

// HashVaults derives stable per-market vault labels when no escrow program is configured.
type HashVaults struct {
	Prefix string
}

func (h HashVaults) VaultAddress(marketID uint64) (string, error) {
	return fmt.Sprintf("%s-vault-%d", h.Prefix, marketID), nil
}

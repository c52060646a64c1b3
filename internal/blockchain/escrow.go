package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
)

const (
	vaultSeed    = "vault"
	platformSeed = "platform"
)

// Escrow derives market vault addresses and releases funds from them. The
// vaults are program-derived, so no key for them exists anywhere.
type Escrow struct {
	client    *SolanaClient
	programID solana.PublicKey
}

func NewEscrow(client *SolanaClient, programID string) (*Escrow, error) {
	pid, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}
	return &Escrow{client: client, programID: pid}, nil
}

func (e *Escrow) ProgramID() solana.PublicKey {
	return e.programID
}

// VaultPDA derives the vault for a market from ["vault", le64(marketID)].
func (e *Escrow) VaultPDA(marketID uint64) (solana.PublicKey, uint8, error) {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, marketID)
	seeds := [][]byte{[]byte(vaultSeed), idBytes}
	pda, bump, err := solana.FindProgramAddress(seeds, e.programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive vault PDA: %w", err)
	}
	return pda, bump, nil
}

// VaultAddress returns the base58 vault address for a market.
func (e *Escrow) VaultAddress(marketID uint64) (string, error) {
	pda, _, err := e.VaultPDA(marketID)
	if err != nil {
		return "", err
	}
	return pda.String(), nil
}

func (e *Escrow) PlatformPDA() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(platformSeed)}, e.programID)
}

// instructionDiscriminator is the first 8 bytes of sha256("global:<name>").
func instructionDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// Release moves amount lamports out of a vault with the program's
// release_vault instruction, signed by the server authority.
func (e *Escrow) Release(ctx context.Context, vault, recipient solana.PublicKey, amount uint64) (string, error) {
	wallet, ok := e.client.Authority()
	if !ok {
		return "", fmt.Errorf("server wallet not configured")
	}
	authority := wallet.PublicKey()

	platformPDA, _, err := e.PlatformPDA()
	if err != nil {
		return "", fmt.Errorf("failed to derive platform PDA: %w", err)
	}

	// discriminator (8 bytes) + amount (u64, little-endian)
	data := make([]byte, 16)
	copy(data[0:8], instructionDiscriminator("release_vault"))
	binary.LittleEndian.PutUint64(data[8:16], amount)

	accounts := []*solana.AccountMeta{
		{PublicKey: platformPDA, IsWritable: false, IsSigner: false},            // platform
		{PublicKey: vault, IsWritable: true, IsSigner: false},                   // vault
		{PublicKey: recipient, IsWritable: true, IsSigner: false},               // recipient
		{PublicKey: authority, IsWritable: false, IsSigner: true},               // authority
		{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false}, // system_program
	}

	instruction := solana.NewInstruction(e.programID, accounts, data)

	recent, err := e.client.GetRecentBlockhash(ctx)
	if err != nil {
		return "", err
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent,
		solana.TransactionPayer(authority),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(authority) {
			return &wallet.PrivateKey
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := e.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", err
	}

	log.Printf("[Escrow] Released %d lamports from %s to %s: %s", amount, vault, recipient, sig)
	return sig.String(), nil
}

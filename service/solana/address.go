package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Well-known Solana program IDs
var (
	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.TokenProgramID

	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// AssociatedTokenProgramID derives canonical token accounts per (owner, mint)
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID
)

// ParseAddress validates a base58 address string.
func ParseAddress(s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, &InvalidAddressError{Input: s, Err: err}
	}
	return pk, nil
}

// AssociatedTokenAddress derives the owner's associated token account for
// mint under the given token program. It is deterministic and offline.
func AssociatedTokenAddress(mint, owner, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{
			owner[:],
			tokenProgram[:],
			mint[:],
		},
		AssociatedTokenProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated token address: %w", err)
	}
	return addr, nil
}

package solana

import (
	"github.com/gagliardetto/solana-go"
)

// AccountData is an account payload as delivered by a transport: either the
// base64 text sent on the wire or bytes a client library already decoded.
// Exactly one of Encoded and Raw is meaningful; Encoded wins when set.
type AccountData struct {
	Encoded *string
	Raw     []byte
}

// EncodedAccountData wraps base64 account data text.
func EncodedAccountData(b64 string) AccountData {
	return AccountData{Encoded: &b64}
}

// RawAccountData wraps already-decoded account bytes.
func RawAccountData(raw []byte) AccountData {
	return AccountData{Raw: raw}
}

// AccountInfo is our domain view of getAccountInfo for an existing account.
type AccountInfo struct {
	Address  solana.PublicKey
	Lamports uint64
	Owner    solana.PublicKey // program that owns the account
	Data     AccountData
}

// TokenBalance is the decoded balance of one token account.
type TokenBalance struct {
	Account solana.PublicKey
	Amount  uint64 // base units
}

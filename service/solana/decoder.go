package solana

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go/programs/token"
)

// SPL token account layout: mint (32) | owner (32) | amount (u64 LE) | ...
const (
	TokenAmountOffset = 64
	tokenAmountSize   = 8

	// TokenAccountSize is the length of a base SPL token account. Token-2022
	// accounts with extensions are longer but share this prefix.
	TokenAccountSize = 165
)

// Normalize turns a transport payload into raw bytes. Encoded text is
// decoded as standard base64; raw bytes are copied so callers may keep them.
func Normalize(data AccountData) ([]byte, error) {
	if data.Encoded != nil {
		raw, err := base64.StdEncoding.DecodeString(*data.Encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 account data: %w", err)
		}
		return raw, nil
	}
	return bytes.Clone(data.Raw), nil
}

// ExtractTokenAmount reads the little-endian u64 amount at offset 64 of a
// token account record.
func ExtractTokenAmount(data []byte) (uint64, error) {
	end := TokenAmountOffset + tokenAmountSize
	if len(data) < end {
		return 0, &MalformedAccountDataError{Len: len(data), Want: end}
	}
	return binary.LittleEndian.Uint64(data[TokenAmountOffset:end]), nil
}

// DecodeTokenAccount decodes the full SPL token account layout. Only the
// first TokenAccountSize bytes are read so Token-2022 records also decode.
func DecodeTokenAccount(data []byte) (*token.Account, error) {
	if len(data) < TokenAccountSize {
		return nil, &MalformedAccountDataError{Len: len(data), Want: TokenAccountSize}
	}
	var acct token.Account
	if err := acct.UnmarshalWithDecoder(bin.NewBinDecoder(data[:TokenAccountSize])); err != nil {
		return nil, fmt.Errorf("failed to decode token account: %w", err)
	}
	return &acct, nil
}

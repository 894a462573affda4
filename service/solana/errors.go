package solana

import "fmt"

// InvalidAddressError reports a string that is not a base58 public key.
type InvalidAddressError struct {
	Input string
	Err   error
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %v", e.Input, e.Err)
}

func (e *InvalidAddressError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed RPC call.
type TransportError struct {
	Method  string
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedAccountDataError reports a token account record too short to
// hold the amount field.
type MalformedAccountDataError struct {
	Len  int
	Want int
}

func (e *MalformedAccountDataError) Error() string {
	return fmt.Sprintf("malformed token account data: %d bytes, need at least %d", e.Len, e.Want)
}

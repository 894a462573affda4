package signer

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/brojonat/preflight/service/config"
	"github.com/gagliardetto/solana-go"
)

// Identity is a signer loaded from a base58 secret. It is only used to learn
// the account address; nothing is ever signed.
type Identity struct {
	name string
	key  solana.PrivateKey
}

// KeyError reports a secret that could not be turned into a key pair.
type KeyError struct {
	Var string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid key pair in %s: %v", e.Var, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// FromEnv reads the named environment variable, decodes it as base58 and
// builds an Identity from the resulting 64-byte ed25519 secret.
func FromEnv(name string) (*Identity, error) {
	encoded, err := config.RequireEnv(name)
	if err != nil {
		return nil, err
	}
	return FromBase58(name, encoded)
}

// FromBase58 builds an Identity from base58 secret text. name is only used
// in errors and reports. The secret must be a 64-byte ed25519 key whose
// public half is the one derived from its seed.
func FromBase58(name, encoded string) (*Identity, error) {
	key, err := solana.PrivateKeyFromBase58(encoded)
	if err != nil {
		return nil, &KeyError{Var: name, Err: err}
	}
	if len(key) != ed25519.PrivateKeySize {
		return nil, &KeyError{
			Var: name,
			Err: fmt.Errorf("secret is %d bytes, want %d", len(key), ed25519.PrivateKeySize),
		}
	}
	derived := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], key[ed25519.SeedSize:]) {
		return nil, &KeyError{
			Var: name,
			Err: errors.New("public key does not match the secret seed"),
		}
	}
	return &Identity{name: name, key: key}, nil
}

// LoadPair loads the sender and destination identities in that order,
// stopping at the first failure.
func LoadPair(senderVar, destinationVar string) (sender, destination *Identity, err error) {
	sender, err = FromEnv(senderVar)
	if err != nil {
		return nil, nil, err
	}
	destination, err = FromEnv(destinationVar)
	if err != nil {
		return nil, nil, err
	}
	return sender, destination, nil
}

// Name returns the environment variable the identity was loaded from.
func (i *Identity) Name() string {
	return i.name
}

// Address returns the public key of the identity.
func (i *Identity) Address() solana.PublicKey {
	return i.key.PublicKey()
}

// String returns the base58 address so secrets never end up in logs.
func (i *Identity) String() string {
	return i.Address().String()
}

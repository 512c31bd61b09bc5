package keys

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength         = 16
	minPassBytes          = 10
)

// DeriveParams are the argon2id cost parameters used by DeriveKey.
type DeriveParams struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
}

// DefaultDeriveParams matches the argon2id interactive recommendation.
func DefaultDeriveParams() DeriveParams {
	return DeriveParams{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
	}
}

// Validate checks the parameters against the minimum accepted costs.
func (p DeriveParams) Validate() error {
	if p.Memory < minMemoryKB {
		return errors.New("derive Memory must be >= 8192 KB")
	}
	if p.Time < minTimeCost {
		return errors.New("derive Time must be >= 1")
	}
	if p.Parallelism < minParallelism {
		return errors.New("derive Parallelism must be >= 1")
	}
	return nil
}

// DeriveKey stretches a passphrase into a SecretSize argon2id key. The same
// passphrase, salt and params always produce the same secret, so every
// instance holding the passphrase agrees on the key without sharing it.
func DeriveKey(id string, passphrase, salt []byte, p DeriveParams) (Key, error) {
	if len(passphrase) < minPassBytes {
		return Key{}, fmt.Errorf("%w: passphrase must be at least %d bytes", ErrInvalidKey, minPassBytes)
	}
	if len(salt) < minSaltLength {
		return Key{}, fmt.Errorf("%w: salt must be at least %d bytes", ErrInvalidKey, minSaltLength)
	}
	if err := p.Validate(); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	secret := argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Parallelism, SecretSize)
	return NewKey(id, secret)
}

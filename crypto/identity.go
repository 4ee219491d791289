package crypto

import (
	"fmt"
	"math/big"
)

// Identity is an RLN membership identity: a secret field element and its
// Poseidon commitment. The commitment is what gets registered in the
// membership tree; the secret never leaves the member unless the member
// broadcasts twice in one epoch.
type Identity struct {
	Secret     *big.Int
	Commitment *big.Int
}

// GenerateIdentity creates a fresh identity with a uniformly random secret
// and Commitment = Poseidon(Secret).
func GenerateIdentity() (*Identity, error) {
	secret, err := RandomElement()
	if err != nil {
		return nil, err
	}
	return IdentityFromSecret(secret)
}

// IdentityFromSecret derives the identity for a known secret. Useful when a
// member restores its secret from storage and needs the commitment back.
func IdentityFromSecret(secret *big.Int) (*Identity, error) {
	commitment, err := Poseidon{}.Hash([]*big.Int{secret})
	if err != nil {
		return nil, fmt.Errorf("derive commitment: %w", err)
	}
	return &Identity{Secret: secret, Commitment: commitment}, nil
}

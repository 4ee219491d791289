package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/dvlprsh/go-rln/crypto"
	"github.com/dvlprsh/go-rln/protocol"
	"github.com/dvlprsh/go-rln/registry"
)

// DeterministicIdentity derives a reproducible identity from a seed. Only
// for tests: the secret is a Poseidon image of the seed, not fresh entropy.
func DeterministicIdentity(t *testing.T, seed int64) *crypto.Identity {
	t.Helper()
	secret, err := crypto.Poseidon{}.Hash([]*big.Int{big.NewInt(seed)})
	if err != nil {
		t.Fatalf("derive deterministic secret: %v", err)
	}
	id, err := crypto.IdentityFromSecret(secret)
	if err != nil {
		t.Fatalf("derive identity: %v", err)
	}
	return id
}

// SetupRegistry builds a depth-16 registry populated with n deterministic
// identities and returns both.
func SetupRegistry(t *testing.T, n int) (*registry.Registry, []*crypto.Identity) {
	t.Helper()
	reg, err := registry.New(registry.MinDepth, big.NewInt(0))
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	identities := make([]*crypto.Identity, n)
	for i := range identities {
		identities[i] = DeterministicIdentity(t, int64(i+1))
		if _, err := reg.InsertMember(identities[i].Commitment); err != nil {
			t.Fatalf("insert member %d: %v", i, err)
		}
	}
	return reg, identities
}

// CannedBackend is a protocol.ProofBackend returning fixed results, for
// tests of the proof plumbing that do not need real circuit artifacts.
type CannedBackend struct {
	// ProveErr, when set, is returned from FullProve.
	ProveErr error

	// VerifyResult is what Verify reports.
	VerifyResult bool

	// Calls counts FullProve invocations.
	Calls int
}

// FullProve implements protocol.ProofBackend. The public signals echo the
// witness so assertions can tie proof output back to the input.
func (b *CannedBackend) FullProve(_ context.Context, w *protocol.Witness, _ protocol.CircuitArtifacts) (*protocol.FullProof, error) {
	b.Calls++
	if b.ProveErr != nil {
		return nil, fmt.Errorf("canned backend: %w", b.ProveErr)
	}
	return &protocol.FullProof{
		Proof: json.RawMessage(`{"protocol":"groth16"}`),
		PublicSignals: protocol.PublicSignals{
			YShare:            big.NewInt(0),
			MerkleRoot:        big.NewInt(0),
			InternalNullifier: big.NewInt(0),
			SignalHash:        w.X,
			Epoch:             w.Epoch,
			RLNIdentifier:     w.RLNIdentifier,
		},
	}, nil
}

// Verify implements protocol.ProofBackend.
func (b *CannedBackend) Verify(_ context.Context, _ []byte, _ *protocol.FullProof) (bool, error) {
	return b.VerifyResult, nil
}

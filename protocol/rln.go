package protocol

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/dvlprsh/go-rln/crypto"
	"github.com/dvlprsh/go-rln/registry"
)

// ErrNotInitialized is returned when an operation needs a collaborator that
// was not supplied at construction.
var ErrNotInitialized = errors.New("protocol: not initialized")

// RLN is the protocol core. Both collaborators are injected up front: the
// Poseidon hasher must match the one used inside the circuit, and the
// backend produces and checks Groth16 proofs. A nil backend is allowed for
// callers that only need the share math (GenProof and VerifyProof then fail
// with ErrNotInitialized).
type RLN struct {
	hasher  crypto.PoseidonHasher
	backend ProofBackend
}

// New builds a protocol core. A nil hasher selects the default
// circom-compatible Poseidon.
func New(hasher crypto.PoseidonHasher, backend ProofBackend) *RLN {
	if hasher == nil {
		hasher = crypto.Poseidon{}
	}
	return &RLN{hasher: hasher, backend: backend}
}

// Share is one point (x, y) on a member's epoch line. x is the signal hash
// and y the protocol output. Two shares under the same epoch and identifier
// with different x expose the member's secret.
type Share struct {
	X *big.Int
	Y *big.Int
}

// GenWitness assembles the witness for a broadcast, hashing the signal into
// the field with SignalHash. Epoch and identifier are normalized into the
// field; no further validation happens here — a witness that does not match
// the circuit surfaces as a backend failure.
func (r *RLN) GenWitness(identitySecret *big.Int, proof *registry.MembershipProof, epoch *big.Int, signal string, rlnIdentifier *big.Int) (*Witness, error) {
	return r.GenWitnessRaw(identitySecret, proof, epoch, crypto.SignalHash(signal), rlnIdentifier)
}

// GenWitnessRaw assembles a witness with a caller-supplied x taken verbatim
// as the signal field element. x must already be canonical; a nil or
// out-of-field value is rejected rather than wrapped, since a wrapped x
// would silently bind the proof to a different signal.
func (r *RLN) GenWitnessRaw(identitySecret *big.Int, proof *registry.MembershipProof, epoch, x, rlnIdentifier *big.Int) (*Witness, error) {
	w := &Witness{
		IdentitySecret:    crypto.Normalize(identitySecret),
		PathElements:      proof.PathElements,
		IdentityPathIndex: proof.PathIndexes,
		X:                 x,
		Epoch:             crypto.Normalize(epoch),
		RLNIdentifier:     crypto.Normalize(rlnIdentifier),
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// CalculateOutput evaluates the member's epoch line at x. It derives the
// slope a1 = Poseidon(identitySecret, epoch), computes
// y = a1*x + identitySecret mod Q, and the internal nullifier
// Poseidon(a1, rlnIdentifier). All signals from one identity within one
// epoch and application lie on this line.
func (r *RLN) CalculateOutput(identitySecret, epoch, rlnIdentifier, x *big.Int) (y, nullifier *big.Int, err error) {
	a1, err := r.hasher.Hash([]*big.Int{identitySecret, epoch})
	if err != nil {
		return nil, nil, fmt.Errorf("derive epoch slope: %w", err)
	}
	y = crypto.Add(crypto.Mul(a1, x), identitySecret)
	nullifier, err = r.GenNullifier(a1, rlnIdentifier)
	if err != nil {
		return nil, nil, err
	}
	return y, nullifier, nil
}

// GenNullifier computes Poseidon(a1, rlnIdentifier). Deterministic per
// (secret, epoch, identifier) triple; verifiers use it to spot repeated
// broadcasts inside an epoch without learning the secret.
func (r *RLN) GenNullifier(a1, rlnIdentifier *big.Int) (*big.Int, error) {
	nullifier, err := r.hasher.Hash([]*big.Int{a1, rlnIdentifier})
	if err != nil {
		return nil, fmt.Errorf("derive nullifier: %w", err)
	}
	return nullifier, nil
}

// RetrieveSecret reconstructs the identity secret from two shares of the
// same epoch line: slope = (y2-y1)/(x2-x1), secret = y1 - slope*x1. This is
// two-point Lagrange interpolation at x = 0. It fails with
// crypto.ErrDivisionByZero when x1 ≡ x2, where the shares are
// indistinguishable and recovery is undefined.
func RetrieveSecret(x1, x2, y1, y2 *big.Int) (*big.Int, error) {
	slope, err := crypto.Div(crypto.Sub(y2, y1), crypto.Sub(x2, x1))
	if err != nil {
		return nil, fmt.Errorf("retrieve secret: %w", err)
	}
	return crypto.Sub(y1, crypto.Mul(slope, x1)), nil
}

// RetrieveSecretFromShares is RetrieveSecret over Share values.
func RetrieveSecretFromShares(a, b Share) (*big.Int, error) {
	return RetrieveSecret(a.X, b.X, a.Y, b.Y)
}

// GenIdentifier mints a fresh application identifier, a uniformly random
// field element salting nullifiers per deployment.
func GenIdentifier() (*big.Int, error) {
	return crypto.RandomElement()
}

// CalcEpoch buckets a wall-clock instant into an epoch field element: the
// Unix timestamp divided by the epoch size. Buckets have one-second
// resolution; sizes under a second are clamped to one second.
func CalcEpoch(t time.Time, size time.Duration) *big.Int {
	seconds := int64(size / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return big.NewInt(t.Unix() / seconds)
}

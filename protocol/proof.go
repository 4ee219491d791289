package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/dvlprsh/go-rln/crypto"
)

// Witness is the structured input assignment handed to the proof backend.
// Field order and types are fixed by contract with the circuit; the JSON
// names match the circuit's input signals.
type Witness struct {
	IdentitySecret    *big.Int   `json:"identity_secret"`
	PathElements      []*big.Int `json:"path_elements"`
	IdentityPathIndex []int      `json:"identity_path_index"`
	X                 *big.Int   `json:"x"`
	Epoch             *big.Int   `json:"epoch"`
	RLNIdentifier     *big.Int   `json:"rln_identifier"`
}

// Validate checks that every numeric field is a canonical field element and
// that the membership path is internally consistent.
func (w *Witness) Validate() error {
	for name, v := range map[string]*big.Int{
		"identity_secret": w.IdentitySecret,
		"x":               w.X,
		"epoch":           w.Epoch,
		"rln_identifier":  w.RLNIdentifier,
	} {
		if err := checkFieldElement(name, v); err != nil {
			return err
		}
	}
	if len(w.PathElements) == 0 {
		return errors.New("protocol: witness has empty membership path")
	}
	if len(w.PathElements) != len(w.IdentityPathIndex) {
		return fmt.Errorf("protocol: witness path lengths differ: %d siblings, %d directions",
			len(w.PathElements), len(w.IdentityPathIndex))
	}
	for i, el := range w.PathElements {
		if err := checkFieldElement(fmt.Sprintf("path_elements[%d]", i), el); err != nil {
			return err
		}
	}
	for i, d := range w.IdentityPathIndex {
		if d != 0 && d != 1 {
			return fmt.Errorf("protocol: witness path direction %d is %d, want 0 or 1", i, d)
		}
	}
	return nil
}

// PublicSignals is the structured set of public values published alongside
// a proof. The ordered-slice encoding is fixed by the circuit's output
// order: yShare, merkleRoot, internalNullifier, signalHash, epoch,
// rlnIdentifier.
type PublicSignals struct {
	YShare            *big.Int `json:"y_share"`
	MerkleRoot        *big.Int `json:"merkle_root"`
	InternalNullifier *big.Int `json:"internal_nullifier"`
	SignalHash        *big.Int `json:"signal_hash"`
	Epoch             *big.Int `json:"epoch"`
	RLNIdentifier     *big.Int `json:"rln_identifier"`
}

// Slice returns the signals in their fixed wire order.
func (s *PublicSignals) Slice() []*big.Int {
	return []*big.Int{s.YShare, s.MerkleRoot, s.InternalNullifier, s.SignalHash, s.Epoch, s.RLNIdentifier}
}

// PublicSignalsFromSlice decodes the fixed wire order produced by the
// backend into the structured form, validating every element.
func PublicSignalsFromSlice(values []*big.Int) (*PublicSignals, error) {
	if len(values) != 6 {
		return nil, fmt.Errorf("protocol: expected 6 public signals, got %d", len(values))
	}
	s := &PublicSignals{
		YShare:            values[0],
		MerkleRoot:        values[1],
		InternalNullifier: values[2],
		SignalHash:        values[3],
		Epoch:             values[4],
		RLNIdentifier:     values[5],
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that every signal is a canonical field element.
func (s *PublicSignals) Validate() error {
	for name, v := range map[string]*big.Int{
		"y_share":            s.YShare,
		"merkle_root":        s.MerkleRoot,
		"internal_nullifier": s.InternalNullifier,
		"signal_hash":        s.SignalHash,
		"epoch":              s.Epoch,
		"rln_identifier":     s.RLNIdentifier,
	} {
		if err := checkFieldElement(name, v); err != nil {
			return err
		}
	}
	return nil
}

// FullProof bundles the opaque Groth16 proof with its public signals. The
// proof encoding belongs to the backend; the core never inspects it.
type FullProof struct {
	Proof         json.RawMessage `json:"proof"`
	PublicSignals PublicSignals   `json:"public_signals"`
}

// CircuitArtifacts are opaque references to the compiled circuit material a
// backend needs to produce proofs. The core passes them through untouched.
type CircuitArtifacts struct {
	// ProvingKeyPath locates the Groth16 proving key, in whatever
	// encoding the backend expects.
	ProvingKeyPath string

	// WitnessGeneratorPath locates the circuit's witness generator.
	WitnessGeneratorPath string
}

// ProofBackend is the Groth16 collaborator. Implementations produce a proof
// and the ordered public signals from a witness, and check a proof against
// a verification key. Errors surface to the caller unmodified.
type ProofBackend interface {
	FullProve(ctx context.Context, witness *Witness, artifacts CircuitArtifacts) (*FullProof, error)
	Verify(ctx context.Context, verificationKey []byte, proof *FullProof) (bool, error)
}

// GenProof validates the witness and hands it to the proof backend.
func (r *RLN) GenProof(ctx context.Context, witness *Witness, artifacts CircuitArtifacts) (*FullProof, error) {
	if r.backend == nil {
		return nil, fmt.Errorf("%w: no proof backend", ErrNotInitialized)
	}
	if err := witness.Validate(); err != nil {
		return nil, err
	}
	return r.backend.FullProve(ctx, witness, artifacts)
}

// VerifyProof validates the proof's public signals and delegates the
// cryptographic check to the backend.
func (r *RLN) VerifyProof(ctx context.Context, verificationKey []byte, proof *FullProof) (bool, error) {
	if r.backend == nil {
		return false, fmt.Errorf("%w: no proof backend", ErrNotInitialized)
	}
	if err := proof.PublicSignals.Validate(); err != nil {
		return false, err
	}
	return r.backend.Verify(ctx, verificationKey, proof)
}

func checkFieldElement(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("protocol: %s is nil", name)
	}
	if v.Sign() < 0 || v.Cmp(crypto.FieldOrder) >= 0 {
		return fmt.Errorf("protocol: %s is not a canonical field element", name)
	}
	return nil
}

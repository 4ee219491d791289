package gosnark

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vocdoni/go-snark/parsers"
	"github.com/vocdoni/go-snark/prover"
	"github.com/vocdoni/go-snark/types"
	"github.com/vocdoni/go-snark/verifier"

	"github.com/dvlprsh/go-rln/protocol"
)

// WitnessCalculator computes the circuit's full wire assignment for a
// protocol witness. generatorPath is the opaque artifact reference from
// protocol.CircuitArtifacts, interpreted however the implementation needs.
type WitnessCalculator interface {
	CalculateWitness(ctx context.Context, witness *protocol.Witness, generatorPath string) (types.Witness, error)
}

// Backend implements protocol.ProofBackend over go-snark's Groth16 prover
// and verifier.
type Backend struct {
	calculator WitnessCalculator
}

// New builds a backend around the given witness calculator.
func New(calculator WitnessCalculator) (*Backend, error) {
	if calculator == nil {
		return nil, errors.New("gosnark: nil witness calculator")
	}
	return &Backend{calculator: calculator}, nil
}

// FullProve produces a Groth16 proof and its public signals for the witness.
func (b *Backend) FullProve(ctx context.Context, witness *protocol.Witness, artifacts protocol.CircuitArtifacts) (*protocol.FullProof, error) {
	pkJSON, err := os.ReadFile(artifacts.ProvingKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read proving key: %w", err)
	}
	pk, err := parsers.ParsePk(pkJSON)
	if err != nil {
		return nil, fmt.Errorf("parse proving key: %w", err)
	}

	assignment, err := b.calculator.CalculateWitness(ctx, witness, artifacts.WitnessGeneratorPath)
	if err != nil {
		return nil, fmt.Errorf("calculate circuit witness: %w", err)
	}

	proof, pubSignals, err := prover.GenerateProof(pk, assignment)
	if err != nil {
		return nil, fmt.Errorf("generate proof: %w", err)
	}

	proofJSON, err := parsers.ProofToJSON(proof)
	if err != nil {
		return nil, fmt.Errorf("encode proof: %w", err)
	}
	signals, err := protocol.PublicSignalsFromSlice(pubSignals)
	if err != nil {
		return nil, fmt.Errorf("decode public signals: %w", err)
	}

	return &protocol.FullProof{Proof: proofJSON, PublicSignals: *signals}, nil
}

// Verify checks the proof against the verification key (go-snark's
// verification_key.json encoding) and the proof's public signals.
func (b *Backend) Verify(_ context.Context, verificationKey []byte, proof *protocol.FullProof) (bool, error) {
	vk, err := parsers.ParseVk(verificationKey)
	if err != nil {
		return false, fmt.Errorf("parse verification key: %w", err)
	}
	parsedProof, err := parsers.ParseProof(proof.Proof)
	if err != nil {
		return false, fmt.Errorf("parse proof: %w", err)
	}
	return verifier.Verify(vk, parsedProof, proof.PublicSignals.Slice()), nil
}

// FileWitnessCalculator loads a precomputed wire assignment from disk. The
// generator path names a witness JSON file in snarkjs format; the protocol
// witness itself is ignored, so callers are responsible for keeping the two
// in sync.
type FileWitnessCalculator struct{}

// CalculateWitness implements WitnessCalculator.
func (FileWitnessCalculator) CalculateWitness(_ context.Context, _ *protocol.Witness, generatorPath string) (types.Witness, error) {
	wJSON, err := os.ReadFile(generatorPath)
	if err != nil {
		return nil, fmt.Errorf("read witness file: %w", err)
	}
	w, err := parsers.ParseWitness(wJSON)
	if err != nil {
		return nil, fmt.Errorf("parse witness file: %w", err)
	}
	return w, nil
}

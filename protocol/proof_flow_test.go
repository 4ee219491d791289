package protocol_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dvlprsh/go-rln/protocol"
	"github.com/dvlprsh/go-rln/testutil"
)

// Exercises the full prove path with registry-built membership proofs and a
// canned backend standing in for the circuit.
func TestProveFlowWithRegistry(t *testing.T) {
	reg, identities := testutil.SetupRegistry(t, 3)
	backend := &testutil.CannedBackend{VerifyResult: true}
	rln := protocol.New(nil, backend)

	membership, err := reg.MembershipProof(1)
	require.NoError(t, err)

	epoch := protocol.CalcEpoch(time.Unix(1700000000, 0), 10*time.Second)
	identifier, err := protocol.GenIdentifier()
	require.NoError(t, err)

	witness, err := rln.GenWitness(identities[1].Secret, membership, epoch, "hello", identifier)
	require.NoError(t, err)

	proof, err := rln.GenProof(context.Background(), witness, protocol.CircuitArtifacts{
		ProvingKeyPath:       "rln_final.zkey",
		WitnessGeneratorPath: "rln.wasm",
	})
	require.NoError(t, err)
	require.Equal(t, 1, backend.Calls)
	require.Zero(t, witness.X.Cmp(proof.PublicSignals.SignalHash))
	require.Zero(t, epoch.Cmp(proof.PublicSignals.Epoch))

	ok, err := rln.VerifyProof(context.Background(), []byte(`{}`), proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestProveFlowBackendFailure(t *testing.T) {
	reg, identities := testutil.SetupRegistry(t, 1)
	backendErr := errors.New("witness generator crashed")
	backend := &testutil.CannedBackend{ProveErr: backendErr}
	rln := protocol.New(nil, backend)

	membership, err := reg.MembershipProof(0)
	require.NoError(t, err)

	witness, err := rln.GenWitnessRaw(identities[0].Secret, membership, big.NewInt(1), big.NewInt(2), big.NewInt(3))
	require.NoError(t, err)

	_, err = rln.GenProof(context.Background(), witness, protocol.CircuitArtifacts{})
	require.ErrorIs(t, err, backendErr)
}

package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignalHashDeterministic(t *testing.T) {
	h1 := SignalHash("hello")
	h2 := SignalHash("hello")
	require.Zero(t, h1.Cmp(h2))
}

func TestSignalHashDistinctSignals(t *testing.T) {
	require.NotZero(t, SignalHash("hello").Cmp(SignalHash("world")))
	require.NotZero(t, SignalHash("").Cmp(SignalHash(" ")))
}

func TestSignalHashFitsInField(t *testing.T) {
	// the 8-bit shift keeps the digest at most 248 bits, comfortably
	// below the 254-bit field order
	for _, signal := range []string{"", "hello", "a longer signal with spaces", "\x00\xff"} {
		h := SignalHash(signal)
		require.True(t, h.Sign() >= 0)
		require.True(t, h.Cmp(FieldOrder) < 0, "signal %q maps outside the field", signal)
		require.True(t, h.BitLen() <= 248)
	}
}

func TestPoseidonMatchesMerkleHasher(t *testing.T) {
	left := big.NewInt(12345)
	right := big.NewInt(67890)

	direct, err := Poseidon{}.Hash([]*big.Int{left, right})
	require.NoError(t, err)

	viaNodeHasher, err := PoseidonMerkleHasher()(left, right)
	require.NoError(t, err)

	require.Zero(t, direct.Cmp(viaNodeHasher))
}

func TestPoseidonOrderSensitive(t *testing.T) {
	a := big.NewInt(1)
	b := big.NewInt(2)

	ab, err := Poseidon{}.Hash([]*big.Int{a, b})
	require.NoError(t, err)
	ba, err := Poseidon{}.Hash([]*big.Int{b, a})
	require.NoError(t, err)

	require.NotZero(t, ab.Cmp(ba))
}

func TestIdentityCommitmentIsPoseidonOfSecret(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)
	require.True(t, id.Secret.Cmp(FieldOrder) < 0)

	restored, err := IdentityFromSecret(id.Secret)
	require.NoError(t, err)
	require.Zero(t, restored.Commitment.Cmp(id.Commitment))
}

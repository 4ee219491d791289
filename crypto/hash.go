package crypto

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
	"golang.org/x/crypto/sha3"
)

// SignalHash maps an arbitrary signal string into the field. The UTF-8 bytes
// of the signal are hashed with Keccak-256, the digest is interpreted as a
// big-endian integer, and the result is shifted right by 8 bits so it fits
// strictly below FieldOrder without modular wraparound. Deterministic.
func SignalHash(signal string) *big.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signal))
	digest := new(big.Int).SetBytes(h.Sum(nil))
	return digest.Rsh(digest, 8)
}

// PoseidonHasher hashes an ordered sequence of field elements into one field
// element. The protocol core takes the hash as an injected collaborator so a
// deployment can swap implementations without touching the protocol math.
type PoseidonHasher interface {
	Hash(inputs []*big.Int) (*big.Int, error)
}

// Poseidon is the default PoseidonHasher, backed by the circom-compatible
// implementation in go-iden3-crypto. It matches the hash used inside the RLN
// circuit, which is what makes outputs and nullifiers verifiable.
type Poseidon struct{}

// Hash implements PoseidonHasher.
func (Poseidon) Hash(inputs []*big.Int) (*big.Int, error) {
	out, err := poseidon.Hash(inputs)
	if err != nil {
		return nil, fmt.Errorf("poseidon: %w", err)
	}
	return out, nil
}

// MerkleHasher combines two child nodes into a parent node. The tree in the
// merkle package consumes this shape.
type MerkleHasher func(left, right *big.Int) (*big.Int, error)

// PoseidonMerkleHasher returns a MerkleHasher that hashes node pairs with
// Poseidon, the pairing used by the RLN circuit's inclusion check.
func PoseidonMerkleHasher() MerkleHasher {
	return func(left, right *big.Int) (*big.Int, error) {
		out, err := poseidon.Hash([]*big.Int{left, right})
		if err != nil {
			return nil, fmt.Errorf("poseidon node hash: %w", err)
		}
		return out, nil
	}
}

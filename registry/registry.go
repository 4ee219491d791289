package registry

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/dvlprsh/go-rln/crypto"
	"github.com/dvlprsh/go-rln/merkle"
)

// Depth bounds for the membership tree. The lower bound keeps the anonymity
// set meaningful; the upper bound is what the circuit family supports.
const (
	MinDepth = 16
	MaxDepth = 32
)

var (
	// ErrInvalidConfiguration is returned at construction for a tree depth
	// outside [MinDepth, MaxDepth].
	ErrInvalidConfiguration = errors.New("registry: invalid configuration")

	// ErrCapacityExceeded is returned when inserting into a full registry.
	ErrCapacityExceeded = errors.New("registry: capacity exceeded")

	// ErrOutOfRange is returned for an index with no occupied slot.
	ErrOutOfRange = errors.New("registry: index out of range")
)

// MerkleTree is the incremental Merkle tree collaborator the registry is
// built on. The merkle package provides the default implementation.
type MerkleTree interface {
	// Insert appends a leaf at the next unused index and returns it.
	Insert(leaf *big.Int) (int, error)

	// Delete resets the leaf at index to the zero value.
	Delete(index int) error

	// IndexOf returns the index of the first leaf equal to value, or -1.
	IndexOf(value *big.Int) int

	// Root returns the current Merkle root.
	Root() *big.Int

	// Leaves returns the occupied leaf sequence in index order.
	Leaves() []*big.Int

	// LeafCount returns the number of occupied slots, deleted included.
	LeafCount() int

	// Depth returns the tree depth.
	Depth() int

	// ZeroValue returns the sentinel for unused and deleted slots.
	ZeroValue() *big.Int

	// ProofPath returns sibling values and path directions for a leaf.
	ProofPath(index int) ([]*big.Int, []int, error)
}

// MembershipProof proves that the member at Index was part of the registry
// whose root is Root. PathElements holds one sibling per tree level, leaf to
// root; PathIndexes holds the matching directions (0 = left child, 1 = right
// child). The proof becomes stale once the registry mutates.
type MembershipProof struct {
	Index        int
	Member       *big.Int
	Root         *big.Int
	PathElements []*big.Int
	PathIndexes  []int
}

// Registry is the membership registry. It exclusively owns its tree; see
// the package comment for the concurrency contract.
type Registry struct {
	tree MerkleTree
}

// New builds an empty registry of capacity 2^depth over a Poseidon-hashed
// incremental Merkle tree, every slot initialized to zeroValue. Fails with
// ErrInvalidConfiguration for a depth outside [MinDepth, MaxDepth].
func New(depth int, zeroValue *big.Int) (*Registry, error) {
	if depth < MinDepth || depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d outside [%d, %d]", ErrInvalidConfiguration, depth, MinDepth, MaxDepth)
	}
	tree, err := merkle.New(depth, zeroValue, crypto.PoseidonMerkleHasher())
	if err != nil {
		return nil, fmt.Errorf("build membership tree: %w", err)
	}
	return &Registry{tree: tree}, nil
}

// NewWithTree wraps an externally constructed tree. The same depth bounds
// apply.
func NewWithTree(tree MerkleTree) (*Registry, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: nil tree", ErrInvalidConfiguration)
	}
	if d := tree.Depth(); d < MinDepth || d > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d outside [%d, %d]", ErrInvalidConfiguration, d, MinDepth, MaxDepth)
	}
	return &Registry{tree: tree}, nil
}

// Root returns the current Merkle root of the member set.
func (r *Registry) Root() *big.Int { return r.tree.Root() }

// Depth returns the tree depth fixed at construction.
func (r *Registry) Depth() int { return r.tree.Depth() }

// ZeroValue returns the sentinel stored in unused and removed slots.
func (r *Registry) ZeroValue() *big.Int { return r.tree.ZeroValue() }

// Members returns the full member sequence in index order, including
// zero-valued (removed or never-set) slots.
func (r *Registry) Members() []*big.Int { return r.tree.Leaves() }

// IndexOf returns the index of the first slot equal to member, or -1 when
// the member is absent. -1 must not be conflated with index 0.
func (r *Registry) IndexOf(member *big.Int) int { return r.tree.IndexOf(member) }

// InsertMember appends a member commitment at the next unused index and
// returns that index. The commitment must be a canonical field element, the
// domain the tree's hash is defined over. Fails with ErrCapacityExceeded on
// a full registry.
func (r *Registry) InsertMember(member *big.Int) (int, error) {
	if member == nil || member.Sign() < 0 || member.Cmp(crypto.FieldOrder) >= 0 {
		return 0, fmt.Errorf("registry: member %v is not a canonical field element", member)
	}
	if uint64(r.tree.LeafCount()) >= uint64(1)<<uint(r.tree.Depth()) {
		return 0, fmt.Errorf("%w: %d members", ErrCapacityExceeded, r.tree.LeafCount())
	}
	index, err := r.tree.Insert(member)
	if err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}
	return index, nil
}

// InsertMembers inserts members in order, one at a time. Not atomic: on
// failure, members inserted before the failing one stay committed.
func (r *Registry) InsertMembers(members []*big.Int) error {
	for i, member := range members {
		if _, err := r.InsertMember(member); err != nil {
			return fmt.Errorf("member %d of %d: %w", i, len(members), err)
		}
	}
	return nil
}

// RemoveMember resets the slot at index to the zero value. Fails with
// ErrOutOfRange when the index has no occupied slot.
func (r *Registry) RemoveMember(index int) error {
	if index < 0 || index >= r.tree.LeafCount() {
		return fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	if err := r.tree.Delete(index); err != nil {
		return fmt.Errorf("remove member %d: %w", index, err)
	}
	return nil
}

// MembershipProof produces an inclusion proof for the slot at index against
// the registry's current state. Fails with ErrOutOfRange for an invalid
// index.
func (r *Registry) MembershipProof(index int) (*MembershipProof, error) {
	if index < 0 || index >= r.tree.LeafCount() {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	siblings, directions, err := r.tree.ProofPath(index)
	if err != nil {
		return nil, fmt.Errorf("membership proof for %d: %w", index, err)
	}
	return &MembershipProof{
		Index:        index,
		Member:       r.tree.Leaves()[index],
		Root:         r.tree.Root(),
		PathElements: siblings,
		PathIndexes:  directions,
	}, nil
}

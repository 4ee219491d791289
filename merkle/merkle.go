package merkle

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/dvlprsh/go-rln/crypto"
)

// MaxDepth bounds the tree depth; 2^32 leaves is the largest capacity the
// circuit family supports.
const MaxDepth = 32

var (
	// ErrInvalidDepth is returned when constructing a tree with a depth
	// outside [1, MaxDepth].
	ErrInvalidDepth = errors.New("merkle: invalid tree depth")

	// ErrTreeFull is returned when inserting into a tree with no unused
	// leaf index left.
	ErrTreeFull = errors.New("merkle: tree is full")

	// ErrIndexOutOfRange is returned for indices with no occupied slot.
	ErrIndexOutOfRange = errors.New("merkle: leaf index out of range")
)

// Proof is an inclusion proof for one leaf: the sibling node on every level
// from the leaf to the root, plus the matching path directions
// (0 = the path node is the left child, 1 = the right child).
//
// A proof is computed against the tree's state at call time and becomes
// stale as soon as the tree mutates.
type Proof struct {
	Leaf         *big.Int
	Root         *big.Int
	PathElements []*big.Int
	PathIndexes  []int
}

// Tree is an arena-backed incremental Merkle tree of fixed depth.
// It is not safe for concurrent mutation; callers serialize access.
type Tree struct {
	depth int
	zero  *big.Int
	hash  crypto.MerkleHasher

	// zeroHashes[l] is the value of any unoccupied node at level l:
	// zeroHashes[0] = zero, zeroHashes[l+1] = hash(z[l], z[l]).
	zeroHashes []*big.Int

	// levels[0] holds the inserted leaves; levels[l] holds the occupied
	// prefix of level l. levels[depth] holds the root once non-empty.
	levels [][]*big.Int
}

// New constructs an empty tree of the given depth where every leaf slot
// carries zeroValue. The hasher combines two child nodes into their parent.
func New(depth int, zeroValue *big.Int, hasher crypto.MerkleHasher) (*Tree, error) {
	if depth < 1 || depth > MaxDepth {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	if hasher == nil {
		return nil, errors.New("merkle: nil hasher")
	}
	if zeroValue == nil {
		zeroValue = big.NewInt(0)
	}

	zeroHashes := make([]*big.Int, depth+1)
	zeroHashes[0] = new(big.Int).Set(zeroValue)
	for l := 0; l < depth; l++ {
		h, err := hasher(zeroHashes[l], zeroHashes[l])
		if err != nil {
			return nil, fmt.Errorf("precompute zero hashes: %w", err)
		}
		zeroHashes[l+1] = h
	}

	return &Tree{
		depth:      depth,
		zero:       new(big.Int).Set(zeroValue),
		hash:       hasher,
		zeroHashes: zeroHashes,
		levels:     make([][]*big.Int, depth+1),
	}, nil
}

// Depth returns the tree depth fixed at construction.
func (t *Tree) Depth() int { return t.depth }

// ZeroValue returns the sentinel stored in unused and deleted leaf slots.
func (t *Tree) ZeroValue() *big.Int { return new(big.Int).Set(t.zero) }

// Capacity returns the number of leaf slots, 2^depth.
func (t *Tree) Capacity() uint64 { return 1 << uint(t.depth) }

// LeafCount returns the number of occupied leaf slots, deleted ones
// included (deletion does not shrink the tree).
func (t *Tree) LeafCount() int { return len(t.levels[0]) }

// Root returns the current Merkle root, a pure function of the leaf
// sequence. An empty tree's root is the depth-level zero hash.
func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.node(t.depth, 0))
}

// Leaves returns the occupied leaf sequence in index order. Deleted slots
// appear as the zero value.
func (t *Tree) Leaves() []*big.Int {
	out := make([]*big.Int, len(t.levels[0]))
	for i, leaf := range t.levels[0] {
		out[i] = new(big.Int).Set(leaf)
	}
	return out
}

// IndexOf returns the index of the first leaf equal to value, or -1 when no
// such leaf exists. Callers must not conflate -1 with index 0.
func (t *Tree) IndexOf(value *big.Int) int {
	for i, leaf := range t.levels[0] {
		if leaf.Cmp(value) == 0 {
			return i
		}
	}
	return -1
}

// Insert appends a leaf at the next unused index and returns that index.
// It fails with ErrTreeFull once all 2^depth slots are occupied.
func (t *Tree) Insert(leaf *big.Int) (int, error) {
	index := len(t.levels[0])
	if uint64(index) >= t.Capacity() {
		return 0, fmt.Errorf("%w: capacity %d", ErrTreeFull, t.Capacity())
	}
	t.levels[0] = append(t.levels[0], new(big.Int).Set(leaf))
	if err := t.recomputePath(index); err != nil {
		// the failed leaf must not become part of the tree
		t.levels[0] = t.levels[0][:index]
		return 0, err
	}
	return index, nil
}

// Delete resets the leaf at index to the zero value. Other indices are
// unaffected and the leaf sequence keeps its length.
func (t *Tree) Delete(index int) error {
	if index < 0 || index >= len(t.levels[0]) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	previous := t.levels[0][index]
	t.levels[0][index] = new(big.Int).Set(t.zero)
	if err := t.recomputePath(index); err != nil {
		t.levels[0][index] = previous
		return err
	}
	return nil
}

// ProofPath returns the ordered sibling values and path directions from the
// leaf at index up to the root, against the tree's current state.
func (t *Tree) ProofPath(index int) ([]*big.Int, []int, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	siblings := make([]*big.Int, t.depth)
	directions := make([]int, t.depth)
	pos := index
	for l := 0; l < t.depth; l++ {
		siblings[l] = new(big.Int).Set(t.node(l, pos^1))
		directions[l] = pos & 1
		pos >>= 1
	}
	return siblings, directions, nil
}

// InclusionProof returns the full proof bundle for the leaf at index.
func (t *Tree) InclusionProof(index int) (*Proof, error) {
	siblings, directions, err := t.ProofPath(index)
	if err != nil {
		return nil, err
	}
	return &Proof{
		Leaf:         new(big.Int).Set(t.levels[0][index]),
		Root:         t.Root(),
		PathElements: siblings,
		PathIndexes:  directions,
	}, nil
}

// VerifyProof recomputes the root implied by the proof and compares it to
// the proof's recorded root.
func VerifyProof(proof *Proof, hasher crypto.MerkleHasher) (bool, error) {
	if len(proof.PathElements) != len(proof.PathIndexes) {
		return false, errors.New("merkle: mismatched proof lengths")
	}
	node := proof.Leaf
	for l, sibling := range proof.PathElements {
		var err error
		if proof.PathIndexes[l] == 0 {
			node, err = hasher(node, sibling)
		} else {
			node, err = hasher(sibling, node)
		}
		if err != nil {
			return false, err
		}
	}
	return node.Cmp(proof.Root) == 0, nil
}

// node returns the value at (level, pos), falling back to the level's zero
// hash for anything right of the occupied prefix.
func (t *Tree) node(level, pos int) *big.Int {
	if pos < len(t.levels[level]) {
		return t.levels[level][pos]
	}
	return t.zeroHashes[level]
}

// recomputePath rehashes the nodes from the leaf at index up to the root.
// All parent values are computed before any of them is stored, so a hasher
// failure leaves every level untouched and the root consistent with the
// leaf sequence.
func (t *Tree) recomputePath(index int) error {
	parents := make([]*big.Int, t.depth)
	pos := index
	for l := 0; l < t.depth; l++ {
		left, right := t.node(l, pos&^1), t.node(l, pos|1)
		if l > 0 {
			// the node on the updated path is still pending
			if pos&1 == 0 {
				left = parents[l-1]
			} else {
				right = parents[l-1]
			}
		}
		parent, err := t.hash(left, right)
		if err != nil {
			return fmt.Errorf("recompute level %d: %w", l+1, err)
		}
		parents[l] = parent
		pos >>= 1
	}

	pos = index >> 1
	for l := 0; l < t.depth; l++ {
		if pos < len(t.levels[l+1]) {
			t.levels[l+1][pos] = parents[l]
		} else {
			// path updates touch at most one new node per level
			t.levels[l+1] = append(t.levels[l+1], parents[l])
		}
		pos >>= 1
	}
	return nil
}

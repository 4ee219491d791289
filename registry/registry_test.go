package registry

import (
	"math/big"
	"testing"

	"github.com/dvlprsh/go-rln/crypto"
	"github.com/dvlprsh/go-rln/merkle"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(MinDepth, big.NewInt(0))
	require.NoError(t, err)
	return r
}

func TestNewRejectsBadDepth(t *testing.T) {
	for _, depth := range []int{-1, 0, 15, 33, 64} {
		_, err := New(depth, big.NewInt(0))
		require.ErrorIs(t, err, ErrInvalidConfiguration, "depth %d", depth)
	}
}

func TestNewAcceptsDepthBounds(t *testing.T) {
	for _, depth := range []int{MinDepth, MaxDepth} {
		r, err := New(depth, big.NewInt(0))
		require.NoError(t, err)
		require.Equal(t, depth, r.Depth())
	}
}

func TestEmptyRegistryRootMatchesAllZeroTree(t *testing.T) {
	r := newTestRegistry(t)

	tree, err := merkle.New(MinDepth, big.NewInt(0), crypto.PoseidonMerkleHasher())
	require.NoError(t, err)

	require.Zero(t, r.Root().Cmp(tree.Root()))
	require.Empty(t, r.Members())
}

func TestInsertThenIndexOf(t *testing.T) {
	r := newTestRegistry(t)

	commitments := []*big.Int{big.NewInt(111), big.NewInt(222), big.NewInt(333)}
	for i, c := range commitments {
		idx, err := r.InsertMember(c)
		require.NoError(t, err)
		require.Equal(t, i, idx)
		require.Equal(t, i, r.IndexOf(c))
	}

	require.Equal(t, -1, r.IndexOf(big.NewInt(999)))
}

func TestDuplicateMembersOccupyDistinctIndices(t *testing.T) {
	r := newTestRegistry(t)

	first, err := r.InsertMember(big.NewInt(42))
	require.NoError(t, err)
	second, err := r.InsertMember(big.NewInt(42))
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	// IndexOf finds the first occurrence
	require.Equal(t, first, r.IndexOf(big.NewInt(42)))
}

func TestInsertRejectsNonCanonicalMember(t *testing.T) {
	r := newTestRegistry(t)
	rootBefore := r.Root()

	for _, m := range []*big.Int{
		nil,
		big.NewInt(-1),
		new(big.Int).Add(crypto.FieldOrder, big.NewInt(1)),
	} {
		_, err := r.InsertMember(m)
		require.Error(t, err)
	}

	// nothing was committed: no members, same root
	require.Empty(t, r.Members())
	require.Zero(t, r.Root().Cmp(rootBefore))
}

func TestRemoveMemberPreservesOtherSlots(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.InsertMembers([]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}))

	rootBefore := r.Root()
	require.NoError(t, r.RemoveMember(1))

	members := r.Members()
	require.Len(t, members, 3)
	require.Zero(t, members[0].Cmp(big.NewInt(1)))
	require.Zero(t, members[1].Sign())
	require.Zero(t, members[2].Cmp(big.NewInt(3)))
	require.NotZero(t, r.Root().Cmp(rootBefore))
}

func TestRemoveMemberOutOfRange(t *testing.T) {
	r := newTestRegistry(t)
	_, err := r.InsertMember(big.NewInt(7))
	require.NoError(t, err)

	require.ErrorIs(t, r.RemoveMember(1), ErrOutOfRange)
	require.ErrorIs(t, r.RemoveMember(-1), ErrOutOfRange)
}

func TestMembershipProofShape(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.InsertMembers([]*big.Int{big.NewInt(10), big.NewInt(20), big.NewInt(30)}))

	proof, err := r.MembershipProof(1)
	require.NoError(t, err)
	require.Equal(t, 1, proof.Index)
	require.Zero(t, proof.Member.Cmp(big.NewInt(20)))
	require.Zero(t, proof.Root.Cmp(r.Root()))
	require.Len(t, proof.PathElements, MinDepth)
	require.Len(t, proof.PathIndexes, MinDepth)

	ok, err := merkle.VerifyProof(&merkle.Proof{
		Leaf:         proof.Member,
		Root:         proof.Root,
		PathElements: proof.PathElements,
		PathIndexes:  proof.PathIndexes,
	}, crypto.PoseidonMerkleHasher())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = r.MembershipProof(3)
	require.ErrorIs(t, err, ErrOutOfRange)
}

// fullTree fakes a tree whose every slot is already occupied, so the
// capacity check can be exercised without 2^16 insertions.
type fullTree struct {
	MerkleTree
}

func (fullTree) Depth() int     { return MinDepth }
func (fullTree) LeafCount() int { return 1 << MinDepth }

func TestInsertCapacityExceeded(t *testing.T) {
	r, err := NewWithTree(fullTree{})
	require.NoError(t, err)

	_, err = r.InsertMember(big.NewInt(1))
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestInsertMembersNotAtomic(t *testing.T) {
	// a registry one slot away from full commits the first member and
	// fails on the second
	tree, err := merkle.New(MinDepth, big.NewInt(0), crypto.PoseidonMerkleHasher())
	require.NoError(t, err)
	r, err := NewWithTree(&almostFullTree{Tree: tree})
	require.NoError(t, err)

	err = r.InsertMembers([]*big.Int{big.NewInt(1), big.NewInt(2)})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.Equal(t, 1, len(tree.Leaves()))
}

// almostFullTree reports one free slot regardless of actual occupancy.
type almostFullTree struct {
	*merkle.Tree
	inserted bool
}

func (a *almostFullTree) LeafCount() int {
	if a.inserted {
		return 1 << MinDepth
	}
	return a.Tree.LeafCount()
}

func (a *almostFullTree) Insert(leaf *big.Int) (int, error) {
	idx, err := a.Tree.Insert(leaf)
	if err == nil {
		a.inserted = true
	}
	return idx, err
}

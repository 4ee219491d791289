package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvlprsh/go-rln/crypto"
	"github.com/dvlprsh/go-rln/merkle"
)

func setupTestService(t *testing.T) (*RegistryService, *chi.Mux) {
	t.Helper()
	svc := NewRegistryService(RegistryConfig{Depth: 16}, nil)
	require.NoError(t, svc.Init())

	r := chi.NewRouter()
	svc.RegisterRoutes(r)
	return svc, r
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegistryServiceNotReady(t *testing.T) {
	svc := NewRegistryService(RegistryConfig{Depth: 16}, nil)
	r := chi.NewRouter()
	svc.RegisterRoutes(r)

	w := doJSON(t, r, "GET", "/registry/root", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.False(t, svc.Ready())

	require.NoError(t, svc.Init())
	require.True(t, svc.Ready())

	w = doJSON(t, r, "GET", "/registry/root", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegistryServiceInitRejectsBadDepth(t *testing.T) {
	svc := NewRegistryService(RegistryConfig{Depth: 8}, nil)
	require.Error(t, svc.Init())
	require.False(t, svc.Ready())
}

func TestInsertAndProofFlow(t *testing.T) {
	_, router := setupTestService(t)

	// insert two members
	w := doJSON(t, router, "POST", "/registry/members", &MemberRequest{Commitment: "12345"})
	require.Equal(t, http.StatusOK, w.Code)
	var ins InsertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ins))
	assert.Equal(t, 0, ins.Index)

	w = doJSON(t, router, "POST", "/registry/members", &MemberRequest{Commitment: "67890"})
	require.Equal(t, http.StatusOK, w.Code)

	// proof for index 1 verifies against the reported root
	w = doJSON(t, router, "GET", "/registry/members/1/proof", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var proof ProofResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proof))
	require.Len(t, proof.PathElements, 16)
	assert.Equal(t, "67890", proof.Member)

	elements := make([]*big.Int, len(proof.PathElements))
	for i, el := range proof.PathElements {
		v, ok := new(big.Int).SetString(el, 10)
		require.True(t, ok)
		elements[i] = v
	}
	root, ok := new(big.Int).SetString(proof.Root, 10)
	require.True(t, ok)
	member, ok := new(big.Int).SetString(proof.Member, 10)
	require.True(t, ok)

	verified, err := merkle.VerifyProof(&merkle.Proof{
		Leaf:         member,
		Root:         root,
		PathElements: elements,
		PathIndexes:  proof.PathIndexes,
	}, crypto.PoseidonMerkleHasher())
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestBatchInsert(t *testing.T) {
	_, router := setupTestService(t)

	w := doJSON(t, router, "POST", "/registry/members/batch", &MemberBatchRequest{
		Commitments: []string{"1", "2", "3"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp BatchInsertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{0, 1, 2}, resp.Indices)

	w = doJSON(t, router, "GET", "/registry/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var members MembersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Equal(t, []string{"1", "2", "3"}, members.Members)
}

func TestRemoveMember(t *testing.T) {
	_, router := setupTestService(t)

	w := doJSON(t, router, "POST", "/registry/members/batch", &MemberBatchRequest{
		Commitments: []string{"10", "20"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "DELETE", "/registry/members/0", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, "GET", "/registry/members", nil)
	var members MembersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &members))
	assert.Equal(t, []string{"0", "20"}, members.Members)

	// slot with no member
	w = doJSON(t, router, "DELETE", "/registry/members/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsertRejectsBadCommitments(t *testing.T) {
	_, router := setupTestService(t)

	for _, commitment := range []string{"", "abc", "-5", crypto.FieldOrder.String()} {
		w := doJSON(t, router, "POST", "/registry/members", &MemberRequest{Commitment: commitment})
		assert.Equal(t, http.StatusBadRequest, w.Code, "commitment %q", commitment)
	}
}

func TestGetConfig(t *testing.T) {
	_, router := setupTestService(t)

	w := doJSON(t, router, "GET", "/registry/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cfg ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, 16, cfg.Depth)
	assert.Equal(t, uint64(1)<<16, cfg.Capacity)
	assert.Equal(t, "0", cfg.ZeroValue)
}

func TestRootMatchesConfigDepth(t *testing.T) {
	_, router := setupTestService(t)

	w := doJSON(t, router, "GET", "/registry/root", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var root RootResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))

	// empty registry root equals the root of a fresh all-zero tree
	tree, err := merkle.New(16, big.NewInt(0), crypto.PoseidonMerkleHasher())
	require.NoError(t, err)
	assert.Equal(t, tree.Root().String(), root.Root)
}

func TestProofIndexValidation(t *testing.T) {
	_, router := setupTestService(t)

	w := doJSON(t, router, "GET", fmt.Sprintf("/registry/members/%d/proof", 0), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, "GET", "/registry/members/notanumber/proof", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

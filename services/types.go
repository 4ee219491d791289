package services

import (
	"fmt"
	"math/big"

	"github.com/dvlprsh/go-rln/crypto"
)

// Field elements travel as decimal strings on the wire, matching the circom
// toolchain's encoding.

// MemberRequest registers one identity commitment.
type MemberRequest struct {
	Commitment string `json:"commitment"`
}

// MemberBatchRequest registers an ordered sequence of commitments. Insertion
// is not atomic: commitments before a failing one stay committed.
type MemberBatchRequest struct {
	Commitments []string `json:"commitments"`
}

// InsertResponse reports where a commitment landed and the resulting root.
type InsertResponse struct {
	Index int    `json:"index"`
	Root  string `json:"root"`
}

// BatchInsertResponse reports the indices assigned to a batch.
type BatchInsertResponse struct {
	Indices []int  `json:"indices"`
	Root    string `json:"root"`
}

// RootResponse carries the current Merkle root.
type RootResponse struct {
	Root string `json:"root"`
}

// MembersResponse lists the full member sequence in index order, removed
// slots included as the zero value.
type MembersResponse struct {
	Members []string `json:"members"`
}

// ProofResponse is a membership proof for one slot.
type ProofResponse struct {
	Index        int      `json:"index"`
	Member       string   `json:"member"`
	Root         string   `json:"root"`
	PathElements []string `json:"path_elements"`
	PathIndexes  []int    `json:"path_indexes"`
}

// ConfigResponse describes the registry's fixed parameters.
type ConfigResponse struct {
	Depth       int    `json:"depth"`
	ZeroValue   string `json:"zero_value"`
	Capacity    uint64 `json:"capacity"`
	MemberCount int    `json:"member_count"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func parseFieldElement(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal field element: %q", s)
	}
	if v.Sign() < 0 || v.Cmp(crypto.FieldOrder) >= 0 {
		return nil, fmt.Errorf("value outside the field: %q", s)
	}
	return v, nil
}

func formatFieldElements(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

// Package client is a Go client for the rlnd registry API. It mirrors the
// HTTP surface of services.RegistryService and converts between the wire's
// decimal field-element strings and *big.Int values.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvlprsh/go-rln/registry"
	"github.com/dvlprsh/go-rln/services"
)

// APIError is a non-2xx response from the registry service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry api: status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running rlnd instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the registry service at baseURL, for example
// "http://localhost:8080". A nil httpClient gets a 30 second timeout default.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// InsertMember registers one identity commitment and returns the assigned
// leaf index together with the updated root.
func (c *Client) InsertMember(ctx context.Context, commitment *big.Int) (int, *big.Int, error) {
	req := services.MemberRequest{Commitment: commitment.String()}
	var resp services.InsertResponse
	if err := c.do(ctx, http.MethodPost, "/registry/members", req, &resp); err != nil {
		return 0, nil, err
	}
	root, err := parseElement(resp.Root)
	if err != nil {
		return 0, nil, err
	}
	return resp.Index, root, nil
}

// InsertMembers registers commitments in order. Insertion is not atomic on
// the server side: on error, commitments before the failing one are kept.
func (c *Client) InsertMembers(ctx context.Context, commitments []*big.Int) ([]int, *big.Int, error) {
	req := services.MemberBatchRequest{Commitments: make([]string, len(commitments))}
	for i, m := range commitments {
		req.Commitments[i] = m.String()
	}
	var resp services.BatchInsertResponse
	if err := c.do(ctx, http.MethodPost, "/registry/members/batch", req, &resp); err != nil {
		return nil, nil, err
	}
	root, err := parseElement(resp.Root)
	if err != nil {
		return nil, nil, err
	}
	return resp.Indices, root, nil
}

// RemoveMember clears the slot at index. The slot is not reused.
func (c *Client) RemoveMember(ctx context.Context, index int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/registry/members/%d", index), nil, nil)
}

// Members returns the full member sequence in index order, removed slots
// included as the zero value.
func (c *Client) Members(ctx context.Context) ([]*big.Int, error) {
	var resp services.MembersResponse
	if err := c.do(ctx, http.MethodGet, "/registry/members", nil, &resp); err != nil {
		return nil, err
	}
	return parseElements(resp.Members)
}

// MembershipProof fetches the Merkle proof for the slot at index.
func (c *Client) MembershipProof(ctx context.Context, index int) (*registry.MembershipProof, error) {
	var resp services.ProofResponse
	path := fmt.Sprintf("/registry/members/%d/proof", index)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	member, err := parseElement(resp.Member)
	if err != nil {
		return nil, err
	}
	root, err := parseElement(resp.Root)
	if err != nil {
		return nil, err
	}
	elements, err := parseElements(resp.PathElements)
	if err != nil {
		return nil, err
	}
	return &registry.MembershipProof{
		Index:        resp.Index,
		Member:       member,
		Root:         root,
		PathElements: elements,
		PathIndexes:  resp.PathIndexes,
	}, nil
}

// Root returns the registry's current Merkle root.
func (c *Client) Root(ctx context.Context) (*big.Int, error) {
	var resp services.RootResponse
	if err := c.do(ctx, http.MethodGet, "/registry/root", nil, &resp); err != nil {
		return nil, err
	}
	return parseElement(resp.Root)
}

// Config returns the registry's fixed parameters.
func (c *Client) Config(ctx context.Context) (*services.ConfigResponse, error) {
	var resp services.ConfigResponse
	if err := c.do(ctx, http.MethodGet, "/registry/config", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp services.ErrorResponse
		message := resp.Status
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error != "" {
			message = errResp.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseElement(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed field element in response: %q", s)
	}
	return v, nil
}

func parseElements(values []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(values))
	for i, s := range values {
		v, err := parseElement(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

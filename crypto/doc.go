// Package crypto provides the cryptographic primitives for the RLN protocol.
//
// This package implements the low-level operations that the registry and
// protocol layers build on:
//
//   - Field arithmetic over the BN254 scalar field (the proving system's
//     arithmetic domain)
//   - Keccak-256 based signal hashing, mapped into the field
//   - Poseidon hashing over field elements (circom-compatible, via
//     go-iden3-crypto)
//   - Identity generation (secret key and Poseidon commitment)
//
// Note: field and polynomial math is not constant-time.
//
// # Field Operations
//
// All operations reduce their result into the canonical range [0, FieldOrder)
// before returning. Operations allocate fresh results and never mutate their
// inputs, so callers may freely share *big.Int values.
//
// # Hashing
//
// SignalHash maps an arbitrary UTF-8 signal into the field by hashing with
// Keccak-256 and discarding the low byte, so the result always fits strictly
// below the field order. Poseidon is the hash used inside the circuit and for
// nullifier derivation; both sides must agree on it exactly.
package crypto

// Package registry implements the RLN membership registry.
//
// The registry owns an ordered, fixed-capacity sequence of member slots
// backed by an incremental Merkle tree. Members are identity commitments;
// they are identified by index, not by value, and duplicate commitments may
// occupy distinct indices. Removing a member resets its slot to the zero
// value without shrinking the sequence, so every other index stays valid.
//
// The Merkle tree is a collaborator behind the MerkleTree interface; New
// wires in the default Poseidon-hashed tree from the merkle package, while
// NewWithTree accepts any conforming implementation.
//
// The registry performs no locking of its own. Concurrent mutation must be
// serialized by the caller (the services package does this for the HTTP
// surface).
package registry

// Package merkle implements the incremental Merkle tree backing the RLN
// membership registry.
//
// The tree has a fixed depth (capacity 2^depth) and stores nodes in
// per-level arenas: level 0 holds the inserted leaves, level depth holds the
// root. Only the occupied prefix of each level is materialized; any node to
// the right of it resolves to the level's precomputed zero hash, so a
// depth-32 tree with a handful of members stays small.
//
// Insertion appends at the next unused index and recomputes the path from
// that leaf to the root. Deletion never shrinks the tree: it overwrites the
// slot with the zero value and recomputes the same path, keeping every other
// index stable.
//
// The node hash is injected at construction, so the tree itself is agnostic
// to the hash primitive (the registry wires in Poseidon).
package merkle

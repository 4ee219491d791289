// Package protocol implements the client side of the Rate-Limiting
// Nullifier (RLN) construction: a privacy-preserving anti-spam primitive
// that lets a member prove it belongs to a registered set while binding
// every broadcast to an epoch-scoped share of its secret key. Broadcasting
// once per epoch reveals nothing; broadcasting twice reveals two points on
// the same line, and anyone can interpolate the member's secret from them.
//
// # Construction
//
// A member holds an identity secret a0 whose Poseidon commitment is
// registered in the membership tree (see the registry package). To
// broadcast a signal in an epoch, the member derives
//
//	a1 = Poseidon(a0, epoch)
//	y  = a1*x + a0            (mod Q, x = Keccak hash of the signal)
//	internalNullifier = Poseidon(a1, rlnIdentifier)
//
// and proves in zero knowledge that (y, internalNullifier) were computed
// from a committed member's secret against the published Merkle root. The
// rlnIdentifier is a per-application salt so secrets cannot be correlated
// across unrelated deployments.
//
// The pair (x, y) is a share of a0 on the line f(x) = a1*x + a0. Two shares
// with the same epoch and identifier but different x determine the line:
//
//	a0 = y1 - x1*(y2 - y1)/(x2 - x1)
//
// which is what RetrieveSecret computes — degree-1 Lagrange interpolation
// at x = 0, i.e. Shamir reconstruction from two points.
//
// # Collaborators
//
// The Poseidon hash and the Groth16 proving backend are injected at
// construction; the core only shapes witnesses and interprets public
// signals. The gosnark package provides a backend over vocdoni/go-snark.
// Proof-backend errors propagate to the caller unmodified; the core never
// retries.
//
// # State
//
// Aside from the injected collaborators, every operation is a pure function
// of its arguments. Nothing in this package performs I/O or locking.
package protocol

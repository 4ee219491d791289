// Package gosnark adapts the vocdoni/go-snark Groth16 implementation to the
// protocol.ProofBackend interface.
//
// The adapter is a pass-through: it parses the proving key named by the
// circuit artifacts, obtains the circuit's full wire assignment from an
// injected WitnessCalculator, and hands both to go-snark. Public signals
// come back in the circuit's fixed output order and are decoded into
// protocol.PublicSignals. Verification parses the verification key and the
// proof JSON and delegates to go-snark's verifier.
//
// Computing the wire assignment requires executing the compiled circuit's
// witness generator, which is external machinery; FileWitnessCalculator
// covers deployments where the assignment is produced out of band (e.g. by
// snarkjs) and written to disk as witness JSON.
package gosnark

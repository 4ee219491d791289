// Package services exposes the RLN membership registry over HTTP.
//
// RegistryService wraps a registry.Registry behind a chi router and owns
// the locking the registry itself deliberately does not do: every mutation
// (insert, batch insert, remove) takes the write lock, reads take the read
// lock. Until the service finishes its setup step it answers everything
// with 503, so callers never observe a half-initialized tree.
//
// Field elements cross the wire as decimal strings, the same encoding the
// circom toolchain uses for signals and witness files.
//
// Server provides the HTTP server shell: structured request logging,
// liveness/readiness endpoints, drain handling and graceful shutdown.
package services

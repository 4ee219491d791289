// Package testutil provides test fixtures for the go-rln packages.
//
// The helpers cover the recurring setup in protocol and registry tests:
// deterministic identities (so failures reproduce), populated registries,
// and a canned proof backend for exercising the proof plumbing without
// circuit artifacts.
package testutil

// Package cmd contains the go-rln binaries.
//
// Two binaries are provided:
//
//   - rlnd serves the membership registry over HTTP.
//   - rln-demo runs an in-process end-to-end protocol scenario,
//     including slashing after a double broadcast.
package cmd

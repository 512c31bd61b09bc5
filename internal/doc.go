// Package internal contains helper utilities that are intentionally private to
// StatelessCSRF: CSPRNG seed and key generation and one-way fingerprints used in
// audit events.
//
// # What this package must NOT do
//
//   - Fall back to math/rand or any non-cryptographic source when crypto/rand
//     fails.
//   - Export types that appear in the public statelesscsrf API.
package internal

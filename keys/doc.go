// Package keys manages the secret key material behind StatelessCSRF signatures.
//
// # Key ring
//
// A [Ring] holds one primary [Key], used to sign new tokens, followed by any
// number of previous keys that are still accepted during validation. Rotating
// keys therefore never invalidates tokens already handed to clients until the
// old key is retired.
//
// # Sources
//
// A [Source] produces a Ring. [Static] wraps a fixed ring; [RedisStore] shares
// key material across a fleet through Redis. Only signing keys are stored:
// issued tokens are never persisted anywhere.
//
// # What this package must NOT do
//
//   - Expose secret bytes through an accessor, fmt verb, or slog value.
//   - Derive keys implicitly. [DeriveKey] is an explicit opt-in for callers
//     that only hold a passphrase.
package keys

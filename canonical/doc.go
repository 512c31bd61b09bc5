// Package canonical owns the deterministic serialization of token inputs and the
// keyed hash computed over it.
//
// # Serialized form
//
//	codec(identifier) "|" expiration "|" glue-json "|" seed
//
// The identifier is URL-safe base64 encoded so that '|' or binary bytes in it
// cannot shift field boundaries. The expiration is empty when absent, decimal
// Unix seconds otherwise. Glue data is a JSON object in insertion order with no
// insignificant whitespace and no HTML escaping; empty glue renders as {}.
//
// # Keyed hash
//
// HMAC-SHA256 over the serialized form, via the HS256 signing method of
// github.com/golang-jwt/jwt/v5. The raw 32-byte digest is emitted as unpadded
// URL-safe base64.
//
// # What this package must NOT do
//
//   - Render a secret through fmt, slog, or any exported accessor.
//   - Decide token validity beyond signature equality (expiry and parsing live
//     in the root package).
package canonical

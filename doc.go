// Package statelesscsrf issues and validates stateless anti-forgery tokens.
//
// A token is bound to a caller identifier (form name, session id), optional
// glue data (client IP, user agent) and an optional expiration, and is signed
// with HMAC-SHA256. Nothing is stored server-side: the identifier and glue are
// supplied again at validation time and the signature is recomputed.
//
//	s, err := statelesscsrf.NewSigner(secret)
//	glue := statelesscsrf.MustGlue("ip", r.RemoteAddr, "ua", r.UserAgent())
//	token, err := s.IssueFor("comment-form", time.Hour, glue)
//	...
//	ok, err := s.ValidateNow("comment-form", r.PostFormValue("csrf"), glue)
//
// # Token format
//
// A token is URL-safe base64 (no padding) of
//
//	seed "|" expiration "|" signature
//
// where seed is 8 random bytes in URL-safe base64, expiration is decimal unix
// seconds or empty, and signature is the URL-safe base64 HMAC-SHA256 of
//
//	base64(identifier) "|" expiration "|" glue-json "|" seed
//
// # Architecture boundaries
//
// The public surface is [Signer], [Builder], [Config], [Glue], [Timestamp] and
// the audit and metrics value types. Serialization and the MAC live in
// canonical/, base64 in codec/, key material and rotation in keys/.
//
// # What this package must NOT do
//
//   - Persist tokens or track their use. Replay protection is out of scope.
//   - Expose secrets through fmt, slog or audit events.
//   - Distinguish malformed, forged and expired tokens to the caller.
//   - Perform I/O in Issue or Validate. Only Reload and BuildContext with a
//     key source touch the network.
package statelesscsrf

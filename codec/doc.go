// Package codec implements the URL-safe base64 text encoding used by every
// StatelessCSRF token segment.
//
// # Alphabet
//
// Standard base64 with '+' replaced by '-' and '/' replaced by '_'. Encoding
// never emits '=' padding; decoding accepts input with or without it.
//
// # What this package must NOT do
//
//   - Return an empty or default value for malformed input. Decode always
//     reports [ErrMalformed] so callers can map it to a validation failure.
//   - Import any other StatelessCSRF package.
package codec

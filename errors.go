package statelesscsrf

import (
	"errors"

	"github.com/Ayesh/StatelessCSRF/canonical"
)

// Validation outcomes (malformed, forged, expired) are never errors: Validate
// reports them as false. Everything below is either a caller bug or an
// environment failure and always propagates.
var (
	// ErrSignerNotInitialized is returned when a nil or zero Signer is used.
	ErrSignerNotInitialized = errors.New("signer not initialized")
	// ErrNoKeys is returned by Build when no secret, ring or source was supplied.
	ErrNoKeys = errors.New("no signing keys configured")
	// ErrInvalidTTL is returned for a negative token lifetime.
	ErrInvalidTTL = errors.New("invalid token ttl")
	// ErrInvalidExpiration is returned by Issue for an expiration before the
	// Unix epoch. Such a token could never validate.
	ErrInvalidExpiration = errors.New("invalid token expiration")
	// ErrGlueOddPairs is returned by NewGlue for an odd number of arguments.
	ErrGlueOddPairs = errors.New("glue requires key/value pairs")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrNoKeySource is returned by Reload on a signer built without a source.
	ErrNoKeySource = errors.New("signer has no key source")

	// ErrRandomnessUnavailable is returned when the CSPRNG cannot produce a
	// seed. There is no fallback source.
	ErrRandomnessUnavailable = errors.New("secure randomness unavailable")
	// ErrSerialization is returned when glue data has no canonical encoding,
	// for example a key or value that is not valid UTF-8.
	ErrSerialization = canonical.ErrSerialization
)

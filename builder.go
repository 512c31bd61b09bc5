package statelesscsrf

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Ayesh/StatelessCSRF/keys"
)

// DefaultKeyID is the key id used for a secret passed to WithSecret or
// NewSigner.
const DefaultKeyID = "default"

// Builder defines a public type used by StatelessCSRF APIs.
//
// Builder instances are intended to be configured during initialization and then used once.
type Builder struct {
	config Config

	secret []byte
	ring   *keys.Ring
	source keys.Source

	auditSink AuditSink
	logger    *slog.Logger
	entropy   io.Reader

	built bool
}

// New describes the new operation and its observable behavior.
//
// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig replaces the whole configuration, including any metrics flags set earlier.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret describes the withsecret operation and its observable behavior.
//
// WithSecret installs a single key with id DefaultKeyID. The bytes are copied.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.secret = cloneBytes(secret)
	if b.secret == nil {
		b.secret = []byte{}
	}
	return b
}

// WithKeyRing installs a fixed key ring.
func (b *Builder) WithKeyRing(r *keys.Ring) *Builder {
	b.ring = r
	return b
}

// WithKeySource describes the withkeysource operation and its observable behavior.
//
// WithKeySource makes BuildContext load the initial ring from src, and enables Signer.Reload.
func (b *Builder) WithKeySource(src keys.Source) *Builder {
	b.source = src
	return b
}

// WithAuditSink sets where audit events go once Config.Audit is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger. Without one the Signer logs nothing.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the Validate latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

func (b *Builder) withEntropy(r io.Reader) *Builder {
	b.entropy = r
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build is BuildContext with a background context.
func (b *Builder) Build() (*Signer, error) {
	return b.BuildContext(context.Background())
}

// BuildContext describes the buildcontext operation and its observable behavior.
//
// Exactly one of WithSecret, WithKeyRing or WithKeySource must have been
// called. With a key source the initial ring is loaded under ctx.
func (b *Builder) BuildContext(ctx context.Context) (*Signer, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configured := 0
	for _, set := range []bool{b.secret != nil, b.ring != nil, b.source != nil} {
		if set {
			configured++
		}
	}
	switch {
	case configured == 0:
		return nil, ErrNoKeys
	case configured > 1:
		return nil, fmt.Errorf("%w: use only one of WithSecret, WithKeyRing, WithKeySource", ErrNoKeys)
	}

	ring := b.ring
	switch {
	case b.secret != nil:
		k, err := keys.NewKey(DefaultKeyID, b.secret)
		if err != nil {
			return nil, err
		}
		if ring, err = keys.NewRing(k); err != nil {
			return nil, err
		}
	case b.source != nil:
		loaded, err := b.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		ring = loaded
	}
	if ring == nil || ring.Len() == 0 {
		return nil, ErrNoKeys
	}

	logger := b.logger
	if logger == nil {
		logger = discardLogger()
	}

	s := &Signer{
		config:  cfg,
		source:  b.source,
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		entropy: b.entropy,
	}
	s.ring.Store(ring)
	s.audit = newAuditDispatcher(cfg.Audit, b.auditSink, logger)

	b.built = true
	// The builder keeps no reference to the secret once it is owned by a key.
	b.secret = nil

	return s, nil
}

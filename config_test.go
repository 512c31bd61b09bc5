package statelesscsrf

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "default",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name: "zero ttl",
			mutate: func(c *Config) {
				c.DefaultTTL = 0
			},
			wantValid: true,
		},
		{
			name: "negative ttl",
			mutate: func(c *Config) {
				c.DefaultTTL = -time.Second
			},
			wantValid: false,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "audit disabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.BufferSize = 0
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}

func TestConfigNegativeTTLIsErrInvalidTTL(t *testing.T) {
	cfg := defaultConfig()
	cfg.DefaultTTL = -time.Minute
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}

func TestCloneConfigFillsClock(t *testing.T) {
	cfg := cloneConfig(Config{})
	if cfg.Clock == nil {
		t.Fatal("cloneConfig must default Clock")
	}
}

func TestLintCodes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "no default ttl", mutate: func(c *Config) { c.DefaultTTL = 0 }, want: "no_default_ttl"},
		{name: "long ttl", mutate: func(c *Config) { c.DefaultTTL = 48 * time.Hour }, want: "default_ttl_long"},
		{name: "short ttl", mutate: func(c *Config) { c.DefaultTTL = 10 * time.Second }, want: "default_ttl_short"},
		{name: "audit disabled", mutate: func(c *Config) { c.Audit.Enabled = false }, want: "audit_disabled"},
		{name: "audit drops", mutate: func(c *Config) { c.Audit.Enabled = true; c.Audit.DropIfFull = true }, want: "audit_drop_if_full"},
		{name: "metrics disabled", mutate: func(c *Config) { c.Metrics.Enabled = false }, want: "metrics_disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if !containsCode(cfg.Lint().Codes(), tt.want) {
				t.Fatalf("expected %s in %v", tt.want, cfg.Lint().Codes())
			}
		})
	}
}

func TestLintDefaultHasNoHighSeverity(t *testing.T) {
	cfg := defaultConfig()
	if high := cfg.Lint().AtLeast(LintHigh); len(high) != 0 {
		t.Fatalf("default config has high severity warnings: %v", high.Codes())
	}
}

func containsCode(codes []string, want string) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/makalin/LiveWeave/binding"
	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/pkg/tlsutil"
)

// Signal channel kinds.
const (
	ChannelNone   = "none"
	ChannelMemory = "memory"
	ChannelNATS   = "nats"
)

// Config is the complete runner configuration.
type Config struct {
	Version  string            `json:"version,omitempty"`
	NATS     NATSConfig        `json:"nats"`
	HTTP     HTTPConfig        `json:"http"`
	Stream   StreamConfig      `json:"stream"`
	Signals  SignalsConfig     `json:"signals"`
	Bindings []binding.Options `json:"bindings,omitempty"`
}

// NATSConfig defines NATS connection settings.
type NATSConfig struct {
	URLs          []string             `json:"urls,omitempty"`
	Name          string               `json:"name,omitempty"`
	MaxReconnects int                  `json:"max_reconnects,omitempty"`
	ReconnectWait time.Duration        `json:"reconnect_wait,omitempty"`
	Username      string               `json:"username,omitempty"`
	Password      string               `json:"password,omitempty"`
	Token         string               `json:"token,omitempty"`
	TLS           tlsutil.ClientConfig `json:"tls,omitempty"`
}

// HTTPConfig defines the metrics and control surface.
type HTTPConfig struct {
	Addr        string `json:"addr,omitempty"`
	MetricsPath string `json:"metrics_path,omitempty"`
}

// StreamConfig holds defaults shared by every stream binding.
type StreamConfig struct {
	// Base is the location relative sources resolve against.
	Base string `json:"base,omitempty"`
	// Cookies seed the jar used by include and same-origin credentials.
	Cookies        map[string]string `json:"cookies,omitempty"`
	EventReconnect bool              `json:"event_reconnect,omitempty"`
	// TLS applies to poll, event-stream and websocket connections.
	TLS tlsutil.ClientConfig `json:"tls,omitempty"`
}

// SignalsConfig selects how signals are shared.
type SignalsConfig struct {
	Channel string         `json:"channel,omitempty"`
	Subject string         `json:"subject,omitempty"`
	Initial map[string]any `json:"initial,omitempty"`
}

// BaseURL parses Stream.Base. It returns nil when no base is set.
func (c *Config) BaseURL() (*url.URL, error) {
	if c.Stream.Base == "" {
		return nil, nil
	}
	u, err := url.Parse(c.Stream.Base)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("base %q is not absolute", c.Stream.Base)
	}
	return u, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Version != "" {
		if _, _, _, err := parseSemVer(c.Version); err != nil {
			return invalid("version", err)
		}
	}

	switch strings.ToLower(c.Signals.Channel) {
	case "", ChannelNone, ChannelMemory:
	case ChannelNATS:
		if len(c.NATS.URLs) == 0 {
			return invalid("nats.urls", fmt.Errorf("required when signals.channel is %q", ChannelNATS))
		}
	default:
		return invalid("signals.channel", fmt.Errorf("unknown channel %q", c.Signals.Channel))
	}

	if _, err := c.BaseURL(); err != nil {
		return invalid("stream.base", err)
	}
	if err := c.Stream.TLS.Validate(); err != nil {
		return invalid("stream.tls", err)
	}
	if err := c.NATS.TLS.Validate(); err != nil {
		return invalid("nats.tls", err)
	}

	seen := make(map[string]bool, len(c.Bindings))
	for i, b := range c.Bindings {
		if b.ID == "" {
			return invalid(fmt.Sprintf("bindings[%d].id", i), fmt.Errorf("required"))
		}
		if seen[b.ID] {
			return invalid(fmt.Sprintf("bindings[%d].id", i), fmt.Errorf("duplicate id %q", b.ID))
		}
		seen[b.ID] = true
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
	}
	return nil
}

func invalid(field string, err error) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, field, err), "Config", "Validate", "validate "+field)
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}
	return &clone
}

// String returns the JSON form of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// SaveToFile writes the configuration as JSON.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return safeWriteFile(path, data)
}

// SafeConfig provides thread-safe access to configuration.
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig wraps cfg.
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = &Config{}
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration.
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update replaces the configuration after validating it.
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "SafeConfig", "Update", "replace config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg
	return nil
}

// parseSemVer parses "major.minor.patch" with an optional v prefix.
func parseSemVer(version string) (int, int, int, error) {
	parts := strings.Split(strings.TrimPrefix(version, "v"), ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("version must be in format 'major.minor.patch', got '%s'", version)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("invalid version part '%s'", p)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

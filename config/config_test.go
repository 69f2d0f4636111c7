package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makalin/LiveWeave/binding"
	"github.com/makalin/LiveWeave/errors"
	"github.com/makalin/LiveWeave/pkg/selector"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const jsonConfig = `{
	"version": "1.0.0",
	"nats": {"urls": ["nats://a:4222", "nats://b:4222"], "reconnect_wait": "5s"},
	"http": {"addr": ":8080"},
	"stream": {"base": "https://example.com/app/", "cookies": {"session": "abc"}},
	"signals": {"channel": "nats", "subject": "app.signals", "initial": {"theme": "dark"}},
	"bindings": [
		{"id": "price", "source": "/api/price", "poll": "5s", "select": "quote.price",
		 "when": [{"field": "open", "operator": "truthy"}]},
		{"id": "user", "signal": "user"}
	]
}`

const yamlConfig = `
version: 1.0.0
nats:
  urls: ["nats://a:4222", "nats://b:4222"]
  reconnect_wait: 5s
http:
  addr: ":8080"
stream:
  base: https://example.com/app/
  cookies:
    session: abc
signals:
  channel: nats
  subject: app.signals
  initial:
    theme: dark
bindings:
  - id: price
    source: /api/price
    poll: 5s
    select: quote.price
    when:
      - field: open
        operator: truthy
  - id: user
    signal: user
`

const tomlConfig = `
version = "1.0.0"

[nats]
urls = ["nats://a:4222", "nats://b:4222"]
reconnect_wait = "5s"

[http]
addr = ":8080"

[stream]
base = "https://example.com/app/"
cookies = { session = "abc" }

[signals]
channel = "nats"
subject = "app.signals"
initial = { theme = "dark" }

[[bindings]]
id = "price"
source = "/api/price"
poll = "5s"
select = "quote.price"
when = [{ field = "open", operator = "truthy" }]

[[bindings]]
id = "user"
signal = "user"
`

func TestLoader_Formats(t *testing.T) {
	want := &Config{
		Version: "1.0.0",
		NATS: NATSConfig{
			URLs:          []string{"nats://a:4222", "nats://b:4222"},
			Name:          "liveweave",
			MaxReconnects: -1,
			ReconnectWait: 5 * time.Second,
		},
		HTTP:   HTTPConfig{Addr: ":8080", MetricsPath: DefaultMetricsPath},
		Stream: StreamConfig{Base: "https://example.com/app/", Cookies: map[string]string{"session": "abc"}},
		Signals: SignalsConfig{
			Channel: ChannelNATS,
			Subject: "app.signals",
			Initial: map[string]any{"theme": "dark"},
		},
		Bindings: []binding.Options{
			{ID: "price", Source: "/api/price", Poll: "5s", Select: "quote.price",
				When: []selector.Rule{{Field: "open", Operator: "truthy"}}},
			{ID: "user", Signal: "user"},
		},
	}

	for name, content := range map[string]string{
		"config.json": jsonConfig,
		"config.yaml": yamlConfig,
		"config.toml": tomlConfig,
	} {
		t.Run(name, func(t *testing.T) {
			loader := NewLoader()
			loader.EnableValidation(true)
			cfg, err := loader.LoadFile(writeFile(t, name, content))
			require.NoError(t, err)
			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultNATSURL}, cfg.NATS.URLs)
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Equal(t, ChannelMemory, cfg.Signals.Channel)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_Layers(t *testing.T) {
	base := writeFile(t, "base.yaml", `
http:
  addr: ":7000"
  metrics_path: /prom
bindings:
  - id: a
    source: /a
`)
	override := writeFile(t, "override.json", `{"http": {"addr": ":7001"}, "bindings": [{"id": "b", "source": "/b"}]}`)

	loader := NewLoader()
	loader.AddLayer(base)
	loader.AddLayer(override)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7001", cfg.HTTP.Addr)
	assert.Equal(t, "/prom", cfg.HTTP.MetricsPath, "unset keys keep earlier layers")
	require.Len(t, cfg.Bindings, 1, "lists are replaced")
	assert.Equal(t, "b", cfg.Bindings[0].ID)
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("LIVEWEAVE_NATS_URL", "nats://x:4222, nats://y:4222")
	t.Setenv("LIVEWEAVE_NATS_TOKEN", "secret")
	t.Setenv("LIVEWEAVE_HTTP_ADDR", ":9999")
	t.Setenv("LIVEWEAVE_BASE_URL", "http://localhost:3000/")

	cfg, err := NewLoader().LoadFile(writeFile(t, "c.json", `{"http": {"addr": ":1"}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"nats://x:4222", "nats://y:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "secret", cfg.NATS.Token)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:3000/", cfg.Stream.Base)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})
	t.Run("unsupported extension", func(t *testing.T) {
		_, err := NewLoader().LoadFile(writeFile(t, "c.ini", "a=1"))
		assert.ErrorContains(t, err, "unsupported config format")
	})
	t.Run("relative traversal", func(t *testing.T) {
		_, err := NewLoader().LoadFile("../../etc/liveweave.json")
		assert.ErrorContains(t, err, "path traversal")
	})
	t.Run("deep json", func(t *testing.T) {
		deep := strings.Repeat("[", maxJSONDepth+1) + strings.Repeat("]", maxJSONDepth+1)
		_, err := NewLoader().LoadFile(writeFile(t, "deep.json", `{"x":`+deep+`}`))
		assert.ErrorContains(t, err, "nesting too deep")
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := NewLoader().LoadFile(writeFile(t, "bad.yaml", "http: [unclosed"))
		assert.Error(t, err)
	})
	t.Run("bad toml", func(t *testing.T) {
		_, err := NewLoader().LoadFile(writeFile(t, "bad.toml", "[http"))
		assert.Error(t, err)
	})
	t.Run("validation", func(t *testing.T) {
		loader := NewLoader()
		loader.EnableValidation(true)
		_, err := loader.LoadFile(writeFile(t, "dup.json", `{"bindings": [{"id": "a"}, {"id": "a"}]}`))
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := NewLoader().Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad version", func(c *Config) { c.Version = "1.0" }},
		{"unknown channel", func(c *Config) { c.Signals.Channel = "carrier" }},
		{"nats without urls", func(c *Config) { c.Signals.Channel = ChannelNATS; c.NATS.URLs = nil }},
		{"relative base", func(c *Config) { c.Stream.Base = "/app" }},
		{"missing binding id", func(c *Config) { c.Bindings = []binding.Options{{Source: "/x"}} }},
		{"duplicate binding id", func(c *Config) {
			c.Bindings = []binding.Options{{ID: "a", Source: "/x"}, {ID: "a", Source: "/y"}}
		}},
		{"bad transport", func(c *Config) { c.Bindings = []binding.Options{{ID: "a", Transport: "fax"}} }},
		{"bad poll", func(c *Config) { c.Bindings = []binding.Options{{ID: "a", Poll: "soon"}} }},
		{"stream tls version", func(c *Config) { c.Stream.TLS.MinVersion = "1.1" }},
		{"nats tls half pair", func(c *Config) { c.NATS.TLS.KeyFile = "client.key" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.True(t, errors.IsInvalid(err))
		})
	}

	cfg := valid()
	cfg.Version = "v2.1.0"
	cfg.Stream.Base = "https://example.com/"
	assert.NoError(t, cfg.Validate())
	base, err := cfg.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "example.com", base.Host)
}

func TestSafeConfig(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	cfg.Bindings = []binding.Options{{ID: "a", Source: "/a"}}

	sc := NewSafeConfig(cfg)
	got := sc.Get()
	got.Bindings[0].Source = "/changed"
	got.HTTP.Addr = ":1"
	assert.Equal(t, "/a", sc.Get().Bindings[0].Source, "Get returns a copy")
	assert.Equal(t, DefaultHTTPAddr, sc.Get().HTTP.Addr)

	assert.ErrorIs(t, sc.Update(nil), errors.ErrMissingConfig)

	bad := sc.Get()
	bad.Signals.Channel = "nope"
	assert.Error(t, sc.Update(bad))

	next := sc.Get()
	next.HTTP.Addr = ":2"
	require.NoError(t, sc.Update(next))
	assert.Equal(t, ":2", sc.Get().HTTP.Addr)

	assert.NotNil(t, NewSafeConfig(nil).Get())
}

func TestConfig_SaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.json")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	cfg.Bindings = []binding.Options{{ID: "a", Source: "/a", Once: true}}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("saved config differs (-want +got):\n%s", diff)
	}
	assert.Contains(t, cfg.String(), `"id": "a"`)

	assert.Error(t, cfg.SaveToFile(filepath.Join(dir, "saved.txt")))
}

func TestLoader_ExampleConfig(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("..", "configs", "liveweave.example.yaml"))
	require.NoError(t, err)

	loader := NewLoader()
	loader.EnableValidation(true)
	cfg, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ChannelMemory, cfg.Signals.Channel)
	assert.Equal(t, map[string]any{"mode": "light"}, cfg.Signals.Initial["theme"])
	assert.Equal(t, 2*time.Second, cfg.NATS.ReconnectWait)
	require.Len(t, cfg.Bindings, 4)
	assert.Equal(t, "data.last", cfg.Bindings[0].Select)
	assert.Equal(t, []selector.Rule{{Field: "severity", Operator: selector.OpGte, Value: 3.0}}, cfg.Bindings[1].When)
	assert.True(t, cfg.Bindings[2].Once)
	assert.Equal(t, "theme", cfg.Bindings[3].Signal)
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides. Nested keys use a double
// underscore: LECTUREDOC_SOURCE__URL sets source.url.
const EnvPrefix = "LECTUREDOC_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (LECTUREDOC_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps LECTUREDOC_SERVER__POLL_SECONDS to server.poll_seconds.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validSourceKinds = map[SourceKind]bool{
	SourceGist: true,
	SourceURL:  true,
	SourceFile: true,
}

var validEncodings = map[Encoding]bool{
	EncodingLZURI: true,
	EncodingPlain: true,
}

var validSearchProviders = map[SearchProvider]bool{
	SearchNone:   true,
	SearchOpenAI: true,
	SearchOllama: true,
	SearchGoogle: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validSourceKinds[c.Source.Kind] {
		return fmt.Errorf("invalid source.kind %q: must be one of gist, url, file", c.Source.Kind)
	}
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required")
	}
	if c.Source.Kind == SourceGist && c.Source.GistFile == "" {
		return fmt.Errorf("source.gist_file is required for gist sources")
	}
	if !validEncodings[c.Source.Encoding] {
		return fmt.Errorf("invalid source.encoding %q: must be one of lz-uri, plain", c.Source.Encoding)
	}
	if c.Source.TimeoutSeconds < 0 {
		return fmt.Errorf("source.timeout_seconds must be non-negative")
	}

	if c.CachePath == "" {
		return fmt.Errorf("cache_path is required")
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.PollSeconds < 0 {
		return fmt.Errorf("server.poll_seconds must be non-negative")
	}

	if c.Search.Provider != "" && !validSearchProviders[c.Search.Provider] {
		return fmt.Errorf("invalid search.provider %q: must be one of none, openai, ollama, google", c.Search.Provider)
	}

	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid lecture pattern %q", p)
		}
	}

	return nil
}

// Timeout returns the source request timeout.
func (s SourceConfig) Timeout() time.Duration {
	if s.TimeoutSeconds == 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Token returns the source access token from the configured environment variable.
func (s SourceConfig) Token() string {
	if s.TokenEnv == "" {
		return ""
	}
	return os.Getenv(s.TokenEnv)
}

// PollInterval returns the background refresh interval, zero when disabled.
func (s ServerConfig) PollInterval() time.Duration {
	return time.Duration(s.PollSeconds) * time.Second
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingAPIKey   = errors.New("API key is not configured")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingBaseURL  = errors.New("custom provider requires base_url")
)

const (
	DefaultTimeout        = 60 * time.Second
	DefaultMaxUploadChars = 4000
	DefaultListenAddr     = "127.0.0.1:8501"
	DefaultSessionTTL     = 2 * time.Hour
)

type Config struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key,omitempty"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`

	// Uploaded documents are cut to this many characters before prompting.
	MaxUploadChars int `yaml:"max_upload_chars,omitempty"`

	Server *ServerConfig `yaml:"server,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Web sessions idle for longer than this are dropped.
	SessionTTL time.Duration `yaml:"session_ttl,omitempty"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
	File string `yaml:"file,omitempty"`
}

func DefaultConfig() *Config {
	groq := GetProvider("groq")
	return &Config{
		Provider:       groq.ID,
		Model:          groq.DefaultModel,
		Timeout:        DefaultTimeout,
		MaxUploadChars: DefaultMaxUploadChars,
		Server: &ServerConfig{
			Addr:       DefaultListenAddr,
			SessionTTL: DefaultSessionTTL,
		},
		Log: &LogConfig{
			Mode: "dev",
		},
	}
}

func ConfigDir() (string, error) {
	if p := os.Getenv("MEMOMATE_CONFIG"); p != "" {
		return filepath.Dir(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "memomate"), nil
}

func ConfigPath() (string, error) {
	if p := os.Getenv("MEMOMATE_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file. It returns nil, nil when no file exists yet.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read config", goerr.V("path", path))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config", goerr.V("path", path))
	}
	cfg.fillDefaults()

	return &cfg, nil
}

// Resolve loads the config file (or defaults) and applies environment overrides.
func Resolve() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides file values with MEMOMATE_* variables. GROQ_API_KEY is
// honoured for the groq provider when no other key is set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MEMOMATE_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("MEMOMATE_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("MEMOMATE_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("MEMOMATE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Timeout = d
		}
	}
	if v := os.Getenv("MEMOMATE_MAX_UPLOAD_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxUploadChars = n
		}
	}
	if v := os.Getenv("MEMOMATE_API_KEY"); v != "" {
		c.APIKey = v
	} else if v := os.Getenv("GROQ_API_KEY"); v != "" && c.Provider == "groq" && c.APIKey == "" {
		c.APIKey = v
	}
	c.fillDefaults()
}

func (c *Config) fillDefaults() {
	if c.Provider == "" {
		c.Provider = "groq"
	}
	if c.Model == "" {
		if p := GetProvider(c.Provider); p != nil {
			c.Model = p.DefaultModel
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxUploadChars <= 0 {
		c.MaxUploadChars = DefaultMaxUploadChars
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultListenAddr
	}
	if c.Server.SessionTTL <= 0 {
		c.Server.SessionTTL = DefaultSessionTTL
	}
	if c.Log == nil {
		c.Log = &LogConfig{Mode: "dev"}
	}
}

// Endpoint returns the base URL requests go to: the explicit base_url, or the
// provider preset.
func (c *Config) Endpoint() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if p := GetProvider(c.Provider); p != nil {
		return p.BaseURL
	}
	return ""
}

// ProviderName is the human name used in replies, e.g. "Error from Groq: ...".
func (c *Config) ProviderName() string {
	if p := GetProvider(c.Provider); p != nil {
		return p.Name
	}
	return c.Provider
}

// Validate reports configuration errors that make every request impossible.
func (c *Config) Validate() error {
	p := GetProvider(c.Provider)
	if p == nil {
		return goerr.Wrap(ErrUnknownProvider, "invalid config", goerr.V("provider", c.Provider))
	}
	if c.Endpoint() == "" {
		return goerr.Wrap(ErrMissingBaseURL, "invalid config", goerr.V("provider", c.Provider))
	}
	if p.NeedsAPIKey && strings.TrimSpace(c.APIKey) == "" {
		return goerr.Wrap(ErrMissingAPIKey, "invalid config", goerr.V("provider", c.Provider))
	}
	return nil
}

func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return goerr.Wrap(err, "failed to create config dir", goerr.V("dir", dir))
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return goerr.Wrap(err, "failed to encode config")
	}

	return os.WriteFile(path, data, 0600)
}

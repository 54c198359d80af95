package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents ~/.chatline/config.toml.
type Config struct {
	DefaultInstance string       `toml:"default_instance"`
	Server          ServerConfig `toml:"server"`
	Client          ClientConfig `toml:"client"`
}

// ServerConfig holds the daemon's HTTP and realtime settings.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
	JWTSecret      string   `toml:"jwt_secret"`
	TokenTTL       Duration `toml:"token_ttl"`
	SecureCookies  bool     `toml:"secure_cookies"`
	PublicBaseURL  string   `toml:"public_base_url"`
	MediaDir       string   `toml:"media_dir"`
	SendBuffer     int      `toml:"send_buffer"`
	WriteTimeout   Duration `toml:"write_timeout"`
	MaxMessageSize int64    `toml:"max_message_size"`
}

// ClientConfig holds the terminal client's settings.
type ClientConfig struct {
	ServerURL string `toml:"server_url"`
	PageSize  int    `toml:"page_size"`
}

// Duration is a time.Duration that decodes from TOML strings like "168h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a config with every field populated.
func Default() *Config {
	cfg := &Config{}
	cfg.Sanitize()
	return cfg
}

// Sanitize fills zero values with defaults.
func (c *Config) Sanitize() {
	s := &c.Server
	if s.Addr == "" {
		s.Addr = "127.0.0.1:5001"
	}
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if s.TokenTTL.Duration <= 0 {
		s.TokenTTL.Duration = 7 * 24 * time.Hour
	}
	if s.PublicBaseURL == "" {
		s.PublicBaseURL = "http://" + s.Addr
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = 64
	}
	if s.WriteTimeout.Duration <= 0 {
		s.WriteTimeout.Duration = 10 * time.Second
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = 4096
	}
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = "http://" + s.Addr
	}
	if c.Client.PageSize <= 0 {
		c.Client.PageSize = 10
	}
}

// Load reads config from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	cfg.Sanitize()
	return &cfg, nil
}

// Save writes config to path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadDotenv loads an optional .env file into the process environment.
// Variables already set are left untouched.
func LoadDotenv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides file values from CHATLINE_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("CHATLINE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CHATLINE_JWT_SECRET"); v != "" {
		c.Server.JWTSecret = v
	}
	if v := os.Getenv("CHATLINE_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("CHATLINE_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
}

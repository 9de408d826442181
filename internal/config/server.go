package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultServerAddr is where the HTTP API listens when nothing is configured.
const DefaultServerAddr = ":8080"

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	TLS             bool
	CertDir         string
}

// LoadServerConfig reads the server.* keys, falling back to defaults.
func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{
		Addr:            DefaultServerAddr,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    16 << 20,
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Addr = v
	}
	if v := viper.GetDuration("server.read_timeout"); v > 0 {
		cfg.ReadTimeout = v
	}
	if v := viper.GetDuration("server.write_timeout"); v > 0 {
		cfg.WriteTimeout = v
	}
	if v := viper.GetInt64("server.max_body_bytes"); v > 0 {
		cfg.MaxBodyBytes = v
	}
	cfg.TLS = viper.GetBool("server.tls")
	cfg.CertDir = ExpandPath("~/.config/holdscan/certs")
	if v := viper.GetString("server.cert_dir"); v != "" {
		cfg.CertDir = ExpandPath(v)
	}
	return cfg
}

// DatabasePath returns the configured SQLite path with ~ and variables expanded.
func DatabasePath() string {
	if v := viper.GetString("database.path"); v != "" {
		return ExpandPath(v)
	}
	return ExpandPath("~/.local/share/holdscan/holdscan.db")
}

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jakenesler/trctl/internal"
	"github.com/jakenesler/trctl/transmission"
)

type Config struct {
	Transmission     TransmissionConfig `yaml:"transmission"`
	AllowDestructive bool               `yaml:"allow_destructive"`
	Log              LogConfig          `yaml:"log"`
}

type TransmissionConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"` // replaces the host of URL
	Port     int    `yaml:"port"` // replaces the port of URL
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Version and KBytes skip the session-get round trip when both are set.
	Version        string        `yaml:"version"`
	KBytes         int           `yaml:"kbytes"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "console", "json"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "trctl", "config.yaml")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the config at path. An empty path means the default location,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if _, err := cfg.Transmission.Endpoint(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transmission.ConnectTimeout <= 0 {
		c.Transmission.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
}

// Endpoint composes the RPC URL. Without a URL the stock host and port are
// used; a URL without a path gets the standard RPC path appended.
func (t TransmissionConfig) Endpoint() (string, error) {
	raw := strings.TrimSpace(t.URL)
	if raw == "" {
		raw = "http://" + net.JoinHostPort(DefaultHost, strconv.Itoa(DefaultPort))
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing transmission url %q: %w", t.URL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("transmission url %q has no host", t.URL)
	}

	host, port := u.Hostname(), u.Port()
	if t.Host != "" {
		host = t.Host
	}
	if t.Port > 0 {
		port = strconv.Itoa(t.Port)
	}
	if port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else {
		u.Host = host
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultRPCPath
	}
	return u.String(), nil
}

// ClientOptions maps the transmission section onto client options.
func (t TransmissionConfig) ClientOptions() (transmission.Options, error) {
	endpoint, err := t.Endpoint()
	if err != nil {
		return transmission.Options{}, err
	}
	return transmission.Options{
		URL:            endpoint,
		Username:       t.Username,
		Password:       t.Password,
		Version:        t.Version,
		KBytes:         t.KBytes,
		ConnectTimeout: t.ConnectTimeout,
	}, nil
}

// LogOptions maps the log section onto logger options.
func (l LogConfig) LogOptions() internal.LogOptions {
	return internal.LogOptions{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}
}

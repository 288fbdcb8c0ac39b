// Package config loads mailbox credentials and server settings.
//
// Values are layered: defaults, then an optional JSON or YAML file, then environment variables.
// Non-empty environment variables always win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHost           = "imap.gmail.com"
	DefaultPort           = 993
	DefaultTrashMailbox   = "[Gmail]/Trash"
	DefaultDialTimeout    = 30 * time.Second
	DefaultCommandTimeout = 60 * time.Second
	DefaultLogLevel       = "info"
)

// ErrCredentialsMissing means the account or its app password is not set.
var ErrCredentialsMissing = errors.New("email credentials not configured; set email and app_password in the config file or IMAP_EMAIL and IMAP_APP_PASSWORD")

// Config is the complete server configuration.
type Config struct {
	Email          string        `yaml:"email"`
	AppPassword    string        `yaml:"app_password"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	TLS            bool          `yaml:"tls"`
	TrashMailbox   string        `yaml:"trash_mailbox"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	CommandTimeout time.Duration `yaml:"command_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

// Load builds the configuration. A missing file at path is not an error; Load reports it through
// found so the caller can warn. An empty path skips the file layer.
func Load(path string) (cfg *Config, found bool, err error) {
	cfg = Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("os.ReadFile failed: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, false, fmt.Errorf("yaml.Unmarshal(%s) failed: %w", path, err)
			}
			found = true
		}
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, false, err
	}

	return cfg, found, nil
}

// LoadEnvFile loads a dotenv file into the process environment.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("godotenv.Load failed: %w", err)
	}

	return nil
}

// Default returns a configuration for Gmail over implicit TLS.
func Default() *Config {
	return &Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		TLS:            true,
		TrashMailbox:   DefaultTrashMailbox,
		DialTimeout:    DefaultDialTimeout,
		CommandTimeout: DefaultCommandTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// CheckCredentials returns ErrCredentialsMissing unless both email and app password are set.
func (c *Config) CheckCredentials() error {
	if c.Email == "" || c.AppPassword == "" {
		return ErrCredentialsMissing
	}

	return nil
}

// Addr is the host:port of the IMAP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Config) applyEnvVars() error {
	if v := os.Getenv("IMAP_EMAIL"); v != "" {
		c.Email = v
	}
	if v := os.Getenv("IMAP_APP_PASSWORD"); v != "" {
		c.AppPassword = v
	}
	if v := os.Getenv("IMAP_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("IMAP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAP_PORT: %w", err)
		}
		c.Port = port
	}
	if v := os.Getenv("IMAP_TLS"); v != "" {
		tls, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("IMAP_TLS: %w", err)
		}
		c.TLS = tls
	}
	if v := os.Getenv("IMAP_TRASH_MAILBOX"); v != "" {
		c.TrashMailbox = v
	}
	if v := os.Getenv("IMAP_DIAL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("IMAP_DIAL_TIMEOUT: %w", err)
		}
		c.DialTimeout = d
	}
	if v := os.Getenv("IMAP_COMMAND_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("IMAP_COMMAND_TIMEOUT: %w", err)
		}
		c.CommandTimeout = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}

	return nil
}

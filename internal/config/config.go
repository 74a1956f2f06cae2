// Package config handles configuration for the assistant core, including
// defaults, JSON overlay, and command-line flags.
package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the assistant.
//
// Fields:
//   - DataDir: directory holding the credential database, per-user memory
//     files, and the encryption key.
//   - BackupDir: directory receiving credential database snapshots.
//   - MaxLoginAttempts: consecutive failures before an account locks.
//   - LockoutDuration: how long a locked account refuses authentication.
//   - PasswordMinLength: minimum accepted password length.
//   - SessionSecret: HMAC secret for signing session tokens (HS256). Leave
//     empty to have the process generate an ephemeral one at startup.
//   - SessionValidityDuration: session token lifetime.
type Config struct {
	DataDir                 string
	BackupDir               string
	MaxLoginAttempts        int
	LockoutDuration         time.Duration
	PasswordMinLength       int
	SessionSecret           string
	SessionValidityDuration time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.BackupDir = filepath.Join("data", "backups")
	c.MaxLoginAttempts = 5
	c.LockoutDuration = 30 * time.Minute
	c.PasswordMinLength = 6
	c.SessionSecret = ""
	c.SessionValidityDuration = 24 * time.Hour
}

// UsersFile is the path of the credential database.
func (c *Config) UsersFile() string {
	return filepath.Join(c.DataDir, "users.json")
}

// KeyFile is the path of the symmetric encryption key.
func (c *Config) KeyFile() string {
	return filepath.Join(c.DataDir, "memory_key.key")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

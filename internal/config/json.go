package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/flagx"
	"github.com/dmitrijs2005/eldermate/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30m"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	DataDir                 *string         `json:"data_dir"`
	BackupDir               *string         `json:"backup_dir"`
	MaxLoginAttempts        *int            `json:"max_login_attempts"`
	LockoutDuration         *timex.Duration `json:"lockout_duration"`
	PasswordMinLength       *int            `json:"password_min_length"`
	SessionSecret           *string         `json:"session_secret"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; when absent, nothing is loaded.
// Only fields present in the file override the current values. Read or
// unmarshal errors panic (caller should recover if desired).
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DataDir != nil {
		cfg.DataDir = *jc.DataDir
	}
	if jc.BackupDir != nil {
		cfg.BackupDir = *jc.BackupDir
	}
	if jc.MaxLoginAttempts != nil {
		cfg.MaxLoginAttempts = *jc.MaxLoginAttempts
	}
	if jc.LockoutDuration != nil {
		cfg.LockoutDuration = time.Duration(jc.LockoutDuration.Duration)
	}
	if jc.PasswordMinLength != nil {
		cfg.PasswordMinLength = *jc.PasswordMinLength
	}
	if jc.SessionSecret != nil {
		cfg.SessionSecret = *jc.SessionSecret
	}
	if jc.SessionValidityDuration != nil {
		cfg.SessionValidityDuration = time.Duration(jc.SessionValidityDuration.Duration)
	}
}

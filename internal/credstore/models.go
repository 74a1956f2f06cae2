// Package credstore owns the user credential database: registration,
// validation with brute-force lockout, preference updates, and a safe
// load/save cycle with integrity hashing, pre-save backups, and automatic
// repair.
//
// The database is a single JSON file. Timestamps are stored as RFC 3339
// strings so a hand-edited or partially damaged file degrades gracefully
// instead of failing to decode.
package credstore

import "time"

const dbVersion = "2.1.0"

// Record is one user's stored credential data, keyed by phone number.
// Salt is nil for records created under the legacy unsalted scheme; it is
// non-nil after any successful validation.
type Record struct {
	PasswordHash  string                `json:"password_hash"`
	Salt          *string               `json:"salt"`
	CreatedAt     string                `json:"created_at"`
	LastLogin     *string               `json:"last_login"`
	IsActive      bool                  `json:"is_active"`
	LoginAttempts int                   `json:"login_attempts"`
	LockedUntil   *string               `json:"locked_until"`
	Preferences   map[string]Preference `json:"preferences"`
}

// Metadata describes the database file itself. IntegrityHash covers the
// canonicalized users subtree and is recomputed on every save.
type Metadata struct {
	Version       string `json:"version"`
	CreatedAt     string `json:"created_at"`
	LastModified  string `json:"last_modified"`
	UserCount     int    `json:"user_count"`
	IntegrityHash string `json:"integrity_hash"`
}

// Database is the on-disk shape of the credential file.
type Database struct {
	Metadata Metadata          `json:"metadata"`
	Users    map[string]Record `json:"users"`
}

// UserData is the caller-facing view of a record. It has no hash or salt
// fields at all, so sensitive material cannot leak through it.
type UserData struct {
	Phone         string
	CreatedAt     string
	LastLogin     *string
	IsActive      bool
	LoginAttempts int
	LockedUntil   *string
	Preferences   map[string]Preference
}

// UserSummary is the reduced listing entry returned by GetAllUsers.
type UserSummary struct {
	Phone     string
	CreatedAt string
	LastLogin *string
	IsActive  bool
}

// LockedOutAt reports whether the record refuses authentication at the given
// moment. An unparseable lock timestamp counts as not locked.
func (r Record) LockedOutAt(now time.Time) bool {
	if r.LockedUntil == nil {
		return false
	}
	until, err := time.Parse(time.RFC3339, *r.LockedUntil)
	if err != nil {
		return false
	}
	return now.Before(until)
}

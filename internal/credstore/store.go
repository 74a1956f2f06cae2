package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/dmitrijs2005/eldermate/internal/common"
	"github.com/dmitrijs2005/eldermate/internal/config"
	"github.com/dmitrijs2005/eldermate/internal/filex"
	"github.com/dmitrijs2005/eldermate/internal/integrity"
	"github.com/dmitrijs2005/eldermate/internal/logging"
	"github.com/dmitrijs2005/eldermate/internal/passhash"
)

// Store is the credential database. All public methods absorb internal
// errors into their documented false/nil defaults; the assistant must keep
// answering even when the disk misbehaves.
//
// Access from multiple goroutines is serialized by an internal mutex.
// Access from multiple processes is not supported: the last writer wins.
type Store struct {
	path        string
	backups     *BackupStore
	maxAttempts int
	lockout     time.Duration
	minPassword int
	log         logging.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(cfg *config.Config, log logging.Logger) *Store {
	if err := filex.EnsureDir(cfg.DataDir); err != nil {
		log.Error(context.Background(), "cannot create data directory", "error", err)
	}
	return &Store{
		path:        cfg.UsersFile(),
		backups:     NewBackupStore(cfg.UsersFile(), cfg.BackupDir, log),
		maxAttempts: cfg.MaxLoginAttempts,
		lockout:     cfg.LockoutDuration,
		minPassword: cfg.PasswordMinLength,
		log:         log,
		now:         time.Now,
	}
}

// Initialize prepares the database: creates it when the file is absent,
// verifies integrity when present, and on mismatch restores the latest
// backup, falling back to a fresh empty database. A snapshot is taken once
// the database is known good. Safe to call repeatedly.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadLocked()
	s.backups.Create()
	s.log.Info(context.Background(), "credential database ready")
}

// CreateUser registers a new user. It returns false when the phone is not a
// 10-digit number starting with '3', the password is too weak (fewer than 6
// characters, 3 letters, or 3 digits), or the phone is already registered.
func (s *Store) CreateUser(phone, password string) bool {
	ctx := context.Background()
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validPhone(phone) {
		s.log.Warn(ctx, "registration rejected: invalid phone format")
		return false
	}
	if !s.validPassword(password) {
		s.log.Warn(ctx, "registration rejected: password too weak")
		return false
	}

	db := s.loadLocked()
	if _, ok := db.Users[phone]; ok {
		s.log.Warn(ctx, "registration rejected", "phone", phone, "error", common.ErrorAlreadyExists)
		return false
	}

	salt, err := passhash.NewSalt()
	if err != nil {
		s.log.Error(ctx, "cannot generate salt", "error", err)
		return false
	}

	db.Users[phone] = Record{
		PasswordHash:  passhash.Hash(password, salt),
		Salt:          &salt,
		CreatedAt:     s.timestamp(),
		IsActive:      true,
		LoginAttempts: 0,
		Preferences:   DefaultPreferences(),
	}

	if !s.persistLocked(db) {
		return false
	}
	s.log.Info(ctx, "user created", "phone", phone)
	return true
}

// ValidateUser checks credentials with brute-force protection. A record
// still on the legacy unsalted scheme is migrated to the salted one at its
// first successful validation. Failures increment the attempt counter and
// lock the account for the configured window once the maximum is reached.
// Refusals are absorbed into false and logged with their cause.
func (s *Store) ValidateUser(phone, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateLocked(phone, password); err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(context.Background(), "authentication refused", "phone", phone, "error", err)
		}
		return false
	}
	return true
}

// validateLocked classifies the refusal: common.ErrorNotFound for an unknown
// phone, common.ErrAccountLocked while a lockout is active,
// common.ErrorUnauthorized for a wrong password, common.ErrorInternal when
// the result could not be persisted. The caller must hold s.mu.
func (s *Store) validateLocked(phone, password string) error {
	ctx := context.Background()

	db := s.loadLocked()
	rec, ok := db.Users[phone]
	if !ok {
		return common.ErrorNotFound
	}

	if rec.LockedOutAt(s.now()) {
		return common.ErrAccountLocked
	}

	var success bool
	switch passhash.Classify(rec.Salt) {
	case passhash.SchemeLegacy:
		success = passhash.VerifyLegacy(password, rec.PasswordHash)
		if success {
			// One-way migration, exactly once per user.
			salt, err := passhash.NewSalt()
			if err != nil {
				s.log.Error(ctx, "cannot generate salt for migration", "error", err)
				return common.ErrorInternal
			}
			rec.PasswordHash = passhash.Hash(password, salt)
			rec.Salt = &salt
			s.log.Info(ctx, "legacy password hash migrated", "phone", phone)
		}
	case passhash.SchemeSalted:
		success = passhash.Verify(password, rec.PasswordHash, *rec.Salt)
	}

	if success {
		rec.LoginAttempts = 0
		rec.LockedUntil = nil
		ts := s.timestamp()
		rec.LastLogin = &ts
		db.Users[phone] = rec
		if !s.persistLocked(db) {
			return common.ErrorInternal
		}
		return nil
	}

	rec.LoginAttempts++
	if rec.LoginAttempts >= s.maxAttempts {
		until := s.now().Add(s.lockout).Format(time.RFC3339)
		rec.LockedUntil = &until
		s.log.Warn(ctx, "account locked after repeated failures", "phone", phone)
	}
	db.Users[phone] = rec
	s.persistLocked(db)
	return common.ErrorUnauthorized
}

// UserExists reports whether a phone is registered.
func (s *Store) UserExists(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.loadLocked().Users[phone]
	return ok
}

// GetUserData returns a user's record without any credential material, or
// nil when the phone is unknown.
func (s *Store) GetUserData(phone string) *UserData {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.loadLocked().Users[phone]
	if !ok {
		return nil
	}
	return &UserData{
		Phone:         phone,
		CreatedAt:     rec.CreatedAt,
		LastLogin:     rec.LastLogin,
		IsActive:      rec.IsActive,
		LoginAttempts: rec.LoginAttempts,
		LockedUntil:   rec.LockedUntil,
		Preferences:   rec.Preferences,
	}
}

// UpdateUserPreference sets one preference value for a user.
func (s *Store) UpdateUserPreference(phone, key string, value Preference) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.loadLocked()
	rec, ok := db.Users[phone]
	if !ok {
		return false
	}
	if rec.Preferences == nil {
		rec.Preferences = make(map[string]Preference)
	}
	rec.Preferences[key] = value
	db.Users[phone] = rec
	return s.persistLocked(db)
}

// GetAllUsers lists all users without sensitive fields, sorted by phone.
func (s *Store) GetAllUsers() []UserSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.loadLocked()
	users := make([]UserSummary, 0, len(db.Users))
	for phone, rec := range db.Users {
		users = append(users, UserSummary{
			Phone:     phone,
			CreatedAt: rec.CreatedAt,
			LastLogin: rec.LastLogin,
			IsActive:  rec.IsActive,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Phone < users[j].Phone })
	return users
}

// DeleteUser removes a user. Returns false when the phone is unknown.
func (s *Store) DeleteUser(phone string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.loadLocked()
	if _, ok := db.Users[phone]; !ok {
		return false
	}
	delete(db.Users, phone)
	if !s.persistLocked(db) {
		return false
	}
	s.log.Info(context.Background(), "user deleted", "phone", phone)
	return true
}

// loadLocked returns the current database, creating it when absent and
// repairing it when unreadable or failing its integrity check. The caller
// must hold s.mu.
func (s *Store) loadLocked() *Database {
	ctx := context.Background()

	db, err := s.read()
	if err == nil {
		return db
	}

	if errors.Is(err, os.ErrNotExist) {
		db = s.emptyDatabase()
		if s.persistLocked(db) {
			s.log.Info(ctx, "empty credential database created")
		}
		return db
	}

	s.log.Warn(ctx, "credential database unreadable, repairing", "error", err)
	return s.repairLocked()
}

// read loads and verifies the file as-is. It reports integrity mismatches
// instead of silently accepting tampered content.
func (s *Store) read() (*Database, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	if db.Users == nil {
		db.Users = make(map[string]Record)
	}

	h, err := integrity.Hash(db.Users)
	if err != nil {
		return nil, err
	}
	if h != db.Metadata.IntegrityHash {
		return nil, common.ErrIntegrityMismatch
	}

	return &db, nil
}

// repairLocked restores the latest backup, falling back to a fresh empty
// database when no usable backup exists. Either way the mismatched file is
// replaced on disk.
func (s *Store) repairLocked() *Database {
	ctx := context.Background()

	if s.backups.Restore("") {
		if db, err := s.read(); err == nil {
			return db
		}
		s.log.Warn(ctx, "restored backup is unusable")
	}

	s.log.Warn(ctx, "starting with a fresh empty credential database")
	db := s.emptyDatabase()
	s.persistLocked(db)
	return db
}

func (s *Store) emptyDatabase() *Database {
	ts := s.timestamp()
	db := &Database{
		Metadata: Metadata{Version: dbVersion, CreatedAt: ts, LastModified: ts},
		Users:    make(map[string]Record),
	}
	if h, err := integrity.Hash(db.Users); err == nil {
		db.Metadata.IntegrityHash = h
	}
	return db
}

// persistLocked refreshes metadata, snapshots the previous file state, and
// atomically replaces the database file. The caller must hold s.mu.
func (s *Store) persistLocked(db *Database) bool {
	ctx := context.Background()

	db.Metadata.LastModified = s.timestamp()
	db.Metadata.UserCount = len(db.Users)

	h, err := integrity.Hash(db.Users)
	if err != nil {
		s.log.Error(ctx, "cannot compute integrity hash", "error", err)
		return false
	}
	db.Metadata.IntegrityHash = h

	s.backups.Create()

	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		s.log.Error(ctx, "cannot encode credential database", "error", err)
		return false
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		s.log.Error(ctx, "cannot write credential database", "error", err)
		return false
	}
	return true
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func validPhone(phone string) bool {
	if len(phone) != 10 || !strings.HasPrefix(phone, "3") {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Store) validPassword(password string) bool {
	runes := []rune(password)
	if len(runes) < s.minPassword {
		return false
	}
	letters, digits := 0, 0
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters >= 3 && digits >= 3
}

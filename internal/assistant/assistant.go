// Package assistant wires the credential store, the per-user memory stores,
// the encryption codec, and the session manager into one facade. Front ends
// (the REPL, or an embedding application) talk to this package only.
package assistant

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/eldermate/internal/common"
	"github.com/dmitrijs2005/eldermate/internal/config"
	"github.com/dmitrijs2005/eldermate/internal/credstore"
	"github.com/dmitrijs2005/eldermate/internal/cryptox"
	"github.com/dmitrijs2005/eldermate/internal/logging"
	"github.com/dmitrijs2005/eldermate/internal/memstore"
	"github.com/dmitrijs2005/eldermate/internal/session"
)

// Assistant is the application core. One instance owns the data directory;
// memory stores are opened lazily per phone and cached for the lifetime of
// the process.
type Assistant struct {
	cfg      *config.Config
	log      logging.Logger
	creds    *credstore.Store
	codec    *cryptox.Codec
	sessions *session.Manager

	mu       sync.Mutex
	memories map[string]*memstore.Store
}

// New builds the assistant and prepares the credential database. With an
// empty SessionSecret an ephemeral one is generated, so sessions do not
// survive a restart.
func New(cfg *config.Config, log logging.Logger) *Assistant {
	secret := cfg.SessionSecret
	if secret == "" {
		if s, err := secretFn(32); err == nil {
			secret = s
		} else {
			log.Error(context.Background(), "cannot generate session secret", "error", err)
		}
		log.Info(context.Background(), "using ephemeral session secret")
	}

	a := &Assistant{
		cfg:      cfg,
		log:      log,
		creds:    credstore.New(cfg, log),
		codec:    cryptox.NewCodec(cfg.KeyFile(), log),
		sessions: session.NewManager(secret, cfg.SessionValidityDuration),
		memories: make(map[string]*memstore.Store),
	}
	a.creds.Initialize()
	return a
}

// RegisterUser creates an account. The result mirrors the credential store:
// false on invalid phone, weak password, or duplicate registration.
func (a *Assistant) RegisterUser(phone, password string) bool {
	return a.creds.CreateUser(phone, password)
}

// Login validates credentials and, on success, issues a session token bound
// to the phone.
func (a *Assistant) Login(phone, password string) (string, bool) {
	if !a.creds.ValidateUser(phone, password) {
		return "", false
	}
	token, err := a.sessions.Issue(phone)
	if err != nil {
		a.log.Error(context.Background(), "cannot issue session token", "error", err)
		return "", false
	}
	return token, true
}

// Authenticate resolves a session token back to the phone it was issued for.
// The error is common.ErrTokenExpired or common.ErrInvalidToken.
func (a *Assistant) Authenticate(token string) (string, error) {
	return a.sessions.Phone(token)
}

// Memory returns the memory store for phone, opening it on first use.
func (a *Assistant) Memory(phone string) *memstore.Store {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.memories[phone]
	if !ok {
		m = memstore.New(a.cfg.DataDir, phone, a.codec, a.log)
		a.memories[phone] = m
	}
	return m
}

// Credentials exposes the credential store for account management commands.
func (a *Assistant) Credentials() *credstore.Store {
	return a.creds
}

// DeleteUser removes the account and drops its cached memory store. The
// memory file itself is kept on disk; the user may re-register.
func (a *Assistant) DeleteUser(phone string) bool {
	if !a.creds.DeleteUser(phone) {
		return false
	}
	a.mu.Lock()
	delete(a.memories, phone)
	a.mu.Unlock()
	return true
}

// secretFn is a seam for tests.
var secretFn = common.MakeRandHexString

package assistant

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/common"
	"github.com/dmitrijs2005/eldermate/internal/config"
	"github.com/dmitrijs2005/eldermate/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestAssistant(t *testing.T) *Assistant {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = dir
	cfg.BackupDir = filepath.Join(dir, "backups")
	cfg.SessionSecret = "test-secret"
	cfg.SessionValidityDuration = time.Hour

	return New(cfg, logging.Discard())
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	a := newTestAssistant(t)

	require.True(t, a.RegisterUser("3001234567", "abc123xyz"))
	require.False(t, a.RegisterUser("3001234567", "abc123xyz"), "duplicate phone")

	token, ok := a.Login("3001234567", "abc123xyz")
	require.True(t, ok)
	require.NotEmpty(t, token)

	phone, err := a.Authenticate(token)
	require.NoError(t, err)
	require.Equal(t, "3001234567", phone)
}

func TestLogin_WrongPassword(t *testing.T) {
	a := newTestAssistant(t)
	require.True(t, a.RegisterUser("3001234567", "abc123xyz"))

	token, ok := a.Login("3001234567", "wrong99pass")
	require.False(t, ok)
	require.Empty(t, token)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	a := newTestAssistant(t)

	_, err := a.Authenticate("garbage")
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestMemory_CachedPerPhone(t *testing.T) {
	a := newTestAssistant(t)
	require.True(t, a.RegisterUser("3001234567", "abc123xyz"))

	m := a.Memory("3001234567")
	require.Same(t, m, a.Memory("3001234567"))
	require.NotSame(t, m, a.Memory("3007654321"))

	require.True(t, m.StoreItem("passwords", "Netflix", "Xy9zT3qk", ""))
	v, ok := a.Memory("3001234567").GetItem("passwords", "Netflix")
	require.True(t, ok)
	require.Equal(t, "Xy9zT3qk", v)
}

func TestDeleteUser_EvictsMemoryCache(t *testing.T) {
	a := newTestAssistant(t)
	require.True(t, a.RegisterUser("3001234567", "abc123xyz"))

	old := a.Memory("3001234567")
	require.True(t, a.DeleteUser("3001234567"))
	require.False(t, a.DeleteUser("3001234567"))
	require.False(t, a.Credentials().UserExists("3001234567"))

	require.NotSame(t, old, a.Memory("3001234567"))
}

func TestNew_EphemeralSecretWhenUnset(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DataDir = dir
	cfg.BackupDir = filepath.Join(dir, "backups")
	cfg.SessionSecret = ""

	a := New(cfg, logging.Discard())
	require.True(t, a.RegisterUser("3001234567", "abc123xyz"))

	token, ok := a.Login("3001234567", "abc123xyz")
	require.True(t, ok)
	phone, err := a.Authenticate(token)
	require.NoError(t, err)
	require.Equal(t, "3001234567", phone)
}

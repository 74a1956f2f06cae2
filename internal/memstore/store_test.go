package memstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/cryptox"
	"github.com/dmitrijs2005/eldermate/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()

	dir := t.TempDir()
	codec := cryptox.NewCodec(filepath.Join(dir, "memory_key.key"), logging.Discard())
	s := New(dir, "3001234567", codec, logging.Discard())

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }
	return s, &current
}

func TestHashPhone(t *testing.T) {
	h := HashPhone("3001234567")
	require.Len(t, h, 16)
	require.Equal(t, h, HashPhone("3001234567"))
	require.NotEqual(t, h, HashPhone("3001234568"))
}

func TestNew_CreatesSkeletonFile(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := os.Stat(s.path)
	require.NoError(t, err)
	require.Contains(t, filepath.Base(s.path), HashPhone("3001234567"))
	require.NotContains(t, s.path, "3001234567")

	m := s.LoadMemory()
	require.Len(t, m.Categories, 7)
	require.True(t, m.Categories["passwords"].Encrypted)
	require.False(t, m.Categories["reminders"].Encrypted)
	require.Empty(t, m.ConversationHistory)
	require.Equal(t, "3001234567", m.Metadata.Owner)
	require.True(t, m.Metadata.EncryptionEnabled)
}

func TestStoreItem_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.StoreItem("passwords", "Netflix", "Xy9zT3qk", "clave de streaming"))

	v, ok := s.GetItem("passwords", "Netflix")
	require.True(t, ok)
	require.Equal(t, "Xy9zT3qk", v)

	_, ok = s.GetItem("passwords", "Spotify")
	require.False(t, ok)
	_, ok = s.GetItem("nope", "Netflix")
	require.False(t, ok)
}

func TestStoreItem_EncryptedAtRest(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.StoreItem("passwords", "Netflix", "Xy9zT3qk", ""))
	require.True(t, s.StoreItem("reminders", "pastilla", "tomar a las 8", ""))

	raw, err := os.ReadFile(s.path)
	require.NoError(t, err)

	// Encrypted category values never hit the disk as plaintext;
	// unencrypted categories stay human-diffable.
	require.NotContains(t, string(raw), "Xy9zT3qk")
	require.Contains(t, string(raw), "tomar a las 8")
}

func TestStoreItem_DecryptsAcrossInstances(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.StoreItem("passwords", "Netflix", "Xy9zT3qk", ""))

	dir := filepath.Dir(s.path)
	codec := cryptox.NewCodec(filepath.Join(dir, "memory_key.key"), logging.Discard())
	reopened := New(dir, "3001234567", codec, logging.Discard())

	v, ok := reopened.GetItem("passwords", "Netflix")
	require.True(t, ok)
	require.Equal(t, "Xy9zT3qk", v)
}

func TestStoreItem_PreservesCreatedAtOnUpdate(t *testing.T) {
	s, clock := newTestStore(t)

	require.True(t, s.StoreItem("passwords", "Netflix", "first1", ""))
	created := s.GetItemDetails("passwords", "Netflix").CreatedAt

	*clock = clock.Add(2 * time.Hour)
	require.True(t, s.StoreItem("passwords", "Netflix", "second2", ""))

	item := s.GetItemDetails("passwords", "Netflix")
	require.Equal(t, "second2", item.Value)
	require.Equal(t, created, item.CreatedAt)
	require.NotEqual(t, created, item.LastUpdated)
}

func TestStoreItem_UnknownCategoryDefaultsToEncrypted(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.StoreItem("banking", "pin", "9w8x7y6z1", ""))

	m := s.LoadMemory()
	require.True(t, m.Categories["banking"].Encrypted)
	require.Equal(t, "Categoría banking", m.Categories["banking"].Description)

	raw, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "9w8x7y6z1")
}

func TestCreateCategory(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.CreateCategory("notas", false, "Notas sueltas"))
	require.False(t, s.CreateCategory("notas", true, ""), "duplicate category must fail")

	require.True(t, s.StoreItem("notas", "lista", "pan y leche", ""))

	raw, err := os.ReadFile(s.path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "pan y leche")
}

func TestGetCategoryItems(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.StoreItem("contacts", "María", "3001112222", "hija"))
	require.True(t, s.StoreItem("contacts", "Pedro", "3003334444", ""))

	items := s.GetCategoryItems("contacts")
	require.Equal(t, map[string]string{"María": "3001112222", "Pedro": "3003334444"}, items)

	require.Empty(t, s.GetCategoryItems("unknown"))

	details := s.GetCategoryWithDetails("contacts")
	require.Len(t, details, 2)
	require.Equal(t, "hija", details["María"].Description)
}

func TestRemoveItem(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.StoreItem("reminders", "cita", "médico el lunes", ""))

	require.False(t, s.RemoveItem("reminders", "nope"))
	require.False(t, s.RemoveItem("nope", "cita"))
	require.True(t, s.RemoveItem("reminders", "cita"))

	_, ok := s.GetItem("reminders", "cita")
	require.False(t, ok)
}

func TestAddConversationEntry_CountBound(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 0; i <= 100; i++ {
		s.AddConversationEntry(strconv.Itoa(i), "")
	}

	history := s.LoadMemory().ConversationHistory
	require.Len(t, history, maxHistoryEntries)
	require.Equal(t, "1", history[0].User, "oldest entry must be evicted first")
	require.Equal(t, "100", history[len(history)-1].User)
}

func TestAddConversationEntry_SizeBound(t *testing.T) {
	s, _ := newTestStore(t)

	user := strings.Repeat("u", 500)
	bot := strings.Repeat("b", 500)
	for i := 0; i < 51; i++ {
		s.AddConversationEntry(user, bot)
	}

	history := s.LoadMemory().ConversationHistory
	require.Len(t, history, 50)

	total := 0
	for _, e := range history {
		total += e.Length
	}
	require.LessOrEqual(t, total, maxHistoryChars)
}

func TestGetRecentConversations(t *testing.T) {
	s, clock := newTestStore(t)

	s.AddConversationEntry("primera", "r1")
	*clock = clock.Add(48 * time.Hour)
	s.AddConversationEntry("segunda", "r2")
	*clock = clock.Add(3 * time.Hour)
	s.AddConversationEntry("tercera", "r3")
	*clock = clock.Add(5 * time.Minute)
	s.AddConversationEntry("cuarta", "r4")
	*clock = clock.Add(10 * time.Second)

	recent := s.GetRecentConversations(3)
	require.Len(t, recent, 3)
	require.Equal(t, "cuarta", recent[0].User)
	require.Equal(t, "hace unos momentos", recent[0].TimeAgo)
	require.Equal(t, "tercera", recent[1].User)
	require.Equal(t, "hace 5 minutos", recent[1].TimeAgo)
	require.Equal(t, "segunda", recent[2].User)
	require.Equal(t, "hace 3 horas", recent[2].TimeAgo)

	all := s.GetRecentConversations(10)
	require.Len(t, all, 4)
	require.Equal(t, "hace 2 días", all[3].TimeAgo)
}

func TestGetRecentConversations_NonPositiveLimit(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddConversationEntry("hola", "buenas")

	require.Empty(t, s.GetRecentConversations(0))
	require.Empty(t, s.GetRecentConversations(-1))
}

func TestGetRecentConversations_BadTimestamp(t *testing.T) {
	s, _ := newTestStore(t)

	m := s.LoadMemory()
	m.ConversationHistory = append(m.ConversationHistory, ConversationEntry{
		Timestamp: "garbage", User: "x", Bot: "y", Length: 2,
	})
	require.True(t, s.persistLocked(m))

	recent := s.GetRecentConversations(1)
	require.Len(t, recent, 1)
	require.Equal(t, "reciente", recent[0].TimeAgo)
}

func TestSearchMemory(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.StoreItem("passwords", "Netflix", "Xy9zT3qk", "clave de streaming"))
	require.True(t, s.StoreItem("contacts", "María", "3001112222", "hija"))
	s.AddConversationEntry("¿cuál es mi clave de Netflix?", "la tengo guardada")

	// Case-insensitive match on key, everywhere.
	results := s.SearchMemory("NETFLIX", "")
	require.Contains(t, results, "passwords")
	require.Equal(t, "Netflix", results["passwords"][0].Key)
	require.Contains(t, results, conversationKey)
	require.Equal(t, "¿cuál es mi clave de Netflix?", results[conversationKey][0].User)

	// Match on value and description.
	require.Contains(t, s.SearchMemory("3001112222", ""), "contacts")
	require.Contains(t, s.SearchMemory("streaming", ""), "passwords")

	// Category filter excludes the history.
	filtered := s.SearchMemory("netflix", "passwords")
	require.Contains(t, filtered, "passwords")
	require.NotContains(t, filtered, conversationKey)

	// History-only search.
	conv := s.SearchMemory("guardada", conversationKey)
	require.Contains(t, conv, conversationKey)
	require.Len(t, conv, 1)

	require.Empty(t, s.SearchMemory("nothing-matches-this", ""))
}

func TestRepair_SalvagesKnownCategoriesAndHistory(t *testing.T) {
	s, _ := newTestStore(t)

	// A damaged file: no metadata, one known category, one unknown, and a
	// surviving history.
	damaged := map[string]any{
		"categories": map[string]any{
			"passwords": map[string]any{
				"items": map[string]any{
					"Netflix": map[string]any{"value": "plain-secret", "created_at": "x", "last_updated": "x", "description": ""},
				},
				"encrypted": true,
			},
			"junk": map[string]any{
				"items":     map[string]any{"a": map[string]any{"value": "b"}},
				"encrypted": false,
			},
		},
		"conversation_history": []any{
			map[string]any{"timestamp": "2026-03-01T10:00:00Z", "user": "hola", "bot": "hola!", "length": 9},
		},
	}
	data, err := json.Marshal(damaged)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.path, data, 0o600))

	m := s.LoadMemory()
	require.Len(t, m.Categories, 7, "ad-hoc categories are dropped by repair")
	require.NotContains(t, m.Categories, "junk")
	require.Contains(t, m.Categories["passwords"].Items, "Netflix")
	require.Len(t, m.ConversationHistory, 1)
	require.Equal(t, "hola", m.ConversationHistory[0].User)
	require.Equal(t, memoryVersion, m.Metadata.Version)
}

func TestLoad_UndecodableFileYieldsSkeleton(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{broken"), 0o600))

	m := s.LoadMemory()
	require.Len(t, m.Categories, 7)
	require.Empty(t, m.ConversationHistory)
}

func TestGetMemoryStats(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.StoreItem("passwords", "Netflix", "a1b2c3", ""))
	require.True(t, s.StoreItem("passwords", "Spotify", "d4e5f6", ""))
	require.True(t, s.StoreItem("reminders", "cita", "lunes", ""))
	s.AddConversationEntry("hola", "buenas")

	stats := s.GetMemoryStats()
	require.Equal(t, 7, stats.TotalCategories)
	require.Equal(t, 3, stats.TotalItems)
	require.Equal(t, 1, stats.ConversationCount)
	require.True(t, stats.EncryptionEnabled)
	require.Equal(t, CategoryStats{ItemCount: 2, Encrypted: true}, stats.Categories["passwords"])
	require.Equal(t, CategoryStats{ItemCount: 1, Encrypted: false}, stats.Categories["reminders"])
}

func TestExportMemory(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.StoreItem("passwords", "Netflix", "Xy9zT3qk", ""))
	require.True(t, s.StoreItem("reminders", "cita", "lunes", ""))

	redacted := s.ExportMemory(false)
	require.NotEmpty(t, redacted.ID)
	require.False(t, redacted.IncludeSensitive)
	require.True(t, redacted.Categories["passwords"].Redacted)
	require.Nil(t, redacted.Categories["passwords"].Items)
	require.Equal(t, 1, redacted.Categories["passwords"].ItemCount)
	require.Contains(t, redacted.Categories["reminders"].Items, "cita")

	full := s.ExportMemory(true)
	require.Contains(t, full.Categories["passwords"].Items, "Netflix")
	require.Equal(t, "Xy9zT3qk", full.Categories["passwords"].Items["Netflix"].Value)
	require.NotEqual(t, redacted.ID, full.ID)
}

func TestCleanupOldItems(t *testing.T) {
	s, clock := newTestStore(t)

	require.True(t, s.StoreItem("reminders", "vieja", "nota antigua", ""))
	*clock = clock.Add(400 * 24 * time.Hour)
	require.True(t, s.StoreItem("reminders", "nueva", "nota reciente", ""))

	require.Equal(t, 1, s.CleanupOldItems(365))

	_, ok := s.GetItem("reminders", "vieja")
	require.False(t, ok)
	_, ok = s.GetItem("reminders", "nueva")
	require.True(t, ok)

	require.Equal(t, 0, s.CleanupOldItems(365))
}

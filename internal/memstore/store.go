package memstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/eldermate/internal/cryptox"
	"github.com/dmitrijs2005/eldermate/internal/filex"
	"github.com/dmitrijs2005/eldermate/internal/logging"
)

// HashPhone derives the memory file identifier from a phone number: the
// first 16 hex characters of its SHA-256 digest. The raw number never
// appears in the filesystem.
func HashPhone(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:])[:16]
}

// Store is one user's memory. Public methods follow the same degradation
// policy as the credential store: errors are logged and absorbed into
// false/empty defaults.
//
// Goroutine access is serialized internally; cross-process access to the
// same file is last-write-wins and not supported.
type Store struct {
	phone string
	path  string
	codec *cryptox.Codec
	log   logging.Logger

	mu  sync.Mutex
	now func() time.Time
}

// New opens (or creates) the memory file for phone under dataDir.
func New(dataDir, phone string, codec *cryptox.Codec, log logging.Logger) *Store {
	if err := filex.EnsureDir(dataDir); err != nil {
		log.Error(context.Background(), "cannot create data directory", "error", err)
	}

	s := &Store{
		phone: phone,
		path:  filepath.Join(dataDir, "memory_"+HashPhone(phone)+".json"),
		codec: codec,
		log:   log,
		now:   time.Now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		s.persistLocked(s.skeleton())
	}
	return s
}

// LoadMemory returns the full decrypted memory, repairing the structure
// first when the file is damaged.
func (s *Store) LoadMemory() *UserMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// CreateCategory adds a new category with an explicit encryption policy.
// Returns false when the category already exists.
func (s *Store) CreateCategory(name string, encrypted bool, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()
	if _, ok := m.Categories[name]; ok {
		return false
	}
	m.Categories[name] = Category{
		Description: description,
		Items:       make(map[string]Item),
		Encrypted:   encrypted,
	}
	return s.persistLocked(m)
}

// StoreItem upserts an item. An unknown category is created on first use
// with the documented default policy encrypted=true. On updates the item
// keeps its original created_at; only last_updated is refreshed.
func (s *Store) StoreItem(category, key, value, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()

	cat, ok := m.Categories[category]
	if !ok {
		desc := description
		if desc == "" {
			desc = "Categoría " + category
		}
		cat = Category{Description: desc, Items: make(map[string]Item), Encrypted: true}
	}
	if cat.Items == nil {
		cat.Items = make(map[string]Item)
	}

	ts := s.timestamp()
	created := ts
	if existing, ok := cat.Items[key]; ok && existing.CreatedAt != "" {
		created = existing.CreatedAt
	}

	cat.Items[key] = Item{
		Value:       value,
		CreatedAt:   created,
		LastUpdated: ts,
		Description: description,
	}
	m.Categories[category] = cat

	return s.persistLocked(m)
}

// GetItem returns an item's decrypted value. The second result is false
// when the category or key is unknown.
func (s *Store) GetItem(category, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.loadLocked().Categories[category]
	if !ok {
		return "", false
	}
	item, ok := cat.Items[key]
	if !ok {
		return "", false
	}
	return item.Value, true
}

// GetItemDetails returns the full item, or nil when unknown.
func (s *Store) GetItemDetails(category, key string) *Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.loadLocked().Categories[category]
	if !ok {
		return nil
	}
	item, ok := cat.Items[key]
	if !ok {
		return nil
	}
	return &item
}

// GetCategoryItems returns a key -> decrypted value view of one category.
// Unknown categories yield an empty map.
func (s *Store) GetCategoryItems(category string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string)
	cat, ok := s.loadLocked().Categories[category]
	if !ok {
		return out
	}
	for k, item := range cat.Items {
		out[k] = item.Value
	}
	return out
}

// GetCategoryWithDetails returns the full items of one category.
func (s *Store) GetCategoryWithDetails(category string) map[string]Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Item)
	cat, ok := s.loadLocked().Categories[category]
	if !ok {
		return out
	}
	for k, item := range cat.Items {
		out[k] = item
	}
	return out
}

// RemoveItem deletes one item. Returns false when it does not exist.
func (s *Store) RemoveItem(category, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()
	cat, ok := m.Categories[category]
	if !ok {
		return false
	}
	if _, ok := cat.Items[key]; !ok {
		return false
	}
	delete(cat.Items, key)
	m.Categories[category] = cat
	return s.persistLocked(m)
}

// loadLocked reads the memory file, repairing invalid structure and
// decrypting item values. A missing file yields a fresh persisted skeleton;
// an undecodable one yields an unpersisted skeleton. The caller must hold
// s.mu.
func (s *Store) loadLocked() *UserMemory {
	ctx := context.Background()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m := s.skeleton()
			s.persistLocked(m)
			return m
		}
		s.log.Error(ctx, "cannot read memory file", "error", err)
		return s.skeleton()
	}

	var m UserMemory
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Error(ctx, "memory file is not valid JSON, starting fresh", "error", err)
		return s.skeleton()
	}

	if !structureValid(&m) {
		s.log.Warn(ctx, "memory structure invalid, repairing")
		repaired := s.repairStructure(&m)
		m = *repaired
	}

	s.decrypt(&m)
	return &m
}

// persistLocked refreshes metadata, applies field-level encryption to a
// copy, and atomically replaces the file (mode 0600). The caller must hold
// s.mu. The in-memory value stays decrypted.
func (s *Store) persistLocked(m *UserMemory) bool {
	ctx := context.Background()

	m.Metadata.LastUpdated = s.timestamp()
	m.Metadata.EncryptionEnabled = s.codec.Enabled()

	data, err := json.MarshalIndent(s.encryptCopy(m), "", "  ")
	if err != nil {
		s.log.Error(ctx, "cannot encode memory", "error", err)
		return false
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		s.log.Error(ctx, "cannot write memory file", "error", err)
		return false
	}
	return true
}

// encryptCopy clones m with the values of encrypted categories sealed.
func (s *Store) encryptCopy(m *UserMemory) *UserMemory {
	out := &UserMemory{
		Metadata:            m.Metadata,
		Categories:          make(map[string]Category, len(m.Categories)),
		ConversationHistory: m.ConversationHistory,
	}
	for name, cat := range m.Categories {
		copied := Category{Description: cat.Description, Encrypted: cat.Encrypted,
			Items: make(map[string]Item, len(cat.Items))}
		for k, item := range cat.Items {
			if cat.Encrypted {
				item.Value = s.codec.Encrypt(item.Value)
			}
			copied.Items[k] = item
		}
		out.Categories[name] = copied
	}
	return out
}

// decrypt opens the values of encrypted categories in place.
func (s *Store) decrypt(m *UserMemory) {
	for name, cat := range m.Categories {
		if !cat.Encrypted {
			continue
		}
		for k, item := range cat.Items {
			item.Value = s.codec.Decrypt(item.Value)
			cat.Items[k] = item
		}
		m.Categories[name] = cat
	}
}

func structureValid(m *UserMemory) bool {
	return m.Metadata != (Metadata{}) &&
		m.Categories != nil &&
		m.ConversationHistory != nil
}

// repairStructure merges whatever survived into a fresh skeleton: items are
// kept where the category name matches a known category, and the history is
// kept when it is still a list.
func (s *Store) repairStructure(damaged *UserMemory) *UserMemory {
	fresh := s.skeleton()

	for _, def := range defaultCategories {
		old, ok := damaged.Categories[def.name]
		if !ok || old.Items == nil {
			continue
		}
		cat := fresh.Categories[def.name]
		cat.Items = old.Items
		fresh.Categories[def.name] = cat
	}

	if damaged.ConversationHistory != nil {
		fresh.ConversationHistory = damaged.ConversationHistory
	}

	return fresh
}

func (s *Store) skeleton() *UserMemory {
	ts := s.timestamp()

	categories := make(map[string]Category, len(defaultCategories))
	for _, def := range defaultCategories {
		categories[def.name] = Category{
			Description: def.description,
			Items:       make(map[string]Item),
			Encrypted:   def.encrypted,
		}
	}

	return &UserMemory{
		Metadata: Metadata{
			Version:           memoryVersion,
			CreatedAt:         ts,
			LastUpdated:       ts,
			Owner:             s.phone,
			EncryptionEnabled: s.codec.Enabled(),
		},
		Categories:          categories,
		ConversationHistory: make([]ConversationEntry, 0),
	}
}

// categoryNames returns category names in a stable order: the default
// skeleton order first, then any ad-hoc categories sorted by name.
func categoryNames(m *UserMemory) []string {
	names := make([]string, 0, len(m.Categories))
	seen := make(map[string]bool, len(m.Categories))

	for _, def := range defaultCategories {
		if _, ok := m.Categories[def.name]; ok {
			names = append(names, def.name)
			seen[def.name] = true
		}
	}

	var extra []string
	for name := range m.Categories {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	return append(names, extra...)
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339)
}

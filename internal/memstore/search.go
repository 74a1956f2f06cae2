package memstore

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// conversationKey is the synthetic results key for history matches.
const conversationKey = "conversation_history"

// SearchMemory finds case-insensitive substring matches of query against
// each item's key, value, and description. With an empty category the whole
// memory is searched, including the conversation history; otherwise only
// the named category (or, with category == "conversation_history", only the
// history). Categories without matches are absent from the result.
func (s *Store) SearchMemory(query, category string) map[string][]Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make(map[string][]Match)
	needle := strings.ToLower(strings.TrimSpace(query))

	m := s.loadLocked()

	var names []string
	if category != "" {
		names = []string{category}
	} else {
		names = categoryNames(m)
	}

	for _, name := range names {
		cat, ok := m.Categories[name]
		if !ok {
			continue
		}

		var matches []Match
		for _, key := range sortedItemKeys(cat.Items) {
			item := cat.Items[key]
			if strings.Contains(strings.ToLower(key), needle) ||
				strings.Contains(strings.ToLower(item.Value), needle) ||
				strings.Contains(strings.ToLower(item.Description), needle) {
				matches = append(matches, Match{
					Key:         key,
					Value:       item.Value,
					Description: item.Description,
					CreatedAt:   item.CreatedAt,
					LastUpdated: item.LastUpdated,
				})
			}
		}
		if len(matches) > 0 {
			results[name] = matches
		}
	}

	if category == "" || category == conversationKey {
		var matches []Match
		for _, entry := range m.ConversationHistory {
			if strings.Contains(strings.ToLower(entry.User), needle) ||
				strings.Contains(strings.ToLower(entry.Bot), needle) {
				matches = append(matches, Match{
					Timestamp: entry.Timestamp,
					User:      entry.User,
					Bot:       entry.Bot,
				})
			}
		}
		if len(matches) > 0 {
			results[conversationKey] = matches
		}
	}

	return results
}

// sortedItemKeys keeps per-category match order deterministic.
func sortedItemKeys(items map[string]Item) []string {
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetMemoryStats summarizes the memory: category and item counts, history
// length, and the encryption state.
func (s *Store) GetMemoryStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()

	stats := Stats{
		TotalCategories:   len(m.Categories),
		Categories:        make(map[string]CategoryStats, len(m.Categories)),
		ConversationCount: len(m.ConversationHistory),
		LastUpdated:       m.Metadata.LastUpdated,
		EncryptionEnabled: m.Metadata.EncryptionEnabled,
	}

	for name, cat := range m.Categories {
		stats.TotalItems += len(cat.Items)
		stats.Categories[name] = CategoryStats{ItemCount: len(cat.Items), Encrypted: cat.Encrypted}
	}

	return stats
}

// ExportMemory snapshots the memory for backup or transfer. Encrypted
// categories are redacted to a bare count unless includeSensitive is set.
func (s *Store) ExportMemory(includeSensitive bool) *Export {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()

	export := &Export{
		ID:               uuid.NewString(),
		Metadata:         m.Metadata,
		Categories:       make(map[string]ExportCategory, len(m.Categories)),
		ExportedAt:       s.timestamp(),
		IncludeSensitive: includeSensitive,
	}

	for name, cat := range m.Categories {
		ec := ExportCategory{ItemCount: len(cat.Items), Encrypted: cat.Encrypted}
		if includeSensitive || !cat.Encrypted {
			ec.Items = make(map[string]Item, len(cat.Items))
			for k, item := range cat.Items {
				ec.Items[k] = item
			}
		} else {
			ec.Redacted = true
		}
		export.Categories[name] = ec
	}

	return export
}

// CleanupOldItems removes items whose created_at is older than maxAgeDays,
// across all categories, and returns how many were removed. The file is
// rewritten only when something was actually removed. Items with missing or
// unparseable timestamps are kept.
func (s *Store) CleanupOldItems(maxAgeDays int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()
	cutoff := s.now().AddDate(0, 0, -maxAgeDays)
	removed := 0

	for name, cat := range m.Categories {
		for key, item := range cat.Items {
			created, err := time.Parse(time.RFC3339, item.CreatedAt)
			if err != nil {
				continue
			}
			if created.Before(cutoff) {
				delete(cat.Items, key)
				removed++
			}
		}
		m.Categories[name] = cat
	}

	if removed > 0 {
		s.persistLocked(m)
	}
	return removed
}

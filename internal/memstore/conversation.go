package memstore

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// History bounds. The size bound is enforced before the count bound; both
// evict oldest entries first.
const (
	maxHistoryChars   = 50000
	maxHistoryEntries = 100
)

// AddConversationEntry appends one user/bot exchange and trims the history
// back within its bounds.
func (s *Store) AddConversationEntry(userMessage, botResponse string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.loadLocked()

	m.ConversationHistory = append(m.ConversationHistory, ConversationEntry{
		Timestamp: s.timestamp(),
		User:      userMessage,
		Bot:       botResponse,
		Length:    utf8.RuneCountInString(userMessage) + utf8.RuneCountInString(botResponse),
	})

	total := 0
	for _, e := range m.ConversationHistory {
		total += e.Length
	}
	for total > maxHistoryChars && len(m.ConversationHistory) > 0 {
		total -= m.ConversationHistory[0].Length
		m.ConversationHistory = m.ConversationHistory[1:]
	}

	if len(m.ConversationHistory) > maxHistoryEntries {
		m.ConversationHistory = m.ConversationHistory[len(m.ConversationHistory)-maxHistoryEntries:]
	}

	s.persistLocked(m)
}

// GetRecentConversations returns up to limit entries, most recent first,
// each annotated with a relative-time string. A non-positive limit yields an
// empty result.
func (s *Store) GetRecentConversations(limit int) []RecentConversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit < 0 {
		limit = 0
	}

	history := s.loadLocked().ConversationHistory

	recent := make([]RecentConversation, 0, limit)
	for i := len(history) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, RecentConversation{
			ConversationEntry: history[i],
			TimeAgo:           s.timeAgo(history[i].Timestamp),
		})
	}
	return recent
}

// timeAgo renders a timestamp as the assistant speaks it: "hace N días",
// "hace N horas", "hace N minutos", or "hace unos momentos". Unparseable
// timestamps render as "reciente".
func (s *Store) timeAgo(timestamp string) string {
	past, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return "reciente"
	}

	diff := s.now().Sub(past)

	switch {
	case diff >= 24*time.Hour:
		return fmt.Sprintf("hace %d días", int(diff/(24*time.Hour)))
	case diff >= time.Hour:
		return fmt.Sprintf("hace %d horas", int(diff/time.Hour))
	case diff >= time.Minute:
		return fmt.Sprintf("hace %d minutos", int(diff/time.Minute))
	default:
		return "hace unos momentos"
	}
}

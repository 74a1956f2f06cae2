// Package memstore owns one user's categorized memory and conversation
// history, persisted as a single JSON file named by a one-way hash of the
// user's phone number. Values in categories flagged as encrypted are sealed
// by the codec just before writing and opened transparently on load.
package memstore

const memoryVersion = "2.1.0"

// Metadata describes the memory file.
type Metadata struct {
	Version           string `json:"version"`
	CreatedAt         string `json:"created_at"`
	LastUpdated       string `json:"last_updated"`
	Owner             string `json:"owner"`
	EncryptionEnabled bool   `json:"encryption_enabled"`
}

// Item is a single remembered value. CreatedAt is set once when the key
// first appears; LastUpdated is refreshed on every store.
type Item struct {
	Value       string `json:"value"`
	CreatedAt   string `json:"created_at"`
	LastUpdated string `json:"last_updated"`
	Description string `json:"description"`
}

// Category is a named bucket of items with an encryption policy fixed at
// creation time.
type Category struct {
	Description string          `json:"description,omitempty"`
	Items       map[string]Item `json:"items"`
	Encrypted   bool            `json:"encrypted"`
}

// ConversationEntry is one user/bot exchange. Entries are append-only and
// evicted oldest-first by the history bounds. Length is the combined
// character count of both texts, fixed at creation.
type ConversationEntry struct {
	Timestamp string `json:"timestamp"`
	User      string `json:"user"`
	Bot       string `json:"bot"`
	Length    int    `json:"length"`
}

// UserMemory is the on-disk shape of a memory file.
type UserMemory struct {
	Metadata            Metadata            `json:"metadata"`
	Categories          map[string]Category `json:"categories"`
	ConversationHistory []ConversationEntry `json:"conversation_history"`
}

// RecentConversation is a history entry annotated with a human-readable
// relative time.
type RecentConversation struct {
	ConversationEntry
	TimeAgo string `json:"time_ago"`
}

// Match is one search hit. Item hits populate Key/Value/Description and the
// item timestamps; conversation hits populate Timestamp/User/Bot.
type Match struct {
	Key         string `json:"key,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`

	Timestamp string `json:"timestamp,omitempty"`
	User      string `json:"user,omitempty"`
	Bot       string `json:"bot,omitempty"`
}

// CategoryStats summarizes one category for GetMemoryStats.
type CategoryStats struct {
	ItemCount int  `json:"item_count"`
	Encrypted bool `json:"encrypted"`
}

// Stats summarizes a user's whole memory.
type Stats struct {
	TotalCategories   int                      `json:"total_categories"`
	TotalItems        int                      `json:"total_items"`
	Categories        map[string]CategoryStats `json:"categories"`
	ConversationCount int                      `json:"conversation_count"`
	LastUpdated       string                   `json:"last_updated"`
	EncryptionEnabled bool                     `json:"encryption_enabled"`
}

// ExportCategory is one category in an export. Items are omitted and
// Redacted set when the category is sensitive and the caller did not ask
// for sensitive data.
type ExportCategory struct {
	ItemCount int             `json:"item_count"`
	Encrypted bool            `json:"encrypted"`
	Redacted  bool            `json:"redacted,omitempty"`
	Items     map[string]Item `json:"items,omitempty"`
}

// Export is a snapshot of a user's memory for backup or transfer.
type Export struct {
	ID               string                    `json:"id"`
	Metadata         Metadata                  `json:"metadata"`
	Categories       map[string]ExportCategory `json:"categories"`
	ExportedAt       string                    `json:"exported_at"`
	IncludeSensitive bool                      `json:"include_sensitive"`
}

// defaultCategories is the fixed skeleton every memory file starts with.
// The encrypted flags are part of the data contract, not a tunable.
var defaultCategories = []struct {
	name        string
	description string
	encrypted   bool
}{
	{"personal_info", "Información personal del usuario", true},
	{"passwords", "Contraseñas seguras", true},
	{"reminders", "Recordatorios importantes", false},
	{"contacts", "Contactos de emergencia y familiares", true},
	{"medical_info", "Información médica importante", true},
	{"preferences", "Preferencias de la aplicación", false},
	{"favorites", "Aplicaciones y servicios favoritos", false},
}

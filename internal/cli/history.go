package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// History prints the most recent conversations with relative-time labels.
func (a *App) History(ctx context.Context) error {
	raw, err := getSimpleText(a.reader, "How many entries (default 10)", os.Stdout)
	if err != nil {
		return err
	}
	limit := 10
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	recent := a.memory().GetRecentConversations(limit)
	if len(recent) == 0 {
		printlnFn("No conversations yet")
		return nil
	}
	for _, c := range recent {
		printlnFn(fmt.Sprintf("%s | you: %s", c.TimeAgo, c.User))
		printlnFn("  assistant: " + c.Bot)
	}
	return nil
}

// Stats prints a summary of the user's memory.
func (a *App) Stats(ctx context.Context) error {
	stats := a.memory().GetMemoryStats()

	printlnFn(fmt.Sprintf("Categories: %d, items: %d, conversations: %d",
		stats.TotalCategories, stats.TotalItems, stats.ConversationCount))
	printlnFn(fmt.Sprintf("Encryption enabled: %v", stats.EncryptionEnabled))
	printlnFn("Last updated: " + stats.LastUpdated)
	return nil
}

// Export writes a JSON snapshot of the memory to a file. Encrypted
// categories are redacted unless the user explicitly asks for sensitive data.
func (a *App) Export(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Include sensitive data? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Output file", os.Stdout)
	if err != nil {
		return err
	}
	if path == "" {
		printlnFn("No output file given")
		return nil
	}

	export := a.memory().ExportMemory(answer == "yes" || answer == "y")
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		printlnFn("Could not write " + path)
		return err
	}
	printlnFn(fmt.Sprintf("Exported to %s (id %s)", path, export.ID))
	return nil
}

// Cleanup removes items older than the given number of days.
func (a *App) Cleanup(ctx context.Context) error {
	raw, err := getSimpleText(a.reader, "Remove items older than how many days?", os.Stdout)
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		printlnFn("Please enter a positive number of days")
		return nil
	}

	removed := a.memory().CleanupOldItems(days)
	printlnFn(fmt.Sprintf("Removed %d items", removed))
	return nil
}

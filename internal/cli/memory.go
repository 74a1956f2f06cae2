package cli

import (
	"context"
	"fmt"
	"os"
)

// Store prompts for category, key, value, and an optional description, and
// upserts the item. New categories are created encrypted by default.
func (a *App) Store(ctx context.Context) error {
	category, err := getSimpleText(a.reader, "Category (e.g. passwords, reminders, contacts)", os.Stdout)
	if err != nil {
		return err
	}
	key, err := getSimpleText(a.reader, "Name", os.Stdout)
	if err != nil {
		return err
	}
	value, err := getSimpleText(a.reader, "Value", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	if !a.memory().StoreItem(category, key, value, description) {
		printlnFn("Could not save the item")
		return nil
	}
	printlnFn("Saved.")
	return nil
}

// Get prompts for category and key and prints the stored value with its
// timestamps.
func (a *App) Get(ctx context.Context) error {
	category, err := getSimpleText(a.reader, "Category", os.Stdout)
	if err != nil {
		return err
	}
	key, err := getSimpleText(a.reader, "Name", os.Stdout)
	if err != nil {
		return err
	}

	item := a.memory().GetItemDetails(category, key)
	if item == nil {
		printlnFn("Not found")
		return nil
	}
	printlnFn(fmt.Sprintf("%s = %s", key, item.Value))
	if item.Description != "" {
		printlnFn("  " + item.Description)
	}
	printlnFn(fmt.Sprintf("  created %s, updated %s", item.CreatedAt, item.LastUpdated))
	return nil
}

// List prints the items of one category, or a category overview when the
// category prompt is left empty.
func (a *App) List(ctx context.Context) error {
	category, err := getSimpleText(a.reader, "Category (empty for an overview)", os.Stdout)
	if err != nil {
		return err
	}

	if category == "" {
		stats := a.memory().GetMemoryStats()
		for name, cs := range stats.Categories {
			marker := ""
			if cs.Encrypted {
				marker = " [encrypted]"
			}
			printlnFn(fmt.Sprintf("%s: %d items%s", name, cs.ItemCount, marker))
		}
		return nil
	}

	items := a.memory().GetCategoryWithDetails(category)
	if len(items) == 0 {
		printlnFn("Nothing stored in " + category)
		return nil
	}
	for key, item := range items {
		printlnFn(fmt.Sprintf("%s = %s", key, item.Value))
	}
	return nil
}

// Remove deletes one item after prompting for category and key.
func (a *App) Remove(ctx context.Context) error {
	category, err := getSimpleText(a.reader, "Category", os.Stdout)
	if err != nil {
		return err
	}
	key, err := getSimpleText(a.reader, "Name", os.Stdout)
	if err != nil {
		return err
	}

	if !a.memory().RemoveItem(category, key) {
		printlnFn("Not found")
		return nil
	}
	printlnFn("Removed.")
	return nil
}

// Search looks for a text across the whole memory, or within one category
// when given.
func (a *App) Search(ctx context.Context) error {
	query, err := getSimpleText(a.reader, "Search for", os.Stdout)
	if err != nil {
		return err
	}
	category, err := getSimpleText(a.reader, "Category (empty for everywhere)", os.Stdout)
	if err != nil {
		return err
	}

	results := a.memory().SearchMemory(query, category)
	if len(results) == 0 {
		printlnFn("No matches")
		return nil
	}
	for name, matches := range results {
		printlnFn(name + ":")
		for _, m := range matches {
			if m.Key != "" {
				printlnFn(fmt.Sprintf("  %s = %s", m.Key, m.Value))
			} else {
				printlnFn(fmt.Sprintf("  [%s] you: %s / assistant: %s", m.Timestamp, m.User, m.Bot))
			}
		}
	}
	return nil
}

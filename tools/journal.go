package tools

import (
	"context"
	"fmt"

	"github.com/martinacantaro/aurora/storage"
)

// JournalModule adapts daily journal entries to the tool contract.
type JournalModule struct {
	store *storage.Store
}

func NewJournalModule(store *storage.Store) *JournalModule {
	return &JournalModule{store: store}
}

func (m *JournalModule) Name() string { return "journal" }

func (m *JournalModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "get_journal_entry",
			Description: "Get the journal entry for a day (defaults to today).",
			InputSchema: Schema{
				Properties: map[string]any{
					"day": map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
			},
			Kind: KindRead,
		},
		{
			Name:        "list_journal_entries",
			Description: "List recent journal entries, newest first.",
			InputSchema: Schema{
				Properties: map[string]any{
					"limit": map[string]any{"type": "integer", "description": "Max entries, default 30"},
				},
			},
			Kind: KindRead,
		},
		{
			Name:        "write_journal_entry",
			Description: "Write or update the journal entry for a day. Fields not provided are left unchanged.",
			InputSchema: Schema{
				Properties: map[string]any{
					"day":     map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
					"content": map[string]any{"type": "string"},
					"mood":    map[string]any{"type": "integer", "description": "1-5"},
					"energy":  map[string]any{"type": "integer", "description": "1-5"},
				},
			},
			Kind: KindWrite,
		},
	}
}

func (m *JournalModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "get_journal_entry":
		entry, err := m.store.GetJournalEntry(dayArg(args, "day"))
		if err != nil {
			return nil, err
		}
		return journalEntryMap(*entry), nil

	case "list_journal_entries":
		limit, _ := intArg(args, "limit")
		entries, err := m.store.ListJournalEntries(limit)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(entries))
		for _, entry := range entries {
			out = append(out, journalEntryMap(entry))
		}
		return out, nil

	case "write_journal_entry":
		day := dayArg(args, "day")

		var content *string
		if v, ok := args["content"].(string); ok {
			content = &v
		}
		var mood, energy *int
		if v, ok := intArg(args, "mood"); ok {
			mood = &v
		}
		if v, ok := intArg(args, "energy"); ok {
			energy = &v
		}

		entry, err := m.store.UpsertJournalEntry(day, content, mood, energy)
		if err != nil {
			return nil, err
		}
		return journalEntryMap(*entry), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func journalEntryMap(entry storage.JournalEntry) map[string]any {
	out := map[string]any{
		"day":     entry.Day,
		"content": entry.Content,
	}
	if entry.Mood.Valid {
		out["mood"] = entry.Mood.Int64
	}
	if entry.Energy.Valid {
		out["energy"] = entry.Energy.Int64
	}
	return out
}

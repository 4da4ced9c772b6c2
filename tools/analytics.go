package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/martinacantaro/aurora/storage"
)

// AnalyticsModule exposes read-only cross-domain summaries.
type AnalyticsModule struct {
	store *storage.Store
}

func NewAnalyticsModule(store *storage.Store) *AnalyticsModule {
	return &AnalyticsModule{store: store}
}

func (m *AnalyticsModule) Name() string { return "analytics" }

func (m *AnalyticsModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "get_productivity_summary",
			Description: "Get a snapshot of tasks, habits, goals, journal entries and upcoming events.",
			InputSchema: Schema{Properties: map[string]any{}},
			Kind:        KindRead,
		},
		{
			Name:        "get_finance_summary",
			Description: "Get income/expense totals and an expense breakdown by category for a day range (defaults to the last 30 days).",
			InputSchema: Schema{
				Properties: map[string]any{
					"from_day": map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
					"to_day":   map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
			},
			Kind: KindRead,
		},
	}
}

func (m *AnalyticsModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "get_productivity_summary":
		today := time.Now().Format(storage.DayFormat)
		summary, err := m.store.SummarizeProductivity(today)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"open_tasks":              summary.OpenTasks,
			"completed_tasks":         summary.CompletedTasks,
			"habits_tracked":          summary.HabitsTracked,
			"habit_completions_today": summary.HabitCompletionsToday,
			"active_goals":            summary.ActiveGoals,
			"completed_goals":         summary.CompletedGoals,
			"journal_entries":         summary.JournalEntries,
			"upcoming_events":         summary.UpcomingEvents,
		}, nil

	case "get_finance_summary":
		fromDay, toDay := dayRange(args)
		summary, err := m.store.SummarizeFinances(fromDay, toDay)
		if err != nil {
			return nil, err
		}

		byCategory := make(map[string]any, len(summary.ByCategory))
		for category, cents := range summary.ByCategory {
			byCategory[category] = float64(cents) / 100
		}

		return map[string]any{
			"from_day":    fromDay,
			"to_day":      toDay,
			"income":      float64(summary.IncomeCents) / 100,
			"expenses":    float64(summary.ExpenseCents) / 100,
			"by_category": byCategory,
			"net":         float64(summary.IncomeCents-summary.ExpenseCents) / 100,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/martinacantaro/aurora/storage"
)

// HabitsModule adapts habit tracking to the tool contract.
type HabitsModule struct {
	store *storage.Store
}

func NewHabitsModule(store *storage.Store) *HabitsModule {
	return &HabitsModule{store: store}
}

func (m *HabitsModule) Name() string { return "habits" }

func (m *HabitsModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "list_habits",
			Description: "List tracked habits with their current streaks.",
			InputSchema: Schema{Properties: map[string]any{}},
			Kind:        KindRead,
		},
		{
			Name:        "get_habit_history",
			Description: "Get the completion days of a habit over the last 30 days.",
			InputSchema: Schema{
				Properties: map[string]any{
					"habit_id": map[string]any{"type": "string"},
				},
				Required: []string{"habit_id"},
			},
			Kind: KindRead,
		},
		{
			Name:        "create_habit",
			Description: "Start tracking a new habit.",
			InputSchema: Schema{
				Properties: map[string]any{
					"name":      map[string]any{"type": "string"},
					"frequency": map[string]any{"type": "string", "enum": []any{"daily", "weekly"}},
				},
				Required: []string{"name"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "mark_habit_done",
			Description: "Record a habit completion for a day (defaults to today).",
			InputSchema: Schema{
				Properties: map[string]any{
					"habit_id": map[string]any{"type": "string"},
					"day":      map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
				Required: []string{"habit_id"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "delete_habit",
			Description: "Permanently delete a habit and its history.",
			InputSchema: Schema{
				Properties: map[string]any{
					"habit_id": map[string]any{"type": "string"},
				},
				Required: []string{"habit_id"},
			},
			Kind: KindDestructive,
		},
	}
}

func (m *HabitsModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_habits":
		return m.listHabits()

	case "get_habit_history":
		habitID, err := requiredStringArg(args, "habit_id")
		if err != nil {
			return nil, err
		}
		since := time.Now().AddDate(0, 0, -30).Format(storage.DayFormat)
		days, err := m.store.HabitCompletions(habitID, since)
		if err != nil {
			return nil, err
		}
		return map[string]any{"habit_id": habitID, "completed_days": days}, nil

	case "create_habit":
		habitName, err := requiredStringArg(args, "name")
		if err != nil {
			return nil, err
		}
		habit, err := m.store.CreateHabit(habitName, stringArg(args, "frequency"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": habit.ID, "name": habit.Name, "frequency": habit.Frequency}, nil

	case "mark_habit_done":
		habitID, err := requiredStringArg(args, "habit_id")
		if err != nil {
			return nil, err
		}
		day := dayArg(args, "day")
		if err := m.store.MarkHabitDone(habitID, day); err != nil {
			return nil, err
		}
		return map[string]any{"habit_id": habitID, "day": day}, nil

	case "delete_habit":
		habitID, err := requiredStringArg(args, "habit_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteHabit(habitID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": habitID}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func (m *HabitsModule) listHabits() (any, error) {
	habits, err := m.store.ListHabits()
	if err != nil {
		return nil, err
	}

	today := time.Now().Format(storage.DayFormat)
	out := make([]map[string]any, 0, len(habits))
	for _, habit := range habits {
		streak, err := m.store.HabitStreak(habit.ID, today)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":        habit.ID,
			"name":      habit.Name,
			"frequency": habit.Frequency,
			"streak":    streak,
		})
	}

	return out, nil
}

package tools

import (
	"context"
	"fmt"

	"github.com/martinacantaro/aurora/storage"
)

// GoalsModule adapts goal tracking to the tool contract.
type GoalsModule struct {
	store *storage.Store
}

func NewGoalsModule(store *storage.Store) *GoalsModule {
	return &GoalsModule{store: store}
}

func (m *GoalsModule) Name() string { return "goals" }

func (m *GoalsModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "list_goals",
			Description: "List goals with progress and target dates.",
			InputSchema: Schema{Properties: map[string]any{}},
			Kind:        KindRead,
		},
		{
			Name:        "create_goal",
			Description: "Create a new goal.",
			InputSchema: Schema{
				Properties: map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"target_date": map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
				Required: []string{"title"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "update_goal_progress",
			Description: "Set a goal's progress percentage (0-100). 100 completes the goal.",
			InputSchema: Schema{
				Properties: map[string]any{
					"goal_id":  map[string]any{"type": "string"},
					"progress": map[string]any{"type": "integer", "description": "0-100"},
				},
				Required: []string{"goal_id", "progress"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "delete_goal",
			Description: "Permanently delete a goal.",
			InputSchema: Schema{
				Properties: map[string]any{
					"goal_id": map[string]any{"type": "string"},
				},
				Required: []string{"goal_id"},
			},
			Kind: KindDestructive,
		},
	}
}

func (m *GoalsModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_goals":
		goals, err := m.store.ListGoals()
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(goals))
		for _, goal := range goals {
			goalMap := map[string]any{
				"id":        goal.ID,
				"title":     goal.Title,
				"progress":  goal.Progress,
				"completed": goal.Completed,
			}
			if goal.Description != "" {
				goalMap["description"] = goal.Description
			}
			if goal.TargetDate != "" {
				goalMap["target_date"] = goal.TargetDate
			}
			out = append(out, goalMap)
		}
		return out, nil

	case "create_goal":
		title, err := requiredStringArg(args, "title")
		if err != nil {
			return nil, err
		}
		goal, err := m.store.CreateGoal(title, stringArg(args, "description"), stringArg(args, "target_date"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": goal.ID, "title": goal.Title}, nil

	case "update_goal_progress":
		goalID, err := requiredStringArg(args, "goal_id")
		if err != nil {
			return nil, err
		}
		progress, ok := intArg(args, "progress")
		if !ok {
			return nil, fmt.Errorf("%w: progress is required", storage.ErrValidation)
		}
		if err := m.store.UpdateGoalProgress(goalID, progress); err != nil {
			return nil, err
		}
		return map[string]any{"goal_id": goalID, "progress": progress}, nil

	case "delete_goal":
		goalID, err := requiredStringArg(args, "goal_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteGoal(goalID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": goalID}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

package tools

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/martinacantaro/aurora/storage"
)

// BoardsModule adapts kanban board CRUD to the tool contract.
type BoardsModule struct {
	store *storage.Store
}

func NewBoardsModule(store *storage.Store) *BoardsModule {
	return &BoardsModule{store: store}
}

func (m *BoardsModule) Name() string { return "boards" }

func (m *BoardsModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "list_boards",
			Description: "List all kanban boards with their columns.",
			InputSchema: Schema{Properties: map[string]any{}},
			Kind:        KindRead,
		},
		{
			Name:        "list_tasks",
			Description: "List the tasks of a board, grouped by column.",
			InputSchema: Schema{
				Properties: map[string]any{
					"board_id": map[string]any{"type": "string", "description": "Board ID"},
				},
				Required: []string{"board_id"},
			},
			Kind: KindRead,
		},
		{
			Name:        "search_tasks",
			Description: "Fuzzy-search open tasks by title across all boards.",
			InputSchema: Schema{
				Properties: map[string]any{
					"query": map[string]any{"type": "string", "description": "Search text"},
				},
				Required: []string{"query"},
			},
			Kind: KindRead,
		},
		{
			Name:        "create_board",
			Description: "Create a new board with default To Do / In Progress / Done columns.",
			InputSchema: Schema{
				Properties: map[string]any{
					"name": map[string]any{"type": "string", "description": "Board name"},
				},
				Required: []string{"name"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "create_column",
			Description: "Add a column to an existing board.",
			InputSchema: Schema{
				Properties: map[string]any{
					"board_id": map[string]any{"type": "string"},
					"name":     map[string]any{"type": "string", "description": "Column name"},
				},
				Required: []string{"board_id", "name"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "create_task",
			Description: "Create a task in a column.",
			InputSchema: Schema{
				Properties: map[string]any{
					"column_id":   map[string]any{"type": "string"},
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"due_date":    map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
				Required: []string{"column_id", "title"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "move_task",
			Description: "Move a task to another column.",
			InputSchema: Schema{
				Properties: map[string]any{
					"task_id":   map[string]any{"type": "string"},
					"column_id": map[string]any{"type": "string", "description": "Destination column"},
				},
				Required: []string{"task_id", "column_id"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as completed.",
			InputSchema: Schema{
				Properties: map[string]any{
					"task_id": map[string]any{"type": "string"},
				},
				Required: []string{"task_id"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "delete_task",
			Description: "Permanently delete a task.",
			InputSchema: Schema{
				Properties: map[string]any{
					"task_id": map[string]any{"type": "string"},
				},
				Required: []string{"task_id"},
			},
			Kind: KindDestructive,
		},
		{
			Name:        "delete_column",
			Description: "Permanently delete a column and all tasks in it.",
			InputSchema: Schema{
				Properties: map[string]any{
					"column_id": map[string]any{"type": "string"},
				},
				Required: []string{"column_id"},
			},
			Kind: KindDestructive,
		},
		{
			Name:        "delete_board",
			Description: "Permanently delete a board, its columns and all its tasks.",
			InputSchema: Schema{
				Properties: map[string]any{
					"board_id": map[string]any{"type": "string"},
				},
				Required: []string{"board_id"},
			},
			Kind: KindDestructive,
		},
	}
}

func (m *BoardsModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_boards":
		return m.listBoards()

	case "list_tasks":
		boardID, err := requiredStringArg(args, "board_id")
		if err != nil {
			return nil, err
		}
		tasks, err := m.store.ListTasks(boardID)
		if err != nil {
			return nil, err
		}
		return taskMaps(tasks), nil

	case "search_tasks":
		query, err := requiredStringArg(args, "query")
		if err != nil {
			return nil, err
		}
		return m.searchTasks(query)

	case "create_board":
		boardName, err := requiredStringArg(args, "name")
		if err != nil {
			return nil, err
		}
		board, err := m.store.CreateBoard(boardName)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": board.ID, "name": board.Name}, nil

	case "create_column":
		boardID, err := requiredStringArg(args, "board_id")
		if err != nil {
			return nil, err
		}
		columnName, err := requiredStringArg(args, "name")
		if err != nil {
			return nil, err
		}
		column, err := m.store.CreateColumn(boardID, columnName)
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": column.ID, "name": column.Name, "position": column.Position}, nil

	case "create_task":
		columnID, err := requiredStringArg(args, "column_id")
		if err != nil {
			return nil, err
		}
		title, err := requiredStringArg(args, "title")
		if err != nil {
			return nil, err
		}
		task, err := m.store.CreateTask(columnID, title, stringArg(args, "description"), stringArg(args, "due_date"))
		if err != nil {
			return nil, err
		}
		return taskMap(*task), nil

	case "move_task":
		taskID, err := requiredStringArg(args, "task_id")
		if err != nil {
			return nil, err
		}
		columnID, err := requiredStringArg(args, "column_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.MoveTask(taskID, columnID); err != nil {
			return nil, err
		}
		return map[string]any{"moved": taskID}, nil

	case "complete_task":
		taskID, err := requiredStringArg(args, "task_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.CompleteTask(taskID); err != nil {
			return nil, err
		}
		return map[string]any{"completed": taskID}, nil

	case "delete_task":
		taskID, err := requiredStringArg(args, "task_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteTask(taskID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": taskID}, nil

	case "delete_column":
		columnID, err := requiredStringArg(args, "column_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteColumn(columnID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": columnID}, nil

	case "delete_board":
		boardID, err := requiredStringArg(args, "board_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteBoard(boardID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": boardID}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

func (m *BoardsModule) listBoards() (any, error) {
	boards, err := m.store.ListBoards()
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(boards))
	for _, board := range boards {
		columns, err := m.store.ListColumns(board.ID)
		if err != nil {
			return nil, err
		}

		columnMaps := make([]map[string]any, 0, len(columns))
		for _, column := range columns {
			columnMaps = append(columnMaps, map[string]any{
				"id":   column.ID,
				"name": column.Name,
			})
		}

		out = append(out, map[string]any{
			"id":      board.ID,
			"name":    board.Name,
			"columns": columnMaps,
		})
	}

	return out, nil
}

// searchTasks ranks open tasks against the query by fuzzy title match.
func (m *BoardsModule) searchTasks(query string) (any, error) {
	tasks, err := m.store.ListOpenTasks()
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}

	matches := fuzzy.Find(query, titles)

	out := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		out = append(out, taskMap(tasks[match.Index]))
	}

	return out, nil
}

func taskMap(task storage.Task) map[string]any {
	out := map[string]any{
		"id":        task.ID,
		"column_id": task.ColumnID,
		"title":     task.Title,
		"completed": task.Completed,
	}
	if task.Description != "" {
		out["description"] = task.Description
	}
	if task.DueDate != "" {
		out["due_date"] = task.DueDate
	}
	return out
}

func taskMaps(tasks []storage.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskMap(task))
	}
	return out
}

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Column struct {
	ID       string
	BoardID  string
	Name     string
	Position int
}

type Task struct {
	ID          string
	ColumnID    string
	Title       string
	Description string
	DueDate     string
	Completed   bool
	CompletedAt sql.NullTime
	Position    int
	CreatedAt   time.Time
}

// Default columns created with every new board
var defaultColumnNames = []string{"To Do", "In Progress", "Done"}

func (s *Store) CreateBoard(name string) (*Board, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: board name is required", ErrValidation)
	}

	board := &Board{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO boards (id, name, created_at) VALUES (?, ?, ?)`,
		board.ID, board.Name, board.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert board: %w", err)
	}

	for i, columnName := range defaultColumnNames {
		_, err = tx.Exec(`INSERT INTO columns (id, board_id, name, position) VALUES (?, ?, ?, ?)`,
			uuid.New().String(), board.ID, columnName, i)
		if err != nil {
			return nil, fmt.Errorf("failed to insert column: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit board: %w", err)
	}

	return board, nil
}

func (s *Store) GetBoard(id string) (*Board, error) {
	var board Board
	err := s.db.QueryRow(`SELECT id, name, created_at FROM boards WHERE id = ?`, id).
		Scan(&board.ID, &board.Name, &board.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: board %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *Store) ListBoards() ([]Board, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM boards ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var board Board
		if err := rows.Scan(&board.ID, &board.Name, &board.CreatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}

	return boards, rows.Err()
}

func (s *Store) DeleteBoard(id string) error {
	if _, err := s.GetBoard(id); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks WHERE column_id IN (SELECT id FROM columns WHERE board_id = ?)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM columns WHERE board_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM boards WHERE id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) CreateColumn(boardID, name string) (*Column, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: column name is required", ErrValidation)
	}
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, err
	}

	var maxPos sql.NullInt64
	err := s.db.QueryRow(`SELECT MAX(position) FROM columns WHERE board_id = ?`, boardID).Scan(&maxPos)
	if err != nil {
		return nil, err
	}

	column := &Column{
		ID:       uuid.New().String(),
		BoardID:  boardID,
		Name:     name,
		Position: int(maxPos.Int64) + 1,
	}

	_, err = s.db.Exec(`INSERT INTO columns (id, board_id, name, position) VALUES (?, ?, ?, ?)`,
		column.ID, column.BoardID, column.Name, column.Position)
	if err != nil {
		return nil, fmt.Errorf("failed to insert column: %w", err)
	}

	return column, nil
}

func (s *Store) ListColumns(boardID string) ([]Column, error) {
	rows, err := s.db.Query(`SELECT id, board_id, name, position FROM columns WHERE board_id = ? ORDER BY position`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var column Column
		if err := rows.Scan(&column.ID, &column.BoardID, &column.Name, &column.Position); err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}

	return columns, rows.Err()
}

func (s *Store) DeleteColumn(id string) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM columns WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: column %s", ErrNotFound, id)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks WHERE column_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM columns WHERE id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) CreateTask(columnID, title, description, dueDate string) (*Task, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: task title is required", ErrValidation)
	}

	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM columns WHERE id = ?`, columnID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: column %s", ErrNotFound, columnID)
	}

	var maxPos sql.NullInt64
	err = s.db.QueryRow(`SELECT MAX(position) FROM tasks WHERE column_id = ?`, columnID).Scan(&maxPos)
	if err != nil {
		return nil, err
	}

	task := &Task{
		ID:          uuid.New().String(),
		ColumnID:    columnID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Position:    int(maxPos.Int64) + 1,
		CreatedAt:   time.Now(),
	}

	_, err = s.db.Exec(`
		INSERT INTO tasks (id, column_id, title, description, due_date, completed, position, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		task.ID, task.ColumnID, task.Title, task.Description, task.DueDate, task.Position, task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return task, nil
}

func (s *Store) GetTask(id string) (*Task, error) {
	var task Task
	err := s.db.QueryRow(`
		SELECT id, column_id, title, description, due_date, completed, completed_at, position, created_at
		FROM tasks WHERE id = ?`, id).
		Scan(&task.ID, &task.ColumnID, &task.Title, &task.Description, &task.DueDate,
			&task.Completed, &task.CompletedAt, &task.Position, &task.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: task %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) ListTasks(boardID string) ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.column_id, t.title, t.description, t.due_date, t.completed, t.completed_at, t.position, t.created_at
		FROM tasks t JOIN columns c ON t.column_id = c.id
		WHERE c.board_id = ?
		ORDER BY c.position, t.position`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListOpenTasks returns every non-completed task across all boards.
// Used by the fuzzy completion matcher and the task search tool.
func (s *Store) ListOpenTasks() ([]Task, error) {
	rows, err := s.db.Query(`
		SELECT id, column_id, title, description, due_date, completed, completed_at, position, created_at
		FROM tasks WHERE completed = 0
		ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTasks(rows)
}

func scanTasks(rows *sql.Rows) ([]Task, error) {
	var tasks []Task
	for rows.Next() {
		var task Task
		err := rows.Scan(&task.ID, &task.ColumnID, &task.Title, &task.Description, &task.DueDate,
			&task.Completed, &task.CompletedAt, &task.Position, &task.CreatedAt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *Store) MoveTask(taskID, columnID string) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM columns WHERE id = ?`, columnID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: column %s", ErrNotFound, columnID)
	}

	var maxPos sql.NullInt64
	err = s.db.QueryRow(`SELECT MAX(position) FROM tasks WHERE column_id = ?`, columnID).Scan(&maxPos)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(`UPDATE tasks SET column_id = ?, position = ? WHERE id = ?`,
		columnID, int(maxPos.Int64)+1, taskID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, taskID)
	}

	return nil
}

func (s *Store) CompleteTask(id string) error {
	result, err := s.db.Exec(`UPDATE tasks SET completed = 1, completed_at = ? WHERE id = ?`,
		time.Now(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	return nil
}

func (s *Store) DeleteTask(id string) error {
	result, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: task %s", ErrNotFound, id)
	}

	return nil
}

// DefaultTaskColumn resolves the default destination for tasks created from
// extractions: the first column of the first board.
func (s *Store) DefaultTaskColumn() (*Column, error) {
	var column Column
	err := s.db.QueryRow(`
		SELECT c.id, c.board_id, c.name, c.position
		FROM columns c JOIN boards b ON c.board_id = b.id
		ORDER BY b.created_at, c.position
		LIMIT 1`).
		Scan(&column.ID, &column.BoardID, &column.Name, &column.Position)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no boards exist yet", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &column, nil
}

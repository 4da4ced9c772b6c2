package storage

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Goal struct {
	ID          string
	Title       string
	Description string
	TargetDate  string
	Progress    int
	Completed   bool
}

func (s *Store) CreateGoal(title, description, targetDate string) (*Goal, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: goal title is required", ErrValidation)
	}

	goal := &Goal{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		TargetDate:  targetDate,
	}

	_, err := s.db.Exec(`
		INSERT INTO goals (id, title, description, target_date, progress, completed)
		VALUES (?, ?, ?, ?, 0, 0)`,
		goal.ID, goal.Title, goal.Description, goal.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", err)
	}

	return goal, nil
}

func (s *Store) GetGoal(id string) (*Goal, error) {
	var goal Goal
	err := s.db.QueryRow(`
		SELECT id, title, description, target_date, progress, completed
		FROM goals WHERE id = ?`, id).
		Scan(&goal.ID, &goal.Title, &goal.Description, &goal.TargetDate, &goal.Progress, &goal.Completed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Store) ListGoals() ([]Goal, error) {
	rows, err := s.db.Query(`
		SELECT id, title, description, target_date, progress, completed
		FROM goals ORDER BY completed, target_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var goal Goal
		err := rows.Scan(&goal.ID, &goal.Title, &goal.Description, &goal.TargetDate,
			&goal.Progress, &goal.Completed)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}

	return goals, rows.Err()
}

// UpdateGoalProgress sets progress to a value in [0,100]. Reaching 100
// also marks the goal completed.
func (s *Store) UpdateGoalProgress(id string, progress int) error {
	if progress < 0 || progress > 100 {
		return fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)
	}

	completed := 0
	if progress == 100 {
		completed = 1
	}

	result, err := s.db.Exec(`UPDATE goals SET progress = ?, completed = ? WHERE id = ?`,
		progress, completed, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}

	return nil
}

func (s *Store) DeleteGoal(id string) error {
	result, err := s.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}

	return nil
}

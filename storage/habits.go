package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Habit struct {
	ID        string
	Name      string
	Frequency string
	CreatedAt time.Time
}

func (s *Store) CreateHabit(name, frequency string) (*Habit, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: habit name is required", ErrValidation)
	}
	if frequency == "" {
		frequency = "daily"
	}
	if frequency != "daily" && frequency != "weekly" {
		return nil, fmt.Errorf("%w: frequency must be daily or weekly", ErrValidation)
	}

	habit := &Habit{
		ID:        uuid.New().String(),
		Name:      name,
		Frequency: frequency,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(`INSERT INTO habits (id, name, frequency, created_at) VALUES (?, ?, ?, ?)`,
		habit.ID, habit.Name, habit.Frequency, habit.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert habit: %w", err)
	}

	return habit, nil
}

func (s *Store) ListHabits() ([]Habit, error) {
	rows, err := s.db.Query(`SELECT id, name, frequency, created_at FROM habits ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		var habit Habit
		if err := rows.Scan(&habit.ID, &habit.Name, &habit.Frequency, &habit.CreatedAt); err != nil {
			return nil, err
		}
		habits = append(habits, habit)
	}

	return habits, rows.Err()
}

func (s *Store) DeleteHabit(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM habit_completions WHERE habit_id = ?`, id); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: habit %s", ErrNotFound, id)
	}

	return tx.Commit()
}

// MarkHabitDone records a completion for the given day. Marking the same
// day twice is a no-op.
func (s *Store) MarkHabitDone(habitID, day string) error {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM habits WHERE id = ?`, habitID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("%w: habit %s", ErrNotFound, habitID)
	}

	if _, err := time.Parse(DayFormat, day); err != nil {
		return fmt.Errorf("%w: day must be YYYY-MM-DD", ErrValidation)
	}

	_, err = s.db.Exec(`INSERT OR IGNORE INTO habit_completions (habit_id, day) VALUES (?, ?)`,
		habitID, day)
	return err
}

func (s *Store) HabitCompletions(habitID string, sinceDay string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT day FROM habit_completions
		WHERE habit_id = ? AND day >= ?
		ORDER BY day`, habitID, sinceDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	return days, rows.Err()
}

// HabitStreak counts consecutive completed days ending at the given day.
func (s *Store) HabitStreak(habitID, day string) (int, error) {
	end, err := time.Parse(DayFormat, day)
	if err != nil {
		return 0, fmt.Errorf("%w: day must be YYYY-MM-DD", ErrValidation)
	}

	streak := 0
	for {
		current := end.AddDate(0, 0, -streak).Format(DayFormat)

		var done int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM habit_completions WHERE habit_id = ? AND day = ?`,
			habitID, current).Scan(&done)
		if err != nil && err != sql.ErrNoRows {
			return 0, err
		}
		if done == 0 {
			break
		}
		streak++
	}

	return streak, nil
}

package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        string
	Title     string
	Day       string
	StartTime string // "15:04", optional
	EndTime   string
	Location  string
	Notes     string
}

func (s *Store) CreateEvent(title, day, startTime, endTime, location, notes string) (*Event, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: event title is required", ErrValidation)
	}
	if _, err := time.Parse(DayFormat, day); err != nil {
		return nil, fmt.Errorf("%w: day must be YYYY-MM-DD", ErrValidation)
	}
	if startTime != "" {
		if _, err := time.Parse("15:04", startTime); err != nil {
			return nil, fmt.Errorf("%w: start_time must be HH:MM", ErrValidation)
		}
	}
	if endTime != "" {
		if _, err := time.Parse("15:04", endTime); err != nil {
			return nil, fmt.Errorf("%w: end_time must be HH:MM", ErrValidation)
		}
	}

	event := &Event{
		ID:        uuid.New().String(),
		Title:     title,
		Day:       day,
		StartTime: startTime,
		EndTime:   endTime,
		Location:  location,
		Notes:     notes,
	}

	_, err := s.db.Exec(`
		INSERT INTO events (id, title, day, start_time, end_time, location, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Title, event.Day, event.StartTime, event.EndTime, event.Location, event.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	return event, nil
}

func (s *Store) ListEvents(fromDay, toDay string) ([]Event, error) {
	rows, err := s.db.Query(`
		SELECT id, title, day, start_time, end_time, location, notes
		FROM events
		WHERE day >= ? AND day <= ?
		ORDER BY day, start_time`, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(&event.ID, &event.Title, &event.Day, &event.StartTime,
			&event.EndTime, &event.Location, &event.Notes)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

func (s *Store) DeleteEvent(id string) error {
	result, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: event %s", ErrNotFound, id)
	}

	return nil
}

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JournalEntry struct {
	ID      string
	Day     string
	Content string
	Mood    sql.NullInt64
	Energy  sql.NullInt64
}

func (s *Store) GetJournalEntry(day string) (*JournalEntry, error) {
	var entry JournalEntry
	err := s.db.QueryRow(`
		SELECT id, day, content, mood, energy FROM journal_entries WHERE day = ?`, day).
		Scan(&entry.ID, &entry.Day, &entry.Content, &entry.Mood, &entry.Energy)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no journal entry for %s", ErrNotFound, day)
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertJournalEntry updates the entry for a day, creating it if missing.
// Nil fields are left untouched on an existing entry (partial update).
func (s *Store) UpsertJournalEntry(day string, content *string, mood, energy *int) (*JournalEntry, error) {
	if _, err := time.Parse(DayFormat, day); err != nil {
		return nil, fmt.Errorf("%w: day must be YYYY-MM-DD", ErrValidation)
	}
	if mood != nil && (*mood < 1 || *mood > 5) {
		return nil, fmt.Errorf("%w: mood must be between 1 and 5", ErrValidation)
	}
	if energy != nil && (*energy < 1 || *energy > 5) {
		return nil, fmt.Errorf("%w: energy must be between 1 and 5", ErrValidation)
	}

	existing, err := s.GetJournalEntry(day)
	if err == nil {
		if content != nil {
			existing.Content = *content
		}
		if mood != nil {
			existing.Mood = sql.NullInt64{Int64: int64(*mood), Valid: true}
		}
		if energy != nil {
			existing.Energy = sql.NullInt64{Int64: int64(*energy), Valid: true}
		}

		_, err = s.db.Exec(`UPDATE journal_entries SET content = ?, mood = ?, energy = ? WHERE day = ?`,
			existing.Content, existing.Mood, existing.Energy, day)
		if err != nil {
			return nil, fmt.Errorf("failed to update journal entry: %w", err)
		}
		return existing, nil
	}

	entry := &JournalEntry{
		ID:  uuid.New().String(),
		Day: day,
	}
	if content != nil {
		entry.Content = *content
	}
	if mood != nil {
		entry.Mood = sql.NullInt64{Int64: int64(*mood), Valid: true}
	}
	if energy != nil {
		entry.Energy = sql.NullInt64{Int64: int64(*energy), Valid: true}
	}

	_, err = s.db.Exec(`INSERT INTO journal_entries (id, day, content, mood, energy) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Day, entry.Content, entry.Mood, entry.Energy)
	if err != nil {
		return nil, fmt.Errorf("failed to insert journal entry: %w", err)
	}

	return entry, nil
}

func (s *Store) ListJournalEntries(limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := s.db.Query(`
		SELECT id, day, content, mood, energy FROM journal_entries
		ORDER BY day DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		if err := rows.Scan(&entry.ID, &entry.Day, &entry.Content, &entry.Mood, &entry.Energy); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

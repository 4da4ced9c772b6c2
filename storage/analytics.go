package storage

import "time"

// ProductivitySummary is a cross-domain snapshot used by the analytics tools.
type ProductivitySummary struct {
	OpenTasks             int
	CompletedTasks        int
	HabitsTracked         int
	HabitCompletionsToday int
	ActiveGoals           int
	CompletedGoals        int
	JournalEntries        int
	UpcomingEvents        int
}

func (s *Store) SummarizeProductivity(today string) (*ProductivitySummary, error) {
	summary := &ProductivitySummary{}

	counts := []struct {
		query string
		args  []any
		dest  *int
	}{
		{`SELECT COUNT(*) FROM tasks WHERE completed = 0`, nil, &summary.OpenTasks},
		{`SELECT COUNT(*) FROM tasks WHERE completed = 1`, nil, &summary.CompletedTasks},
		{`SELECT COUNT(*) FROM habits`, nil, &summary.HabitsTracked},
		{`SELECT COUNT(*) FROM habit_completions WHERE day = ?`, []any{today}, &summary.HabitCompletionsToday},
		{`SELECT COUNT(*) FROM goals WHERE completed = 0`, nil, &summary.ActiveGoals},
		{`SELECT COUNT(*) FROM goals WHERE completed = 1`, nil, &summary.CompletedGoals},
		{`SELECT COUNT(*) FROM journal_entries`, nil, &summary.JournalEntries},
	}

	for _, c := range counts {
		if err := s.db.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	// Events in the coming week
	weekOut, err := addDays(today, 7)
	if err != nil {
		return nil, err
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM events WHERE day >= ? AND day <= ?`, today, weekOut).
		Scan(&summary.UpcomingEvents)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func addDays(day string, n int) (string, error) {
	t, err := time.Parse(DayFormat, day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayFormat), nil
}

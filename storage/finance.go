package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID          string
	Kind        string // "income" or "expense"
	AmountCents int64
	Category    string
	Note        string
	Day         string
}

type FinanceSummary struct {
	IncomeCents  int64
	ExpenseCents int64
	ByCategory   map[string]int64 // expenses only
}

func (s *Store) AddTransaction(kind string, amountCents int64, category, note, day string) (*Transaction, error) {
	if kind != "income" && kind != "expense" {
		return nil, fmt.Errorf("%w: kind must be income or expense", ErrValidation)
	}
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if _, err := time.Parse(DayFormat, day); err != nil {
		return nil, fmt.Errorf("%w: day must be YYYY-MM-DD", ErrValidation)
	}

	txn := &Transaction{
		ID:          uuid.New().String(),
		Kind:        kind,
		AmountCents: amountCents,
		Category:    category,
		Note:        note,
		Day:         day,
	}

	_, err := s.db.Exec(`
		INSERT INTO transactions (id, kind, amount_cents, category, note, day)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Kind, txn.AmountCents, txn.Category, txn.Note, txn.Day)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return txn, nil
}

func (s *Store) ListTransactions(fromDay, toDay string) ([]Transaction, error) {
	rows, err := s.db.Query(`
		SELECT id, kind, amount_cents, category, note, day
		FROM transactions
		WHERE day >= ? AND day <= ?
		ORDER BY day DESC`, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var txn Transaction
		err := rows.Scan(&txn.ID, &txn.Kind, &txn.AmountCents, &txn.Category, &txn.Note, &txn.Day)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func (s *Store) DeleteTransaction(id string) error {
	result, err := s.db.Exec(`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, id)
	}

	return nil
}

// SummarizeFinances totals income and expenses over a day range, with an
// expense breakdown by category.
func (s *Store) SummarizeFinances(fromDay, toDay string) (*FinanceSummary, error) {
	txns, err := s.ListTransactions(fromDay, toDay)
	if err != nil {
		return nil, err
	}

	summary := &FinanceSummary{ByCategory: make(map[string]int64)}
	for _, txn := range txns {
		if txn.Kind == "income" {
			summary.IncomeCents += txn.AmountCents
			continue
		}

		summary.ExpenseCents += txn.AmountCents
		category := txn.Category
		if category == "" {
			category = "uncategorized"
		}
		summary.ByCategory[category] += txn.AmountCents
	}

	return summary, nil
}

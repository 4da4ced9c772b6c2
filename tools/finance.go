package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/martinacantaro/aurora/storage"
)

// FinanceModule adapts income and expense tracking to the tool contract.
// Amounts cross the tool boundary as decimal currency units and are stored
// as integer cents.
type FinanceModule struct {
	store *storage.Store
}

func NewFinanceModule(store *storage.Store) *FinanceModule {
	return &FinanceModule{store: store}
}

func (m *FinanceModule) Name() string { return "finance" }

func (m *FinanceModule) Definitions() []Descriptor {
	return []Descriptor{
		{
			Name:        "list_transactions",
			Description: "List transactions in a day range (defaults to the last 30 days).",
			InputSchema: Schema{
				Properties: map[string]any{
					"from_day": map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
					"to_day":   map[string]any{"type": "string", "description": "YYYY-MM-DD, optional"},
				},
			},
			Kind: KindRead,
		},
		{
			Name:        "add_transaction",
			Description: "Record an income or expense transaction.",
			InputSchema: Schema{
				Properties: map[string]any{
					"kind":     map[string]any{"type": "string", "enum": []any{"income", "expense"}},
					"amount":   map[string]any{"type": "number", "description": "Amount in currency units, e.g. 12.50"},
					"category": map[string]any{"type": "string"},
					"note":     map[string]any{"type": "string"},
					"day":      map[string]any{"type": "string", "description": "YYYY-MM-DD, defaults to today"},
				},
				Required: []string{"kind", "amount"},
			},
			Kind: KindWrite,
		},
		{
			Name:        "delete_transaction",
			Description: "Permanently delete a transaction.",
			InputSchema: Schema{
				Properties: map[string]any{
					"transaction_id": map[string]any{"type": "string"},
				},
				Required: []string{"transaction_id"},
			},
			Kind: KindDestructive,
		},
	}
}

func (m *FinanceModule) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_transactions":
		fromDay, toDay := dayRange(args)
		txns, err := m.store.ListTransactions(fromDay, toDay)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, 0, len(txns))
		for _, txn := range txns {
			out = append(out, transactionMap(txn))
		}
		return out, nil

	case "add_transaction":
		kind, err := requiredStringArg(args, "kind")
		if err != nil {
			return nil, err
		}
		amountCents, err := amountCentsArg(args, "amount")
		if err != nil {
			return nil, err
		}
		txn, err := m.store.AddTransaction(kind, amountCents,
			stringArg(args, "category"), stringArg(args, "note"), dayArg(args, "day"))
		if err != nil {
			return nil, err
		}
		return transactionMap(*txn), nil

	case "delete_transaction":
		txnID, err := requiredStringArg(args, "transaction_id")
		if err != nil {
			return nil, err
		}
		if err := m.store.DeleteTransaction(txnID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": txnID}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

// dayRange reads from_day/to_day arguments, defaulting to the last 30 days.
func dayRange(args map[string]any) (string, string) {
	toDay := stringArg(args, "to_day")
	if toDay == "" {
		toDay = time.Now().Format(storage.DayFormat)
	}
	fromDay := stringArg(args, "from_day")
	if fromDay == "" {
		fromDay = time.Now().AddDate(0, 0, -30).Format(storage.DayFormat)
	}
	return fromDay, toDay
}

func transactionMap(txn storage.Transaction) map[string]any {
	out := map[string]any{
		"id":     txn.ID,
		"kind":   txn.Kind,
		"amount": float64(txn.AmountCents) / 100,
		"day":    txn.Day,
	}
	if txn.Category != "" {
		out["category"] = txn.Category
	}
	if txn.Note != "" {
		out["note"] = txn.Note
	}
	return out
}

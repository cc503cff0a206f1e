package amqp

import (
	"encoding/json"
	"time"

	"oraculo/internal/core"
)

// ExpenseExportMessage carries a committed ledger entry to the export
// worker. The full entry travels in the message so the worker does not
// need database access.
type ExpenseExportMessage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	ExpenseDate string    `json:"expense_date"`
	Status      string    `json:"status"`
	ExpenseType string    `json:"expense_type"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseExportMessage(e core.LedgerEntry) *ExpenseExportMessage {
	return &ExpenseExportMessage{
		ID:          e.ID,
		UserID:      e.UserID,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		ExpenseDate: e.ExpenseDate.Format("2006-01-02"),
		Status:      e.Status,
		ExpenseType: e.ExpenseType,
		Timestamp:   time.Now(),
	}
}

func (m *ExpenseExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseExportMessageFromJSON(data []byte) (*ExpenseExportMessage, error) {
	var msg ExpenseExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

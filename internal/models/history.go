package models

import "time"

// HistoryType classifies how a history entry came to be.
type HistoryType string

const (
	HistoryTypeIncome  HistoryType = "income"
	HistoryTypeExpense HistoryType = "expense"
	HistoryTypeManual  HistoryType = "manual"
)

// Valid reports whether t is one of the known history types.
func (t HistoryType) Valid() bool {
	switch t {
	case HistoryTypeIncome, HistoryTypeExpense, HistoryTypeManual:
		return true
	}
	return false
}

// HistoryEntry records one movement of the balance. TxnID is a weak
// back-reference to the transaction that caused the movement; it is
// nil for manual adjustments.
type HistoryEntry struct {
	ID       int64       `json:"id"`
	Type     HistoryType `json:"type"`
	Amount   Amount      `json:"amount"`
	DateTime time.Time   `json:"dateTime"`
	TxnID    *int64      `json:"txnId"`
	Note     string      `json:"note"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Amounts travel as bare JSON numbers, matching the payloads already
// persisted under the store keys. Unmarshalling accepts both forms.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Amount is a monetary value paired with its ISO 4217 currency code.
// Values are decimals rather than floats so that repeated summing
// never drifts.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// NewAmount builds an Amount from a float input value.
func NewAmount(value float64, currency string) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: currency}
}

// Necessity is advisory metadata on a transaction. It has no effect
// on any balance computation.
type Necessity struct {
	Level       int    `json:"level"`
	Description string `json:"description"`
}

// Transaction represents a single ledger entry. A transaction starts
// uncommitted (counted only in the potential balance) and becomes
// committed through the commit protocol, or abandoned, which removes
// it from the potential balance. Both transitions are terminal.
type Transaction struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	Income    bool      `json:"type"`
	Committed bool      `json:"status"`
	DateTime  time.Time `json:"dateTime"`
	Necessity Necessity `json:"necessity"`
	Amount    Amount    `json:"amount"`
	Abandoned bool      `json:"abandonment_status"`
}

// Signed returns the transaction's contribution to a balance:
// positive for income, negative for expense.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Income {
		return t.Amount.Value
	}
	return t.Amount.Value.Neg()
}

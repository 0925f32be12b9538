package models

import "github.com/shopspring/decimal"

// Balance is the running monetary total. It is a derived snapshot of
// the committed transaction set, kept in sync by the reconciler, and
// never authoritative on its own.
type Balance struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// ZeroBalance returns an empty balance in the given currency.
func ZeroBalance(currency string) Balance {
	return Balance{Value: decimal.Zero, Currency: currency}
}

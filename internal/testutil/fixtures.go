package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"pocketledger/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Amount builds a USD amount from a float value.
func Amount(value float64) models.Amount {
	return models.Amount{Value: decimal.NewFromFloat(value), Currency: "USD"}
}

// Transaction builds a transaction with a unique ID and category.
func Transaction(income, committed bool, value float64) models.Transaction {
	n := nextID()
	return models.Transaction{
		ID:        n,
		Category:  fmt.Sprintf("Category %d", n),
		Income:    income,
		Committed: committed,
		DateTime:  time.Now().UTC(),
		Amount:    Amount(value),
	}
}

// TransactionAt builds a transaction with an explicit ID and timestamp,
// for tests that care about ordering and tie-breaks.
func TransactionAt(id int64, committed bool, value float64, at time.Time) models.Transaction {
	return models.Transaction{
		ID:        id,
		Category:  fmt.Sprintf("Category %d", id),
		Income:    true,
		Committed: committed,
		DateTime:  at,
		Amount:    Amount(value),
	}
}

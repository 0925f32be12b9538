package ledger

import (
	"github.com/shopspring/decimal"

	"pocketledger/internal/models"
)

// TransactionStorer is the transaction store contract consumed by the
// HTTP layer.
type TransactionStorer interface {
	Add(draft TransactionDraft) (*models.Transaction, error)
	Update(id int64, fields UpdateFields)
	Abandon(id int64) error
	Delete(id int64)
	Clear()
	All() []models.Transaction
	Get(id int64) (models.Transaction, bool)
	ByType(income bool) []models.Transaction
	ByStatus(committed bool) []models.Transaction
	SpendingByCategory() map[string]decimal.Decimal
}

// BalanceStorer is the balance store contract consumed by the HTTP layer.
type BalanceStorer interface {
	Deposit(amount models.Amount, meta EntryMeta) models.HistoryEntry
	Withdraw(amount models.Amount, meta EntryMeta) models.HistoryEntry
	ApplyTransaction(txn *models.Transaction, commitOnly bool)
	ComputeFromTransactions(txns []models.Transaction, onlyCommitted bool) models.Balance
	Reset(keepCurrency bool)
	SetValue(value decimal.Decimal)
	Balance() models.Balance
	History() []models.HistoryEntry
	TotalIncome() decimal.Decimal
	TotalExpense() decimal.Decimal
	Net() decimal.Decimal
}

// Committer is the commit protocol contract consumed by the HTTP layer.
type Committer interface {
	RequestCommit(id int64) (string, error)
	ConfirmCommit(token string) (models.Balance, error)
	CancelCommit(token string) error
	Preview(id int64) (decimal.Decimal, error)
	Reconcile() models.Balance
}

var (
	_ TransactionStorer = (*TransactionStore)(nil)
	_ BalanceStorer     = (*BalanceStore)(nil)
	_ Committer         = (*Reconciler)(nil)
)

package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/logger"
	"pocketledger/internal/models"
	"pocketledger/internal/storage"
)

// BalanceStore owns the current balance and its derived history log.
// The balance is a snapshot of the committed transaction set; the
// authoritative way to change it is a full recompute, with deposit
// and withdraw as incremental primitives for manual adjustments.
type BalanceStore struct {
	mu              sync.Mutex
	store           storage.Store
	writer          *storage.Writer
	defaultCurrency string

	balance     models.Balance
	history     []models.HistoryEntry
	lastEntryID int64
}

// NewBalanceStore creates a zeroed store in the default currency.
func NewBalanceStore(store storage.Store, writer *storage.Writer, defaultCurrency string) *BalanceStore {
	return &BalanceStore{
		store:           store,
		writer:          writer,
		defaultCurrency: defaultCurrency,
		balance:         models.ZeroBalance(defaultCurrency),
	}
}

// Load reads the persisted balance and history. Missing keys keep the
// zero defaults; corrupt payloads are logged and skipped.
func (s *BalanceStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok, err := s.store.Get(ctx, storage.KeyBalance); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	} else if ok {
		var bal models.Balance
		if err := json.Unmarshal([]byte(raw), &bal); err != nil {
			logger.Get().Warnw("corrupt balance payload, keeping zero balance", "error", err)
		} else {
			s.balance = bal
		}
	}

	if raw, ok, err := s.store.Get(ctx, storage.KeyBalanceHistory); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	} else if ok {
		var history []models.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			logger.Get().Warnw("corrupt history payload, keeping empty history", "error", err)
		} else {
			s.history = history
			for i := range history {
				if history[i].ID > s.lastEntryID {
					s.lastEntryID = history[i].ID
				}
			}
		}
	}
	return nil
}

// EntryMeta carries the optional metadata for a deposit or withdraw.
type EntryMeta struct {
	Type     models.HistoryType
	TxnID    *int64
	DateTime time.Time
	Note     string
}

// Deposit adds the amount to the balance and appends exactly one
// history entry. Entry type defaults to income.
func (s *BalanceStore) Deposit(amount models.Amount, meta EntryMeta) models.HistoryEntry {
	return s.adjust(amount, meta, models.HistoryTypeIncome)
}

// Withdraw subtracts the amount from the balance and appends exactly
// one history entry. Entry type defaults to expense.
func (s *BalanceStore) Withdraw(amount models.Amount, meta EntryMeta) models.HistoryEntry {
	return s.adjust(amount, meta, models.HistoryTypeExpense)
}

func (s *BalanceStore) adjust(amount models.Amount, meta EntryMeta, fallback models.HistoryType) models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount.Currency == "" {
		amount.Currency = s.balance.Currency
	}
	if fallback == models.HistoryTypeExpense {
		s.balance.Value = s.balance.Value.Sub(amount.Value)
	} else {
		s.balance.Value = s.balance.Value.Add(amount.Value)
	}

	entryType := meta.Type
	if entryType == "" {
		entryType = fallback
	}
	when := meta.DateTime
	if when.IsZero() {
		when = time.Now().UTC()
	}
	entry := models.HistoryEntry{
		ID:       s.nextEntryID(),
		Type:     entryType,
		Amount:   amount,
		DateTime: when,
		TxnID:    meta.TxnID,
		Note:     meta.Note,
	}
	s.history = append(s.history, entry)
	s.persistBalanceLocked()
	s.persistHistoryLocked()
	return entry
}

// ApplyTransaction reflects a single transaction in the balance,
// delegating to Deposit or Withdraw by polarity and tagging the entry
// with the transaction ID. When commitOnly is set, uncommitted
// transactions are a no-op; this guards against applying an
// unconfirmed transaction.
func (s *BalanceStore) ApplyTransaction(txn *models.Transaction, commitOnly bool) {
	if txn == nil {
		return
	}
	if commitOnly && !txn.Committed {
		return
	}
	meta := EntryMeta{TxnID: &txn.ID, DateTime: txn.DateTime}
	if txn.Income {
		s.Deposit(txn.Amount, meta)
	} else {
		s.Withdraw(txn.Amount, meta)
	}
}

// ComputeFromTransactions is the authoritative full recompute: it
// filters the given set (to committed-only when requested), sums the
// signed amounts, and replaces both the balance and the entire
// history log as one snapshot. It is not additive; running it twice
// with the same input yields the same state. Currency is taken from
// the first filtered transaction, else retained.
func (s *BalanceStore) ComputeFromTransactions(txns []models.Transaction, onlyCommitted bool) models.Balance {
	filtered := txns
	if onlyCommitted {
		filtered = []models.Transaction{}
		for i := range txns {
			if txns[i].Committed {
				filtered = append(filtered, txns[i])
			}
		}
	}

	total := decimal.Zero
	for i := range filtered {
		total = total.Add(filtered[i].Signed())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	currency := s.balance.Currency
	if len(filtered) > 0 && filtered[0].Amount.Currency != "" {
		currency = filtered[0].Amount.Currency
	}

	history := make([]models.HistoryEntry, 0, len(filtered))
	for i := range filtered {
		t := &filtered[i]
		entryType := models.HistoryTypeExpense
		if t.Income {
			entryType = models.HistoryTypeIncome
		}
		id := t.ID
		history = append(history, models.HistoryEntry{
			ID:       t.ID,
			Type:     entryType,
			Amount:   t.Amount,
			DateTime: t.DateTime,
			TxnID:    &id,
		})
	}

	// Single in-memory swap: a reader never observes the new balance
	// with the old history or vice versa.
	s.balance = models.Balance{Value: total, Currency: currency}
	s.history = history
	s.persistBalanceLocked()
	s.persistHistoryLocked()
	return s.balance
}

// Reset clears the durable balance and history keys and zeroes the
// in-memory state, optionally retaining the current currency.
func (s *BalanceStore) Reset(keepCurrency bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	currency := s.defaultCurrency
	if keepCurrency {
		currency = s.balance.Currency
	}
	s.balance = models.ZeroBalance(currency)
	s.history = nil
	s.writer.Remove(storage.KeyBalance)
	s.writer.Remove(storage.KeyBalanceHistory)
}

// SetValue overrides the balance value directly. No history entry is
// appended; this is the manual override escape hatch, not a movement.
func (s *BalanceStore) SetValue(value decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balance.Value = value
	s.persistBalanceLocked()
}

// Balance returns the current balance snapshot.
func (s *BalanceStore) Balance() models.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// History returns a copy of the history log in append order.
func (s *BalanceStore) History() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// TotalIncome sums the income entries in the history log.
func (s *BalanceStore) TotalIncome() decimal.Decimal {
	return s.sumHistory(models.HistoryTypeIncome)
}

// TotalExpense sums the expense entries in the history log.
func (s *BalanceStore) TotalExpense() decimal.Decimal {
	return s.sumHistory(models.HistoryTypeExpense)
}

func (s *BalanceStore) sumHistory(entryType models.HistoryType) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for i := range s.history {
		if s.history[i].Type == entryType {
			total = total.Add(s.history[i].Amount.Value)
		}
	}
	return total
}

// Net returns the current balance value.
func (s *BalanceStore) Net() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance.Value
}

func (s *BalanceStore) nextEntryID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastEntryID {
		id = s.lastEntryID + 1
	}
	s.lastEntryID = id
	return id
}

func (s *BalanceStore) persistBalanceLocked() {
	raw, err := json.Marshal(s.balance)
	if err != nil {
		logger.Get().Errorw("failed to serialize balance", "error", err)
		return
	}
	s.writer.Set(storage.KeyBalance, string(raw))
}

func (s *BalanceStore) persistHistoryLocked() {
	raw, err := json.Marshal(s.history)
	if err != nil {
		logger.Get().Errorw("failed to serialize history", "error", err)
		return
	}
	s.writer.Set(storage.KeyBalanceHistory, string(raw))
}

// PotentialBalance is the signed sum over all non-abandoned
// transactions regardless of commit status. Pure function.
func PotentialBalance(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txns {
		if txns[i].Abandoned {
			continue
		}
		total = total.Add(txns[i].Signed())
	}
	return total
}

// ActualBalance is the signed sum over committed transactions. Pure
// function; the persisted balance must always equal this after
// reconciliation.
func ActualBalance(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txns {
		if txns[i].Committed {
			total = total.Add(txns[i].Signed())
		}
	}
	return total
}

// LastCommittedTransactionTime returns the dateTime of the
// most-recently-dated committed transaction, or nil if none exist.
// On equal timestamps the higher ID wins, which is deterministic
// because IDs are strictly monotonic.
func LastCommittedTransactionTime(txns []models.Transaction) *time.Time {
	var best *models.Transaction
	for i := range txns {
		t := &txns[i]
		if !t.Committed {
			continue
		}
		if best == nil || t.DateTime.After(best.DateTime) ||
			(t.DateTime.Equal(best.DateTime) && t.ID > best.ID) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	when := best.DateTime
	return &when
}

// Package ledger implements the transaction ledger and balance
// reconciliation engine: an ordered transaction collection, a derived
// balance with its history log, and the commit protocol keeping the
// two in agreement.
package ledger

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/logger"
	"pocketledger/internal/models"
	"pocketledger/internal/storage"
)

// TransactionStore owns the canonical ordered collection of
// transactions. Every mutation re-serializes the full collection to
// the durable store through the async writer.
type TransactionStore struct {
	mu              sync.Mutex
	store           storage.Store
	writer          *storage.Writer
	defaultCurrency string

	txns   []models.Transaction
	lastID int64
}

// NewTransactionStore creates an empty store over the given durable
// store and writer. Call Load to hydrate it from a prior session.
func NewTransactionStore(store storage.Store, writer *storage.Writer, defaultCurrency string) *TransactionStore {
	return &TransactionStore{
		store:           store,
		writer:          writer,
		defaultCurrency: defaultCurrency,
	}
}

// Load reads the persisted collection. A missing key yields an empty
// collection; a corrupt payload is logged and treated as missing so
// the session stays usable.
func (s *TransactionStore) Load(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, storage.KeyTransactions)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok {
		return nil
	}

	var txns []models.Transaction
	if err := json.Unmarshal([]byte(raw), &txns); err != nil {
		logger.Get().Warnw("corrupt transactions payload, starting empty", "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = txns
	for i := range txns {
		if txns[i].ID > s.lastID {
			s.lastID = txns[i].ID
		}
	}
	return nil
}

// TransactionDraft carries the caller-supplied fields for a new
// transaction. Nil fields take their defaults: income polarity,
// uncommitted, current time, zero necessity.
type TransactionDraft struct {
	Category  string
	Income    *bool
	Committed *bool
	DateTime  *time.Time
	Necessity *models.Necessity
	Amount    models.Amount
}

// Add validates the draft, assigns an ID, applies defaults, appends
// the record and persists the collection. Validation failures leave
// the store untouched.
func (s *TransactionStore) Add(draft TransactionDraft) (*models.Transaction, error) {
	if strings.TrimSpace(draft.Category) == "" {
		return nil, apperrors.ErrEmptyCategory
	}
	if !draft.Amount.Value.IsPositive() {
		return nil, apperrors.ErrNonPositiveAmount
	}

	txn := models.Transaction{
		Category:  draft.Category,
		Income:    true,
		Committed: false,
		DateTime:  time.Now().UTC(),
		Amount:    draft.Amount,
	}
	if draft.Income != nil {
		txn.Income = *draft.Income
	}
	if draft.Committed != nil {
		txn.Committed = *draft.Committed
	}
	if draft.DateTime != nil {
		txn.DateTime = *draft.DateTime
	}
	if draft.Necessity != nil {
		txn.Necessity = *draft.Necessity
	}
	if txn.Amount.Currency == "" {
		txn.Amount.Currency = s.defaultCurrency
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	txn.ID = s.nextID()
	s.txns = append(s.txns, txn)
	s.persistLocked()
	return &txn, nil
}

// nextID assigns creation-time milliseconds, bumped past the previous
// ID when two creations land in the same millisecond. Caller holds mu.
func (s *TransactionStore) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// SetStatus flips the commit flag on the matching record. Unknown IDs
// are silently ignored. Balance reconciliation is the Reconciler's
// job, not this method's.
func (s *TransactionStore) SetStatus(id int64, committed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID == id {
			s.txns[i].Committed = committed
			s.persistLocked()
			return
		}
	}
}

// UpdateFields holds the optional fields for a partial update. The
// caller is responsible for keeping the record valid; Update does not
// re-run creation validation.
type UpdateFields struct {
	Category  *string
	Income    *bool
	DateTime  *time.Time
	Necessity *models.Necessity
	Amount    *models.Amount
}

// Update merges the given fields into the matching record. Unknown
// IDs are silently ignored.
func (s *TransactionStore) Update(id int64, fields UpdateFields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID != id {
			continue
		}
		if fields.Category != nil {
			s.txns[i].Category = *fields.Category
		}
		if fields.Income != nil {
			s.txns[i].Income = *fields.Income
		}
		if fields.DateTime != nil {
			s.txns[i].DateTime = *fields.DateTime
		}
		if fields.Necessity != nil {
			s.txns[i].Necessity = *fields.Necessity
		}
		if fields.Amount != nil {
			s.txns[i].Amount = *fields.Amount
		}
		s.persistLocked()
		return
	}
}

// Abandon marks an uncommitted transaction abandoned, dropping it out
// of the potential balance. Committed transactions cannot be
// abandoned; their contribution is already part of the actual
// balance. Unknown IDs are silently ignored.
func (s *TransactionStore) Abandon(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID != id {
			continue
		}
		if s.txns[i].Committed {
			return apperrors.ErrAlreadyCommitted
		}
		s.txns[i].Abandoned = true
		s.persistLocked()
		return nil
	}
	return nil
}

// Delete removes the matching record. Unknown IDs are silently ignored.
func (s *TransactionStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID == id {
			s.txns = append(s.txns[:i], s.txns[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

// Clear empties the collection and removes the durable key entirely,
// rather than writing an empty array.
func (s *TransactionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txns = nil
	s.writer.Remove(storage.KeyTransactions)
}

// All returns a copy of the current collection in insertion order.
func (s *TransactionStore) All() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// Get returns the transaction with the given ID.
func (s *TransactionStore) Get(id int64) (models.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].ID == id {
			return s.txns[i], true
		}
	}
	return models.Transaction{}, false
}

// ByType returns the transactions with the given polarity.
func (s *TransactionStore) ByType(income bool) []models.Transaction {
	return s.filter(func(t *models.Transaction) bool { return t.Income == income })
}

// ByStatus returns the transactions with the given commit status.
func (s *TransactionStore) ByStatus(committed bool) []models.Transaction {
	return s.filter(func(t *models.Transaction) bool { return t.Committed == committed })
}

func (s *TransactionStore) filter(keep func(*models.Transaction) bool) []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Transaction{}
	for i := range s.txns {
		if keep(&s.txns[i]) {
			out = append(out, s.txns[i])
		}
	}
	return out
}

// SpendingByCategory sums expense amounts per category over the
// current collection, committed transactions only.
func (s *TransactionStore) SpendingByCategory() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]decimal.Decimal{}
	for i := range s.txns {
		t := &s.txns[i]
		if t.Income || !t.Committed || t.Abandoned {
			continue
		}
		out[t.Category] = out[t.Category].Add(t.Amount.Value)
	}
	return out
}

// persistLocked serializes the full collection and hands it to the
// async writer. Caller holds mu.
func (s *TransactionStore) persistLocked() {
	raw, err := json.Marshal(s.txns)
	if err != nil {
		logger.Get().Errorw("failed to serialize transactions", "error", err)
		return
	}
	s.writer.Set(storage.KeyTransactions, string(raw))
}

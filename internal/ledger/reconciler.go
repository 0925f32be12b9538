package ledger

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/models"
)

// Reconciler drives the commit protocol: it turns a user confirmation
// into a status flip on the transaction store plus an authoritative
// balance recompute, as one externally atomic step. Commit requests
// are two-phase so the confirmation can be presented, confirmed, or
// cancelled without embedding any dialog in store logic.
type Reconciler struct {
	mu      sync.Mutex
	txns    *TransactionStore
	balance *BalanceStore

	// pending maps single-use confirmation tokens to transaction IDs.
	// Tokens live in memory only; a restart aborts every pending commit.
	pending map[string]int64
}

// NewReconciler binds the reconciler to both stores.
func NewReconciler(txns *TransactionStore, balance *BalanceStore) *Reconciler {
	return &Reconciler{
		txns:    txns,
		balance: balance,
		pending: make(map[string]int64),
	}
}

// RequestCommit starts a commit for the given transaction and returns
// a confirmation token. Committing an already-committed transaction
// is rejected up front, which keeps the confirm step idempotent.
func (r *Reconciler) RequestCommit(id int64) (string, error) {
	txn, ok := r.txns.Get(id)
	if !ok {
		return "", apperrors.ErrTransactionNotFound
	}
	if txn.Abandoned {
		return "", apperrors.ErrTransactionAbandoned
	}
	if txn.Committed {
		return "", apperrors.ErrAlreadyCommitted
	}

	token := uuid.NewString()
	r.mu.Lock()
	r.pending[token] = id
	r.mu.Unlock()
	return token, nil
}

// ConfirmCommit consumes the token, flips the transaction to
// committed and runs the authoritative recompute over the full
// collection. Afterward the balance equals the signed sum of the
// committed set, regardless of any prior drift. A transaction that
// was already committed by the time the token is confirmed leaves the
// balance unchanged.
//
// The status flip and the recompute hold the reconciler lock but take
// the two store locks in turn, so a concurrent read pair can briefly
// observe the new status alongside the pre-commit balance. The
// recompute overwrites that balance before ConfirmCommit returns;
// readers needing the pair atomically should read the balance from
// this method's return value.
func (r *Reconciler) ConfirmCommit(token string) (models.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.pending[token]
	if !ok {
		return models.Balance{}, apperrors.ErrPendingCommitNotFound
	}
	delete(r.pending, token)

	txn, found := r.txns.Get(id)
	if !found {
		// Deleted between request and confirm: reconcile what remains.
		return r.balance.ComputeFromTransactions(r.txns.All(), true), nil
	}
	if !txn.Committed {
		r.txns.SetStatus(id, true)
	}
	return r.balance.ComputeFromTransactions(r.txns.All(), true), nil
}

// CancelCommit discards the token without mutating anything.
func (r *Reconciler) CancelCommit(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pending[token]; !ok {
		return apperrors.ErrPendingCommitNotFound
	}
	delete(r.pending, token)
	return nil
}

// Preview returns the balance value as it would read once the given
// transaction is committed. This is the optimistic display hint: it
// never mutates or persists anything and is always overwritten by the
// authoritative recompute on confirm.
func (r *Reconciler) Preview(id int64) (decimal.Decimal, error) {
	txn, ok := r.txns.Get(id)
	if !ok {
		return decimal.Zero, apperrors.ErrTransactionNotFound
	}
	current := r.balance.Balance().Value
	if txn.Committed {
		return current, nil
	}
	return current.Add(txn.Signed()), nil
}

// Reconcile re-derives the balance from the current committed set.
// Safe to run at any time; it is the self-healing path for drift.
func (r *Reconciler) Reconcile() models.Balance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance.ComputeFromTransactions(r.txns.All(), true)
}

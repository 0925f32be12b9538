package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
)

// --- mock balance store ---

type mockBalanceStore struct {
	depositFn                 func(amount models.Amount, meta ledger.EntryMeta) models.HistoryEntry
	withdrawFn                func(amount models.Amount, meta ledger.EntryMeta) models.HistoryEntry
	applyTransactionFn        func(txn *models.Transaction, commitOnly bool)
	computeFromTransactionsFn func(txns []models.Transaction, onlyCommitted bool) models.Balance
	resetFn                   func(keepCurrency bool)
	setValueFn                func(value decimal.Decimal)
	balanceFn                 func() models.Balance
	historyFn                 func() []models.HistoryEntry
	totalIncomeFn             func() decimal.Decimal
	totalExpenseFn            func() decimal.Decimal
	netFn                     func() decimal.Decimal
}

func (m *mockBalanceStore) Deposit(amount models.Amount, meta ledger.EntryMeta) models.HistoryEntry {
	if m.depositFn != nil {
		return m.depositFn(amount, meta)
	}
	return models.HistoryEntry{}
}

func (m *mockBalanceStore) Withdraw(amount models.Amount, meta ledger.EntryMeta) models.HistoryEntry {
	if m.withdrawFn != nil {
		return m.withdrawFn(amount, meta)
	}
	return models.HistoryEntry{}
}

func (m *mockBalanceStore) ApplyTransaction(txn *models.Transaction, commitOnly bool) {
	if m.applyTransactionFn != nil {
		m.applyTransactionFn(txn, commitOnly)
	}
}

func (m *mockBalanceStore) ComputeFromTransactions(txns []models.Transaction, onlyCommitted bool) models.Balance {
	if m.computeFromTransactionsFn != nil {
		return m.computeFromTransactionsFn(txns, onlyCommitted)
	}
	return models.Balance{}
}

func (m *mockBalanceStore) Reset(keepCurrency bool) {
	if m.resetFn != nil {
		m.resetFn(keepCurrency)
	}
}

func (m *mockBalanceStore) SetValue(value decimal.Decimal) {
	if m.setValueFn != nil {
		m.setValueFn(value)
	}
}

func (m *mockBalanceStore) Balance() models.Balance {
	if m.balanceFn != nil {
		return m.balanceFn()
	}
	return models.ZeroBalance("USD")
}

func (m *mockBalanceStore) History() []models.HistoryEntry {
	if m.historyFn != nil {
		return m.historyFn()
	}
	return []models.HistoryEntry{}
}

func (m *mockBalanceStore) TotalIncome() decimal.Decimal {
	if m.totalIncomeFn != nil {
		return m.totalIncomeFn()
	}
	return decimal.Zero
}

func (m *mockBalanceStore) TotalExpense() decimal.Decimal {
	if m.totalExpenseFn != nil {
		return m.totalExpenseFn()
	}
	return decimal.Zero
}

func (m *mockBalanceStore) Net() decimal.Decimal {
	if m.netFn != nil {
		return m.netFn()
	}
	return decimal.Zero
}

var _ ledger.BalanceStorer = (*mockBalanceStore)(nil)

func setupBalanceRouter(handler *BalanceHandler) *gin.Engine {
	r := gin.New()
	r.GET("/balance", handler.GetBalance)
	r.GET("/balance/potential", handler.GetPotentialBalance)
	r.GET("/balance/history", handler.GetHistory)
	r.GET("/balance/last-committed-time", handler.GetLastCommittedTime)
	r.GET("/balance/summary", handler.GetSummary)
	r.POST("/balance/deposit", handler.Deposit)
	r.POST("/balance/withdraw", handler.Withdraw)
	r.POST("/balance/recompute", handler.Recompute)
	r.POST("/balance/reset", handler.Reset)
	return r
}

// --- tests ---

func TestBalanceHandler_GetBalance(t *testing.T) {
	balance := &mockBalanceStore{
		balanceFn: func() models.Balance {
			return models.Balance{Value: decimal.NewFromInt(100), Currency: "USD"}
		},
	}
	handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
	r := setupBalanceRouter(handler)

	rec := doRequest(r, "GET", "/balance", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	bal, ok := result["balance"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected balance object, got: %v", result)
	}
	if bal["value"] != float64(100) {
		t.Errorf("expected value 100, got %v", bal["value"])
	}
	if bal["currency"] != "USD" {
		t.Errorf("expected USD, got %v", bal["currency"])
	}
}

func TestBalanceHandler_GetPotentialBalance(t *testing.T) {
	txn := sampleTransaction(1)
	abandoned := sampleTransaction(2)
	abandoned.Abandoned = true
	txns := &mockTransactionStore{
		allFn: func() []models.Transaction {
			return []models.Transaction{txn, abandoned}
		},
	}
	handler := NewBalanceHandler(&mockBalanceStore{}, txns, &mockCommitter{})
	r := setupBalanceRouter(handler)

	rec := doRequest(r, "GET", "/balance/potential", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["potential"] != float64(100) {
		t.Errorf("expected potential 100 excluding the abandoned transaction, got %v", result["potential"])
	}
}

func TestBalanceHandler_GetHistory(t *testing.T) {
	entries := make([]models.HistoryEntry, 25)
	for i := range entries {
		entries[i] = models.HistoryEntry{ID: int64(i + 1), Type: models.HistoryTypeIncome}
	}
	balance := &mockBalanceStore{
		historyFn: func() []models.HistoryEntry { return entries },
	}
	handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
	r := setupBalanceRouter(handler)

	rec := doRequest(r, "GET", "/balance/history?page=2&page_size=10", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	data, ok := result["data"].([]interface{})
	if !ok || len(data) != 10 {
		t.Fatalf("expected 10 entries on page 2, got: %v", result["data"])
	}
	first, _ := data[0].(map[string]interface{})
	if first["id"] != float64(11) {
		t.Errorf("expected page 2 to start at entry 11, got %v", first["id"])
	}
}

func TestBalanceHandler_GetLastCommittedTime(t *testing.T) {
	t.Run("returns null when nothing committed", func(t *testing.T) {
		handler := NewBalanceHandler(&mockBalanceStore{}, &mockTransactionStore{}, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "GET", "/balance/last-committed-time", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["last_committed_time"] != nil {
			t.Errorf("expected null, got %v", result["last_committed_time"])
		}
	})

	t.Run("returns latest committed dateTime", func(t *testing.T) {
		when := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		txn := sampleTransaction(1)
		txn.Committed = true
		txn.DateTime = when
		txns := &mockTransactionStore{
			allFn: func() []models.Transaction { return []models.Transaction{txn} },
		}
		handler := NewBalanceHandler(&mockBalanceStore{}, txns, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "GET", "/balance/last-committed-time", "")

		result := parseJSON(t, rec)
		if result["last_committed_time"] != "2025-03-01T12:00:00Z" {
			t.Errorf("expected 2025-03-01T12:00:00Z, got %v", result["last_committed_time"])
		}
	})
}

func TestBalanceHandler_GetSummary(t *testing.T) {
	balance := &mockBalanceStore{
		totalIncomeFn:  func() decimal.Decimal { return decimal.NewFromInt(150) },
		totalExpenseFn: func() decimal.Decimal { return decimal.NewFromInt(30) },
		netFn:          func() decimal.Decimal { return decimal.NewFromInt(120) },
	}
	handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
	r := setupBalanceRouter(handler)

	rec := doRequest(r, "GET", "/balance/summary", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	if result["total_income"] != float64(150) || result["total_expense"] != float64(30) || result["net"] != float64(120) {
		t.Errorf("unexpected summary: %v", result)
	}
}

func TestBalanceHandler_Deposit(t *testing.T) {
	t.Run("returns 200 with balance and entry", func(t *testing.T) {
		var gotMeta ledger.EntryMeta
		balance := &mockBalanceStore{
			depositFn: func(amount models.Amount, meta ledger.EntryMeta) models.HistoryEntry {
				gotMeta = meta
				return models.HistoryEntry{ID: 1, Type: models.HistoryTypeIncome, Amount: amount}
			},
		}
		handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "POST", "/balance/deposit",
			`{"amount":{"value":50,"currency":"USD"},"note":"gift"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMeta.Note != "gift" {
			t.Errorf("expected note passed through, got %q", gotMeta.Note)
		}
		result := parseJSON(t, rec)
		if _, ok := result["entry"].(map[string]interface{}); !ok {
			t.Errorf("expected entry object, got: %v", result)
		}
	})

	t.Run("returns 400 on missing amount", func(t *testing.T) {
		handler := NewBalanceHandler(&mockBalanceStore{}, &mockTransactionStore{}, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "POST", "/balance/deposit", `{"note":"oops"}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid history type", func(t *testing.T) {
		handler := NewBalanceHandler(&mockBalanceStore{}, &mockTransactionStore{}, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "POST", "/balance/deposit",
			`{"amount":{"value":50},"type":"bogus"}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestBalanceHandler_Withdraw(t *testing.T) {
	withdrawn := false
	balance := &mockBalanceStore{
		withdrawFn: func(amount models.Amount, meta ledger.EntryMeta) models.HistoryEntry {
			withdrawn = true
			return models.HistoryEntry{ID: 1, Type: models.HistoryTypeExpense, Amount: amount}
		},
	}
	handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
	r := setupBalanceRouter(handler)

	rec := doRequest(r, "POST", "/balance/withdraw", `{"amount":{"value":20}}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !withdrawn {
		t.Error("expected Withdraw called")
	}
}

func TestBalanceHandler_Recompute(t *testing.T) {
	commits := &mockCommitter{
		reconcileFn: func() models.Balance {
			return models.Balance{Value: decimal.NewFromInt(80), Currency: "USD"}
		},
	}
	handler := NewBalanceHandler(&mockBalanceStore{}, &mockTransactionStore{}, commits)
	r := setupBalanceRouter(handler)

	rec := doRequest(r, "POST", "/balance/recompute", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	result := parseJSON(t, rec)
	bal, ok := result["balance"].(map[string]interface{})
	if !ok || bal["value"] != float64(80) {
		t.Errorf("expected recomputed balance 80, got: %v", result)
	}
}

func TestBalanceHandler_Reset(t *testing.T) {
	t.Run("defaults to keeping currency", func(t *testing.T) {
		var gotKeep *bool
		balance := &mockBalanceStore{
			resetFn: func(keepCurrency bool) { gotKeep = &keepCurrency },
		}
		handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "POST", "/balance/reset", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if gotKeep == nil || !*gotKeep {
			t.Error("expected Reset(true) when no body given")
		}
	})

	t.Run("honors keep_currency false", func(t *testing.T) {
		var gotKeep *bool
		balance := &mockBalanceStore{
			resetFn: func(keepCurrency bool) { gotKeep = &keepCurrency },
		}
		handler := NewBalanceHandler(balance, &mockTransactionStore{}, &mockCommitter{})
		r := setupBalanceRouter(handler)

		rec := doRequest(r, "POST", "/balance/reset", `{"keep_currency":false}`)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if gotKeep == nil || *gotKeep {
			t.Error("expected Reset(false)")
		}
	})
}

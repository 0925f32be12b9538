package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
)

// BalanceHandler handles balance and history requests.
type BalanceHandler struct {
	balance ledger.BalanceStorer
	txns    ledger.TransactionStorer
	commits ledger.Committer
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balance ledger.BalanceStorer, txns ledger.TransactionStorer, commits ledger.Committer) *BalanceHandler {
	return &BalanceHandler{balance: balance, txns: txns, commits: commits}
}

// GetBalance returns the current balance snapshot.
// @Summary     Get balance
// @Tags        balance
// @Produce     json
// @Success     200 {object} models.Balance
// @Router      /balance [get]
func (h *BalanceHandler) GetBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": h.balance.Balance()})
}

// GetPotentialBalance returns the signed sum over all non-abandoned
// transactions regardless of commit status.
// @Summary     Get potential balance
// @Tags        balance
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /balance/potential [get]
func (h *BalanceHandler) GetPotentialBalance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"potential": ledger.PotentialBalance(h.txns.All())})
}

// GetHistory returns the paginated history log.
// @Summary     Get balance history
// @Tags        balance
// @Produce     json
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.HistoryEntry]
// @Router      /balance/history [get]
func (h *BalanceHandler) GetHistory(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	c.JSON(http.StatusOK, pagination.Slice(h.balance.History(), page))
}

// GetLastCommittedTime returns the dateTime of the most recent
// committed transaction, or null when none exist.
// @Summary     Get last committed transaction time
// @Tags        balance
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /balance/last-committed-time [get]
func (h *BalanceHandler) GetLastCommittedTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"last_committed_time": ledger.LastCommittedTransactionTime(h.txns.All())})
}

// GetSummary returns total income, total expense and net over the
// history log.
// @Summary     Get balance summary
// @Tags        balance
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /balance/summary [get]
func (h *BalanceHandler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"total_income":  h.balance.TotalIncome(),
		"total_expense": h.balance.TotalExpense(),
		"net":           h.balance.Net(),
	})
}

// AdjustmentRequest is the payload for a manual deposit or withdrawal.
type AdjustmentRequest struct {
	Amount   AmountRequest `json:"amount" binding:"required"`
	Type     string        `json:"type" binding:"omitempty,history_type"`
	Note     string        `json:"note" binding:"max=500"`
	DateTime *string       `json:"dateTime"`
}

func (h *BalanceHandler) adjust(c *gin.Context, withdraw bool) {
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	meta := ledger.EntryMeta{Type: models.HistoryType(req.Type), Note: req.Note}
	if req.DateTime != nil && *req.DateTime != "" {
		parsed, parseErr := parseFlexibleTime(*req.DateTime)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		meta.DateTime = parsed
	}

	amount := models.NewAmount(req.Amount.Value, req.Amount.Currency)
	var entry models.HistoryEntry
	if withdraw {
		entry = h.balance.Withdraw(amount, meta)
	} else {
		entry = h.balance.Deposit(amount, meta)
	}
	c.JSON(http.StatusOK, gin.H{"balance": h.balance.Balance(), "entry": entry})
}

// Deposit applies a manual deposit.
// @Summary     Deposit
// @Tags        balance
// @Accept      json
// @Produce     json
// @Param       request body AdjustmentRequest true "Adjustment details"
// @Success     200 {object} models.Balance
// @Failure     400 {object} errors.AppError "Invalid input"
// @Router      /balance/deposit [post]
func (h *BalanceHandler) Deposit(c *gin.Context) {
	h.adjust(c, false)
}

// Withdraw applies a manual withdrawal.
// @Summary     Withdraw
// @Tags        balance
// @Accept      json
// @Produce     json
// @Param       request body AdjustmentRequest true "Adjustment details"
// @Success     200 {object} models.Balance
// @Failure     400 {object} errors.AppError "Invalid input"
// @Router      /balance/withdraw [post]
func (h *BalanceHandler) Withdraw(c *gin.Context) {
	h.adjust(c, true)
}

// Recompute re-derives the balance from the committed transaction set.
// @Summary     Recompute balance
// @Tags        balance
// @Produce     json
// @Success     200 {object} models.Balance
// @Router      /balance/recompute [post]
func (h *BalanceHandler) Recompute(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": h.commits.Reconcile()})
}

// ResetRequest is the payload for a balance reset.
type ResetRequest struct {
	KeepCurrency bool `json:"keep_currency"`
}

// Reset clears the durable balance and history and zeroes the
// in-memory state.
// @Summary     Reset balance
// @Tags        balance
// @Accept      json
// @Param       request body ResetRequest false "Reset options"
// @Success     204 "Reset"
// @Router      /balance/reset [post]
func (h *BalanceHandler) Reset(c *gin.Context) {
	req := ResetRequest{KeepCurrency: true}
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}
	h.balance.Reset(req.KeepCurrency)
	c.Status(http.StatusNoContent)
}

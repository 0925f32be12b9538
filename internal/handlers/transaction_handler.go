package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pocketledger/internal/errors"
	"pocketledger/internal/ledger"
	"pocketledger/internal/models"
	"pocketledger/internal/pagination"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	txns    ledger.TransactionStorer
	commits ledger.Committer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(txns ledger.TransactionStorer, commits ledger.Committer) *TransactionHandler {
	return &TransactionHandler{txns: txns, commits: commits}
}

// AmountRequest mirrors the amount object on the wire.
type AmountRequest struct {
	Value    float64 `json:"value" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"omitempty,iso4217"`
}

// NecessityRequest mirrors the necessity object on the wire.
type NecessityRequest struct {
	Level       int    `json:"level" binding:"gte=0,lte=5"`
	Description string `json:"description" binding:"max=500"`
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	Category  string            `json:"category" binding:"required"`
	Income    *bool             `json:"type"`
	Committed *bool             `json:"status"`
	DateTime  *string           `json:"dateTime"`
	Necessity *NecessityRequest `json:"necessity"`
	Amount    AmountRequest     `json:"amount" binding:"required"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new uncommitted transaction in the ledger
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} errors.AppError "Invalid input"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	draft := ledger.TransactionDraft{
		Category:  req.Category,
		Income:    req.Income,
		Committed: req.Committed,
		Amount:    models.NewAmount(req.Amount.Value, req.Amount.Currency),
	}
	if req.DateTime != nil && *req.DateTime != "" {
		parsed, parseErr := parseFlexibleTime(*req.DateTime)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		draft.DateTime = &parsed
	}
	if req.Necessity != nil {
		draft.Necessity = &models.Necessity{Level: req.Necessity.Level, Description: req.Necessity.Description}
	}

	txn, err := h.txns.Add(draft)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// ListTransactions handles the retrieval of the transaction collection
// @Summary     List transactions
// @Description Get a paginated list of transactions with an optional polarity/status filter
// @Tags        transactions
// @Produce     json
// @Param       filter query string false "income, expense, committed or uncommitted"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Transaction]
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var txns []models.Transaction
	switch c.Query("filter") {
	case "":
		txns = h.txns.All()
	case "income":
		txns = h.txns.ByType(true)
	case "expense":
		txns = h.txns.ByType(false)
	case "committed":
		txns = h.txns.ByStatus(true)
	case "uncommitted":
		txns = h.txns.ByStatus(false)
	default:
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid filter"))
		return
	}

	c.JSON(http.StatusOK, pagination.Slice(txns, page))
}

// GetTransactionByID handles the retrieval of a single transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} errors.AppError "Not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, ok := h.txns.Get(id)
	if !ok {
		respondWithError(c, apperrors.ErrTransactionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UpdateTransactionRequest represents a partial update payload. Fields
// left out are untouched.
type UpdateTransactionRequest struct {
	Category  *string           `json:"category"`
	Income    *bool             `json:"type"`
	DateTime  *string           `json:"dateTime"`
	Necessity *NecessityRequest `json:"necessity"`
	Amount    *AmountRequest    `json:"amount"`
}

// UpdateTransaction merges partial fields into a transaction
// @Summary     Update a transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} errors.AppError "Not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if _, ok := h.txns.Get(id); !ok {
		respondWithError(c, apperrors.ErrTransactionNotFound)
		return
	}

	fields := ledger.UpdateFields{
		Category: req.Category,
		Income:   req.Income,
	}
	if req.DateTime != nil && *req.DateTime != "" {
		parsed, parseErr := parseFlexibleTime(*req.DateTime)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		fields.DateTime = &parsed
	}
	if req.Necessity != nil {
		fields.Necessity = &models.Necessity{Level: req.Necessity.Level, Description: req.Necessity.Description}
	}
	if req.Amount != nil {
		amount := models.NewAmount(req.Amount.Value, req.Amount.Currency)
		fields.Amount = &amount
	}

	h.txns.Update(id, fields)
	txn, _ := h.txns.Get(id)
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction removes a transaction. Deleting an unknown ID is a
// no-op at the store level, so the response is 204 either way. Removing
// a committed record changes the committed sum, so the balance is
// recomputed to keep it derivable from the collection.
// @Summary     Delete a transaction
// @Tags        transactions
// @Param       id path int true "Transaction ID"
// @Success     204 "Deleted"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, existed := h.txns.Get(id)
	h.txns.Delete(id)
	if existed && txn.Committed {
		h.commits.Reconcile()
	}
	c.Status(http.StatusNoContent)
}

// ClearTransactions empties the collection and purges the durable key,
// then recomputes the balance over the now-empty set so a reload never
// sees transactions gone but a pre-clear balance surviving.
// @Summary     Clear all transactions
// @Tags        transactions
// @Success     204 "Cleared"
// @Router      /transactions [delete]
func (h *TransactionHandler) ClearTransactions(c *gin.Context) {
	h.txns.Clear()
	h.commits.Reconcile()
	c.Status(http.StatusNoContent)
}

// AbandonTransaction marks an uncommitted transaction abandoned.
// @Summary     Abandon a transaction
// @Tags        transactions
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} models.Transaction
// @Failure     404 {object} errors.AppError "Not found"
// @Failure     409 {object} errors.AppError "Already committed"
// @Router      /transactions/{id}/abandon [post]
func (h *TransactionHandler) AbandonTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, ok := h.txns.Get(id); !ok {
		respondWithError(c, apperrors.ErrTransactionNotFound)
		return
	}
	if err := h.txns.Abandon(id); err != nil {
		respondWithError(c, err)
		return
	}

	txn, _ := h.txns.Get(id)
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// SpendingByCategory sums committed expense amounts per category.
// @Summary     Spending by category
// @Tags        transactions
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /transactions/spending [get]
func (h *TransactionHandler) SpendingByCategory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"spending": h.txns.SpendingByCategory()})
}

// RequestCommit starts the two-phase commit for a transaction and
// returns a confirmation token plus the optimistic balance preview.
// Requesting a commit for an already-committed transaction is a
// no-op: the response carries the unchanged balance and no token.
// @Summary     Request a commit
// @Tags        commits
// @Produce     json
// @Param       id path int true "Transaction ID"
// @Success     200 {object} map[string]string "token and preview"
// @Failure     404 {object} errors.AppError "Not found"
// @Failure     409 {object} errors.AppError "Abandoned"
// @Router      /transactions/{id}/commit [post]
func (h *TransactionHandler) RequestCommit(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.commits.RequestCommit(id)
	if errors.Is(err, apperrors.ErrAlreadyCommitted) {
		preview, _ := h.commits.Preview(id)
		c.JSON(http.StatusOK, gin.H{"already_committed": true, "preview": preview})
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	preview, err := h.commits.Preview(id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "preview": preview})
}

// ConfirmCommit applies a pending commit: flips the status and runs
// the authoritative recompute.
// @Summary     Confirm a commit
// @Tags        commits
// @Produce     json
// @Param       token path string true "Confirmation token"
// @Success     200 {object} models.Balance
// @Failure     404 {object} errors.AppError "Unknown token"
// @Router      /commits/{token}/confirm [post]
func (h *TransactionHandler) ConfirmCommit(c *gin.Context) {
	balance, err := h.commits.ConfirmCommit(c.Param("token"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// CancelCommit aborts a pending commit without mutating anything.
// @Summary     Cancel a commit
// @Tags        commits
// @Param       token path string true "Confirmation token"
// @Success     204 "Cancelled"
// @Failure     404 {object} errors.AppError "Unknown token"
// @Router      /commits/{token}/cancel [post]
func (h *TransactionHandler) CancelCommit(c *gin.Context) {
	if err := h.commits.CancelCommit(c.Param("token")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

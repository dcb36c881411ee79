package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/config"
	"github.com/ahburgess22/expense-tracker/internal/domain/expense"
	"github.com/ahburgess22/expense-tracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ExpenseStore interface {
	Create(ctx context.Context, e expense.Expense) (expense.Expense, error)
	ListByOwner(ctx context.Context, ownerID string) ([]expense.Expense, error)
	GetForOwner(ctx context.Context, ownerID, id string) (expense.Expense, error)
	UpdateAmount(ctx context.Context, ownerID, id string, amount float64) (float64, error)
	Delete(ctx context.Context, id string) error
}

type ExpensesHandler struct {
	repo ExpenseStore
}

func NewExpensesHandler(repo ExpenseStore) *ExpensesHandler {
	return &ExpensesHandler{repo: repo}
}

func (h *ExpensesHandler) AddExpense(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	var req expense.CreateExpenseRequest

	if !BindJSON(ctx, &req, "Missing required fields.") {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, expense.NewFromCreateRequest(ownerID, req))

	if err != nil {
		RespondInternal(ctx, "Error adding expense")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Expense added successfully.",
		"id":      created.ID,
	})
}

func (h *ExpensesHandler) ListExpenses(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	expenses, err := h.repo.ListByOwner(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, "Error fetching expenses")
		return
	}

	// an empty ledger is reported as not-found, not as an empty success
	if len(expenses) == 0 {
		RespondNotFound(ctx, "No expenses found for this user.")
		return
	}

	ctx.JSON(http.StatusOK, expenses)
}

func (h *ExpensesHandler) GetExpense(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	id, ok := expenseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	e, err := h.repo.GetForOwner(cctx, ownerID, id)

	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			RespondNotFound(ctx, "Access denied or expense not found.")
			return
		}

		RespondInternal(ctx, "Error fetching expense")
		return
	}

	ctx.JSON(http.StatusOK, e)
}

func (h *ExpensesHandler) UpdateExpense(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	id, ok := expenseID(ctx)

	if !ok {
		return
	}

	var req expense.UpdateExpenseRequest

	// a non-numeric amount fails the bind with a type error
	if !BindJSON(ctx, &req, "Invalid input: amount must be a positive number.") {
		return
	}

	if req.Amount == nil || *req.Amount <= 0 {
		RespondBadRequest(ctx, "Invalid input: amount must be a positive number.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	updated, err := h.repo.UpdateAmount(cctx, ownerID, id, *req.Amount)

	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			RespondNotFound(ctx, "Access denied or expense not found.")
			return
		}

		RespondInternal(ctx, "Error updating expense")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":        "Expense updated!",
		"updated_amount": updated,
	})
}

func (h *ExpensesHandler) DeleteExpense(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	id, ok := expenseID(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	// ownership check first; a miss here is a 404 either way
	_, err := h.repo.GetForOwner(cctx, ownerID, id)

	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			RespondNotFound(ctx, "Access denied or expense not found.")
			return
		}

		RespondInternal(ctx, "Error deleting expense")
		return
	}

	err = h.repo.Delete(cctx, id)

	if err != nil {
		// ownership passed but nothing was deleted: a concurrent delete won
		RespondInternal(ctx, "Failed to delete expense. Please try again.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Expense deleted.",
	})
}

// expenseID validates the path id before any query is issued.
func expenseID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid expense ID", nil)
		return "", false
	}

	return id, true
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/config"
	"github.com/ahburgess22/expense-tracker/internal/domain/budget"
	"github.com/ahburgess22/expense-tracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type BudgetStore interface {
	Upsert(ctx context.Context, ownerID string, amount float64) (budget.Budget, bool, error)
	GetByOwner(ctx context.Context, ownerID string) (budget.Budget, error)
}

type ExpenseSummer interface {
	SumByOwner(ctx context.Context, ownerID string) (float64, error)
}

type BudgetHandler struct {
	budgets  BudgetStore
	expenses ExpenseSummer
}

func NewBudgetHandler(budgets BudgetStore, expenses ExpenseSummer) *BudgetHandler {
	return &BudgetHandler{
		budgets:  budgets,
		expenses: expenses,
	}
}

func (h *BudgetHandler) UpsertBudget(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	var req budget.UpsertBudgetRequest

	if !BindJSON(ctx, &req, "Invalid input: amount must be a positive number.") {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, created, err := h.budgets.Upsert(cctx, ownerID, req.Amount)

	if err != nil {
		RespondInternal(ctx, "Error saving budget")
		return
	}

	status := http.StatusOK
	message := "Budget updated successfully!"

	if created {
		status = http.StatusCreated
		message = "Budget created successfully!"
	}

	ctx.JSON(status, gin.H{
		"message": message,
		"amount":  b.Amount,
		"created": created,
	})
}

// GetBudget returns the target amount alongside the spend derived from the
// expense ledger: budget first, then the aggregate, two sequential queries.
func (h *BudgetHandler) GetBudget(ctx *gin.Context) {
	ownerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "Missing caller identity")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	b, err := h.budgets.GetByOwner(cctx, ownerID)

	if err != nil {
		if errors.Is(err, budget.ErrNotFound) {
			RespondNotFound(ctx, "No budget found for this user. Set a budget.")
			return
		}

		RespondInternal(ctx, "Error fetching budget")
		return
	}

	spent, err := h.expenses.SumByOwner(cctx, ownerID)

	if err != nil {
		RespondInternal(ctx, "Error fetching budget")
		return
	}

	ctx.JSON(http.StatusOK, budget.NewView(b, spent))
}

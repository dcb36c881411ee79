package budget

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Budget struct {
	ID        string
	OwnerID   string
	Amount    float64
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

var ErrNotFound = errors.New("budget not found")

type UpsertBudgetRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// View is the read shape: current_spent is derived from the expense ledger on
// every read, never stored. Timestamps are strings so legacy rows without
// them can fall back to "N/A".
type View struct {
	BudgetID     string  `json:"budget_id"`
	Amount       float64 `json:"amount"`
	CurrentSpent float64 `json:"current_spent"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

func NewView(b Budget, currentSpent float64) View {
	return View{
		BudgetID:     b.ID,
		Amount:       b.Amount,
		CurrentSpent: currentSpent,
		CreatedAt:    formatTime(b.CreatedAt),
		UpdatedAt:    formatTime(b.UpdatedAt),
	}
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "N/A"
	}

	return t.UTC().Format(time.RFC3339)
}

func New(ownerID string, amount float64) Budget {
	now := time.Now().UTC()

	return Budget{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Amount:    amount,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
}

package expense

import (
	"time"

	"github.com/google/uuid"
)

func NewFromCreateRequest(ownerID string, req CreateExpenseRequest) Expense {
	return Expense{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        time.Now().UTC(),
	}
}

package expense

import (
	"errors"
	"time"
)

type Expense struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// Both "no such expense" and "belongs to someone else" collapse to this error
// so responses never reveal whether another owner's record exists.
var ErrNotFound = errors.New("expense not found")

type CreateExpenseRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description" binding:"required"`
}

// Amount is a pointer so a missing field and a zero amount are told apart;
// the handler enforces positivity to keep the response message stable.
type UpdateExpenseRequest struct {
	Amount *float64 `json:"amount"`
}

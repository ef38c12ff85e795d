package invoice

import (
	"errors"
	"time"
)

const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
	StatusOverdue   = "overdue"
)

var (
	ErrNotFound    = errors.New("invoice not found")
	ErrAlreadyPaid = errors.New("invoice already paid")
)

// Invoice maps to the invoices table. Each invoice belongs to exactly one
// owner; the status transition to paid happens only through the conditional
// write in MarkPaid.
type Invoice struct {
	ID      int64     `db:"id" json:"id"`
	OwnerID string    `db:"owner_id" json:"owner_id"`
	Amount  float64   `db:"amount" json:"amount"`
	DueDate time.Time `db:"due_date" json:"due_date"`
	Status  string    `db:"status" json:"status"`
}

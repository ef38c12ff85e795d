package invoice

import "context"

// Repository is the invoices persistence contract. Every implementation
// passes caller-supplied values exclusively as bound parameters.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Invoice, error)
	// OwnerID resolves the owning identity of an invoice; found is false
	// (with no error) when the invoice does not exist.
	OwnerID(ctx context.Context, id int64) (ownerID string, found bool, err error)
	// ListByOwner returns the owner's invoices, optionally narrowed by a
	// validated status filter. Ownership scoping is unconditional.
	ListByOwner(ctx context.Context, ownerID string, filter *StatusFilter, limit, offset int) ([]*Invoice, int, error)
	// MarkPaid transitions the invoice to paid in a single conditional
	// write scoped by both invoice id and owner id. It reports false when
	// no row matched (missing, foreign, or already paid).
	MarkPaid(ctx context.Context, id int64, ownerID string) (bool, error)
}

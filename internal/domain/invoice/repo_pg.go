package invoice

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const invoiceCols = `id, owner_id, amount, due_date, status`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Amount, &inv.DueDate, &inv.Status)
	return &inv, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, nil
}

func (r *repoPG) OwnerID(ctx context.Context, id int64) (string, bool, error) {
	var ownerID string
	err := r.pool.QueryRow(ctx,
		`SELECT owner_id FROM invoices WHERE id = $1`, id).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve invoice owner %d: %w", id, err)
	}
	return ownerID, true, nil
}

func (r *repoPG) ListByOwner(ctx context.Context, ownerID string, filter *StatusFilter, limit, offset int) ([]*Invoice, int, error) {
	where := `owner_id = $1`
	args := []interface{}{ownerID}
	if filter != nil {
		clause, filterArgs := filter.SQL(len(args) + 1)
		where += ` AND ` + clause
		args = append(args, filterArgs...)
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+invoiceCols+` FROM invoices WHERE `+where+` ORDER BY due_date, id LIMIT $%d OFFSET $%d`,
		len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var items []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		items = append(items, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate invoices: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) MarkPaid(ctx context.Context, id int64, ownerID string) (bool, error) {
	// Single atomic conditional write: the owner predicate is an
	// independent safety net beyond the authorization gate, and the status
	// predicate serializes concurrent payment attempts on the row.
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $1 WHERE id = $2 AND owner_id = $3 AND status <> $1`,
		StatusPaid, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("mark invoice %d paid: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

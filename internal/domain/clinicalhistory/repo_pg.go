package clinicalhistory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const entryCols = `id, patient_id, title, notes, recorded_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientID, &e.Title, &e.Notes, &e.RecordedAt)
	return &e, err
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx,
		`SELECT `+entryCols+` FROM clinical_histories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get clinical history %d: %w", id, err)
	}
	return e, nil
}

func (r *repoPG) PatientID(ctx context.Context, id int64) (string, bool, error) {
	var patientID string
	err := r.pool.QueryRow(ctx,
		`SELECT patient_id FROM clinical_histories WHERE id = $1`, id).Scan(&patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve clinical history owner %d: %w", id, err)
	}
	return patientID, true, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_histories WHERE patient_id = $1`,
		patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count clinical histories: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+entryCols+` FROM clinical_histories WHERE patient_id = $1 ORDER BY recorded_at DESC, id LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list clinical histories: %w", err)
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan clinical history: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate clinical histories: %w", err)
	}
	return items, total, nil
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO clinical_histories (patient_id, title, notes, recorded_at)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		e.PatientID, e.Title, e.Notes, e.RecordedAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("create clinical history: %w", err)
	}
	return nil
}

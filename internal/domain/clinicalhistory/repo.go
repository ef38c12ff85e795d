package clinicalhistory

import "context"

// Repository is the clinical history persistence contract. Caller-supplied
// values travel exclusively as bound parameters.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Entry, error)
	// PatientID resolves the owning patient of an entry; found is false
	// (with no error) when the entry does not exist.
	PatientID(ctx context.Context, id int64) (patientID string, found bool, err error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Entry, int, error)
	Create(ctx context.Context, e *Entry) error
}

package clinicalhistory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrInvalidEntry = errors.New("invalid clinical history entry")

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ResolveOwner implements the owner lookup for the authorization gate.
func (s *Service) ResolveOwner(ctx context.Context, id int64) (string, bool, error) {
	return s.repo.PatientID(ctx, id)
}

func (s *Service) List(ctx context.Context, patientID string, limit, offset int) ([]*Entry, int, error) {
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

// Create records a new entry for the given patient. The patient id always
// comes from the authenticated caller, never from the request body.
func (s *Service) Create(ctx context.Context, patientID, title, notes string, recordedAt time.Time) (*Entry, error) {
	title = strings.TrimSpace(title)
	if patientID == "" || title == "" {
		return nil, ErrInvalidEntry
	}
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	e := &Entry{
		PatientID:  patientID,
		Title:      title,
		Notes:      notes,
		RecordedAt: recordedAt,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("entry_id", e.ID).
		Str("patient_id", patientID).
		Msg("clinical history entry recorded")
	return e, nil
}

package clinicalhistory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	entries   map[int64]*Entry
	nextID    int64
	createErr error
}

func newMockRepo(entries ...*Entry) *mockRepo {
	m := &mockRepo{entries: make(map[int64]*Entry), nextID: 100}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepo) PatientID(ctx context.Context, id int64) (string, bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return "", false, nil
	}
	return e.PatientID, true, nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Entry, int, error) {
	var out []*Entry
	for _, e := range m.entries {
		if e.PatientID == patientID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Create(ctx context.Context, e *Entry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	e.ID = m.nextID
	cp := *e
	m.entries[e.ID] = &cp
	return nil
}

func testEntry(id int64, patient string) *Entry {
	return &Entry{
		ID:         id,
		PatientID:  patient,
		Title:      "Consultation",
		Notes:      "routine check",
		RecordedAt: time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestService_List_ScopedToPatient(t *testing.T) {
	repo := newMockRepo(testEntry(1, "p1"), testEntry(2, "p1"), testEntry(3, "p2"))
	svc := NewService(repo, zerolog.Nop())

	entries, total, err := svc.List(context.Background(), "p1", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 entries, got %d", total)
	}
	for _, e := range entries {
		if e.PatientID != "p1" {
			t.Errorf("foreign entry leaked: %+v", e)
		}
	}
}

func TestService_Create(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	e, err := svc.Create(context.Background(), "p1", "  Consultation  ", "notes", time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("entry id not assigned")
	}
	if e.Title != "Consultation" {
		t.Fatalf("title not trimmed: %q", e.Title)
	}
	if e.RecordedAt.IsZero() {
		t.Fatal("recorded_at not defaulted")
	}
}

func TestService_Create_RequiresTitle(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	if _, err := svc.Create(context.Background(), "p1", "   ", "", time.Time{}); !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("got %v, want ErrInvalidEntry", err)
	}
}

func TestService_ResolveOwner(t *testing.T) {
	repo := newMockRepo(testEntry(1, "p1"))
	svc := NewService(repo, zerolog.Nop())

	owner, found, err := svc.ResolveOwner(context.Background(), 1)
	if err != nil || !found || owner != "p1" {
		t.Fatalf("got (%q, %v, %v)", owner, found, err)
	}
	_, found, err = svc.ResolveOwner(context.Background(), 42)
	if err != nil || found {
		t.Fatalf("missing entry reported as found: (%v, %v)", found, err)
	}
}

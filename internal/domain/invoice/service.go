package invoice

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/clinrec/billing/internal/platform/auth"
	"github.com/clinrec/billing/internal/platform/payments"
)

// PaymentGateway dispatches a card payment for a brand on the allow-list.
type PaymentGateway interface {
	Dispatch(ctx context.Context, brand string, card payments.Card) error
}

// ReceiptSource reads a receipt PDF by validated file name.
type ReceiptSource interface {
	Read(invoiceID int64, fileName string) ([]byte, error)
}

type Service struct {
	repo     Repository
	gateway  PaymentGateway
	receipts ReceiptSource
	logger   zerolog.Logger
}

func NewService(repo Repository, gateway PaymentGateway, receipts ReceiptSource, logger zerolog.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, receipts: receipts, logger: logger}
}

// ResolveOwner implements the owner lookup for the authorization gate.
func (s *Service) ResolveOwner(ctx context.Context, id int64) (string, bool, error) {
	return s.repo.OwnerID(ctx, id)
}

// List returns the owner's invoices, narrowed by the status/operator pair
// when given. Invalid operators fail with ErrInvalidOperator before any
// query is issued.
func (s *Service) List(ctx context.Context, ownerID, status, operator string, limit, offset int) ([]*Invoice, int, error) {
	filter, err := NewStatusFilter(status, operator)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListByOwner(ctx, ownerID, filter, limit, offset)
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetByID(ctx, id)
}

// Pay charges the card against the provider mapped to brand and, only on a
// confirmed success, marks the invoice paid with a conditional write scoped
// by invoice id and owner id. Card data is wiped before this function
// returns regardless of outcome.
func (s *Service) Pay(ctx context.Context, id int64, ident *auth.Identity, brand string, card payments.Card) error {
	defer card.Wipe()

	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if inv.Status == StatusPaid {
		return ErrAlreadyPaid
	}

	if err := s.gateway.Dispatch(ctx, brand, card); err != nil {
		return err
	}

	// Scope the write by the requesting user, so a row only transitions
	// when it still belongs to the caller. Admins act on the invoice's
	// actual owner.
	owner := ident.ID
	if ident.IsAdmin() {
		owner = inv.OwnerID
	}
	updated, err := s.repo.MarkPaid(ctx, id, owner)
	if err != nil {
		return fmt.Errorf("payment confirmed but status update failed: %w", err)
	}
	if !updated {
		// A concurrent attempt won the conditional write, or the owner
		// predicate did not match. Either way this request must not report
		// a fresh transition.
		s.logger.Warn().
			Int64("invoice_id", id).
			Msg("payment confirmed but no invoice row transitioned")
		return ErrAlreadyPaid
	}

	s.logger.Info().
		Int64("invoice_id", id).
		Str("brand", brand).
		Msg("invoice paid")
	return nil
}

// Receipt confirms the invoice exists and returns the raw PDF bytes for the
// requested file name. The receipt store validates the name before any
// filesystem access and confines the path to the receipts root.
func (s *Service) Receipt(ctx context.Context, id int64, fileName string) ([]byte, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.receipts.Read(id, fileName)
}

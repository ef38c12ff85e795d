// Package payments dispatches card payments to external providers selected
// from a fixed brand allow-list.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrUnsupportedBrand = errors.New("unsupported payment brand")
	ErrMissingDetails   = errors.New("missing payment details")
	ErrPaymentFailed    = errors.New("payment failed")
)

// Card carries card data for a single dispatch. Instances are transient:
// callers wipe them as soon as the dispatch call returns.
type Card struct {
	Number         string
	CVV            string
	ExpirationDate string
}

// Complete reports whether all card fields are present.
func (c *Card) Complete() bool {
	return c.Number != "" && c.CVV != "" && c.ExpirationDate != ""
}

// Wipe clears the card fields. Success or failure, dispatch paths call this
// so card data does not outlive the provider call.
func (c *Card) Wipe() {
	c.Number, c.CVV, c.ExpirationDate = "", "", ""
}

// MaskCardNumber returns the at-most-last-4 form permitted in logs.
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return "****"
	}
	return "****" + number[len(number)-4:]
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the default provider HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) { d.client = client }
}

// Dispatcher forwards card payments to the provider mapped to each brand.
// The brand → endpoint map is copied at construction and read-only afterwards.
type Dispatcher struct {
	endpoints map[string]string
	client    *http.Client
	logger    zerolog.Logger
}

func NewDispatcher(endpoints map[string]string, logger zerolog.Logger, opts ...Option) *Dispatcher {
	copied := make(map[string]string, len(endpoints))
	for brand, endpoint := range endpoints {
		copied[strings.ToLower(brand)] = endpoint
	}
	d := &Dispatcher{
		endpoints: copied,
		client:    &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Supported reports whether the brand is in the allow-list.
func (d *Dispatcher) Supported(brand string) bool {
	_, ok := d.endpoints[strings.ToLower(brand)]
	return ok
}

type providerRequest struct {
	CCNumber       string `json:"ccNumber"`
	CCV            string `json:"ccv"`
	ExpirationDate string `json:"expirationDate"`
}

// Dispatch validates the brand and card fields, then POSTs the card data to
// the provider mapped to the brand. Success is strictly HTTP 200; anything
// else, including transport errors, is ErrPaymentFailed with no retry.
// Provider response bodies go to internal logs only and never surface in the
// returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, brand string, card Card) error {
	defer card.Wipe()

	endpoint, ok := d.endpoints[strings.ToLower(brand)]
	if !ok {
		return ErrUnsupportedBrand
	}
	if !card.Complete() {
		return ErrMissingDetails
	}

	payload, err := json.Marshal(providerRequest{
		CCNumber:       card.Number,
		CCV:            card.CVV,
		ExpirationDate: card.ExpirationDate,
	})
	if err != nil {
		return ErrPaymentFailed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/payments", bytes.NewReader(payload))
	if err != nil {
		return ErrPaymentFailed
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error().
			Str("brand", brand).
			Str("card", MaskCardNumber(card.Number)).
			Err(err).
			Msg("payment provider unreachable")
		return ErrPaymentFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read at most 1KB of response body for internal diagnostics.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		d.logger.Error().
			Str("brand", brand).
			Str("card", MaskCardNumber(card.Number)).
			Int("status", resp.StatusCode).
			Str("provider_response", string(body)).
			Msg("payment provider rejected payment")
		return ErrPaymentFailed
	}

	return nil
}

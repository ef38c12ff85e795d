package account

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinrec/billing/internal/platform/auth"
	"github.com/clinrec/billing/internal/platform/notification"
)

const (
	inviteTokenTTL = 7 * 24 * time.Hour
	resetTokenTTL  = time.Hour
	minPasswordLen = 8
)

type Service struct {
	repo        Repository
	issuer      *auth.Issuer
	sender      notification.EmailSender
	templates   *notification.TemplateEngine
	frontendURL string
	logger      zerolog.Logger
}

func NewService(repo Repository, issuer *auth.Issuer, sender notification.EmailSender,
	templates *notification.TemplateEngine, frontendURL string, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		issuer:      issuer,
		sender:      sender,
		templates:   templates,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

// newToken returns a 32-byte random token in hex.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Register creates an inactive account and emails an activation link. The
// account cannot log in until the invite token is redeemed.
func (s *Service) Register(ctx context.Context, username, email, firstName, lastName, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return nil, ErrInvalidCredentials
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(inviteTokenTTL)

	u := &User{
		ID:                 uuid.New().String(),
		Username:           username,
		Email:              email,
		FirstName:          strings.TrimSpace(firstName),
		LastName:           strings.TrimSpace(lastName),
		PasswordHash:       string(hash),
		Role:               "user",
		Activated:          false,
		InviteToken:        &token,
		InviteTokenExpires: &expires,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	subject, body, err := s.templates.Render("account-invite", map[string]string{
		"first_name":      u.FirstName,
		"last_name":       u.LastName,
		"activation_link": s.frontendURL + "/activate?token=" + token,
	})
	if err != nil {
		return nil, fmt.Errorf("render invite email: %w", err)
	}
	if err := s.sender.SendEmail(ctx, u.Email, subject, body); err != nil {
		// The account exists; delivery can be retried out of band.
		s.logger.Error().Err(err).Str("user_id", u.ID).Msg("invite email delivery failed")
	}

	s.logger.Info().Str("user_id", u.ID).Msg("account registered")
	return u, nil
}

// Authenticate verifies the credentials and returns a signed session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !u.Activated {
		return "", nil, ErrNotActivated
	}

	token, err := s.issuer.Issue(u.ID, u.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// ProfileUpdate carries the fields a user may change on their own account.
// Empty fields keep the stored value; a non-empty Password is rehashed.
type ProfileUpdate struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// UpdateProfile applies the update to the caller's own account. Role,
// activation state, and tokens are never touchable through this path.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(upd.Username); v != "" {
		u.Username = v
	}
	if v := strings.ToLower(strings.TrimSpace(upd.Email)); v != "" {
		u.Email = v
	}
	if v := strings.TrimSpace(upd.FirstName); v != "" {
		u.FirstName = v
	}
	if v := strings.TrimSpace(upd.LastName); v != "" {
		u.LastName = v
	}
	if upd.Password != "" {
		if len(upd.Password) < minPasswordLen {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID).Msg("account updated")
	return u, nil
}

// Activate redeems an invite token, enabling login. Tokens are single-use.
func (s *Service) Activate(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	u, err := s.repo.GetByInviteToken(ctx, token)
	if err != nil {
		return ErrInvalidToken
	}
	if u.InviteTokenExpires == nil || time.Now().After(*u.InviteTokenExpires) {
		return ErrInvalidToken
	}

	u.Activated = true
	u.InviteToken = nil
	u.InviteTokenExpires = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", u.ID).Msg("account activated")
	return nil
}

// RequestPasswordReset issues a reset token and emails the reset link. An
// unknown email is reported as success so the endpoint cannot be used to
// probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info().Msg("password reset requested for unknown email")
		return nil
	}

	token, err := newToken()
	if err != nil {
		return err
	}
	expires := time.Now().Add(resetTokenTTL)
	u.ResetToken = &token
	u.ResetTokenExpires = &expires
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	subject, body, err := s.templates.Render("password-reset", map[string]string{
		"reset_link": s.frontendURL + "/reset-password?token=" + token,
	})
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	if err := s.sender.SendEmail(ctx, u.Email, subject, body); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	s.logger.Info().Str("user_id", u.ID).Msg("password reset requested")
	return nil
}

// ConfirmPasswordReset redeems a reset token and installs the new password.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidToken
	}
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}

	u, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return ErrInvalidToken
	}
	if u.ResetTokenExpires == nil || time.Now().After(*u.ResetTokenExpires) {
		return ErrInvalidToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.ResetToken = nil
	u.ResetTokenExpires = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	s.logger.Info().Str("user_id", u.ID).Msg("password reset completed")
	return nil
}

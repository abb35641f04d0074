package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/studiocoach/course-api/internal/domain"
	"github.com/studiocoach/course-api/internal/infrastructure/smtp"
	"github.com/studiocoach/course-api/internal/pkg/id"
)

const (
	otpTTL         = 10 * time.Minute
	resendCooldown = 60 * time.Second
	maxAttempts    = 3
)

// Specific credential failures. Handlers map these to user-facing messages;
// all of them collapse to 400 on the wire so callers can't tell which
// sub-case applied beyond what the message says.
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrMalformedCode   = errors.New("malformed verification code")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

var (
	emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codeRx  = regexp.MustCompile(`^\d{6}$`)
)

// AllowedUserStore is the slice of the allow-list repo this service needs.
type AllowedUserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.AllowedUser, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// OtpStore is the slice of the OTP repo this service needs.
type OtpStore interface {
	Put(ctx context.Context, c *domain.OtpCode) error
	CreatedSince(ctx context.Context, email string, since time.Time) (bool, error)
	ListByEmail(ctx context.Context, email string) ([]domain.OtpCode, error)
	FindActive(ctx context.Context, email, code string) (*domain.OtpCode, error)
	Update(ctx context.Context, codeID string, updates map[string]interface{}) error
	Delete(ctx context.Context, codeID string) error
}

// TokenSigner issues session tokens at successful verification.
type TokenSigner interface {
	Sign(userID, email, name string) (string, error)
}

// RequestCodeResult is the issuance outcome. Email is empty when the response
// is the enumeration-masking generic message.
type RequestCodeResult struct {
	Message string
	Email   string
}

// VerifyResult is a successful verification: the user payload and a session
// token for subsequent progress calls.
type VerifyResult struct {
	User  domain.SafeUser
	Token string
}

type Service interface {
	RequestCode(ctx context.Context, email string) (*RequestCodeResult, error)
	VerifyCode(ctx context.Context, email, code string) (*VerifyResult, error)
}

type ServiceDeps struct {
	UserRepo AllowedUserStore
	OtpRepo  OtpStore
	Mailer   smtp.Mailer
	Signer   TokenSigner // nil skips token issuance; the server always wires one
	BaseURL  string
}

type service struct {
	users   AllowedUserStore
	otps    OtpStore
	mailer  smtp.Mailer
	signer  TokenSigner
	baseURL string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:   deps.UserRepo,
		otps:    deps.OtpRepo,
		mailer:  deps.Mailer,
		signer:  deps.Signer,
		baseURL: deps.BaseURL,
	}
}

// RequestCode implements OTP issuance. An email that isn't on the allow-list
// (or is inactive) gets the same generic result as a legitimate one, with no
// code created and no email sent, to resist account enumeration.
func (s *service) RequestCode(ctx context.Context, email string) (*RequestCodeResult, error) {
	if !emailRx.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	email = strings.ToLower(email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("allow-list lookup: %w", domain.ErrDependency)
	}
	if u == nil || !u.Active {
		slog.Info("otp request denied for unauthorized email", "email", email)
		return &RequestCodeResult{Message: maskedIssueMessage}, nil
	}

	recent, err := s.otps.CreatedSince(ctx, email, time.Now().Add(-resendCooldown))
	if err != nil {
		return nil, fmt.Errorf("otp cooldown check: %w", domain.ErrDependency)
	}
	if recent {
		return nil, domain.ErrRateLimited
	}

	s.sweepStale(ctx, email)

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", domain.ErrDependency)
	}
	now := time.Now().UTC()
	row := &domain.OtpCode{
		CodeID:    id.New(),
		Email:     email,
		Code:      code,
		Used:      false,
		Attempts:  0,
		ExpiresAt: now.Add(otpTTL).Unix(),
		CreatedAt: now,
	}
	if err := s.otps.Put(ctx, row); err != nil {
		return nil, fmt.Errorf("persist otp: %w", domain.ErrDependency)
	}

	// A dispatch failure does not roll the row back: it is unguessable,
	// unusable past its expiry, and swept by future housekeeping passes.
	if err := s.mailer.SendEmail(email, otpSubject, otpBody(code)); err != nil {
		slog.Error("otp email dispatch failed", "email", email, "err", err)
		return nil, fmt.Errorf("send otp email: %w", domain.ErrDependency)
	}

	slog.Info("otp sent", "email", email)
	return &RequestCodeResult{Message: sentIssueMessage, Email: email}, nil
}

// VerifyCode implements OTP verification. The allow-list is re-checked here
// because membership may change between issuance and verification.
func (s *service) VerifyCode(ctx context.Context, email, code string) (*VerifyResult, error) {
	if !emailRx.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if !codeRx.MatchString(code) {
		return nil, ErrMalformedCode
	}
	email = strings.ToLower(email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("allow-list lookup: %w", domain.ErrDependency)
	}
	if u == nil || !u.Active {
		slog.Info("verification denied for unauthorized email", "email", email)
		return nil, domain.ErrForbidden
	}

	// A wrong code matches no row, so it lands here without touching any
	// stored attempt counter. Matched rows count every verification.
	row, err := s.otps.FindActive(ctx, email, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("otp lookup: %w", domain.ErrDependency)
	}

	now := time.Now()
	if row.Expired(now) {
		s.burn(ctx, row.CodeID, row.Attempts)
		return nil, ErrCodeExpired
	}
	if row.Attempts >= maxAttempts {
		s.burn(ctx, row.CodeID, row.Attempts)
		return nil, ErrTooManyAttempts
	}

	usedAt := now.UTC()
	if err := s.otps.Update(ctx, row.CodeID, map[string]interface{}{
		fieldUsed:     true,
		fieldUsedAt:   usedAt,
		fieldAttempts: row.Attempts + 1,
	}); err != nil {
		return nil, fmt.Errorf("mark otp used: %w", domain.ErrDependency)
	}

	firstLogin := u.LastLogin == nil
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{fieldLastLogin: usedAt}); err != nil {
		slog.Warn("failed to update last login", "email", email, "err", err)
	}

	if firstLogin {
		if err := s.mailer.SendEmail(email, welcomeSubject, welcomeBody(u.Name, s.baseURL)); err != nil {
			slog.Warn("welcome email failed", "email", email, "err", err)
		}
	}

	var token string
	if s.signer != nil {
		token, err = s.signer.Sign(u.UserID, email, u.Name)
		if err != nil {
			return nil, fmt.Errorf("sign session token: %w", domain.ErrDependency)
		}
	}

	slog.Info("successful login", "email", email)
	return &VerifyResult{
		User:  domain.SafeUser{ID: u.UserID, Email: email, Name: u.Name},
		Token: token,
	}, nil
}

// sweepStale deletes rows for email that are already used or expired.
// Best-effort: a failed delete never blocks issuing a fresh code.
func (s *service) sweepStale(ctx context.Context, email string) {
	rows, err := s.otps.ListByEmail(ctx, email)
	if err != nil {
		slog.Warn("otp housekeeping query failed", "email", email, "err", err)
		return
	}
	now := time.Now()
	for i := range rows {
		row := &rows[i]
		if !row.Used && !row.Expired(now) {
			continue
		}
		if err := s.otps.Delete(ctx, row.CodeID); err != nil {
			slog.Warn("otp housekeeping delete failed", "code_id", row.CodeID, "err", err)
		}
	}
}

// burn permanently invalidates a code outside the success path. It must run
// before the caller returns, so a retried verification against the same row
// deterministically fails again.
func (s *service) burn(ctx context.Context, codeID string, attempts int) {
	if err := s.otps.Update(ctx, codeID, map[string]interface{}{
		fieldUsed:     true,
		fieldAttempts: attempts + 1,
	}); err != nil {
		slog.Warn("failed to burn otp code", "code_id", codeID, "err", err)
	}
}

// generateCode returns a uniform random 6-digit code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

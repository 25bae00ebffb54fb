package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/spendwise/spendwise/internal/config"
	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/observability"
	"github.com/spendwise/spendwise/internal/repository"
	"github.com/spendwise/spendwise/internal/security"

	mailer "github.com/spendwise/spendwise/internal/mail"
)

var (
	ErrPasswordsDoNotMatch   = errors.New("passwords do not match")
	ErrEmailInUse            = errors.New("Email is already in use")
	ErrUsernameTaken         = errors.New("username already taken")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountNotVerified    = errors.New("please verify your email")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrAlreadyVerified       = errors.New("account already verified")
	ErrWeakPassword          = errors.New("password must be at least 8 characters")
)

// ValidationError carries a user-correctable input failure that has no
// dedicated sentinel. The HTTP layer maps it to a 400; anything else
// unrecognised is treated as a server fault.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func NewValidationError(msg string) error { return &ValidationError{msg: msg} }

type LoginResult struct {
	User        *domain.User `json:"-"`
	Message     string       `json:"message"`
	UserID      uint         `json:"user_id"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// AccountService owns the account lifecycle: registration, email
// verification, login, password reset and verification resend. Link
// tokens are stateless; the issuer binds them to the account's current
// credential state, so any successful login, activation or password
// change invalidates everything issued before it.
type AccountService struct {
	cfg        *config.Config
	users      repository.UserRepository
	linkTokens *security.LinkTokenIssuer
	jwtMgr     *security.JWTManager
	mailer     mailer.Mailer
}

func NewAccountService(
	cfg *config.Config,
	users repository.UserRepository,
	linkTokens *security.LinkTokenIssuer,
	jwtMgr *security.JWTManager,
	sender mailer.Mailer,
) *AccountService {
	return &AccountService{
		cfg:        cfg,
		users:      users,
		linkTokens: linkTokens,
		jwtMgr:     jwtMgr,
		mailer:     sender,
	}
}

func (s *AccountService) Register(username, email, password, password2 string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" {
		observability.RecordAccountFlowEvent(context.Background(), "register", "validation_error")
		return nil, NewValidationError("username is required")
	}
	if err := validateEmail(email); err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "register", "validation_error")
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "register", "validation_error")
		return nil, err
	}
	if password != password2 {
		observability.RecordAccountFlowEvent(context.Background(), "register", "validation_error")
		return nil, ErrPasswordsDoNotMatch
	}

	if _, err := s.users.FindByEmail(email); err == nil {
		observability.RecordAccountFlowEvent(context.Background(), "register", "email_in_use")
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.users.FindByUsername(username); err == nil {
		observability.RecordAccountFlowEvent(context.Background(), "register", "username_taken")
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Username: username, Email: email, PasswordHash: hash, IsActive: false}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	// The account stays on disk if the mail bounces; the caller can
	// retry via the resend endpoint.
	if err := s.sendVerificationMail(user); err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "register", "delivery_error")
		return nil, err
	}
	observability.RecordAccountFlowEvent(context.Background(), "register", "success")
	return user, nil
}

func (s *AccountService) VerifyEmail(uid, token string) error {
	id, err := security.DecodeUID(uid)
	if err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "verify_email", "invalid_reference")
		return err
	}
	user, err := s.users.FindByID(id)
	if err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "verify_email", "not_found")
		return err
	}
	if user.IsActive {
		// A consumed link resubmitted after activation succeeds quietly.
		observability.RecordAccountFlowEvent(context.Background(), "verify_email", "already_active")
		return nil
	}
	if !s.linkTokens.Check(accountState(user), token) {
		observability.RecordAccountFlowEvent(context.Background(), "verify_email", "invalid_token")
		return ErrInvalidOrExpiredToken
	}
	user.IsActive = true
	if err := s.users.Update(user); err != nil {
		return err
	}
	observability.RecordAccountFlowEvent(context.Background(), "verify_email", "success")
	return nil
}

func (s *AccountService) Login(identifier, password string) (*LoginResult, error) {
	user, err := s.resolveUser(identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin(context.Background(), "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	ok, err := security.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.RecordAuthLogin(context.Background(), "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		observability.RecordAuthLogin(context.Background(), "not_verified")
		return nil, ErrAccountNotVerified
	}

	// Bumping the login timestamp also consumes every outstanding
	// verification and reset link for this account.
	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.Update(user); err != nil {
		return nil, err
	}

	access, expiresAt, err := s.jwtMgr.SignAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthLogin(context.Background(), "success")
	return &LoginResult{
		User:        user,
		Message:     "Login successful.",
		UserID:      user.ID,
		AccessToken: access,
		ExpiresAt:   expiresAt,
	}, nil
}

// RequestPasswordReset never reveals whether the address has an
// account: unknown email is a silent no-op.
func (s *AccountService) RequestPasswordReset(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAccountFlowEvent(context.Background(), "password_reset_request", "unknown_email")
			return nil
		}
		return err
	}

	token := s.linkTokens.Issue(accountState(user))
	link := fmt.Sprintf("%s/reset-password/%s/%s/", s.cfg.FrontendBaseURL, security.EncodeUID(user.ID), token)
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Reset your Spendwise password",
		Body: fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password. Use the link below to choose a new one:\n\n%s\n\nIf you did not request this, you can ignore this email.\n",
			user.Username, link),
	}
	if err := s.mailer.Send(context.Background(), msg); err != nil {
		observability.RecordMailDelivery(context.Background(), "password_reset", "error")
		observability.RecordAccountFlowEvent(context.Background(), "password_reset_request", "delivery_error")
		return err
	}
	observability.RecordMailDelivery(context.Background(), "password_reset", "success")
	observability.RecordAccountFlowEvent(context.Background(), "password_reset_request", "success")
	return nil
}

func (s *AccountService) ConfirmPasswordReset(uid, token, newPassword1, newPassword2 string) error {
	// Mismatched passwords fail before any token work, so the caller
	// gets the same answer whether or not the link is still good.
	if newPassword1 != newPassword2 {
		observability.RecordAccountFlowEvent(context.Background(), "password_reset_confirm", "validation_error")
		return ErrPasswordsDoNotMatch
	}
	if err := validatePassword(newPassword1); err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "password_reset_confirm", "validation_error")
		return err
	}

	id, err := security.DecodeUID(uid)
	if err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "password_reset_confirm", "invalid_reference")
		return err
	}
	user, err := s.users.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAccountFlowEvent(context.Background(), "password_reset_confirm", "invalid_token")
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	if !s.linkTokens.Check(accountState(user), token) {
		observability.RecordAccountFlowEvent(context.Background(), "password_reset_confirm", "invalid_token")
		return ErrInvalidOrExpiredToken
	}

	hash, err := security.HashPassword(newPassword1)
	if err != nil {
		return err
	}
	// Storing the new hash consumes the token along with every other
	// link issued against the old credential state.
	user.PasswordHash = hash
	if err := s.users.Update(user); err != nil {
		return err
	}
	observability.RecordAccountFlowEvent(context.Background(), "password_reset_confirm", "success")
	return nil
}

func (s *AccountService) ResendVerification(identifier string) error {
	user, err := s.resolveUser(identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAccountFlowEvent(context.Background(), "resend_verification", "not_found")
		}
		return err
	}
	if user.IsActive {
		observability.RecordAccountFlowEvent(context.Background(), "resend_verification", "already_verified")
		return ErrAlreadyVerified
	}
	if err := s.sendVerificationMail(user); err != nil {
		observability.RecordAccountFlowEvent(context.Background(), "resend_verification", "delivery_error")
		return err
	}
	observability.RecordAccountFlowEvent(context.Background(), "resend_verification", "success")
	return nil
}

func (s *AccountService) sendVerificationMail(user *domain.User) error {
	token := s.linkTokens.Issue(accountState(user))
	link := fmt.Sprintf("%s/verify-email/%s/%s/", s.cfg.FrontendBaseURL, security.EncodeUID(user.ID), token)
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Verify your Spendwise account",
		Body: fmt.Sprintf("Hi %s,\n\nWelcome to Spendwise. Confirm your email address by opening the link below:\n\n%s\n",
			user.Username, link),
	}
	if err := s.mailer.Send(context.Background(), msg); err != nil {
		observability.RecordMailDelivery(context.Background(), "email_verification", "error")
		return err
	}
	observability.RecordMailDelivery(context.Background(), "email_verification", "success")
	return nil
}

// resolveUser treats the identifier as an email address first, then as
// a username.
func (s *AccountService) resolveUser(identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, repository.ErrUserNotFound
	}
	user, err := s.users.FindByEmail(strings.ToLower(identifier))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}
	return s.users.FindByUsername(identifier)
}

func accountState(u *domain.User) security.AccountState {
	return security.AccountState{
		UserID:       u.ID,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
	}
}

func validateEmail(email string) error {
	if email == "" {
		return NewValidationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return NewValidationError("invalid email")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

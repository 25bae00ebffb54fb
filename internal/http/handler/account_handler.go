package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/spendwise/spendwise/internal/http/response"
	"github.com/spendwise/spendwise/internal/mail"
	"github.com/spendwise/spendwise/internal/observability"
	"github.com/spendwise/spendwise/internal/repository"
	"github.com/spendwise/spendwise/internal/security"
	"github.com/spendwise/spendwise/internal/service"
)

type AccountHandler struct {
	accountSvc service.AccountServiceInterface
}

func NewAccountHandler(accountSvc service.AccountServiceInterface) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	user, err := h.accountSvc.Register(req.Username, req.Email, req.Password, req.Password2)
	if err != nil {
		status = "failure"
		observability.Audit(r, "account.register.failed", "username", req.Username, "reason", err.Error())
		writeAccountError(w, r, err)
		return
	}
	observability.Audit(r, "account.register.success", "user_id", user.ID, "ip", clientIP(r))
	response.JSON(w, r, http.StatusCreated, map[string]any{
		"message": "Registration successful. Please check your email to verify your account.",
		"user":    user,
	})
}

type loginRequest struct {
	EmailOrUsername string `json:"email_or_username"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

// identifier accepts both the documented email_or_username field and
// the legacy username field.
func (req loginRequest) identifier() string {
	if req.EmailOrUsername != "" {
		return req.EmailOrUsername
	}
	return req.Username
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	result, err := h.accountSvc.Login(req.identifier(), req.Password)
	if err != nil {
		status = "failure"
		observability.Audit(r, "account.login.failed", "identifier", req.identifier(), "ip", clientIP(r))
		writeAccountError(w, r, err)
		return
	}
	observability.Audit(r, "account.login.success", "user_id", result.UserID, "ip", clientIP(r))
	response.JSON(w, r, http.StatusOK, result)
}

type verifyEmailRequest struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

func (h *AccountHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "verify_email", status, time.Since(start))
	}()

	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.accountSvc.VerifyEmail(req.UID, req.Token); err != nil {
		status = "failure"
		observability.Audit(r, "account.verify_email.failed", "reason", err.Error())
		writeAccountError(w, r, err)
		return
	}
	observability.Audit(r, "account.verify_email.success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Email verified successfully."})
}

type resendVerificationRequest struct {
	EmailOrUsername string `json:"email_or_username"`
	Email           string `json:"email"`
}

func (req resendVerificationRequest) identifier() string {
	if req.EmailOrUsername != "" {
		return req.EmailOrUsername
	}
	return req.Email
}

func (h *AccountHandler) SendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "send_verification_email", status, time.Since(start))
	}()

	var req resendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.accountSvc.ResendVerification(req.identifier()); err != nil {
		status = "failure"
		observability.Audit(r, "account.resend_verification.failed", "reason", err.Error())
		writeAccountError(w, r, err)
		return
	}
	observability.Audit(r, "account.resend_verification.success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Verification email sent."})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (h *AccountHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "password_reset", status, time.Since(start))
	}()

	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.accountSvc.RequestPasswordReset(req.Email); err != nil {
		status = "failure"
		observability.Audit(r, "account.password_reset.failed", "reason", err.Error())
		writeAccountError(w, r, err)
		return
	}
	observability.Audit(r, "account.password_reset.requested")
	response.JSON(w, r, http.StatusOK, map[string]string{
		"message": "If an account with that email exists, a password reset link has been sent.",
	})
}

type passwordResetConfirmRequest struct {
	UID          string `json:"uid"`
	Token        string `json:"token"`
	NewPassword1 string `json:"new_password1"`
	NewPassword2 string `json:"new_password2"`
}

func (h *AccountHandler) ResetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "reset_password_confirm", status, time.Since(start))
	}()

	var req passwordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.accountSvc.ConfirmPasswordReset(req.UID, req.Token, req.NewPassword1, req.NewPassword2); err != nil {
		status = "failure"
		observability.Audit(r, "account.reset_password_confirm.failed", "reason", err.Error())
		writeAccountError(w, r, err)
		return
	}
	observability.Audit(r, "account.reset_password_confirm.success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Password has been reset successfully."})
}

// writeAccountError maps account lifecycle failures onto the response
// envelope. Validation-class failures all land on 400 so the client
// cannot distinguish bad input from bad tokens beyond the code field.
// Anything unrecognised is a server fault and must not echo internal
// error text to the client.
func writeAccountError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrPasswordsDoNotMatch),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmailInUse),
		errors.Is(err, service.ErrUsernameTaken),
		errors.As(err, &validationErr):
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusBadRequest, "INVALID_CREDENTIALS", "invalid credentials", nil)
	case errors.Is(err, service.ErrAccountNotVerified):
		response.Error(w, r, http.StatusBadRequest, "ACCOUNT_NOT_VERIFIED", "please verify your email before logging in", nil)
	case errors.Is(err, service.ErrAlreadyVerified):
		response.Error(w, r, http.StatusBadRequest, "ALREADY_VERIFIED", "account is already verified", nil)
	case errors.Is(err, service.ErrInvalidOrExpiredToken),
		errors.Is(err, security.ErrInvalidReference):
		response.Error(w, r, http.StatusBadRequest, "INVALID_TOKEN", "invalid or expired token", nil)
	case errors.Is(err, repository.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	case errors.Is(err, mail.ErrDeliveryFailed):
		response.Error(w, r, http.StatusInternalServerError, "DELIVERY_ERROR", "failed to send email", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	return r.RemoteAddr
}

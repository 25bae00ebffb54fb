package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spendwise/spendwise/internal/config"
	"github.com/spendwise/spendwise/internal/domain"
	"github.com/spendwise/spendwise/internal/mail"
	"github.com/spendwise/spendwise/internal/repository"
	"github.com/spendwise/spendwise/internal/security"
)

type memUserRepo struct {
	users  map[uint]*domain.User
	nextID uint
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uint]*domain.User{}, nextID: 1}
}

func (r *memUserRepo) FindByID(id uint) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) FindByUsername(username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Create(user *domain.User) error {
	user.ID = r.nextID
	r.nextID++
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Update(user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

type capturingMailer struct {
	sent    []mail.Message
	sendErr error
}

func (m *capturingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

type accountServiceFixture struct {
	cfg     *config.Config
	users   *memUserRepo
	mailbox *capturingMailer
	issuer  *security.LinkTokenIssuer
	svc     *AccountService
}

func newAccountServiceFixture() *accountServiceFixture {
	cfg := &config.Config{
		FrontendBaseURL: "http://frontend.test",
		JWTIssuer:       "spendwise",
		JWTAudience:     "spendwise-api",
		JWTAccessTTL:    time.Hour,
	}
	users := newMemUserRepo()
	mailbox := &capturingMailer{}
	issuer := security.NewLinkTokenIssuer("0123456789abcdef0123456789abcdef", 72*time.Hour)
	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, "ffffffffffffffffffffffffffffffff", cfg.JWTAccessTTL)
	return &accountServiceFixture{
		cfg:     cfg,
		users:   users,
		mailbox: mailbox,
		issuer:  issuer,
		svc:     NewAccountService(cfg, users, issuer, jwtMgr, mailbox),
	}
}

func (fx *accountServiceFixture) register(t *testing.T, username, email string) *domain.User {
	t.Helper()
	u, err := fx.svc.Register(username, email, "hunter2secret", "hunter2secret")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// lastLink pulls the uid and token out of the most recent mail body.
func (fx *accountServiceFixture) lastLink(t *testing.T, segment string) (uid, token string) {
	t.Helper()
	if len(fx.mailbox.sent) == 0 {
		t.Fatal("no mail was sent")
	}
	body := fx.mailbox.sent[len(fx.mailbox.sent)-1].Body
	marker := fx.cfg.FrontendBaseURL + "/" + segment + "/"
	idx := strings.Index(body, marker)
	if idx < 0 {
		t.Fatalf("mail body missing %q link:\n%s", segment, body)
	}
	rest := body[idx+len(marker):]
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 {
		t.Fatalf("malformed link in mail body:\n%s", body)
	}
	return parts[0], parts[1]
}

func TestAccountServiceRegisterMatrix(t *testing.T) {
	t.Run("blank username", func(t *testing.T) {
		fx := newAccountServiceFixture()
		_, err := fx.svc.Register("   ", "a@example.com", "hunter2secret", "hunter2secret")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for blank username, got %v", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		fx := newAccountServiceFixture()
		_, err := fx.svc.Register("alice", "not-an-email", "hunter2secret", "hunter2secret")
		var vErr *ValidationError
		if !errors.As(err, &vErr) || !strings.Contains(err.Error(), "invalid email") {
			t.Fatalf("expected invalid email ValidationError, got %v", err)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if _, err := fx.svc.Register("alice", "a@example.com", "short", "short"); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if _, err := fx.svc.Register("alice", "a@example.com", "hunter2secret", "different1234"); !errors.Is(err, ErrPasswordsDoNotMatch) {
			t.Fatalf("expected ErrPasswordsDoNotMatch, got %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		_, err := fx.svc.Register("alice2", "a@example.com", "hunter2secret", "hunter2secret")
		if !errors.Is(err, ErrEmailInUse) {
			t.Fatalf("expected ErrEmailInUse, got %v", err)
		}
		if err.Error() != "Email is already in use" {
			t.Fatalf("unexpected message: %q", err.Error())
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		if _, err := fx.svc.Register("alice", "other@example.com", "hunter2secret", "hunter2secret"); !errors.Is(err, ErrUsernameTaken) {
			t.Fatalf("expected ErrUsernameTaken, got %v", err)
		}
	})

	t.Run("success creates inactive user and mails link", func(t *testing.T) {
		fx := newAccountServiceFixture()
		u := fx.register(t, "alice", "A@Example.com")
		if u.IsActive {
			t.Fatal("new account must start unverified")
		}
		if u.Email != "a@example.com" {
			t.Fatalf("email was not normalized: %q", u.Email)
		}
		uid, token := fx.lastLink(t, "verify-email")
		if uid == "" || token == "" {
			t.Fatal("expected verification link with uid and token")
		}
	})

	t.Run("delivery failure keeps the account", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.mailbox.sendErr = mail.ErrDeliveryFailed
		if _, err := fx.svc.Register("alice", "a@example.com", "hunter2secret", "hunter2secret"); !errors.Is(err, mail.ErrDeliveryFailed) {
			t.Fatalf("expected delivery error, got %v", err)
		}
		if _, err := fx.users.FindByEmail("a@example.com"); err != nil {
			t.Fatalf("account should survive a bounced mail: %v", err)
		}
	})
}

func TestAccountServiceVerifyEmailMatrix(t *testing.T) {
	t.Run("malformed uid", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if err := fx.svc.VerifyEmail("%%%", "whatever"); !errors.Is(err, security.ErrInvalidReference) {
			t.Fatalf("expected ErrInvalidReference, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if err := fx.svc.VerifyEmail(security.EncodeUID(999), "whatever"); !errors.Is(err, repository.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		fx := newAccountServiceFixture()
		u := fx.register(t, "alice", "a@example.com")
		if err := fx.svc.VerifyEmail(security.EncodeUID(u.ID), "1abc-deadbeef"); !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
		}
	})

	t.Run("success activates", func(t *testing.T) {
		fx := newAccountServiceFixture()
		u := fx.register(t, "alice", "a@example.com")
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("verify: %v", err)
		}
		fresh, err := fx.users.FindByID(u.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if !fresh.IsActive {
			t.Fatal("account was not activated")
		}
	})

	t.Run("replay after activation is a quiet success", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("first verify: %v", err)
		}
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("replayed verify should succeed, got %v", err)
		}
		// Even garbage passes once the account is active.
		if err := fx.svc.VerifyEmail(uid, "1abc-deadbeef"); err != nil {
			t.Fatalf("verify on active account should succeed, got %v", err)
		}
	})
}

func TestAccountServiceLoginMatrix(t *testing.T) {
	activate := func(t *testing.T, fx *accountServiceFixture) {
		t.Helper()
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("verify: %v", err)
		}
	}

	t.Run("unknown identifier", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if _, err := fx.svc.Login("ghost@example.com", "hunter2secret"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		activate(t, fx)
		if _, err := fx.svc.Login("a@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unverified account", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		if _, err := fx.svc.Login("a@example.com", "hunter2secret"); !errors.Is(err, ErrAccountNotVerified) {
			t.Fatalf("expected ErrAccountNotVerified, got %v", err)
		}
	})

	t.Run("success by email and by username", func(t *testing.T) {
		fx := newAccountServiceFixture()
		u := fx.register(t, "alice", "a@example.com")
		activate(t, fx)

		res, err := fx.svc.Login("a@example.com", "hunter2secret")
		if err != nil {
			t.Fatalf("login by email: %v", err)
		}
		if res.UserID != u.ID || res.Message == "" || res.AccessToken == "" {
			t.Fatalf("unexpected login result: %+v", res)
		}

		if _, err := fx.svc.Login("alice", "hunter2secret"); err != nil {
			t.Fatalf("login by username: %v", err)
		}

		fresh, err := fx.users.FindByID(u.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if fresh.LastLoginAt == nil {
			t.Fatal("login must record the login timestamp")
		}
	})
}

func TestAccountServicePasswordResetFlow(t *testing.T) {
	t.Run("unknown email is a silent no-op", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if err := fx.svc.RequestPasswordReset("ghost@example.com"); err != nil {
			t.Fatalf("expected uniform success, got %v", err)
		}
		if len(fx.mailbox.sent) != 0 {
			t.Fatal("no mail should go out for unknown email")
		}
	})

	t.Run("mismatch fails before token validation", func(t *testing.T) {
		fx := newAccountServiceFixture()
		// Deliberately bogus uid and token: the mismatch must win.
		err := fx.svc.ConfirmPasswordReset("%%%", "garbage", "newpassword1", "newpassword2")
		if !errors.Is(err, ErrPasswordsDoNotMatch) {
			t.Fatalf("expected ErrPasswordsDoNotMatch, got %v", err)
		}
	})

	t.Run("bad token rejected", func(t *testing.T) {
		fx := newAccountServiceFixture()
		u := fx.register(t, "alice", "a@example.com")
		err := fx.svc.ConfirmPasswordReset(security.EncodeUID(u.ID), "1abc-deadbeef", "newpassword1", "newpassword1")
		if !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
		}
	})

	t.Run("reset replaces the password and consumes the token", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("verify: %v", err)
		}

		if err := fx.svc.RequestPasswordReset("a@example.com"); err != nil {
			t.Fatalf("request reset: %v", err)
		}
		resetUID, resetToken := fx.lastLink(t, "reset-password")

		if err := fx.svc.ConfirmPasswordReset(resetUID, resetToken, "brandnewpass1", "brandnewpass1"); err != nil {
			t.Fatalf("confirm reset: %v", err)
		}

		if _, err := fx.svc.Login("a@example.com", "hunter2secret"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("old password should be dead, got %v", err)
		}
		if _, err := fx.svc.Login("a@example.com", "brandnewpass1"); err != nil {
			t.Fatalf("new password should work: %v", err)
		}

		err := fx.svc.ConfirmPasswordReset(resetUID, resetToken, "anotherpass99", "anotherpass99")
		if !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("token reuse should fail, got %v", err)
		}
	})

	t.Run("login invalidates an earlier reset token", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("verify: %v", err)
		}

		if err := fx.svc.RequestPasswordReset("a@example.com"); err != nil {
			t.Fatalf("request reset: %v", err)
		}
		resetUID, resetToken := fx.lastLink(t, "reset-password")

		if _, err := fx.svc.Login("a@example.com", "hunter2secret"); err != nil {
			t.Fatalf("login: %v", err)
		}

		err := fx.svc.ConfirmPasswordReset(resetUID, resetToken, "brandnewpass1", "brandnewpass1")
		if !errors.Is(err, ErrInvalidOrExpiredToken) {
			t.Fatalf("reset token should not survive a login, got %v", err)
		}
	})
}

func TestAccountServiceResendVerification(t *testing.T) {
	t.Run("unknown identifier", func(t *testing.T) {
		fx := newAccountServiceFixture()
		if err := fx.svc.ResendVerification("ghost"); !errors.Is(err, repository.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("already verified", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("verify: %v", err)
		}
		if err := fx.svc.ResendVerification("alice"); !errors.Is(err, ErrAlreadyVerified) {
			t.Fatalf("expected ErrAlreadyVerified, got %v", err)
		}
	})

	t.Run("resent link verifies the account", func(t *testing.T) {
		fx := newAccountServiceFixture()
		fx.register(t, "alice", "a@example.com")
		if err := fx.svc.ResendVerification("a@example.com"); err != nil {
			t.Fatalf("resend: %v", err)
		}
		uid, token := fx.lastLink(t, "verify-email")
		if err := fx.svc.VerifyEmail(uid, token); err != nil {
			t.Fatalf("verify with resent link: %v", err)
		}
	})
}

func TestAccountLifecycleEndToEnd(t *testing.T) {
	fx := newAccountServiceFixture()

	u := fx.register(t, "alice", "a@example.com")
	if u.IsActive {
		t.Fatal("fresh registration must be inactive")
	}

	if _, err := fx.svc.Login("a@example.com", "hunter2secret"); !errors.Is(err, ErrAccountNotVerified) {
		t.Fatalf("pre-verification login should fail, got %v", err)
	}

	uid, token := fx.lastLink(t, "verify-email")
	if err := fx.svc.VerifyEmail(uid, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	res, err := fx.svc.Login("a@example.com", "hunter2secret")
	if err != nil {
		t.Fatalf("post-verification login: %v", err)
	}
	if res.UserID != u.ID {
		t.Fatalf("login returned wrong user: %d", res.UserID)
	}
}

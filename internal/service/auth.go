package service

import (
	"bitwise74/community-api/internal/model"
	"bitwise74/community-api/internal/store"
	"bitwise74/community-api/pkg/validators"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	registerMessage = "Registration successful, check your email to verify your account"
	resendMessage   = "If the account exists and is not yet verified, a new verification email has been sent"
)

type GatewayConfig struct {
	Users        UserStore
	Verification *VerificationService
	Sessions     *SessionManager
	Hasher       PasswordHasher
	Mail         Dispatcher

	// Queue runs every email. The caller starts its workers and closes it.
	Queue *MailQueue

	// BaseURL is the public origin verification links point at
	BaseURL           string
	MinPasswordLength int
	ResendCooldown    time.Duration

	Logger *zap.Logger
	Clock  Clock
}

// Gateway is the entry point for every account operation
type Gateway struct {
	users        UserStore
	verification *VerificationService
	sessions     *SessionManager
	hasher       PasswordHasher
	mail         Dispatcher
	queue        *MailQueue

	baseURL           string
	minPasswordLength int
	resendCooldown    time.Duration

	// Compared against when the email is unknown so both login failures
	// take as long
	dummyHash string

	log   *zap.Logger
	clock Clock
}

type RegisterResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LoginResult struct {
	User    *model.UserView
	Session *SessionToken
}

type ResendResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewGateway(c GatewayConfig) (*Gateway, error) {
	if c.Users == nil || c.Verification == nil || c.Sessions == nil || c.Hasher == nil || c.Mail == nil || c.Queue == nil {
		return nil, errors.New("gateway is missing a dependency")
	}

	dummy, err := c.Hasher.Hash("dummy password for timing")
	if err != nil {
		return nil, fmt.Errorf("failed to create dummy hash, %w", err)
	}

	log := c.Logger
	if log == nil {
		log = zap.L()
	}

	minLen := c.MinPasswordLength
	if minLen <= 0 {
		minLen = validators.DefaultMinPasswordLength
	}

	return &Gateway{
		users:             c.Users,
		verification:      c.Verification,
		sessions:          c.Sessions,
		hasher:            c.Hasher,
		mail:              c.Mail,
		queue:             c.Queue,
		baseURL:           strings.TrimSuffix(c.BaseURL, "/"),
		minPasswordLength: minLen,
		resendCooldown:    c.ResendCooldown,
		dummyHash:         dummy,
		log:               log,
		clock:             c.Clock,
	}, nil
}

// Register creates an unverified account and mails a verification link. It
// never logs the user in.
func (g *Gateway) Register(ctx context.Context, email, password, name string) (*RegisterResult, error) {
	if err := validators.EmailValidator(email); err != nil {
		return nil, validationError(err)
	}

	if err := validators.NameValidator(name); err != nil {
		return nil, validationError(err)
	}

	if err := validators.PasswordValidator(password, g.minPasswordLength); err != nil {
		return nil, validationError(err)
	}

	email = model.NormalizeEmail(email)

	_, err := g.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, newError(ErrDuplicateEmail, "email found before insert")
	case !errors.Is(err, store.ErrNotFound):
		return nil, g.fail(storeFailure("find user by email", err))
	}

	hash, err := g.hasher.Hash(password)
	if err != nil {
		return nil, g.fail(storeFailure("hash password", err))
	}

	u, err := g.users.CreateUser(ctx, email, hash, name)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, newError(ErrDuplicateEmail, "unique constraint on insert")
		}

		return nil, g.fail(storeFailure("create user", err))
	}

	token, err := g.verification.Issue(ctx, u.ID)
	if err != nil {
		// The account exists, the user can still ask for a new link
		return nil, g.fail(err)
	}

	g.sendVerification(u, token)

	g.log.Debug("Registered new user", zap.String("user_id", u.ID))

	return &RegisterResult{Success: true, Message: registerMessage}, nil
}

// Verify consumes a verification token. The welcome email is best effort and
// its failure does not undo the verification.
func (g *Gateway) Verify(ctx context.Context, token string) error {
	userID, err := g.verification.Consume(ctx, token)
	if err != nil {
		return g.fail(err)
	}

	g.log.Debug("Verified user", zap.String("user_id", userID))

	u, err := g.users.FindByID(ctx, userID)
	if err != nil {
		g.log.Error("Failed to load verified user for welcome email", zap.String("user_id", userID), zap.Error(err))
		return nil
	}

	to, name := u.Email, u.Name

	g.enqueue(&MailJob{
		Kind: "welcome",
		To:   to,
		Send: func(ctx context.Context) error {
			return g.mail.SendWelcomeEmail(ctx, to, name)
		},
	})

	return nil
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords are the same error to the caller.
func (g *Gateway) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, g.fail(storeFailure("find user by email", err))
		}

		_, _ = g.hasher.Compare(password, g.dummyHash)

		return nil, g.fail(newError(ErrInvalidCredentials, "unknown email"))
	}

	ok, err := g.hasher.Compare(password, u.PasswordHash)
	if err != nil {
		return nil, g.fail(storeFailure("compare password hash of "+u.ID, err))
	}

	if !ok {
		return nil, g.fail(newError(ErrInvalidCredentials, "wrong password"))
	}

	if !u.Verified {
		return nil, g.fail(newError(ErrEmailNotVerified, "login before verification"))
	}

	sess, err := g.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, g.fail(err)
	}

	return &LoginResult{User: u.View(), Session: sess}, nil
}

// ResendVerification answers the same way whether or not the email belongs
// to an unverified account. Only in that case is a new token issued.
func (g *Gateway) ResendVerification(ctx context.Context, email string) (*ResendResult, error) {
	res := &ResendResult{Success: true, Message: resendMessage}

	u, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.log.Debug("Resend requested for unknown email")
			return res, nil
		}

		return nil, g.fail(storeFailure("find user by email", err))
	}

	if u.Verified {
		g.log.Debug("Resend requested for verified user", zap.String("user_id", u.ID))
		return res, nil
	}

	now := g.clock.now()

	if g.resendCooldown > 0 {
		last, err := g.users.LastResend(ctx, u.ID)
		if err != nil {
			return nil, g.fail(storeFailure("get last resend", err))
		}

		if !last.IsZero() && now.Sub(last) < g.resendCooldown {
			g.log.Debug("Resend requested during cooldown", zap.String("user_id", u.ID))
			return res, nil
		}
	}

	token, err := g.verification.Issue(ctx, u.ID)
	if err != nil {
		return nil, g.fail(err)
	}

	if err := g.users.TouchResend(ctx, u.ID, now); err != nil {
		g.log.Warn("Failed to record resend", zap.String("user_id", u.ID), zap.Error(err))
	}

	g.sendVerification(u, token)

	return res, nil
}

// Logout destroys the session. Repeating it is harmless.
func (g *Gateway) Logout(ctx context.Context, token string) error {
	return g.fail(g.sessions.Destroy(ctx, token))
}

// Wait blocks until all emails queued so far have been handled
func (g *Gateway) Wait() {
	g.queue.Wait()
}

func (g *Gateway) VerificationLink(token string) string {
	return g.baseURL + "/verify-email?token=" + url.QueryEscape(token)
}

func (g *Gateway) sendVerification(u *model.User, token string) {
	link := g.VerificationLink(token)
	to, name := u.Email, u.Name

	g.enqueue(&MailJob{
		Kind: "verification",
		To:   to,
		Send: func(ctx context.Context) error {
			return g.mail.SendVerificationEmail(ctx, to, name, link)
		},
	})
}

func (g *Gateway) enqueue(job *MailJob) {
	if err := g.queue.Enqueue(job); err != nil {
		g.log.Error("Failed to queue email", zap.String("kind", job.Kind), zap.String("to", job.To), zap.Error(err))
	}
}

// fail logs the detail of err before it is handed to the transport, which
// only ever sees the kind
func (g *Gateway) fail(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrStoreFailure) {
		g.log.Error("Auth store failure", zap.String("detail", Detail(err)))
	} else {
		g.log.Debug("Auth request rejected", zap.Error(err), zap.String("detail", Detail(err)))
	}

	return err
}

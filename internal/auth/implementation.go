// internal/auth/implementation.go
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"booknest/internal/platform/telemetry"
	"booknest/internal/profile"
	"booknest/internal/result"
	"booknest/internal/session"
)

// Options configures token lifetimes and rate limits.
type Options struct {
	Secret        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	OTPTTL        time.Duration
	RatePerMinute int
	Now           func() time.Time
}

const (
	msgInvalidCredentials = "Invalid login credentials"
	msgInvalidCode        = "Token has expired or is invalid"
	msgRateLimited        = "rate limit exceeded"

	// maxCodeAttempts wrong guesses burn a pending code.
	maxCodeAttempts = 5
)

// service implements the Service interface.
type service struct {
	repo   Repository
	mailer Mailer
	tokens *issuer
	otpTTL time.Duration
	log    *zap.SugaredLogger
	tracer trace.Tracer
	now    func() time.Time

	limitMu   sync.Mutex
	limiters  map[string]*limiter
	perMin    int
	lastSweep time.Time

	listenMu  sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// NewService creates a new auth service instance.
func NewService(repo Repository, mailer Mailer, opts Options, log *zap.SugaredLogger) Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 5
	}
	return &service{
		repo:   repo,
		mailer: mailer,
		tokens: &issuer{
			secret:     []byte(opts.Secret),
			accessTTL:  opts.AccessTTL,
			refreshTTL: opts.RefreshTTL,
			now:        now,
		},
		otpTTL:    opts.OTPTTL,
		log:       log,
		tracer:    otel.Tracer("booknest/auth"),
		now:       now,
		limiters:  make(map[string]*limiter),
		perMin:    opts.RatePerMinute,
		listeners: make(map[int]Listener),
	}
}

// limiterIdle is how long a bucket may sit unused before it is dropped. A
// bucket refills completely within a minute, so a dropped one would have been
// full anyway.
const limiterIdle = 2 * time.Minute

type limiter struct {
	bucket *rate.Limiter
	seen   time.Time
}

// allow applies the per-email token bucket.
func (s *service) allow(email string) bool {
	s.limitMu.Lock()
	defer s.limitMu.Unlock()
	now := s.now()
	l, ok := s.limiters[email]
	if !ok {
		s.sweepLimiters(now)
		l = &limiter{bucket: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMin)), s.perMin)}
		s.limiters[email] = l
	}
	l.seen = now
	return l.bucket.Allow()
}

// sweepLimiters drops idle buckets, at most once per idle period.
func (s *service) sweepLimiters(now time.Time) {
	if now.Sub(s.lastSweep) < limiterIdle {
		return
	}
	s.lastSweep = now
	for email, l := range s.limiters {
		if now.Sub(l.seen) >= limiterIdle {
			delete(s.limiters, email)
		}
	}
}

func (s *service) SignUp(ctx context.Context, in SignUpInput) (sess *session.Session, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.sign_up")
	defer func() { telemetry.End(ctx, span, "auth.sign_up", err) }()

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, result.InvalidInput("Invalid email format")
	}
	if err := validatePasswordStrength(in.Password); err != nil {
		return nil, result.InvalidInput("%s", err.Error())
	}
	if strings.TrimSpace(in.FullName) == "" {
		return nil, result.InvalidInput("Full name is required")
	}
	if in.UserType == "" {
		in.UserType = profile.Reader
	}
	if !in.UserType.Valid() {
		return nil, result.InvalidInput("Invalid user type")
	}

	hash, salt, err := hashPassword(in.Password)
	if err != nil {
		return nil, result.Failed(fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now().UTC()
	userID := uuid.New()
	p := &profile.Profile{
		ID:        userID,
		Email:     email,
		FullName:  strings.TrimSpace(in.FullName),
		UserType:  in.UserType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	cred := &Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateAccount(ctx, p, cred); err != nil {
		if errors.Is(err, profile.ErrEmailTaken) {
			return nil, result.AlreadyExists("User already registered")
		}
		return nil, result.Failed(err)
	}

	s.log.Infow("User signed up", "user_id", userID)
	return s.startSession(ctx, userID, email, SignedIn)
}

func (s *service) SignInWithPassword(ctx context.Context, email, password string) (sess *session.Session, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.sign_in_password")
	defer func() { telemetry.End(ctx, span, "auth.sign_in_password", err) }()

	email, err = normalizeEmail(email)
	if err != nil {
		return nil, result.Unauthorized(msgInvalidCredentials)
	}
	if !s.allow(email) {
		return nil, result.Failed(errors.New(msgRateLimited))
	}

	cred, err := s.repo.CredentialByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, result.Unauthorized(msgInvalidCredentials)
	}
	if err != nil {
		return nil, result.Failed(err)
	}

	ok, err := verifyPassword(password, cred.Salt, cred.PasswordHash)
	if err != nil {
		return nil, result.Failed(fmt.Errorf("authentication failed: %w", err))
	}
	if !ok {
		s.log.Warnw("Failed password sign-in", "user_id", cred.UserID)
		return nil, result.Unauthorized(msgInvalidCredentials)
	}

	return s.startSession(ctx, cred.UserID, cred.Email, SignedIn)
}

func (s *service) SignInWithOTP(ctx context.Context, email string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.sign_in_otp")
	defer func() { telemetry.End(ctx, span, "auth.sign_in_otp", err) }()

	email, err = normalizeEmail(email)
	if err != nil {
		return result.InvalidInput("Invalid email format")
	}
	if !s.allow(email) {
		return result.Failed(errors.New(msgRateLimited))
	}

	if _, err := s.repo.CredentialByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result.NotFound("User not found")
		}
		return result.Failed(err)
	}

	code, err := s.issueCode(ctx, email, OTPEmail)
	if err != nil {
		return result.Failed(err)
	}
	return result.Failed(s.mailer.Send(ctx, Mail{
		To:      email,
		Subject: "Your BookNest sign-in code",
		Body:    fmt.Sprintf("Your sign-in code is %s. It expires in %d minutes.", code, int(s.otpTTL.Minutes())),
	}))
}

func (s *service) ResetPasswordForEmail(ctx context.Context, email, redirectURL string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.reset_password")
	defer func() { telemetry.End(ctx, span, "auth.reset_password", err) }()

	email, err = normalizeEmail(email)
	if err != nil {
		return result.InvalidInput("Invalid email format")
	}
	if !s.allow(email) {
		return result.Failed(errors.New(msgRateLimited))
	}

	// Unknown addresses succeed silently.
	if _, err := s.repo.CredentialByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Infow("Password reset requested for unknown email")
			return nil
		}
		return result.Failed(err)
	}

	code, err := s.issueCode(ctx, email, OTPRecovery)
	if err != nil {
		return result.Failed(err)
	}

	body := fmt.Sprintf("Your password recovery code is %s.", code)
	if redirectURL != "" {
		link, err := recoveryLink(redirectURL, email, code)
		if err != nil {
			return result.InvalidInput("Invalid redirect URL")
		}
		body += " Or open " + link
	}
	return result.Failed(s.mailer.Send(ctx, Mail{To: email, Subject: "Reset your BookNest password", Body: body}))
}

func recoveryLink(redirectURL, email, code string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid redirect url %q", redirectURL)
	}
	q := u.Query()
	q.Set("email", email)
	q.Set("code", code)
	q.Set("type", string(OTPRecovery))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *service) issueCode(ctx context.Context, email string, purpose OTPType) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	err = s.repo.PutCode(ctx, &OneTimeCode{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  hashSecret(code),
		ExpiresAt: s.now().Add(s.otpTTL),
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *service) VerifyOTP(ctx context.Context, email, code string, typ OTPType) (sess *session.Session, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.verify_otp")
	defer func() { telemetry.End(ctx, span, "auth.verify_otp", err) }()

	if !typ.Valid() {
		return nil, result.InvalidInput("Invalid OTP type")
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, result.InvalidInput("Invalid email format")
	}

	stored, err := s.repo.GetCode(ctx, email, typ)
	if errors.Is(err, ErrNotFound) {
		return nil, result.Unauthorized(msgInvalidCode)
	}
	if err != nil {
		return nil, result.Failed(err)
	}

	if !s.now().Before(stored.ExpiresAt) {
		if _, err := s.repo.ConsumeCode(ctx, email, typ, stored.CodeHash); err != nil {
			s.log.Warnw("Failed to discard expired code", "error", err)
		}
		return nil, result.Unauthorized(msgInvalidCode)
	}

	given := hashSecret(strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(given), []byte(stored.CodeHash)) != 1 {
		if err := s.repo.FailCode(ctx, email, typ, maxCodeAttempts); err != nil {
			return nil, result.Failed(err)
		}
		s.log.Warnw("Wrong one-time code", "purpose", typ, "attempt", stored.FailedAttempts+1)
		return nil, result.Unauthorized(msgInvalidCode)
	}

	consumed, err := s.repo.ConsumeCode(ctx, email, typ, given)
	if err != nil {
		return nil, result.Failed(err)
	}
	if !consumed {
		return nil, result.Unauthorized(msgInvalidCode)
	}

	cred, err := s.repo.CredentialByEmail(ctx, email)
	if err != nil {
		return nil, result.Failed(err)
	}

	event := SignedIn
	if typ == OTPRecovery {
		event = PasswordRecovery
	} else if !cred.EmailConfirmed {
		if err := s.repo.ConfirmEmail(ctx, cred.UserID); err != nil {
			return nil, result.Failed(err)
		}
	}

	return s.startSession(ctx, cred.UserID, cred.Email, event)
}

func (s *service) UpdateUser(ctx context.Context, sess *session.Session, password string) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.update_user")
	defer func() { telemetry.End(ctx, span, "auth.update_user", err) }()

	if !sess.Active(s.now()) {
		return result.Unauthorized("Unauthorized")
	}
	if err := validatePasswordStrength(password); err != nil {
		return result.InvalidInput("%s", err.Error())
	}

	hash, salt, err := hashPassword(password)
	if err != nil {
		return result.Failed(fmt.Errorf("failed to hash password: %w", err))
	}
	if err := s.repo.SetPassword(ctx, sess.UserID, hash, salt, s.now().UTC()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return result.NotFound("User not found")
		}
		return result.Failed(err)
	}

	s.log.Infow("Password updated", "user_id", sess.UserID)
	s.emit(UserUpdated, sess)
	return nil
}

func (s *service) SignOut(ctx context.Context, sess *session.Session) (err error) {
	ctx, span := s.tracer.Start(ctx, "auth.sign_out")
	defer func() { telemetry.End(ctx, span, "auth.sign_out", err) }()

	if sess == nil {
		return result.Unauthorized("Unauthorized")
	}
	if err := s.repo.RevokeSession(ctx, sess.ID, sess.ExpiresAt); err != nil {
		return result.Failed(err)
	}
	if err := s.repo.DeleteSessionTokens(ctx, sess.ID); err != nil {
		return result.Failed(err)
	}

	out := *sess
	out.State = session.Anonymous
	out.AccessToken, out.RefreshToken = "", ""
	s.log.Infow("User signed out", "user_id", sess.UserID, "session_id", sess.ID)
	s.emit(SignedOut, &out)
	return nil
}

func (s *service) GetSession(ctx context.Context, accessToken string) (sess *session.Session, err error) {
	sess, err = s.tokens.parse(accessToken)
	if errors.Is(err, errTokenExpired) {
		return nil, result.Unauthorized("Session expired")
	}
	if err != nil {
		return nil, result.Unauthorized("Invalid token")
	}

	revoked, err := s.repo.SessionRevoked(ctx, sess.ID)
	if err != nil {
		return nil, result.Failed(err)
	}
	if revoked {
		return nil, result.Unauthorized("Invalid token")
	}
	return sess, nil
}

func (s *service) RefreshSession(ctx context.Context, refreshToken string) (sess *session.Session, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.refresh")
	defer func() { telemetry.End(ctx, span, "auth.refresh", err) }()

	rt, err := s.repo.TakeRefreshToken(ctx, hashSecret(refreshToken))
	if errors.Is(err, ErrNotFound) {
		return nil, result.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, result.Failed(err)
	}
	if !s.now().Before(rt.ExpiresAt) {
		return nil, result.Unauthorized("Refresh token expired")
	}

	revoked, err := s.repo.SessionRevoked(ctx, rt.SessionID)
	if err != nil {
		return nil, result.Failed(err)
	}
	if revoked {
		return nil, result.Unauthorized("Invalid refresh token")
	}

	sess, err = s.issue(ctx, rt.UserID, rt.Email, rt.SessionID)
	if err != nil {
		return nil, err
	}
	s.emit(TokenRefreshed, sess)
	return sess, nil
}

func (s *service) Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error) {
	sess, err := s.GetSession(ctx, accessToken)
	if err != nil {
		return uuid.Nil, err
	}
	return sess.UserID, nil
}

func (s *service) OnAuthStateChange(l Listener) func() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.listenMu.Lock()
		defer s.listenMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *service) emit(event Event, sess *session.Session) {
	s.listenMu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenMu.RUnlock()

	for _, l := range listeners {
		l(Change{Event: event, Session: sess})
	}
}

func (s *service) startSession(ctx context.Context, userID uuid.UUID, email string, event Event) (*session.Session, error) {
	sess, err := s.issue(ctx, userID, email, uuid.New())
	if err != nil {
		return nil, err
	}
	s.emit(event, sess)
	return sess, nil
}

func (s *service) issue(ctx context.Context, userID uuid.UUID, email string, sessionID uuid.UUID) (*session.Session, error) {
	sess, rt, err := s.tokens.issue(userID, email, sessionID)
	if err != nil {
		return nil, result.Failed(err)
	}
	if err := s.repo.PutRefreshToken(ctx, rt); err != nil {
		return nil, result.Failed(err)
	}
	return sess, nil
}

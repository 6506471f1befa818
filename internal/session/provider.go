// Package session tracks the signed-in user and bearer credential and
// notifies observers when the user signs in or out.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"vastram/internal/api"
	"vastram/internal/logging"
	"vastram/internal/store"

	"github.com/golang-jwt/jwt/v5"
)

const (
	MsgLoginFailed    = "Login failed. Please try again."
	MsgRegisterFailed = "Registration failed. Please try again."
)

// ErrCredentialExpired is logged when a stored JWT is past its exp claim.
var ErrCredentialExpired = errors.New("session: stored credential expired")

// Observer is told about every transition between signed-out and signed-in.
type Observer interface {
	SessionChanged(ctx context.Context, authenticated bool)
}

// AuthGateway is the subset of the backend used for authentication.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (api.AuthResult, error)
	Me(ctx context.Context) (api.User, error)
	Logout(ctx context.Context) error
}

// CredentialStore persists the credential between runs.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (store.Credential, bool, error)
	SaveCredential(ctx context.Context, c store.Credential) error
	ClearCredential(ctx context.Context) error
}

// Result is the outcome of Login/Register shown to the user.
type Result struct {
	Success bool
	Message string
}

// Provider holds session state. Backend calls never run under the lock.
type Provider struct {
	mu        sync.RWMutex
	auth      AuthGateway
	creds     CredentialStore
	user      *api.User
	token     string
	expiresAt time.Time
	errMsg    string

	observers []Observer
	onInvalid []func(reason string)
	now       func() time.Time
}

// NewProvider creates an empty (signed-out) session. creds may be nil,
// in which case nothing is persisted.
func NewProvider(auth AuthGateway, creds CredentialStore) *Provider {
	return &Provider{auth: auth, creds: creds, now: time.Now}
}

// Subscribe registers an observer.
func (p *Provider) Subscribe(o Observer) {
	p.mu.Lock()
	p.observers = append(p.observers, o)
	p.mu.Unlock()
}

// OnInvalidate registers a hook run after Invalidate drops a credential,
// e.g. to navigate to the login page.
func (p *Provider) OnInvalidate(fn func(reason string)) {
	p.mu.Lock()
	p.onInvalid = append(p.onInvalid, fn)
	p.mu.Unlock()
}

// Token implements api.TokenSource.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// User returns the signed-in user.
func (p *Provider) User() (api.User, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return api.User{}, false
	}
	return *p.user, true
}

func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil
}

// ExpiresAt returns the credential's exp claim when it is a JWT.
func (p *Provider) ExpiresAt() (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.expiresAt, !p.expiresAt.IsZero()
}

// Err returns the last user-facing error.
func (p *Provider) Err() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.errMsg
}

func (p *Provider) ClearError() {
	p.mu.Lock()
	p.errMsg = ""
	p.mu.Unlock()
}

// Login signs in with email and password.
func (p *Provider) Login(ctx context.Context, email, password string) (Result, error) {
	p.ClearError()
	res, err := p.auth.Login(ctx, email, password)
	if err != nil {
		return p.fail(logging.AuditLogin, email, MsgLoginFailed, err)
	}
	p.establish(ctx, res.Token, res.User)
	logging.Session("Signed in as %s", res.User.Email)
	logging.Audit().SessionEvent(logging.AuditLogin, email, nil)
	return Result{Success: true, Message: res.Message}, nil
}

// Register creates an account and signs it in.
func (p *Provider) Register(ctx context.Context, req api.RegisterRequest) (Result, error) {
	p.ClearError()
	res, err := p.auth.Register(ctx, req)
	if err != nil {
		return p.fail(logging.AuditRegister, req.Email, MsgRegisterFailed, err)
	}
	p.establish(ctx, res.Token, res.User)
	logging.Session("Registered and signed in as %s", res.User.Email)
	logging.Audit().SessionEvent(logging.AuditRegister, req.Email, nil)
	return Result{Success: true, Message: res.Message}, nil
}

func (p *Provider) fail(event logging.AuditEventType, email, fallback string, err error) (Result, error) {
	msg := api.UserMessage(err, fallback)
	p.mu.Lock()
	p.errMsg = msg
	p.mu.Unlock()
	logging.SessionWarn("%s failed for %s: %v", event, email, err)
	logging.Audit().SessionEvent(event, email, err)
	return Result{Success: false, Message: msg}, fmt.Errorf("%s: %w", event, err)
}

// establish stores credential and user, persists them and notifies observers.
func (p *Provider) establish(ctx context.Context, token string, user api.User) {
	p.mu.Lock()
	p.token = token
	p.expiresAt = tokenExpiry(token)
	u := user
	p.user = &u
	p.mu.Unlock()

	p.persist(ctx, token, user)
	p.notify(ctx, true)
}

func (p *Provider) persist(ctx context.Context, token string, user api.User) {
	if p.creds == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		logging.SessionError("Failed to encode user for storage: %v", err)
		return
	}
	if err := p.creds.SaveCredential(ctx, store.Credential{Token: token, User: raw}); err != nil {
		logging.SessionError("Failed to persist credential: %v", err)
	}
}

func (p *Provider) forget(ctx context.Context) {
	if p.creds == nil {
		return
	}
	if err := p.creds.ClearCredential(ctx); err != nil {
		logging.SessionError("Failed to clear stored credential: %v", err)
	}
}

// Logout notifies the backend (failure is only logged) and always clears
// the local session.
func (p *Provider) Logout(ctx context.Context) {
	email := ""
	if u, ok := p.User(); ok {
		email = u.Email
	}
	err := p.auth.Logout(ctx)
	if err != nil {
		logging.SessionWarn("Logout notification failed: %v", err)
	}
	wasUser := p.clear()
	p.forget(ctx)
	if wasUser {
		p.notify(ctx, false)
	}
	logging.Session("Signed out")
	logging.Audit().SessionEvent(logging.AuditLogout, email, err)
}

// Restore verifies a stored credential with the backend. Any failure
// silently discards it. Returns whether a user is now signed in.
func (p *Provider) Restore(ctx context.Context) bool {
	if p.creds == nil {
		return false
	}
	cred, ok, err := p.creds.LoadCredential(ctx)
	if err != nil {
		logging.SessionWarn("Could not read stored credential: %v", err)
		return false
	}
	if !ok {
		return false
	}

	exp := tokenExpiry(cred.Token)
	if !exp.IsZero() && !exp.After(p.now()) {
		logging.Session("Stored credential expired at %s; discarding", exp.Format(time.RFC3339))
		p.forget(ctx)
		logging.Audit().SessionEvent(logging.AuditRestore, "", ErrCredentialExpired)
		return false
	}

	p.mu.Lock()
	p.token = cred.Token
	p.expiresAt = exp
	p.mu.Unlock()

	user, err := p.auth.Me(ctx)
	if err != nil {
		logging.Session("Stored credential rejected: %v", err)
		p.clear()
		p.forget(ctx)
		logging.Audit().SessionEvent(logging.AuditRestore, "", err)
		return false
	}

	p.mu.Lock()
	if p.token != cred.Token {
		// Invalidated while verifying.
		p.mu.Unlock()
		return false
	}
	u := user
	p.user = &u
	p.mu.Unlock()

	p.persist(ctx, cred.Token, user)
	logging.Session("Restored session for %s", user.Email)
	logging.Audit().SessionEvent(logging.AuditRestore, user.Email, nil)
	p.notify(ctx, true)
	return true
}

// Invalidate drops the credential after the backend rejected it. Observers
// are notified if a user was signed in; invalidate hooks run whenever a
// credential was held.
func (p *Provider) Invalidate(reason string) {
	p.mu.RLock()
	hadToken := p.token != ""
	p.mu.RUnlock()
	if !hadToken {
		return
	}

	ctx := context.Background()
	wasUser := p.clear()
	p.forget(ctx)
	logging.SessionWarn("Session invalidated: %s", reason)
	logging.Audit().SessionEvent(logging.AuditInvalidated, reason, nil)

	if wasUser {
		p.notify(ctx, false)
	}

	p.mu.RLock()
	hooks := append([]func(string){}, p.onInvalid...)
	p.mu.RUnlock()
	for _, fn := range hooks {
		fn(reason)
	}
}

// clear drops token and user, returning whether a user was signed in.
func (p *Provider) clear() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	wasUser := p.user != nil
	p.user = nil
	p.token = ""
	p.expiresAt = time.Time{}
	return wasUser
}

func (p *Provider) notify(ctx context.Context, authenticated bool) {
	p.mu.RLock()
	obs := append([]Observer{}, p.observers...)
	p.mu.RUnlock()
	for _, o := range obs {
		o.SessionChanged(ctx, authenticated)
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority. Non-JWT tokens have no expiry.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

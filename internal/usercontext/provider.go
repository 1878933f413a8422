// Package usercontext resolves and holds the dashboard's current user.
//
// The current user is resolved through a fallback chain rather than real
// authentication: the dedicated current-user endpoint first, then the first
// entry of the users list, and finally a fixed default administrator. Network
// failures anywhere in the chain are logged and replaced by the default; they
// never reach the caller.
//
// A Provider is created explicitly, initialised with Init, attached to a
// context with WithProvider and torn down with Close. Code that needs the
// current user retrieves the provider with FromContext, which fails with
// ErrNoProvider when no provider was attached.
package usercontext

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"ideaboard/api/internal/backend"
	"ideaboard/api/internal/store"
)

// DefaultUser is the identity used whenever the backend cannot provide one.
var DefaultUser = store.User{
	ID:         "785f858a-b243-4756-8008-aa062292ef60",
	Name:       "Admin User",
	Email:      "admin@company.com",
	Role:       store.RoleAdmin,
	Department: "IT",
}

const (
	fallbackRole       = store.RoleEmployee
	fallbackDepartment = "General"
)

var (
	// ErrNoProvider is a configuration error: the accessor was used on a
	// context that no provider was attached to.
	ErrNoProvider = errors.New("usercontext: no provider in context")
	ErrClosed     = errors.New("usercontext: provider closed")
)

// Source is the subset of the backend client the provider needs.
type Source interface {
	CurrentUser(ctx context.Context) (backend.RemoteUser, error)
	ListUsers(ctx context.Context, req store.PageRequest) ([]backend.RemoteUser, error)
}

type Provider struct {
	source Source
	logger zerolog.Logger

	mu      sync.RWMutex
	current store.User
	loading bool
	closed  bool
}

func New(source Source, logger zerolog.Logger) *Provider {
	return &Provider{
		source:  source,
		logger:  logger.With().Str("component", "usercontext").Logger(),
		current: DefaultUser,
		loading: true,
	}
}

// Init runs the fallback chain once. It is equivalent to Refetch and exists
// so that start-up reads naturally at the call site.
func (p *Provider) Init(ctx context.Context) error {
	return p.Refetch(ctx)
}

// Refetch re-resolves the current user and replaces it wholesale. Only the
// first resolution is reported through Loading.
func (p *Provider) Refetch(ctx context.Context) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	user := p.resolve(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false
	if p.closed {
		return ErrClosed
	}
	p.current = user
	return nil
}

func (p *Provider) Current() store.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Set replaces the current user.
func (p *Provider) Set(user store.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = user
}

// Loading reports whether the initial fetch chain has yet to complete.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Close tears the provider down. Later refetches return ErrClosed; the last
// resolved user stays readable.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *Provider) resolve(ctx context.Context) (user store.User) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).Msg("user resolution panicked; using default user")
			user = DefaultUser
		}
	}()

	remote, err := p.source.CurrentUser(ctx)
	if err == nil {
		return remote.User()
	}
	p.logger.Warn().Err(err).Msg("current user endpoint failed; trying users list")

	users, err := p.source.ListUsers(ctx, store.PageRequest{Page: 0, Size: 1})
	if err != nil {
		p.logger.Warn().Err(err).Msg("users list failed; using default user")
		return DefaultUser
	}
	if len(users) == 0 {
		p.logger.Warn().Msg("users list empty; using default user")
		return DefaultUser
	}
	return adapt(users[0])
}

// adapt turns a users-list entry into a current user, filling the role and
// department the list may omit.
func adapt(remote backend.RemoteUser) store.User {
	user := remote.User()
	if strings.TrimSpace(user.Role) == "" {
		user.Role = fallbackRole
	}
	if strings.TrimSpace(user.Department) == "" {
		user.Department = fallbackDepartment
	}
	return user
}

type providerKey struct{}

func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

func FromContext(ctx context.Context) (*Provider, error) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	if !ok || p == nil {
		return nil, ErrNoProvider
	}
	return p, nil
}

// MustFromContext is FromContext for call sites where a missing provider is a
// wiring bug.
func MustFromContext(ctx context.Context) *Provider {
	p, err := FromContext(ctx)
	if err != nil {
		panic(fmt.Errorf("must be used within a user provider: %w", err))
	}
	return p
}

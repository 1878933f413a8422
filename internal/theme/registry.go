package theme

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// PreferencesFactory returns the preference storage for one scope.
type PreferencesFactory func(scope string) Preferences

// Registry hands out one loaded Manager per scope, each with its own root
// style.
type Registry struct {
	newPrefs PreferencesFactory
	logger   zerolog.Logger
	opts     []Option

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	once    sync.Once
	manager *Manager
	root    *RootStyle
}

func NewRegistry(newPrefs PreferencesFactory, logger zerolog.Logger, opts ...Option) *Registry {
	return &Registry{
		newPrefs: newPrefs,
		logger:   logger,
		opts:     opts,
		entries:  make(map[string]*registryEntry),
	}
}

// For returns the manager for scope. The persisted preference is loaded the
// first time the scope is seen; concurrent callers wait for that load.
func (r *Registry) For(ctx context.Context, scope string) (*Manager, *RootStyle) {
	r.mu.Lock()
	e, ok := r.entries[scope]
	if !ok {
		root := NewRootStyle()
		e = &registryEntry{
			manager: NewManager(r.newPrefs(scope), root, r.logger.With().Str("scope", scope).Logger(), r.opts...),
			root:    root,
		}
		r.entries[scope] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		selected := e.manager.Load(ctx)
		e.root.SetProperty(PrimaryColorVar, selected.PrimaryColor)
	})
	return e.manager, e.root
}

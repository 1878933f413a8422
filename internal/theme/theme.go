// Package theme manages the dashboard's colour theme preference.
package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PreferenceKey is the storage key holding the selected theme id.
const PreferenceKey = "selectedTheme"

// PrimaryColorVar is the root style variable carrying the theme's primary
// colour.
const PrimaryColorVar = "--primary-color"

type Theme struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PrimaryColor string `json:"primaryColor"`
}

// Themes is the fixed, ordered theme set. The first entry is the default.
var Themes = []Theme{
	{ID: "blue", Name: "Ocean Blue", PrimaryColor: "#3b82f6"},
	{ID: "green", Name: "Forest Green", PrimaryColor: "#10b981"},
	{ID: "purple", Name: "Royal Purple", PrimaryColor: "#8b5cf6"},
}

var ErrUnknownTheme = errors.New("unknown theme")

func Default() Theme { return Themes[0] }

func Lookup(id string) (Theme, bool) {
	for _, t := range Themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// Preferences persists plain string preferences.
type Preferences interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// StyleRoot receives global style variables.
type StyleRoot interface {
	SetProperty(name, value string)
}

// RootStyle is an in-memory StyleRoot.
type RootStyle struct {
	mu    sync.RWMutex
	props map[string]string
}

func NewRootStyle() *RootStyle {
	return &RootStyle{props: make(map[string]string)}
}

func (r *RootStyle) SetProperty(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.props[name] = value
}

func (r *RootStyle) Property(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.props[name]
}

// Properties returns a copy of every property set so far.
func (r *RootStyle) Properties() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.props))
	for k, v := range r.props {
		out[k] = v
	}
	return out
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient confirmation shown after a user action.
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

const DefaultNoticeTTL = 3 * time.Second

// Manager holds the selected theme for one preference scope.
type Manager struct {
	prefs  Preferences
	root   StyleRoot
	logger zerolog.Logger
	ttl    time.Duration
	now    func() time.Time

	mu       sync.Mutex
	selected Theme
	notice   *Notice
}

type Option func(*Manager)

func WithNoticeTTL(d time.Duration) Option {
	return func(m *Manager) { m.ttl = d }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(prefs Preferences, root StyleRoot, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		prefs:    prefs,
		root:     root,
		logger:   logger.With().Str("component", "theme").Logger(),
		ttl:      DefaultNoticeTTL,
		now:      time.Now,
		selected: Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load adopts the persisted theme if it names a known theme, otherwise the
// default. Unknown values and storage errors are not reported to the caller.
func (m *Manager) Load(ctx context.Context) Theme {
	selected := Default()
	value, ok, err := m.prefs.Get(ctx, PreferenceKey)
	switch {
	case err != nil:
		m.logger.Warn().Err(err).Msg("read theme preference")
	case ok:
		if t, known := Lookup(value); known {
			selected = t
		} else {
			m.logger.Debug().Str("theme", value).Msg("ignoring unknown persisted theme")
		}
	}

	m.mu.Lock()
	m.selected = selected
	m.mu.Unlock()
	return selected
}

// Select persists id, applies its primary colour to the root style and
// records a success notice.
func (m *Manager) Select(ctx context.Context, id string) (Theme, Notice, error) {
	t, ok := Lookup(id)
	if !ok {
		return Theme{}, Notice{}, fmt.Errorf("%w: %q", ErrUnknownTheme, id)
	}
	if err := m.prefs.Set(ctx, PreferenceKey, t.ID); err != nil {
		notice := m.notify(NoticeError, "Failed to save theme preference")
		return Theme{}, notice, fmt.Errorf("persist theme: %w", err)
	}
	m.root.SetProperty(PrimaryColorVar, t.PrimaryColor)

	m.mu.Lock()
	m.selected = t
	m.mu.Unlock()

	return t, m.notify(NoticeSuccess, "Theme changed to "+t.Name), nil
}

func (m *Manager) Selected() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// Notice returns the last notice while it has not expired.
func (m *Manager) Notice() (Notice, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.notice == nil || !m.now().Before(m.notice.ExpiresAt) {
		m.notice = nil
		return Notice{}, false
	}
	return *m.notice, true
}

func (m *Manager) notify(kind NoticeKind, message string) Notice {
	n := Notice{Kind: kind, Message: message, ExpiresAt: m.now().Add(m.ttl)}
	m.mu.Lock()
	m.notice = &n
	m.mu.Unlock()
	return n
}

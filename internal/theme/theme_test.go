package theme

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPreferences struct{}

func (failingPreferences) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

func (failingPreferences) Set(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

// gatedPreferences blocks Get until release is closed.
type gatedPreferences struct {
	*MemoryPreferences
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPreferences) Get(ctx context.Context, key string) (string, bool, error) {
	close(g.entered)
	<-g.release
	return g.MemoryPreferences.Get(ctx, key)
}

func TestLoadDefaultsWhenNothingPersisted(t *testing.T) {
	m := NewManager(NewMemoryPreferences(), NewRootStyle(), zerolog.Nop())
	assert.Equal(t, "blue", m.Load(context.Background()).ID)
}

func TestLoadAdoptsKnownTheme(t *testing.T) {
	prefs := NewMemoryPreferences()
	require.NoError(t, prefs.Set(context.Background(), PreferenceKey, "purple"))

	m := NewManager(prefs, NewRootStyle(), zerolog.Nop())
	assert.Equal(t, "purple", m.Load(context.Background()).ID)
	assert.Equal(t, "purple", m.Selected().ID)
}

func TestLoadIgnoresUnknownTheme(t *testing.T) {
	prefs := NewMemoryPreferences()
	require.NoError(t, prefs.Set(context.Background(), PreferenceKey, "neon-pink"))

	m := NewManager(prefs, NewRootStyle(), zerolog.Nop())
	assert.NotPanics(t, func() {
		assert.Equal(t, "blue", m.Load(context.Background()).ID)
	})
}

func TestLoadFallsBackOnStorageError(t *testing.T) {
	m := NewManager(failingPreferences{}, NewRootStyle(), zerolog.Nop())
	assert.Equal(t, Default(), m.Load(context.Background()))
}

func TestSelectPersistsAppliesAndNotifies(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	prefs := NewMemoryPreferences()
	root := NewRootStyle()
	m := NewManager(prefs, root, zerolog.Nop(), WithClock(func() time.Time { return now }), WithNoticeTTL(2*time.Second))

	selected, notice, err := m.Select(context.Background(), "green")
	require.NoError(t, err)

	assert.Equal(t, "green", selected.ID)
	stored, ok, err := prefs.Get(context.Background(), PreferenceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "green", stored)
	assert.Equal(t, "#10b981", root.Property(PrimaryColorVar))
	assert.Equal(t, NoticeSuccess, notice.Kind)
	assert.Equal(t, "Theme changed to Forest Green", notice.Message)

	got, ok := m.Notice()
	assert.True(t, ok)
	assert.Equal(t, notice, got)

	now = now.Add(2 * time.Second)
	_, ok = m.Notice()
	assert.False(t, ok)
}

func TestSelectUnknownTheme(t *testing.T) {
	root := NewRootStyle()
	m := NewManager(NewMemoryPreferences(), root, zerolog.Nop())

	_, _, err := m.Select(context.Background(), "orange")
	assert.ErrorIs(t, err, ErrUnknownTheme)
	assert.Empty(t, root.Properties())
	assert.Equal(t, "blue", m.Selected().ID)
}

func TestSelectStorageFailureNotifiesError(t *testing.T) {
	root := NewRootStyle()
	m := NewManager(failingPreferences{}, root, zerolog.Nop())

	_, notice, err := m.Select(context.Background(), "purple")
	assert.Error(t, err)
	assert.Equal(t, NoticeError, notice.Kind)
	assert.Empty(t, root.Property(PrimaryColorVar))
}

func TestRedisPreferencesRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	ctx := context.Background()
	client, err := NewRedisClient(ctx, "redis://"+s.Addr())
	require.NoError(t, err)
	defer client.Close()

	prefs := NewRedisPreferences(client, "user-1")
	_, ok, err := prefs.Get(ctx, PreferenceKey)
	require.NoError(t, err)
	assert.False(t, ok)

	m := NewManager(prefs, NewRootStyle(), zerolog.Nop())
	_, _, err = m.Select(ctx, "purple")
	require.NoError(t, err)

	raw, err := s.Get("prefs:user-1:selectedTheme")
	require.NoError(t, err)
	assert.Equal(t, "purple", raw)

	other := NewManager(NewRedisPreferences(client, "user-2"), NewRootStyle(), zerolog.Nop())
	assert.Equal(t, "blue", other.Load(ctx).ID)
	again := NewManager(prefs, NewRootStyle(), zerolog.Nop())
	assert.Equal(t, "purple", again.Load(ctx).ID)
}

func TestRedisPreferencesUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	s.Close()

	m := NewManager(NewRedisPreferences(client, "u"), NewRootStyle(), zerolog.Nop())
	assert.Equal(t, "blue", m.Load(context.Background()).ID)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRegistryLoadsOncePerScope(t *testing.T) {
	prefs := map[string]*MemoryPreferences{}
	reg := NewRegistry(func(scope string) Preferences {
		p := NewMemoryPreferences()
		if scope == "u1" {
			_ = p.Set(context.Background(), PreferenceKey, "green")
		}
		prefs[scope] = p
		return p
	}, zerolog.Nop())

	m1, root1 := reg.For(context.Background(), "u1")
	assert.Equal(t, "green", m1.Selected().ID)
	assert.Equal(t, "#10b981", root1.Property(PrimaryColorVar))

	again, _ := reg.For(context.Background(), "u1")
	assert.Same(t, m1, again)

	m2, root2 := reg.For(context.Background(), "u2")
	assert.Equal(t, "blue", m2.Selected().ID)
	assert.Equal(t, "#3b82f6", root2.Property(PrimaryColorVar))
	assert.Len(t, prefs, 2)
}

func TestRegistrySelectDuringFirstLoadWins(t *testing.T) {
	ctx := context.Background()
	prefs := &gatedPreferences{
		MemoryPreferences: NewMemoryPreferences(),
		entered:           make(chan struct{}),
		release:           make(chan struct{}),
	}
	require.NoError(t, prefs.MemoryPreferences.Set(ctx, PreferenceKey, "green"))
	reg := NewRegistry(func(string) Preferences { return prefs }, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		reg.For(ctx, "u1")
	}()
	<-prefs.entered

	selectErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		m, _ := reg.For(ctx, "u1")
		_, _, err := m.Select(ctx, "purple")
		selectErr <- err
	}()

	close(prefs.release)
	wg.Wait()
	require.NoError(t, <-selectErr)

	m, root := reg.For(ctx, "u1")
	stored, _, err := prefs.MemoryPreferences.Get(ctx, PreferenceKey)
	require.NoError(t, err)
	assert.Equal(t, "purple", stored)
	assert.Equal(t, "purple", m.Selected().ID)
	assert.Equal(t, "#8b5cf6", root.Property(PrimaryColorVar))
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStore(opts ...MemoryOption) *MemoryStore {
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	base := []MemoryOption{
		WithLatency(0),
		WithClock(func() time.Time { return fixed }),
	}
	return NewMemoryStore(append(base, opts...)...)
}

func TestCreateIdeaDefaults(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()

	idea, err := s.CreateIdea(ctx, IdeaInput{})
	require.NoError(t, err)

	assert.NotEmpty(t, idea.ID)
	assert.Equal(t, PriorityMedium, idea.Priority)
	assert.Equal(t, StatusPending, idea.Status)
	assert.Zero(t, idea.Upvotes)
	assert.Zero(t, idea.Comments)
	assert.Equal(t, "2026-03-14", idea.CreatedAt)
	assert.Equal(t, "2026-03-14", idea.DueDate)
	assert.Empty(t, idea.Tags)
}

func TestCreateIdeaKeepsExplicitFields(t *testing.T) {
	s := newTestMemoryStore()

	idea, err := s.CreateIdea(context.Background(), IdeaInput{
		Title:    "Dark mode",
		Priority: PriorityHigh,
		Status:   StatusInProgress,
		Tags:     []string{"ui", "ui", "", "theme"},
		DueDate:  "2026-04-01",
	})
	require.NoError(t, err)

	assert.Equal(t, PriorityHigh, idea.Priority)
	assert.Equal(t, StatusInProgress, idea.Status)
	assert.Equal(t, []string{"ui", "theme"}, idea.Tags)
	assert.Equal(t, "2026-04-01", idea.DueDate)
}

func TestUpdateIdeaMergesOnlySuppliedFields(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()

	created, err := s.CreateIdea(ctx, IdeaInput{Title: "Old", Description: "keep me"})
	require.NoError(t, err)

	title := "New"
	status := StatusCompleted
	updated, err := s.UpdateIdea(ctx, created.ID, IdeaPatch{Title: &title, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, StatusCompleted, updated.Status)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, PriorityMedium, updated.Priority)
}

func TestUnknownIdeaNotFound(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()
	_, err := s.CreateIdea(ctx, IdeaInput{Title: "present"})
	require.NoError(t, err)

	for _, id := range []string{"", "missing", "785f858a-b243-4756-8008-aa062292ef60"} {
		t.Run("id="+id, func(t *testing.T) {
			title := "x"
			_, err := s.UpdateIdea(ctx, id, IdeaPatch{Title: &title})
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.DeleteIdea(ctx, id), ErrNotFound)
		})
	}

	page, err := s.ListIdeas(ctx)
	require.NoError(t, err)
	assert.Len(t, page.Content, 1)
}

func TestDeleteIdea(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, IdeaInput{Title: "gone soon"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteIdea(ctx, idea.ID))
	assert.ErrorIs(t, s.DeleteIdea(ctx, idea.ID), ErrNotFound)

	page, err := s.ListIdeas(ctx)
	require.NoError(t, err)
	assert.True(t, page.Empty)
	assert.Empty(t, page.Content)
}

func TestDeleteIdeaDropsItsLikes(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()
	doomed, err := s.CreateIdea(ctx, IdeaInput{Title: "doomed"})
	require.NoError(t, err)
	other, err := s.CreateIdea(ctx, IdeaInput{Title: "other"})
	require.NoError(t, err)
	_, err = s.AddLike(ctx, doomed.ID, "u1", "Ada")
	require.NoError(t, err)
	_, err = s.AddLike(ctx, other.ID, "u1", "Ada")
	require.NoError(t, err)

	require.NoError(t, s.DeleteIdea(ctx, doomed.ID))

	likes, err := s.ListLikes(ctx, doomed.ID)
	require.NoError(t, err)
	assert.True(t, likes.Empty)
	_, err = s.AddLike(ctx, doomed.ID, "u1", "Ada")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RemoveLike(ctx, doomed.ID, "u1"), ErrNotFound)

	likes, err = s.ListLikes(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes.TotalElements)
}

func TestLikeLifecycle(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()

	idea, err := s.CreateIdea(ctx, IdeaInput{Title: "X"})
	require.NoError(t, err)

	_, err = s.AddLike(ctx, idea.ID, "u1", "User One")
	require.NoError(t, err)
	assert.Equal(t, 1, upvotes(t, s, idea.ID))

	_, err = s.AddLike(ctx, idea.ID, "u1", "User One")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, upvotes(t, s, idea.ID))

	require.NoError(t, s.RemoveLike(ctx, idea.ID, "u1"))
	assert.Equal(t, 0, upvotes(t, s, idea.ID))

	err = s.RemoveLike(ctx, idea.ID, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, upvotes(t, s, idea.ID))
}

func TestRemoveLikeNeverGoesNegative(t *testing.T) {
	s := newTestMemoryStore(WithSeed(
		[]Idea{{ID: "idea-1", Title: "seeded", Upvotes: 0}},
		[]Like{{ID: "like-1", IdeaID: "idea-1", UserID: "u9"}},
	))
	ctx := context.Background()

	require.NoError(t, s.RemoveLike(ctx, "idea-1", "u9"))
	assert.Equal(t, 0, upvotes(t, s, "idea-1"))
}

func TestRemoveLikeDecrementsByOne(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, IdeaInput{Title: "popular"})
	require.NoError(t, err)
	for _, u := range []string{"a", "b", "c"} {
		_, err := s.AddLike(ctx, idea.ID, u, u)
		require.NoError(t, err)
	}

	require.NoError(t, s.RemoveLike(ctx, idea.ID, "b"))
	assert.Equal(t, 2, upvotes(t, s, idea.ID))

	likes, err := s.ListLikes(ctx, idea.ID)
	require.NoError(t, err)
	require.Len(t, likes.Content, 2)
	assert.Equal(t, "a", likes.Content[0].UserID)
	assert.Equal(t, "c", likes.Content[1].UserID)
}

func TestAddLikeUnknownIdea(t *testing.T) {
	s := newTestMemoryStore()
	_, err := s.AddLike(context.Background(), "nope", "u1", "User")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReturnedIdeasAreCopies(t *testing.T) {
	s := newTestMemoryStore()
	ctx := context.Background()
	idea, err := s.CreateIdea(ctx, IdeaInput{Title: "t", Tags: []string{"a"}})
	require.NoError(t, err)

	idea.Tags[0] = "mutated"

	page, err := s.ListIdeas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, page.Content[0].Tags)
}

func TestLatencyHonoursCancellation(t *testing.T) {
	s := NewMemoryStore(WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.ListIdeas(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestSinglePageEnvelope(t *testing.T) {
	page := SinglePage([]int{1, 2, 3})
	assert.Equal(t, 3, page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 3, page.Size)
	assert.True(t, page.First)
	assert.True(t, page.Last)
	assert.False(t, page.Empty)
	assert.True(t, page.Sort.Empty)
	assert.False(t, page.Sort.Sorted)

	empty := SinglePage[int](nil)
	assert.NotNil(t, empty.Content)
	assert.True(t, empty.Empty)
}

func upvotes(t *testing.T, s *MemoryStore, id string) int {
	t.Helper()
	page, err := s.ListIdeas(context.Background())
	require.NoError(t, err)
	for _, idea := range page.Content {
		if idea.ID == id {
			return idea.Upvotes
		}
	}
	t.Fatalf("idea %s not listed", id)
	return 0
}

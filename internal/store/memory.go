package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLatency is the artificial delay applied by the mock store.
const DefaultLatency = 300 * time.Millisecond

// MemoryStore is an in-process stand-in for the backend. Data lives only for
// the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	ideas   []Idea
	likes   []Like
	latency time.Duration
	now     func() time.Time
	newID   func() string
}

type MemoryOption func(*MemoryStore)

func WithLatency(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.latency = d }
}

func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func WithIDGenerator(fn func() string) MemoryOption {
	return func(s *MemoryStore) { s.newID = fn }
}

// WithSeed preloads ideas and likes. Upvote counts are taken as given.
func WithSeed(ideas []Idea, likes []Like) MemoryOption {
	return func(s *MemoryStore) {
		for _, idea := range ideas {
			s.ideas = append(s.ideas, cloneIdea(idea))
		}
		s.likes = append(s.likes, likes...)
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		latency: DefaultLatency,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// delay emulates network latency. It returns early if ctx is cancelled.
func (s *MemoryStore) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *MemoryStore) ListIdeas(ctx context.Context) (Page[Idea], error) {
	if err := s.delay(ctx); err != nil {
		return Page[Idea]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Idea, 0, len(s.ideas))
	for _, idea := range s.ideas {
		out = append(out, cloneIdea(idea))
	}
	return SinglePage(out), nil
}

func (s *MemoryStore) CreateIdea(ctx context.Context, in IdeaInput) (Idea, error) {
	if err := s.delay(ctx); err != nil {
		return Idea{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idea := newIdea(s.newID(), in, s.now())
	s.ideas = append(s.ideas, idea)
	return cloneIdea(idea), nil
}

func (s *MemoryStore) UpdateIdea(ctx context.Context, id string, patch IdeaPatch) (Idea, error) {
	if err := s.delay(ctx); err != nil {
		return Idea{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return Idea{}, fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	patch.Apply(&s.ideas[i])
	return cloneIdea(s.ideas[i]), nil
}

// DeleteIdea removes the idea together with its likes.
func (s *MemoryStore) DeleteIdea(ctx context.Context, id string) error {
	if err := s.delay(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("idea %s: %w", id, ErrNotFound)
	}
	s.ideas = append(s.ideas[:i], s.ideas[i+1:]...)
	kept := s.likes[:0]
	for _, like := range s.likes {
		if like.IdeaID != id {
			kept = append(kept, like)
		}
	}
	s.likes = kept
	return nil
}

func (s *MemoryStore) ListLikes(ctx context.Context, ideaID string) (Page[Like], error) {
	if err := s.delay(ctx); err != nil {
		return Page[Like]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Like
	for _, like := range s.likes {
		if like.IdeaID == ideaID {
			out = append(out, like)
		}
	}
	return SinglePage(out), nil
}

func (s *MemoryStore) AddLike(ctx context.Context, ideaID, userID, userName string) (Like, error) {
	if err := s.delay(ctx); err != nil {
		return Like{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.likeIndex(ideaID, userID) >= 0 {
		return Like{}, fmt.Errorf("like %s/%s: %w", ideaID, userID, ErrConflict)
	}
	i := s.indexOf(ideaID)
	if i < 0 {
		return Like{}, fmt.Errorf("idea %s: %w", ideaID, ErrNotFound)
	}
	like := Like{
		ID:        s.newID(),
		IdeaID:    ideaID,
		UserID:    userID,
		UserName:  userName,
		CreatedAt: s.now().UTC(),
	}
	s.likes = append(s.likes, like)
	s.ideas[i].Upvotes++
	return like, nil
}

func (s *MemoryStore) RemoveLike(ctx context.Context, ideaID, userID string) error {
	if err := s.delay(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	li := s.likeIndex(ideaID, userID)
	if li < 0 {
		return fmt.Errorf("like %s/%s: %w", ideaID, userID, ErrNotFound)
	}
	s.likes = append(s.likes[:li], s.likes[li+1:]...)
	if i := s.indexOf(ideaID); i >= 0 && s.ideas[i].Upvotes > 0 {
		s.ideas[i].Upvotes--
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) indexOf(id string) int {
	for i := range s.ideas {
		if s.ideas[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) likeIndex(ideaID, userID string) int {
	for i := range s.likes {
		if s.likes[i].IdeaID == ideaID && s.likes[i].UserID == userID {
			return i
		}
	}
	return -1
}

func cloneIdea(idea Idea) Idea {
	if idea.Tags != nil {
		idea.Tags = append([]string(nil), idea.Tags...)
	}
	return idea
}

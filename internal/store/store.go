// Package store holds the idea/like data model and the repositories that
// persist it: an in-memory mock that mimics backend latency and a PostgreSQL
// implementation. Both satisfy Repository, as does the remote backend adapter.
package store

import "context"

// Repository is the contract shared by every idea backend.
type Repository interface {
	ListIdeas(ctx context.Context) (Page[Idea], error)
	CreateIdea(ctx context.Context, in IdeaInput) (Idea, error)
	UpdateIdea(ctx context.Context, id string, patch IdeaPatch) (Idea, error)
	DeleteIdea(ctx context.Context, id string) error
	ListLikes(ctx context.Context, ideaID string) (Page[Like], error)
	AddLike(ctx context.Context, ideaID, userID, userName string) (Like, error)
	RemoveLike(ctx context.Context, ideaID, userID string) error
	Ping(ctx context.Context) error
}

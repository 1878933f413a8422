package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ideaboard/api/internal/store"
)

// IdeaRepository serves the idea repository contract from the remote backend,
// so the dashboard can switch between it and the local stores.
type IdeaRepository struct {
	client *Client
}

var _ store.Repository = (*IdeaRepository)(nil)

func NewIdeaRepository(client *Client) *IdeaRepository {
	return &IdeaRepository{client: client}
}

func (r *IdeaRepository) ListIdeas(ctx context.Context) (store.Page[store.Idea], error) {
	listing, err := r.client.List(ctx, Ideas, nil)
	if err != nil {
		return store.Page[store.Idea]{}, err
	}
	return pageOf[store.Idea](listing)
}

func (r *IdeaRepository) CreateIdea(ctx context.Context, in store.IdeaInput) (store.Idea, error) {
	res, err := r.client.Create(ctx, Ideas, in)
	if err != nil {
		return store.Idea{}, err
	}
	return decodeEntity[store.Idea](res.Body)
}

func (r *IdeaRepository) UpdateIdea(ctx context.Context, id string, patch store.IdeaPatch) (store.Idea, error) {
	res, err := r.client.Update(ctx, Ideas, id, patch)
	if err != nil {
		return store.Idea{}, err
	}
	return decodeEntity[store.Idea](res.Body)
}

func (r *IdeaRepository) DeleteIdea(ctx context.Context, id string) error {
	_, err := r.client.Delete(ctx, Ideas, id)
	return err
}

func (r *IdeaRepository) ListLikes(ctx context.Context, ideaID string) (store.Page[store.Like], error) {
	resp, err := r.client.doJSON(ctx, http.MethodGet, collectionPath(Ideas, ideaID, "likes"), nil)
	if err != nil {
		return store.Page[store.Like]{}, err
	}
	status := resp.StatusCode
	body, err := readResponse(resp, http.StatusOK)
	if err != nil {
		return store.Page[store.Like]{}, err
	}
	return pageOf[store.Like](newListing(status, body))
}

func (r *IdeaRepository) AddLike(ctx context.Context, ideaID, userID, userName string) (store.Like, error) {
	payload := map[string]string{"userId": userID, "userName": userName}
	resp, err := r.client.doJSON(ctx, http.MethodPost, collectionPath(Ideas, ideaID, "likes"), payload)
	if err != nil {
		return store.Like{}, err
	}
	body, err := readResponse(resp, http.StatusOK, http.StatusCreated)
	if err != nil {
		return store.Like{}, err
	}
	return decodeEntity[store.Like](body)
}

func (r *IdeaRepository) RemoveLike(ctx context.Context, ideaID, userID string) error {
	resp, err := r.client.doJSON(ctx, http.MethodDelete, collectionPath(Ideas, ideaID, "likes", userID), nil)
	if err != nil {
		return err
	}
	_, err = readResponse(resp, http.StatusOK, http.StatusNoContent)
	return err
}

func (r *IdeaRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func pageOf[T any](listing Listing) (store.Page[T], error) {
	switch listing.Shape {
	case ShapeEnvelope:
		var page store.Page[T]
		if err := json.Unmarshal(listing.Raw, &page); err != nil {
			return store.Page[T]{}, fmt.Errorf("decode envelope: %w", err)
		}
		if page.Content == nil {
			page.Content = []T{}
		}
		return page, nil
	case ShapeArray:
		items, err := decodeItems[T](listing)
		if err != nil {
			return store.Page[T]{}, fmt.Errorf("decode items: %w", err)
		}
		return store.SinglePage(items), nil
	default:
		return store.Page[T]{}, fmt.Errorf("%w: unrecognised list response", ErrNetworkFailure)
	}
}

func decodeEntity[T any](body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode entity: %w", err)
	}
	return out, nil
}

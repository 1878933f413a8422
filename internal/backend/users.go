package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ideaboard/api/internal/store"
)

// RemoteUser is a user as the backend reports it. Fields beyond id are
// optional and vary between the current-user and users-list endpoints.
type RemoteUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// DisplayName prefers the explicit name, then first+last, then username, then
// email.
func (u RemoteUser) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if full := strings.TrimSpace(u.FirstName + " " + u.LastName); full != "" {
		return full
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u RemoteUser) User() store.User {
	return store.User{
		ID:         u.ID,
		Name:       u.DisplayName(),
		Email:      u.Email,
		Role:       strings.ToLower(u.Role),
		Department: u.Department,
	}
}

// CurrentUser calls the dedicated current-user endpoint.
func (c *Client) CurrentUser(ctx context.Context) (RemoteUser, error) {
	resp, err := c.doJSON(ctx, http.MethodGet, collectionPath(Users, "me"), nil)
	if err != nil {
		return RemoteUser{}, err
	}
	body, err := readResponse(resp, http.StatusOK)
	if err != nil {
		return RemoteUser{}, err
	}
	var user RemoteUser
	if err := json.Unmarshal(body, &user); err != nil {
		return RemoteUser{}, fmt.Errorf("decode current user: %w", err)
	}
	if user.ID == "" {
		return RemoteUser{}, fmt.Errorf("current user: %w: empty id", ErrNetworkFailure)
	}
	return user, nil
}

// ListUsers fetches one page of users. Both envelope and bare array responses
// are accepted.
func (c *Client) ListUsers(ctx context.Context, req store.PageRequest) ([]RemoteUser, error) {
	listing, err := c.List(ctx, Users, &req)
	if err != nil {
		return nil, err
	}
	if listing.Shape == ShapeUnknown {
		return nil, fmt.Errorf("list users: %w: unrecognised response shape", ErrNetworkFailure)
	}
	users, err := decodeItems[RemoteUser](listing)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ideaboard/api/internal/navigation"
	"ideaboard/api/internal/rbac"
	"ideaboard/api/internal/store"
	"ideaboard/api/internal/theme"
	"ideaboard/api/internal/usercontext"
)

// Service is the dashboard's application layer. The repository is injected so
// the mock, PostgreSQL and remote implementations are interchangeable.
type Service struct {
	repo   store.Repository
	themes *theme.Registry
	logger zerolog.Logger
}

func New(repo store.Repository, themes *theme.Registry, logger zerolog.Logger) *Service {
	return &Service{repo: repo, themes: themes, logger: logger}
}

type ThemeState struct {
	Theme        theme.Theme       `json:"theme"`
	Themes       []theme.Theme     `json:"themes"`
	CSSVariables map[string]string `json:"cssVariables"`
	Notice       *theme.Notice     `json:"notice"`
}

type Menu struct {
	Role  rbac.Role             `json:"role"`
	Items []navigation.MenuItem `json:"items"`
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *Service) currentUser(ctx context.Context) (store.User, error) {
	users, err := usercontext.FromContext(ctx)
	if err != nil {
		return store.User{}, err
	}
	return users.Current(), nil
}

func (s *Service) ListIdeas(ctx context.Context) (store.Page[store.Idea], error) {
	return s.repo.ListIdeas(ctx)
}

func (s *Service) CreateIdea(ctx context.Context, in store.IdeaInput) (store.Idea, error) {
	if err := validateIdea(in.Priority, in.Status, in.DueDate); err != nil {
		return store.Idea{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return s.repo.CreateIdea(ctx, in)
}

func (s *Service) UpdateIdea(ctx context.Context, id string, patch store.IdeaPatch) (store.Idea, error) {
	var (
		priority store.Priority
		status   store.Status
		due      string
	)
	if patch.Priority != nil {
		priority = *patch.Priority
		if priority == "" {
			return store.Idea{}, validationError("priority must not be empty", nil)
		}
	}
	if patch.Status != nil {
		status = *patch.Status
		if status == "" {
			return store.Idea{}, validationError("status must not be empty", nil)
		}
	}
	if patch.DueDate != nil {
		due = *patch.DueDate
	}
	if err := validateIdea(priority, status, due); err != nil {
		return store.Idea{}, err
	}
	if (patch.Upvotes != nil && *patch.Upvotes < 0) || (patch.Comments != nil && *patch.Comments < 0) {
		return store.Idea{}, validationError("counts must not be negative", nil)
	}
	return s.repo.UpdateIdea(ctx, id, patch)
}

func (s *Service) DeleteIdea(ctx context.Context, id string) error {
	return s.repo.DeleteIdea(ctx, id)
}

func (s *Service) ListLikes(ctx context.Context, ideaID string) (store.Page[store.Like], error) {
	return s.repo.ListLikes(ctx, ideaID)
}

// AddLike likes ideaID on behalf of userID, or of the current user when
// userID is empty.
func (s *Service) AddLike(ctx context.Context, ideaID, userID, userName string) (store.Like, error) {
	if strings.TrimSpace(userID) == "" {
		user, err := s.currentUser(ctx)
		if err != nil {
			return store.Like{}, err
		}
		userID, userName = user.ID, user.Name
	}
	return s.repo.AddLike(ctx, ideaID, userID, userName)
}

func (s *Service) RemoveLike(ctx context.Context, ideaID, userID string) error {
	if userID == "me" {
		user, err := s.currentUser(ctx)
		if err != nil {
			return err
		}
		userID = user.ID
	}
	return s.repo.RemoveLike(ctx, ideaID, userID)
}

func (s *Service) Theme(ctx context.Context) (ThemeState, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return ThemeState{}, err
	}
	manager, root := s.themes.For(ctx, user.ID)
	state := ThemeState{
		Theme:        manager.Selected(),
		Themes:       theme.Themes,
		CSSVariables: root.Properties(),
	}
	if notice, ok := manager.Notice(); ok {
		state.Notice = &notice
	}
	return state, nil
}

func (s *Service) SelectTheme(ctx context.Context, id string) (ThemeState, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return ThemeState{}, err
	}
	manager, root := s.themes.For(ctx, user.ID)
	selected, notice, err := manager.Select(ctx, id)
	if err != nil {
		return ThemeState{}, err
	}
	return ThemeState{
		Theme:        selected,
		Themes:       theme.Themes,
		CSSVariables: root.Properties(),
		Notice:       &notice,
	}, nil
}

// Menu renders the sidebar for the current user with active as the selected
// tab.
func (s *Service) Menu(ctx context.Context, active string) (Menu, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return Menu{}, err
	}
	role := rbac.Normalize(user.Role)
	sidebar := navigation.Sidebar{Active: func() string { return active }}
	return Menu{Role: role, Items: sidebar.Items(role)}, nil
}

// SelectTab validates a tab change request for the current user and returns
// the tab the caller should activate.
func (s *Service) SelectTab(ctx context.Context, tab string) (string, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return "", err
	}
	selected := ""
	sidebar := navigation.Sidebar{OnTabChange: func(t string) { selected = t }}
	if err := sidebar.Click(rbac.Normalize(user.Role), rbac.Item(tab)); err != nil {
		return "", domainError(http.StatusForbidden, "FORBIDDEN", "Menu item not available", map[string]string{"tab": tab})
	}
	return selected, nil
}

// Logout hands the request to the sidebar's logout callback. Session state is
// owned by the client; the server only records the event.
func (s *Service) Logout(ctx context.Context) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	sidebar := navigation.Sidebar{OnLogout: func() {
		s.logger.Info().Str("user_id", user.ID).Msg("logout requested")
	}}
	sidebar.Logout()
	return nil
}

func validateIdea(priority store.Priority, status store.Status, dueDate string) error {
	if priority != "" && !priority.Valid() {
		return validationError("priority must be one of HIGH, MEDIUM, LOW", map[string]string{"priority": string(priority)})
	}
	if status != "" && !status.Valid() {
		return validationError("status must be one of PENDING, IN_PROGRESS, COMPLETED", map[string]string{"status": string(status)})
	}
	if dueDate != "" {
		if _, err := time.Parse(store.DateLayout, dueDate); err != nil {
			return validationError("dueDate must be YYYY-MM-DD", map[string]string{"dueDate": dueDate})
		}
	}
	return nil
}

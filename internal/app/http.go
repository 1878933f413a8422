package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"ideaboard/api/internal/store"
	"ideaboard/api/internal/usercontext"
)

type HTTPServer struct {
	service    *Service
	users      *usercontext.Provider
	corsOrigin string
	logger     zerolog.Logger
}

// NewHTTPServer wires the dashboard API. users may be nil, in which case
// every identity-dependent route answers with a configuration error.
func NewHTTPServer(service *Service, users *usercontext.Provider, corsOrigin string, logger zerolog.Logger) *HTTPServer {
	return &HTTPServer{service: service, users: users, corsOrigin: corsOrigin, logger: logger}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(s.routes())
}

func (s *HTTPServer) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	// Subrouters resolve their own mismatches, so both need the JSON handlers.
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(notFound)
		router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	}

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet, http.MethodHead)

	api.HandleFunc("/ideas", s.handleListIdeas).Methods(http.MethodGet)
	api.HandleFunc("/ideas", s.handleCreateIdea).Methods(http.MethodPost)
	api.HandleFunc("/ideas/{id}", s.handleUpdateIdea).Methods(http.MethodPatch)
	api.HandleFunc("/ideas/{id}", s.handleDeleteIdea).Methods(http.MethodDelete)
	api.HandleFunc("/ideas/{id}/likes", s.handleListLikes).Methods(http.MethodGet)
	api.HandleFunc("/ideas/{id}/likes", s.handleAddLike).Methods(http.MethodPost)
	api.HandleFunc("/ideas/{id}/likes/{userId}", s.handleRemoveLike).Methods(http.MethodDelete)

	api.HandleFunc("/me", s.handleGetMe).Methods(http.MethodGet)
	api.HandleFunc("/me", s.handleSetMe).Methods(http.MethodPut)
	api.HandleFunc("/me/refresh", s.handleRefreshMe).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	api.HandleFunc("/theme", s.handleGetTheme).Methods(http.MethodGet)
	api.HandleFunc("/theme", s.handleSelectTheme).Methods(http.MethodPut)

	api.HandleFunc("/menu", s.handleMenu).Methods(http.MethodGet)
	api.HandleFunc("/menu/select", s.handleSelectTab).Methods(http.MethodPost)
	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"repository": map[string]any{"status": "ok"},
	}
	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["repository"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}
	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListIdeas(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *HTTPServer) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var body store.IdeaInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	idea, err := s.service.CreateIdea(r.Context(), body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (s *HTTPServer) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	var patch store.IdeaPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	idea, err := s.service.UpdateIdea(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (s *HTTPServer) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteIdea(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleListLikes(w http.ResponseWriter, r *http.Request) {
	page, err := s.service.ListLikes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *HTTPServer) handleAddLike(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID   string `json:"userId"`
		UserName string `json:"userName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	like, err := s.service.AddLike(r.Context(), mux.Vars(r)["id"], body.UserID, body.UserName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, like)
}

func (s *HTTPServer) handleRemoveLike(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.service.RemoveLike(r.Context(), vars["id"], vars["userId"]); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleGetMe(w http.ResponseWriter, r *http.Request) {
	users, err := usercontext.FromContext(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": users.Current(), "loading": users.Loading()})
}

func (s *HTTPServer) handleSetMe(w http.ResponseWriter, r *http.Request) {
	users, err := usercontext.FromContext(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body store.User
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if strings.TrimSpace(body.ID) == "" {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "id is required", nil)
		return
	}
	users.Set(body)
	writeJSON(w, http.StatusOK, map[string]any{"user": users.Current(), "loading": users.Loading()})
}

func (s *HTTPServer) handleRefreshMe(w http.ResponseWriter, r *http.Request) {
	users, err := usercontext.FromContext(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := users.Refetch(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "USER_CONTEXT_CLOSED", "User context is shutting down", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": users.Current(), "loading": users.Loading()})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Logout(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Theme(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleSelectTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	state, err := s.service.SelectTheme(r.Context(), strings.TrimSpace(body.Theme))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := s.service.Menu(r.Context(), strings.TrimSpace(r.URL.Query().Get("active")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (s *HTTPServer) handleSelectTab(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tab string `json:"tab"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	tab, err := s.service.SelectTab(r.Context(), strings.TrimSpace(body.Tab))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activeTab": tab})
}

// fail maps err onto a JSON error response. Server-side failures are logged.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		if s.users != nil {
			ctx = usercontext.WithProvider(ctx, s.users)
		}
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", id)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		s.logger.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

// decodeBody decodes a JSON body into target. An empty body leaves target
// untouched.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

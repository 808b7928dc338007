// Package chi implements the HTTP and WebSocket transport over the
// chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/collabtask/collabtask/internal/domain"
	"github.com/collabtask/collabtask/internal/domain/search/filter"
	"github.com/collabtask/collabtask/internal/domain/search/result"
	searchuc "github.com/collabtask/collabtask/internal/usecase/search"
)

// Error codes on the wire.
const (
	codeBadRequest      = "bad_request"
	codeInvalidFilter   = "invalid_filter"
	codeUnauthenticated = "unauthenticated"
	codeAccessDenied    = "access_denied"
	codeNotFound        = "not_found"
	codeUnavailable     = "unavailable"
	codeInternal        = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Pinger checks storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server hosts the search API and the health and metrics endpoints.
type Server struct {
	search        *searchuc.Service
	store         Pinger
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the API server.
func NewServer(search *searchuc.Service, store Pinger, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		store:  store,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter),
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthenticated),
		sentinelHandler(domain.ErrAccessDenied, http.StatusForbidden, codeAccessDenied),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUnavailable, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// Routes mounts every endpoint on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/search", func(r chi.Router) {
		r.Get("/", s.handleGlobalSearch)
		r.Get("/tasks", s.typedSearch(s.search.SearchTasks))
		r.Get("/projects", s.typedSearch(s.search.SearchProjects))
		r.Get("/comments", s.typedSearch(s.search.SearchComments))
		r.Get("/files", s.typedSearch(s.search.SearchFiles))
		r.Post("/advanced", s.handleAdvancedSearch)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/users", s.handleSearchUsers)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGlobalSearch(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
		return
	}

	results, err := s.search.GlobalSearch(r.Context(), r.URL.Query().Get("q"), identity.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: resultsToDTO(results)})
}

// typedSearch adapts one per-entity search operation into a handler.
func (s *Server) typedSearch(
	op func(ctx context.Context, query string, userID int64) ([]result.Result, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
			return
		}

		results, err := op(r.Context(), r.URL.Query().Get("q"), identity.UserID)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, searchResponse{Results: resultsToDTO(results)})
	}
}

func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
		return
	}

	var req advancedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	spec, err := filterSpecFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidFilter, err.Error())
		return
	}

	results, err := s.search.AdvancedSearch(r.Context(), spec, identity.UserID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: resultsToDTO(results)})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	suggestions, err := s.search.Suggest(r.Context(), r.URL.Query().Get("q"), identity.UserID, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]suggestionDTO, len(suggestions))
	for i, sg := range suggestions {
		items[i] = suggestionDTO{Text: sg.Text, Type: sg.Kind}
	}
	writeJSON(w, http.StatusOK, suggestResponse{Suggestions: items})
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
		return
	}

	users, err := s.search.SearchUsers(r.Context(), r.URL.Query().Get("q"), identity.Admin)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]userDTO, len(users))
	for i, u := range users {
		items[i] = userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Active: u.Active}
	}
	writeJSON(w, http.StatusOK, map[string][]userDTO{"users": items})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidFilter,
		domain.ErrUnauthenticated,
		domain.ErrAccessDenied,
		domain.ErrNotFound,
		domain.ErrUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// advancedSearchRequest is the flat filter document the client posts.
// Absent fields add no criterion.
type advancedSearchRequest struct {
	Type          string     `json:"type,omitempty"`
	Title         *string    `json:"title,omitempty"`
	Name          *string    `json:"name,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	Assignee      *int64     `json:"assignee,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
	DueAfter      *time.Time `json:"due_after,omitempty"`
	DueBefore     *time.Time `json:"due_before,omitempty"`
	Tag           *string    `json:"tags,omitempty"`
}

func filterSpecFromRequest(req advancedSearchRequest) (filter.Spec, error) {
	var criteria []filter.Criterion

	add := func(c filter.Criterion, err error) error {
		if err != nil {
			return err
		}
		criteria = append(criteria, c)
		return nil
	}

	// Title and name are glob patterns; the rest are exact or range.
	if req.Title != nil {
		if err := add(filter.Wildcard(filter.FieldTitle, *req.Title)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.Name != nil {
		if err := add(filter.Wildcard(filter.FieldName, *req.Name)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.Status != nil {
		if err := add(filter.Equals(filter.FieldStatus, *req.Status)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.Priority != nil {
		if err := add(filter.Equals(filter.FieldPriority, *req.Priority)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.Assignee != nil {
		if err := add(filter.Equals(filter.FieldAssignee, strconv.FormatInt(*req.Assignee, 10))); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.CreatedAfter != nil {
		if err := add(filter.After(filter.FieldCreated, *req.CreatedAfter)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.CreatedBefore != nil {
		if err := add(filter.Before(filter.FieldCreated, *req.CreatedBefore)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.DueAfter != nil {
		if err := add(filter.After(filter.FieldDue, *req.DueAfter)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.DueBefore != nil {
		if err := add(filter.Before(filter.FieldDue, *req.DueBefore)); err != nil {
			return filter.Spec{}, err
		}
	}
	if req.Tag != nil {
		if err := add(filter.TagContains(*req.Tag)); err != nil {
			return filter.Spec{}, err
		}
	}

	return filter.New(req.Type, criteria...)
}

type searchResponse struct {
	Results []resultDTO `json:"results"`
}

type resultDTO struct {
	Type           string `json:"type"`
	RelevanceScore int    `json:"relevanceScore"`
	Entity         any    `json:"entity"`
}

type suggestResponse struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type suggestionDTO struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type userDTO struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

type taskDTO struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status,omitempty"`
	Priority string   `json:"priority,omitempty"`
	DueDate  string   `json:"dueDate,omitempty"`
	Project  int64    `json:"projectId,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type projectDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
}

type commentDTO struct {
	ID           int64  `json:"id"`
	Content      string `json:"content"`
	TaskID       int64  `json:"taskId"`
	AuthorID     int64  `json:"authorId"`
	CreationDate string `json:"creationDate,omitempty"`
}

type fileDTO struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	FileType   string `json:"fileType,omitempty"`
	FileSize   int64  `json:"fileSize"`
	TaskID     int64  `json:"taskId,omitempty"`
	ProjectID  int64  `json:"projectId,omitempty"`
	UploadDate string `json:"uploadDate,omitempty"`
}

func resultsToDTO(results []result.Result) []resultDTO {
	out := make([]resultDTO, len(results))
	for i := range results {
		out[i] = resultDTO{
			Type:           string(results[i].Type()),
			RelevanceScore: results[i].Score(),
			Entity:         entityToDTO(&results[i]),
		}
	}
	return out
}

func entityToDTO(r *result.Result) any {
	switch e := r.Entity().(type) {
	case domain.Task:
		return taskDTO{
			ID:       e.ID,
			Title:    e.Title,
			Status:   e.Status,
			Priority: e.Priority,
			DueDate:  formatDate(e.DueDate),
			Project:  e.ProjectID,
			Tags:     e.Tags,
		}
	case domain.Project:
		return projectDTO{
			ID:           e.ID,
			Name:         e.Name,
			Status:       e.Status,
			CreationDate: formatDate(e.CreatedAt),
		}
	case domain.Comment:
		return commentDTO{
			ID:           e.ID,
			Content:      e.Content,
			TaskID:       e.TaskID,
			AuthorID:     e.UserID,
			CreationDate: formatDate(e.CreatedAt),
		}
	case domain.File:
		return fileDTO{
			ID:         e.ID,
			Filename:   e.Filename,
			FileType:   e.FileType,
			FileSize:   e.FileSize,
			TaskID:     e.TaskID,
			ProjectID:  e.ProjectID,
			UploadDate: formatDate(e.UploadedAt),
		}
	default:
		return e
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chiRouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/collabtask/collabtask/internal/domain"
)

func newTestRouter(f *fixture) http.Handler {
	srv := NewServer(f.search, f, zap.NewNop())
	r := chiRouter.NewRouter()
	r.Use(SessionAuthMiddleware(sessionData{f}, userData{f}))
	srv.Routes(r)
	return r
}

func authedFixture() *fixture {
	f := newFixture()
	f.sessions["tok"] = 7
	f.users[7] = domain.User{ID: 7, Name: "alice", Email: "alice@example.com", Active: true}
	return f
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGlobalSearchEndpoint(t *testing.T) {
	f := authedFixture()
	f.tasks = []domain.Task{
		{ID: 1, Title: "report", Priority: domain.PriorityLow},
		{ID: 2, Title: "status report", Priority: domain.PriorityLow},
	}
	h := newTestRouter(f)

	rec := doRequest(t, h, http.MethodGet, "/api/search?q=report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			Type           string         `json:"type"`
			RelevanceScore int            `json:"relevanceScore"`
			Entity         map[string]any `json:"entity"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].RelevanceScore != 100 || resp.Results[1].RelevanceScore != 50 {
		t.Errorf("ranking lost: %+v", resp.Results)
	}
	if resp.Results[0].Type != "TASK" || resp.Results[0].Entity["title"] != "report" {
		t.Errorf("entity payload wrong: %+v", resp.Results[0])
	}
}

func TestGlobalSearchEndpoint_BlankQuery(t *testing.T) {
	f := authedFixture()
	f.tasks = []domain.Task{{ID: 1, Title: "anything"}}
	h := newTestRouter(f)

	rec := doRequest(t, h, http.MethodGet, "/api/search?q=", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Errorf("blank query must return an empty list, got %s", rec.Body.String())
	}
}

func TestGlobalSearchEndpoint_StorageDown(t *testing.T) {
	f := authedFixture()
	h := newTestRouter(f)
	f.storeErr = domain.ErrUnavailable

	rec := doRequest(t, h, http.MethodGet, "/api/search?q=x", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), codeUnavailable) {
		t.Errorf("body %s", rec.Body.String())
	}
}

func TestTypedSearchEndpoints(t *testing.T) {
	f := authedFixture()
	f.tasks = []domain.Task{{ID: 1, Title: "deploy", Priority: domain.PriorityLow}}
	f.projects = []domain.Project{{ID: 10, Name: "deploy tooling"}}
	h := newTestRouter(f)

	rec := doRequest(t, h, http.MethodGet, "/api/search/tasks?q=deploy", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"type":"TASK"`) {
		t.Errorf("tasks endpoint: status %d body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"type":"PROJECT"`) {
		t.Error("tasks endpoint must not return projects")
	}

	rec = doRequest(t, h, http.MethodGet, "/api/search/projects?q=deploy", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"type":"PROJECT"`) {
		t.Errorf("projects endpoint: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAdvancedSearchEndpoint(t *testing.T) {
	f := authedFixture()
	f.tasks = []domain.Task{
		{ID: 1, Title: "Fix login page", Status: "open"},
		{ID: 2, Title: "Fix signup page", Status: "done"},
	}
	h := newTestRouter(f)

	body := `{"type":"task","title":"Fix*page","status":"open"}`
	rec := doRequest(t, h, http.MethodPost, "/api/search/advanced", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Results []struct {
			RelevanceScore int            `json:"relevanceScore"`
			Entity         map[string]any `json:"entity"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	if resp.Results[0].RelevanceScore != 50 {
		t.Errorf("filter match score: got %d", resp.Results[0].RelevanceScore)
	}
}

func TestAdvancedSearchEndpoint_InvalidFilter(t *testing.T) {
	f := authedFixture()
	h := newTestRouter(f)

	rec := doRequest(t, h, http.MethodPost, "/api/search/advanced", `{"type":"comment"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), codeInvalidFilter) {
		t.Errorf("body %s", rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodPost, "/api/search/advanced", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: got status %d, want 400", rec.Code)
	}
}

func TestSuggestEndpoint(t *testing.T) {
	f := authedFixture()
	f.tasks = []domain.Task{
		{ID: 1, Title: "Design review"},
		{ID: 2, Title: "Design audit"},
	}
	h := newTestRouter(f)

	rec := doRequest(t, h, http.MethodGet, "/api/search/suggest?q=design&limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}

	var resp struct {
		Suggestions []struct {
			Text string `json:"text"`
			Type string `json:"type"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0].Text != "Design review" {
		t.Fatalf("got %+v", resp.Suggestions)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/search/suggest?q=design&limit=bad", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: got status %d", rec.Code)
	}
}

func TestSearchUsersEndpoint(t *testing.T) {
	f := authedFixture()
	f.users[8] = domain.User{ID: 8, Name: "bob", Email: "bob@example.com", Active: false}
	h := newTestRouter(f)

	// Caller is not an admin; the inactive user stays hidden.
	rec := doRequest(t, h, http.MethodGet, "/api/search/users?q=bob@example.com", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"users":[]`) {
		t.Errorf("inactive user leaked: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture()
	h := newTestRouter(f)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}

	f.storeErr = domain.ErrUnavailable
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded store: got status %d", rec.Code)
	}
}

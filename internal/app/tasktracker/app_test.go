package tasktracker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/task-tracker/internal/config"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Env:           config.EnvLocal,
		StorageDriver: config.StorageDriverMemory,
	}
	cfg.AddressHTTP = ":0"
	cfg.TimeoutHTTP = 4 * time.Second
	cfg.RateLimitRPS = 1000
	cfg.RateLimitBurst = 1000
	cfg.JWTSecretKey = "test-secret"
	cfg.TokenTTL = time.Hour
	cfg.CookieName = "session_token"
	cfg.DefaultLimit = 10
	cfg.MaxLimit = 100
	cfg.PasswordCost = 4
	return cfg
}

type client struct {
	t      *testing.T
	base   string
	http   *http.Client
	token  string
	cookie *http.Cookie
}

func newClient(t *testing.T, base string) *client {
	return &client{
		t:    t,
		base: base,
		http: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
	}
}

func (c *client) do(method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, data
}

func (c *client) signUp(name, email, pw string) string {
	c.t.Helper()
	resp, body := c.do(http.MethodPost, "/register", map[string]string{"name": name, "email": email, "password": pw}, nil)
	require.Equal(c.t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
	require.NoError(c.t, json.Unmarshal(body, &out))
	require.Equal(c.t, "User created successfully", out.Message)
	require.NotEmpty(c.t, out.UserID)

	resp, body = c.do(http.MethodPost, "/login", map[string]string{"email": email, "password": pw}, nil)
	require.Equal(c.t, http.StatusOK, resp.StatusCode, string(body))
	var login struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	require.NoError(c.t, json.Unmarshal(body, &login))
	require.Equal(c.t, out.UserID, login.UserID)
	c.token = login.Token
	return out.UserID
}

type taskBody struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	OwnerID     string `json:"ownerId"`
}

type listBody struct {
	Tasks      []taskBody `json:"tasks"`
	Pagination struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

func startApp(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	app, err := New(context.Background(), cfg, newNoopLogger())
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestApp_TaskScenario(t *testing.T) {
	srv := startApp(t, newTestConfig())

	alice := newClient(t, srv.URL)
	aliceID := alice.signUp("Alice", "alice@example.com", "s3cret")

	resp, body := alice.do(http.MethodPost, "/tasks", map[string]string{"title": "Buy milk"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created taskBody
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "", created.Description)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, aliceID, created.OwnerID)

	resp, body = alice.do(http.MethodGet, "/tasks", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page listBody
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, created.ID, page.Tasks[0].ID)
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 10, page.Pagination.Limit)
	assert.Equal(t, 1, page.Pagination.Pages)

	// чужая задача не видна
	bob := newClient(t, srv.URL)
	bob.signUp("Bob", "bob@example.com", "hunter2")
	resp, _ = bob.do(http.MethodGet, "/tasks/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = bob.do(http.MethodPut, "/tasks/"+created.ID, map[string]string{"status": "done"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = bob.do(http.MethodDelete, "/tasks/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, body = bob.do(http.MethodGet, "/tasks", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"tasks":[]`)

	resp, body = alice.do(http.MethodPut, "/tasks/"+created.ID, map[string]string{"status": "done"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated taskBody
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "done", updated.Status)
	assert.Equal(t, "Buy milk", updated.Title)

	resp, body = alice.do(http.MethodDelete, "/tasks/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, body = alice.do(http.MethodGet, "/tasks/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"status":"Error","error":"task not found"}`, string(body))
}

func TestApp_AuthErrors(t *testing.T) {
	srv := startApp(t, newTestConfig())
	c := newClient(t, srv.URL)
	c.signUp("Alice", "alice@example.com", "s3cret")
	c.token = ""

	resp, body := c.do(http.MethodPost, "/register",
		map[string]string{"name": "Alice 2", "email": "alice@example.com", "password": "other"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "user already exists")

	resp, body = c.do(http.MethodPost, "/register", map[string]string{"name": "NoPassword", "email": "x@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"Error"`)

	resp, body = c.do(http.MethodPost, "/login", map[string]string{"email": "nobody@example.com", "password": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "no user found with this email")

	resp, body = c.do(http.MethodPost, "/login", map[string]string{"email": "alice@example.com", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "invalid password")

	resp, body = c.do(http.MethodGet, "/tasks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"status":"Error","error":"unauthorized"}`, string(body))

	c.token = "not-a-jwt"
	resp, _ = c.do(http.MethodPost, "/tasks", map[string]string{"title": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestApp_PasswordByteLimit(t *testing.T) {
	srv := startApp(t, newTestConfig())
	c := newClient(t, srv.URL)

	resp, body := c.do(http.MethodPost, "/register",
		map[string]string{"name": "Ivan", "email": "ivan@example.com", "password": strings.Repeat("пароль", 7)}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"status":"Error","error":"password must be at most 72 bytes"}`, string(body))

	c.signUp("Ivan", "ivan@example.com", strings.Repeat("пароль", 6))
}

func TestApp_PaddedTitleAtLimit(t *testing.T) {
	srv := startApp(t, newTestConfig())
	c := newClient(t, srv.URL)
	c.signUp("Alice", "alice@example.com", "s3cret")

	title := strings.Repeat("a", 100)
	resp, body := c.do(http.MethodPost, "/tasks", map[string]string{"title": "  " + title + "  "}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created taskBody
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, title, created.Title)

	resp, body = c.do(http.MethodPut, "/tasks/"+created.ID, map[string]string{"title": " " + title + " "}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var updated taskBody
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, title, updated.Title)
}

func TestApp_CookieSessionAndRedirect(t *testing.T) {
	srv := startApp(t, newTestConfig())
	c := newClient(t, srv.URL)
	c.signUp("Alice", "alice@example.com", "s3cret")
	c.token = ""

	// браузерный вход: без Accept: application/json
	resp, _ := c.do(http.MethodPost, "/login",
		map[string]string{"email": "alice@example.com", "password": "s3cret"},
		map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/tasks", resp.Header.Get("Location"))

	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "session_token" {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	c.cookie = &http.Cookie{Name: session.Name, Value: session.Value}

	resp, body := c.do(http.MethodPost, "/tasks", map[string]string{"title": "From cookie"}, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func TestApp_LogoutRevokesToken(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := newTestConfig()
	cfg.AddressRedis = mr.Addr()
	srv := startApp(t, cfg)

	c := newClient(t, srv.URL)
	c.signUp("Alice", "alice@example.com", "s3cret")

	resp, _ := c.do(http.MethodGet, "/tasks", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.do(http.MethodPost, "/logout", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"message":"logged out"}`, string(body))

	resp, _ = c.do(http.MethodGet, "/tasks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// новая сессия работает
	resp, body = c.do(http.MethodPost, "/login", map[string]string{"email": "alice@example.com", "password": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &login))
	c.token = login.Token
	resp, _ = c.do(http.MethodGet, "/tasks", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApp_ListQueries(t *testing.T) {
	srv := startApp(t, newTestConfig())
	c := newClient(t, srv.URL)
	c.signUp("Alice", "alice@example.com", "s3cret")

	for i := 0; i < 12; i++ {
		task := map[string]string{"title": "task", "status": "pending"}
		if i%3 == 0 {
			task["status"] = "done"
			task["description"] = "Weekly REPORT"
		}
		resp, body := c.do(http.MethodPost, "/tasks", task, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantItems int
		wantTotal int
		wantPages int
	}{
		{name: "first page", query: "?limit=5", wantCode: http.StatusOK, wantItems: 5, wantTotal: 12, wantPages: 3},
		{name: "last page", query: "?limit=5&page=3", wantCode: http.StatusOK, wantItems: 2, wantTotal: 12, wantPages: 3},
		{name: "status done", query: "?status=done", wantCode: http.StatusOK, wantItems: 4, wantTotal: 4, wantPages: 1},
		{name: "status all", query: "?status=all", wantCode: http.StatusOK, wantItems: 10, wantTotal: 12, wantPages: 2},
		{name: "search", query: "?search=report", wantCode: http.StatusOK, wantItems: 4, wantTotal: 4, wantPages: 1},
		{name: "search and pending", query: "?search=report&status=pending", wantCode: http.StatusOK, wantItems: 0, wantTotal: 0, wantPages: 0},
		{name: "invalid page falls back", query: "?page=zero&limit=x", wantCode: http.StatusOK, wantItems: 10, wantTotal: 12, wantPages: 2},
		{name: "unknown status", query: "?status=archived", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := c.do(http.MethodGet, "/tasks"+tt.query, nil, nil)
			require.Equal(t, tt.wantCode, resp.StatusCode, string(body))
			if tt.wantCode != http.StatusOK {
				return
			}
			var page listBody
			require.NoError(t, json.Unmarshal(body, &page))
			assert.Len(t, page.Tasks, tt.wantItems)
			assert.Equal(t, tt.wantTotal, page.Pagination.Total)
			assert.Equal(t, tt.wantPages, page.Pagination.Pages)
		})
	}
}

func TestApp_ServiceEndpoints(t *testing.T) {
	srv := startApp(t, newTestConfig())
	c := newClient(t, srv.URL)

	resp, body := c.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","checks":{"storage":"ok"}}`, string(body))

	resp, body = c.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "task_tracker_http_requests_total")

	resp, body = c.do(http.MethodGet, "/docs/doc.json", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"/tasks/{id}"`)
}

func TestApp_ProdKeepsClientErrors(t *testing.T) {
	cfg := newTestConfig()
	cfg.Env = config.EnvProd
	cfg.GenericLoginErrors = true
	srv := startApp(t, cfg)
	c := newClient(t, srv.URL)
	c.signUp("Alice", "alice@example.com", "s3cret")
	c.token = ""

	resp, body := c.do(http.MethodGet, "/tasks", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "unauthorized")

	for _, creds := range []map[string]string{
		{"email": "nobody@example.com", "password": "s3cret"},
		{"email": "alice@example.com", "password": "wrong"},
	} {
		resp, body = c.do(http.MethodPost, "/login", creds, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.JSONEq(t, `{"status":"Error","error":"invalid email or password"}`, string(body))
	}
}

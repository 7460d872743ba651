package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"postly/internal/db"
	"postly/internal/handlers"
	"postly/internal/middleware"
	"postly/internal/models"
	"postly/internal/router"
	"postly/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	t   *testing.T
	db  *gorm.DB
	svc *handlers.Services
	srv *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(conn))

	uploader, err := services.NewImageUploader(t.TempDir())
	require.NoError(t, err)
	hub := services.NewHub()
	t.Cleanup(hub.Close)

	users := services.NewUserService(conn)
	svc := &handlers.Services{
		Posts:    services.NewPostService(conn, services.NewPostNotifier(nil, nil, hub, "")),
		Queries:  services.NewPostQueryService(conn),
		Users:    users,
		Follows:  services.NewFollowService(conn),
		Uploader: uploader,
		Hub:      hub,
	}

	r := gin.New()
	r.Use(sessions.Sessions("postly_session", cookie.NewStore([]byte("test-secret"))))
	renderer, err := router.LoadTemplates("../../web/templates")
	require.NoError(t, err)
	r.HTMLRender = renderer
	r.Use(middleware.LoadUser(users))
	router.RegisterRoutes(r, svc)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testApp{t: t, db: conn, svc: svc, srv: srv}
}

// client keeps its own cookies and never follows redirects.
func (a *testApp) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) register(name, email string) *models.User {
	a.t.Helper()
	user, err := a.svc.Users.Register(context.Background(), name, email, "secret1")
	require.NoError(a.t, err)
	return user
}

// loggedIn returns a client with a session for email.
func (a *testApp) loggedIn(email string) *http.Client {
	a.t.Helper()
	c := a.client()
	resp, err := c.PostForm(a.srv.URL+"/login", url.Values{"email": {email}, "password": {"secret1"}})
	require.NoError(a.t, err)
	resp.Body.Close()
	require.Equal(a.t, http.StatusFound, resp.StatusCode)
	return c
}

func (a *testApp) post(owner *models.User, title, content string) *models.Post {
	a.t.Helper()
	p, err := a.svc.Posts.Create(context.Background(), owner, title, content)
	require.NoError(a.t, err)
	return p
}

type response struct {
	Code     int
	Body     string
	Location string
}

func (a *testApp) do(c *http.Client, method, path string, body io.Reader, headers map[string]string) response {
	a.t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(a.t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return response{Code: resp.StatusCode, Body: string(data), Location: resp.Header.Get("Location")}
}

func (a *testApp) get(c *http.Client, path string) response {
	return a.do(c, http.MethodGet, path, nil, nil)
}

func (a *testApp) postForm(c *http.Client, path string, values url.Values) response {
	return a.do(c, http.MethodPost, path, strings.NewReader(values.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
}

func (a *testApp) postJSON(c *http.Client, path string, payload interface{}) (response, map[string]interface{}) {
	a.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(a.t, err)
	resp := a.do(c, http.MethodPost, path, strings.NewReader(string(raw)), map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(resp.Body), "{") {
		require.NoError(a.t, json.Unmarshal([]byte(resp.Body), &out))
	}
	return resp, out
}

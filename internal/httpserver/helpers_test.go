package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/db"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

const (
	adminMail  = "admin@blog.dev"
	editorMail = "editor@blog.dev"
)

type fakeUploader struct {
	mu      sync.Mutex
	deleted []string
}

func (u *fakeUploader) Upload(_ context.Context, _ []byte, publicID string) (*media.Image, error) {
	return &media.Image{PublicID: media.Folder + "/" + publicID, URL: "https://cdn.test/" + publicID, Width: 2, Height: 2}, nil
}

func (u *fakeUploader) Delete(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, publicID)
	return nil
}

type testServer struct {
	e        *echo.Echo
	repo     *repo.GormRepo
	uploader *fakeUploader
}

type serverOpts struct {
	production  bool
	origins     []string
	rateLimiter echomw.RateLimiterStore
}

func newTestServer(t *testing.T, opts serverOpts) *testServer {
	t.Helper()

	gdb, err := db.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	r := repo.New(gdb, time.Second)

	tm, err := tokens.NewManager(tokens.Config{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	up := &fakeUploader{}
	e := echo.New()
	Register(e, &Deps{
		Logger: logging.NewWithWriter(io.Discard, "error"),
		Store:  r,
		Tokens: tm,
		Auth: &AuthHTTP{
			Svc: &service.AuthService{
				Users:      r,
				Sessions:   r,
				Tokens:     tm,
				Events:     events.Nop{},
				AdminMails: []string{adminMail, editorMail},
			},
			SecureCookies: opts.production,
		},
		Users: &UserHTTP{
			Svc:           &service.UserService{Users: r},
			SecureCookies: opts.production,
			DefaultLimit:  20,
		},
		Blogs: &BlogHTTP{
			Svc:          &service.BlogService{Blogs: r, Uploader: up, Events: events.Nop{}},
			DefaultLimit: 20,
		},
		RateLimiter:    opts.rateLimiter,
		AllowedOrigins: opts.origins,
		Production:     opts.production,
	})
	return &testServer{e: e, repo: r, uploader: up}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	token       string
	cookies     []*http.Cookie
	header      http.Header
}

func (s *testServer) do(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(r.method, r.path, r.body)
	if r.contentType != "" {
		req.Header.Set(echo.HeaderContentType, r.contentType)
	}
	if r.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+r.token)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	return s.do(request{method: method, path: path, body: rd, contentType: echo.MIMEApplicationJSON, token: token})
}

type session struct {
	access  string
	refresh *http.Cookie
}

func refreshCookieOf(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", refreshCookieName)
	return nil
}

func (s *testServer) register(t *testing.T, email, role string) session {
	t.Helper()
	body := map[string]string{"email": email, "password": "password123"}
	if role != "" {
		body["role"] = role
	}
	rec := s.doJSON(http.MethodPost, "/api/v1/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return session{access: res.AccessToken, refresh: refreshCookieOf(t, rec)}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func pngBanner(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func blogForm(t *testing.T, fields map[string]string, banner []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if banner != nil {
		fw, err := w.CreateFormFile(bannerField, "banner.png")
		require.NoError(t, err)
		_, err = fw.Write(banner)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (s *testServer) createBlog(t *testing.T, token, title, status string) map[string]any {
	t.Helper()
	body, ct := blogForm(t, map[string]string{"title": title, "content": "<p>" + strings.Repeat("words ", 5) + "</p>", "status": status}, pngBanner(t))
	rec := s.do(request{method: http.MethodPost, path: "/api/v1/blog", body: body, contentType: ct, token: token})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]map[string]any](t, rec)["blog"]
}

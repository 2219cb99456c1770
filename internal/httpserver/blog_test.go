package httpserver

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/middleware"
)

func TestCreateBlog(t *testing.T) {
	s := newTestServer(t, serverOpts{})
	admin := s.register(t, adminMail, "admin")

	blog := s.createBlog(t, admin.access, "Hello World", "published")
	assert.Equal(t, "Hello World", blog["title"])
	assert.Regexp(t, `^hello-world-[0-9a-z]+$`, blog["slug"])
	assert.Equal(t, "published", blog["status"])
	assert.NotEmpty(t, blog["publishedAt"])
	banner := blog["banner"].(map[string]any)
	assert.Contains(t, banner["url"], "https://cdn.test/")
	author := blog["author"].(map[string]any)
	assert.Equal(t, adminMail, author["email"])
	assert.NotContains(t, author, "passwordHash")
}

func TestCreateBlog_SanitizesContent(t *testing.T) {
	s := newTestServer(t, serverOpts{})
	admin := s.register(t, adminMail, "admin")

	body, ct := blogForm(t, map[string]string{
		"title":   "Scripted",
		"content": `<p>safe</p><script>alert(1)</script>`,
	}, pngBanner(t))
	rec := s.do(request{method: http.MethodPost, path: "/api/v1/blog", body: body, contentType: ct, token: admin.access})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	blog := decode[map[string]map[string]any](t, rec)["blog"]
	assert.Equal(t, "<p>safe</p>", blog["content"])
	assert.Equal(t, "draft", blog["status"])
}

func TestCreateBlog_Rejections(t *testing.T) {
	s := newTestServer(t, serverOpts{})
	admin := s.register(t, adminMail, "admin")
	reader := s.register(t, "reader@blog.dev", "")
	fields := map[string]string{"title": "Title", "content": "<p>body</p>"}

	tests := []struct {
		name    string
		token   string
		fields  map[string]string
		banner  []byte
		status  int
		message string
	}{
		{name: "user role", token: reader.access, fields: fields, banner: pngBanner(t), status: http.StatusForbidden, message: middleware.MsgNoPermission},
		{name: "missing banner", token: admin.access, fields: fields, status: http.StatusBadRequest, message: msgBannerRequired},
		{name: "banner too large", token: admin.access, fields: fields, banner: bytes.Repeat([]byte{0xff}, media.MaxImageSize+1), status: http.StatusRequestEntityTooLarge, message: msgBannerTooLarge},
		{name: "banner not an image", token: admin.access, fields: fields, banner: []byte("plain text, not an image"), status: http.StatusBadRequest, message: msgBannerType},
		{name: "missing title", token: admin.access, fields: map[string]string{"content": "<p>body</p>"}, banner: pngBanner(t), status: http.StatusBadRequest, message: "Validation failed"},
		{name: "bad status", token: admin.access, fields: map[string]string{"title": "T", "content": "c", "status": "live"}, banner: pngBanner(t), status: http.StatusBadRequest, message: "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := blogForm(t, tt.fields, tt.banner)
			rec := s.do(request{method: http.MethodPost, path: "/api/v1/blog", body: body, contentType: ct, token: tt.token})
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.message, decode[errorBody](t, rec).Message)
		})
	}
}

func TestBlogVisibility(t *testing.T) {
	s := newTestServer(t, serverOpts{})
	admin := s.register(t, adminMail, "admin")
	reader := s.register(t, "reader@blog.dev", "")

	published := s.createBlog(t, admin.access, "Out There", "published")
	draft := s.createBlog(t, admin.access, "Work In Progress", "draft")

	rec := s.doJSON(http.MethodGet, "/api/v1/blog/"+draft["slug"].(string), reader.access, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgBlogNotFound, decode[errorBody](t, rec).Message)

	rec = s.doJSON(http.MethodGet, "/api/v1/blog/"+draft["slug"].(string), admin.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.doJSON(http.MethodGet, "/api/v1/blog/"+published["slug"].(string), reader.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	type list struct {
		Total int64            `json:"total"`
		Blogs []map[string]any `json:"blogs"`
	}

	rec = s.doJSON(http.MethodGet, "/api/v1/blog", reader.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[list](t, rec)
	assert.EqualValues(t, 1, got.Total)
	require.Len(t, got.Blogs, 1)
	assert.Equal(t, published["id"], got.Blogs[0]["id"])

	rec = s.doJSON(http.MethodGet, "/api/v1/blog", admin.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[list](t, rec).Total)

	authorID := published["author"].(map[string]any)["id"].(string)
	rec = s.doJSON(http.MethodGet, "/api/v1/blog/user/"+authorID, admin.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[list](t, rec).Total)

	rec = s.doJSON(http.MethodGet, "/api/v1/blog/user/not-a-uuid", admin.access, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteBlog(t *testing.T) {
	s := newTestServer(t, serverOpts{})
	admin := s.register(t, adminMail, "admin")
	editor := s.register(t, editorMail, "admin")

	blog := s.createBlog(t, admin.access, "First Cut", "draft")
	id := blog["id"].(string)
	oldBanner := blog["banner"].(map[string]any)

	body, ct := blogForm(t, map[string]string{"title": "Hijacked"}, nil)
	rec := s.do(request{method: http.MethodPut, path: "/api/v1/blog/" + id, body: body, contentType: ct, token: editor.access})
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, msgNotBlogAuthor, decode[errorBody](t, rec).Message)

	body, ct = blogForm(t, map[string]string{"title": "Revised", "status": "published"}, nil)
	rec = s.do(request{method: http.MethodPut, path: "/api/v1/blog/" + id, body: body, contentType: ct, token: admin.access})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]map[string]any](t, rec)["blog"]
	assert.Equal(t, "Revised", updated["title"])
	assert.Equal(t, "published", updated["status"])
	assert.Equal(t, oldBanner["url"], updated["banner"].(map[string]any)["url"])

	body, ct = blogForm(t, nil, pngBanner(t))
	rec = s.do(request{method: http.MethodPut, path: "/api/v1/blog/" + id, body: body, contentType: ct, token: admin.access})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, oldBanner["url"], decode[map[string]map[string]any](t, rec)["blog"]["banner"].(map[string]any)["url"])

	assert.Equal(t, http.StatusForbidden, s.doJSON(http.MethodDelete, "/api/v1/blog/"+id, editor.access, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.doJSON(http.MethodDelete, "/api/v1/blog/"+id, admin.access, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.doJSON(http.MethodDelete, "/api/v1/blog/"+id, admin.access, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.doJSON(http.MethodDelete, "/api/v1/blog/not-a-uuid", admin.access, nil).Code)

	s.uploader.mu.Lock()
	defer s.uploader.mu.Unlock()
	assert.Len(t, s.uploader.deleted, 2)
}

func TestSearchBlogs_DatabaseFallback(t *testing.T) {
	s := newTestServer(t, serverOpts{})
	admin := s.register(t, adminMail, "admin")
	reader := s.register(t, "reader@blog.dev", "")

	s.createBlog(t, admin.access, "Go Concurrency Patterns", "published")
	s.createBlog(t, admin.access, "Go Generics Draft", "draft")
	s.createBlog(t, admin.access, "Cooking Pasta", "published")

	rec := s.doJSON(http.MethodGet, "/api/v1/blog/search?q=go", reader.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[struct {
		Total int64            `json:"total"`
		Blogs []map[string]any `json:"blogs"`
	}](t, rec)
	assert.EqualValues(t, 1, got.Total)
	require.Len(t, got.Blogs, 1)
	assert.Equal(t, "Go Concurrency Patterns", got.Blogs[0]["title"])

	rec = s.doJSON(http.MethodGet, "/api/v1/blog/search", reader.access, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Errors, "q")
}

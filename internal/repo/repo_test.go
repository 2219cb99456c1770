package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/config"
	"github.com/Skotchmaster/blog_api/internal/db"
	"github.com/Skotchmaster/blog_api/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	gdb, err := db.OpenInMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	return New(gdb, time.Second)
}

func seedUser(t *testing.T, r *GormRepo, email, role string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     "user-" + uuid.NewString()[:8],
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         role,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestUsers_CreateAndLookup(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "a@blog.dev", models.RoleUser)
	assert.NotEqual(t, uuid.Nil, u.ID)

	withPw, err := r.FindUserByEmailWithPassword(ctx, "a@blog.dev")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", withPw.PasswordHash)

	plain, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, plain.PasswordHash)
	assert.Equal(t, "a@blog.dev", plain.Email)

	role, err := r.GetUserRole(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)

	_, err = r.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	r := newTestRepo(t)
	seedUser(t, r, "dup@blog.dev", models.RoleUser)

	err := r.CreateUser(context.Background(), &models.User{
		Username:     "other",
		Email:        "dup@blog.dev",
		PasswordHash: "x",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	ok, err := r.EmailExists(context.Background(), "dup@blog.dev")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUsers_UpdateListDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "one@blog.dev", models.RoleUser)
	seedUser(t, r, "two@blog.dev", models.RoleAdmin)

	updated, err := r.UpdateUser(ctx, u.ID, map[string]any{"first_name": "Ada", "social_website": "https://ada.dev"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "https://ada.dev", updated.SocialLinks.Website)

	total, users, err := r.ListUsers(ctx, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)

	require.NoError(t, r.DeleteUser(ctx, u.ID))
	require.NoError(t, r.DeleteUser(ctx, u.ID))
	_, err = r.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSessions(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	uid := uuid.New()

	require.NoError(t, r.SaveRefreshToken(ctx, uid, "token-a", time.Now().Add(time.Hour)))
	require.NoError(t, r.SaveRefreshToken(ctx, uid, "token-b", time.Now().Add(-time.Hour)))

	ok, err := r.RefreshTokenExists(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, ok)

	var stored models.RefreshToken
	require.NoError(t, r.DB.First(&stored).Error)
	assert.NotEqual(t, "token-a", stored.TokenHash)
	assert.Len(t, stored.TokenHash, 64)

	require.NoError(t, r.DeleteRefreshToken(ctx, "token-a"))
	require.NoError(t, r.DeleteRefreshToken(ctx, "token-a"))
	ok, err = r.RefreshTokenExists(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := r.DeleteExpiredRefreshTokens(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestBlogs(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	author := seedUser(t, r, "author@blog.dev", models.RoleAdmin)

	draft := &models.Blog{Title: "Go Tips", Slug: "go-tips-1", Content: "c", AuthorID: author.ID,
		Banner: models.Banner{PublicID: "blog_api/one", URL: "https://img/1"}}
	require.NoError(t, r.CreateBlog(ctx, draft))
	require.NotNil(t, draft.Author)
	assert.Equal(t, models.BlogStatusDraft, draft.Status)

	now := time.Now()
	pub := &models.Blog{Title: "Rust notes", Slug: "rust-notes-1", Content: "c", AuthorID: author.ID,
		Status: models.BlogStatusPublished, PublishedAt: &now}
	require.NoError(t, r.CreateBlog(ctx, pub))

	exists, err := r.SlugExists(ctx, "go-tips-1")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := r.GetBlogBySlug(ctx, "go-tips-1")
	require.NoError(t, err)
	assert.Equal(t, "blog_api/one", got.Banner.PublicID)
	require.NotNil(t, got.Author)
	assert.Empty(t, got.Author.PasswordHash)

	total, blogs, err := r.ListBlogs(ctx, BlogFilter{}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, b := range blogs {
		assert.Empty(t, b.Banner.PublicID)
	}

	total, _, err = r.ListBlogs(ctx, BlogFilter{Status: models.BlogStatusPublished}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	total, blogs, err = r.ListBlogs(ctx, BlogFilter{Title: "GO T"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "go-tips-1", blogs[0].Slug)

	total, _, err = r.ListBlogs(ctx, BlogFilter{Title: "%"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	other := uuid.New()
	total, _, err = r.ListBlogs(ctx, BlogFilter{AuthorID: &other}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)

	ordered, err := r.GetBlogsByIDs(ctx, []uuid.UUID{pub.ID, uuid.New(), draft.ID}, "")
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, pub.ID, ordered[0].ID)

	onlyPub, err := r.GetBlogsByIDs(ctx, []uuid.UUID{draft.ID, pub.ID}, models.BlogStatusPublished)
	require.NoError(t, err)
	assert.Len(t, onlyPub, 1)

	got.Title = "Go Tips, revised"
	require.NoError(t, r.UpdateBlog(ctx, got))
	again, err := r.GetBlogByID(ctx, got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Tips, revised", again.Title)

	require.NoError(t, r.DeleteBlog(ctx, got.ID))
	assert.ErrorIs(t, r.DeleteBlog(ctx, got.ID), gorm.ErrRecordNotFound)
}

func TestDeleteUser_KeepsBlogsWithForeignKeysEnforced(t *testing.T) {
	ctx := context.Background()
	gdb, err := db.Open(ctx, config.DriverSQLite, "file:userdelete?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	r := New(gdb, time.Second)

	var fkOn int
	require.NoError(t, gdb.Raw("PRAGMA foreign_keys").Scan(&fkOn).Error)
	require.Equal(t, 1, fkOn)

	author := seedUser(t, r, "author@blog.dev", models.RoleAdmin)
	blog := &models.Blog{Title: "Left behind", Slug: "left-behind", Content: "c", AuthorID: author.ID}
	require.NoError(t, r.CreateBlog(ctx, blog))
	require.NoError(t, r.SaveRefreshToken(ctx, author.ID, "author-token", time.Now().Add(time.Hour)))

	require.NoError(t, r.DeleteUser(ctx, author.ID))

	got, err := r.GetBlogByID(ctx, blog.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Nil(t, got.Author)

	ok, err := r.RefreshTokenExists(ctx, "author-token")
	require.NoError(t, err)
	assert.True(t, ok)
}

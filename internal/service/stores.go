package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserRole(ctx context.Context, id uuid.UUID) (string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error)
}

type SessionStore interface {
	SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error
	RefreshTokenExists(ctx context.Context, token string) (bool, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type BlogStore interface {
	CreateBlog(ctx context.Context, b *models.Blog) error
	GetBlogByID(ctx context.Context, id uuid.UUID) (*models.Blog, error)
	GetBlogBySlug(ctx context.Context, slug string) (*models.Blog, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListBlogs(ctx context.Context, f repo.BlogFilter, offset, limit int) (int64, []models.Blog, error)
	GetBlogsByIDs(ctx context.Context, ids []uuid.UUID, status string) ([]models.Blog, error)
	UpdateBlog(ctx context.Context, b *models.Blog) error
	DeleteBlog(ctx context.Context, id uuid.UUID) error
}

var (
	_ UserStore    = (*repo.GormRepo)(nil)
	_ SessionStore = (*repo.GormRepo)(nil)
	_ BlogStore    = (*repo.GormRepo)(nil)
)

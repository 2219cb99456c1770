package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/search"
)

const (
	maxSlugBase     = 200
	slugAttempts    = 3
	sideEffectLimit = 5 * time.Second
)

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9]+`)
	ugc       = bluemonday.UGCPolicy()
)

type BlogService struct {
	Blogs    BlogStore
	Uploader media.Uploader
	// Index is optional; without it search runs against the database.
	Index     search.Index
	Events    events.Publisher
	Sanitizer *bluemonday.Policy
}

type CreateBlogInput struct {
	Title   string
	Content string
	Status  string
	Banner  []byte
}

// UpdateBlogInput holds optional changes; a nil Banner keeps the current one.
type UpdateBlogInput struct {
	Title   *string
	Content *string
	Status  *string
	Banner  []byte
}

func Slugify(title string) string {
	base := strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// visibleStatus is the status filter applied for a viewer role.
func visibleStatus(role string) string {
	if role == models.RoleAdmin {
		return ""
	}
	return models.BlogStatusPublished
}

func (s *BlogService) sanitize(content string) string {
	p := s.Sanitizer
	if p == nil {
		p = ugc
	}
	return strings.TrimSpace(p.Sanitize(content))
}

func (s *BlogService) Create(ctx context.Context, authorID uuid.UUID, in CreateBlogInput) (*models.Blog, error) {
	l := logging.FromContext(ctx).With("svc", "blog.create", "author_id", authorID)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, FieldErrors{"title": "Title is required"}
	}
	content := s.sanitize(in.Content)
	if content == "" {
		return nil, FieldErrors{"content": "Content is required"}
	}
	if _, _, err := media.Check(in.Banner); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	slug, err := s.uniqueSlug(ctx, title)
	if err != nil {
		l.Error("create_blog_error", "status", 500, "reason", "slug lookup failed", "error", err)
		return nil, err
	}

	img, err := s.Uploader.Upload(ctx, in.Banner, uuid.NewString())
	if err != nil {
		l.Error("create_blog_error", "status", 500, "reason", "banner upload failed", "error", err)
		return nil, fmt.Errorf("upload banner: %w", err)
	}
	l.Info("banner_uploaded", "public_id", img.PublicID)

	blog := &models.Blog{
		Title:    title,
		Slug:     slug,
		Content:  content,
		AuthorID: authorID,
		Status:   in.Status,
		Banner: models.Banner{
			PublicID: img.PublicID,
			URL:      img.URL,
			Width:    img.Width,
			Height:   img.Height,
		},
	}
	if blog.Status == models.BlogStatusPublished {
		now := time.Now().UTC()
		blog.PublishedAt = &now
	}

	if err := s.Blogs.CreateBlog(ctx, blog); err != nil {
		s.dropBanner(ctx, img.PublicID)
		l.Error("create_blog_error", "status", 500, "reason", "cannot store blog", "error", err)
		return nil, err
	}

	s.reindex(ctx, blog)
	publish(ctx, s.Events, events.TopicBlog, blog.ID.String(), events.New(events.BlogCreated, map[string]string{
		"blogId":   blog.ID.String(),
		"slug":     blog.Slug,
		"authorId": authorID.String(),
		"status":   blog.Status,
	}))
	l.Info("blog_created", "blog_id", blog.ID, "slug", blog.Slug)
	return blog, nil
}

func (s *BlogService) List(ctx context.Context, viewerRole string, authorID *uuid.UUID, offset, limit int) (int64, []models.Blog, error) {
	f := repo.BlogFilter{AuthorID: authorID, Status: visibleStatus(viewerRole)}
	return s.Blogs.ListBlogs(ctx, f, offset, limit)
}

// GetBySlug hides drafts from non-admin viewers.
func (s *BlogService) GetBySlug(ctx context.Context, viewerRole, slug string) (*models.Blog, error) {
	blog, err := s.Blogs.GetBlogBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if want := visibleStatus(viewerRole); want != "" && blog.Status != want {
		return nil, ErrNotFound
	}
	return blog, nil
}

func (s *BlogService) Update(ctx context.Context, editorID, blogID uuid.UUID, in UpdateBlogInput) (*models.Blog, error) {
	l := logging.FromContext(ctx).With("svc", "blog.update", "blog_id", blogID)

	blog, err := s.owned(ctx, editorID, blogID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, FieldErrors{"title": "Title is required"}
		}
		blog.Title = title
	}
	if in.Content != nil {
		content := s.sanitize(*in.Content)
		if content == "" {
			return nil, FieldErrors{"content": "Content is required"}
		}
		blog.Content = content
	}
	if in.Status != nil {
		blog.Status = *in.Status
		if blog.Status == models.BlogStatusPublished && blog.PublishedAt == nil {
			now := time.Now().UTC()
			blog.PublishedAt = &now
		}
	}

	var oldBanner, newBanner string
	if in.Banner != nil {
		if _, _, err := media.Check(in.Banner); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		img, err := s.Uploader.Upload(ctx, in.Banner, uuid.NewString())
		if err != nil {
			l.Error("update_blog_error", "status", 500, "reason", "banner upload failed", "error", err)
			return nil, fmt.Errorf("upload banner: %w", err)
		}
		oldBanner, newBanner = blog.Banner.PublicID, img.PublicID
		blog.Banner = models.Banner{PublicID: img.PublicID, URL: img.URL, Width: img.Width, Height: img.Height}
	}

	if err := s.Blogs.UpdateBlog(ctx, blog); err != nil {
		s.dropBanner(ctx, newBanner)
		l.Error("update_blog_error", "status", 500, "error", err)
		return nil, err
	}
	if oldBanner != "" {
		s.dropBanner(ctx, oldBanner)
	}

	s.reindex(ctx, blog)
	l.Info("blog_updated")
	return blog, nil
}

func (s *BlogService) Delete(ctx context.Context, editorID, blogID uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "blog.delete", "blog_id", blogID)

	blog, err := s.owned(ctx, editorID, blogID)
	if err != nil {
		return err
	}
	if err := s.Blogs.DeleteBlog(ctx, blogID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		l.Error("delete_blog_error", "status", 500, "error", err)
		return err
	}

	s.dropBanner(ctx, blog.Banner.PublicID)
	if s.Index != nil {
		ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectLimit)
		if err := s.Index.DeleteBlog(ictx, blogID.String()); err != nil {
			l.Warn("search_delete_failed", "error", err)
		}
		cancel()
	}
	publish(ctx, s.Events, events.TopicBlog, blogID.String(), events.New(events.BlogDeleted, map[string]string{
		"blogId":   blogID.String(),
		"authorId": blog.AuthorID.String(),
	}))
	l.Info("blog_deleted")
	return nil
}

// Search returns published blogs. Elasticsearch is used when configured;
// on failure or without it a title match runs in the database.
func (s *BlogService) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Blog, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, FieldErrors{"q": "Search query is required"}
	}

	if s.Index != nil {
		total, ids, err := s.Index.SearchBlogs(ctx, query, models.BlogStatusPublished, offset, limit)
		if err == nil {
			blogs, err := s.Blogs.GetBlogsByIDs(ctx, ids, models.BlogStatusPublished)
			if err != nil {
				return 0, nil, err
			}
			return total, blogs, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "svc", "blog.search", "reason", "elasticsearch unavailable", "error", err)
	}

	return s.Blogs.ListBlogs(ctx, repo.BlogFilter{Status: models.BlogStatusPublished, Title: query}, offset, limit)
}

func (s *BlogService) owned(ctx context.Context, editorID, blogID uuid.UUID) (*models.Blog, error) {
	blog, err := s.Blogs.GetBlogByID(ctx, blogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if blog.AuthorID != editorID {
		return nil, fmt.Errorf("%w: not the author of this blog", ErrForbidden)
	}
	return blog, nil
}

func (s *BlogService) uniqueSlug(ctx context.Context, title string) (string, error) {
	for range slugAttempts {
		slug := Slugify(title)
		taken, err := s.Blogs.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", errors.New("could not generate a unique slug")
}

func (s *BlogService) dropBanner(ctx context.Context, publicID string) {
	if publicID == "" || s.Uploader == nil {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectLimit)
	defer cancel()
	if err := s.Uploader.Delete(dctx, publicID); err != nil {
		logging.FromContext(ctx).Warn("banner_delete_failed", "public_id", publicID, "error", err)
	}
}

func (s *BlogService) reindex(ctx context.Context, b *models.Blog) {
	if s.Index == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectLimit)
	defer cancel()
	err := s.Index.IndexBlog(ictx, search.Document{
		ID:        b.ID.String(),
		Title:     b.Title,
		Slug:      b.Slug,
		Content:   b.Content,
		Status:    b.Status,
		AuthorID:  b.AuthorID.String(),
		CreatedAt: b.CreatedAt,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "blog_id", b.ID, "error", err)
	}
}

package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

type BlogFilter struct {
	AuthorID *uuid.UUID
	Status   string
	// Title is matched case-insensitively as a substring.
	Title string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func withAuthor(db *gorm.DB) *gorm.DB {
	return db.Preload("Author", func(tx *gorm.DB) *gorm.DB {
		return tx.Omit(passwordColumn)
	})
}

func applyBlogFilter(db *gorm.DB, f BlogFilter) *gorm.DB {
	if f.AuthorID != nil {
		db = db.Where("author_id = ?", *f.AuthorID)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.Title != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Title)) + "%"
		db = db.Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern)
	}
	return db
}

func (r *GormRepo) CreateBlog(ctx context.Context, b *models.Blog) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Create(b).Error; err != nil {
		return err
	}
	var author models.User
	if err := db.Omit(passwordColumn).Where("id = ?", b.AuthorID).First(&author).Error; err == nil {
		b.Author = &author
	}
	return nil
}

func (r *GormRepo) GetBlogByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var blog models.Blog
	if err := withAuthor(db).Where("id = ?", id).First(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *GormRepo) GetBlogBySlug(ctx context.Context, slug string) (*models.Blog, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var blog models.Blog
	if err := withAuthor(db).Where("slug = ?", slug).First(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

func (r *GormRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.Blog{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListBlogs never selects the banner public id.
func (r *GormRepo) ListBlogs(ctx context.Context, f BlogFilter, offset, limit int) (int64, []models.Blog, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var total int64
	if err := applyBlogFilter(db.Model(&models.Blog{}), f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	blogs := make([]models.Blog, 0, limit)
	if err := applyBlogFilter(withAuthor(db), f).
		Omit("banner_public_id").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&blogs).Error; err != nil {
		return 0, nil, err
	}
	return total, blogs, nil
}

// GetBlogsByIDs keeps the order of ids and skips ids with no row or a
// status other than the requested one.
func (r *GormRepo) GetBlogsByIDs(ctx context.Context, ids []uuid.UUID, status string) ([]models.Blog, error) {
	if len(ids) == 0 {
		return []models.Blog{}, nil
	}
	db, cancel := r.conn(ctx)
	defer cancel()

	var found []models.Blog
	q := withAuthor(db).Omit("banner_public_id").Where("id IN ?", ids)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Blog, len(found))
	for _, b := range found {
		byID[b.ID] = b
	}
	out := make([]models.Blog, 0, len(found))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *GormRepo) UpdateBlog(ctx context.Context, b *models.Blog) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return db.Omit("Author").Save(b).Error
}

func (r *GormRepo) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Where("id = ?", id).Delete(&models.Blog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

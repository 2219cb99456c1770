package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/models"
)

// Refresh tokens are stored by digest; the signed token never reaches the database.

func (r *GormRepo) SaveRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	row := models.RefreshToken{
		TokenHash: hash.Sha256Hex(token),
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
	return db.Create(&row).Error
}

func (r *GormRepo) RefreshTokenExists(ctx context.Context, token string) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.RefreshToken{}).
		Where("token_hash = ?", hash.Sha256Hex(token)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteRefreshToken is a no-op for unknown tokens.
func (r *GormRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return db.Where("token_hash = ?", hash.Sha256Hex(token)).Delete(&models.RefreshToken{}).Error
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	res := db.Where("expires_at < ?", now.UTC()).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

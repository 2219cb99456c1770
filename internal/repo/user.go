package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/models"
)

const passwordColumn = "password_hash"

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return db.Create(u).Error
}

// FindUserByEmailWithPassword is the only lookup that loads the password hash.
func (r *GormRepo) FindUserByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Omit(passwordColumn).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserRole(ctx context.Context, id uuid.UUID) (string, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var user models.User
	if err := db.Select("id", "role").Where("id = ?", id).First(&user).Error; err != nil {
		return "", err
	}
	return user.Role, nil
}

func (r *GormRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.userExists(ctx, "email = ?", email)
}

func (r *GormRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.userExists(ctx, "username = ?", username)
}

func (r *GormRepo) userExists(ctx context.Context, query string, arg any) (bool, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var count int64
	if err := db.Model(&models.User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateUser applies column updates and returns the fresh row.
func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	if len(updates) > 0 {
		res := db.Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	var user models.User
	if err := db.Omit(passwordColumn).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes only the user row. Blogs and refresh tokens are kept.
func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	db, cancel := r.conn(ctx)
	defer cancel()
	return db.Where("id = ?", id).Delete(&models.User{}).Error
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	users := make([]models.User, 0, limit)
	if err := db.Omit(passwordColumn).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

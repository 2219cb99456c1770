package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const defaultQueryTimeout = 5 * time.Second

type GormRepo struct {
	DB *gorm.DB
	// QueryTimeout bounds every call; zero means defaultQueryTimeout.
	QueryTimeout time.Duration
}

func New(db *gorm.DB, timeout time.Duration) *GormRepo {
	return &GormRepo{DB: db, QueryTimeout: timeout}
}

func (r *GormRepo) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	timeout := r.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return r.DB.WithContext(ctx), cancel
}

func (r *GormRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

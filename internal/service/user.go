package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
)

type UserService struct {
	Users UserStore
}

// UpdateUserInput holds optional profile changes; nil means unchanged.
type UpdateUserInput struct {
	Username  *string
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	Website   *string
	Facebook  *string
	Instagram *string
	LinkedIn  *string
	X         *string
	YouTube   *string
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update", "user_id", id)

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	fieldErrs := FieldErrors{}

	if in.Username != nil && *in.Username != current.Username {
		taken, err := s.Users.UsernameExists(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			fieldErrs["username"] = "This username is already in use"
		}
		updates["username"] = *in.Username
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if email != current.Email {
			taken, err := s.Users.EmailExists(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				fieldErrs["email"] = "This email is already in use"
			}
			updates["email"] = email
		}
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	if in.Password != nil {
		pwHash, err := hash.HashPassword(*in.Password)
		if err != nil {
			l.Error("update_error", "status", 500, "reason", "cannot hash the password", "error", err)
			return nil, err
		}
		updates["password_hash"] = pwHash
	}

	optional := []struct {
		column string
		value  *string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"social_website", in.Website},
		{"social_facebook", in.Facebook},
		{"social_instagram", in.Instagram},
		{"social_linkedin", in.LinkedIn},
		{"social_x", in.X},
		{"social_youtube", in.YouTube},
	}
	for _, f := range optional {
		if f.value != nil {
			updates[f.column] = *f.value
		}
	}

	user, err := s.Users.UpdateUser(ctx, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, FieldErrors{"user": "Username or email is already in use"}
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotFound
		}
		l.Error("update_error", "status", 500, "error", err)
		return nil, err
	}
	l.Info("user_updated", "fields", len(updates))
	return user, nil
}

// Delete removes the account only. Blogs and sessions of the user stay.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Users.DeleteUser(ctx, id); err != nil {
		logging.FromContext(ctx).Error("delete_user_error", "svc", "user.delete", "user_id", id, "error", err)
		return err
	}
	logging.FromContext(ctx).Info("user_deleted", "svc", "user.delete", "user_id", id)
	return nil
}

func (s *UserService) List(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	return s.Users.ListUsers(ctx, offset, limit)
}

package transport

import (
	"time"

	"github.com/Skotchmaster/blog_api/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,max=255,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,max=255,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Username  *string `json:"username"   validate:"omitempty,max=20"`
	Email     *string `json:"email"      validate:"omitempty,max=255,email"`
	Password  *string `json:"password"   validate:"omitempty,min=8"`
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=20"`
	LastName  *string `json:"last_name"  validate:"omitempty,min=2,max=20"`
	Website   *string `json:"website"    validate:"omitempty,url,max=100"`
	Facebook  *string `json:"facebook"   validate:"omitempty,url,max=100"`
	Instagram *string `json:"instagram"  validate:"omitempty,url,max=100"`
	LinkedIn  *string `json:"linkedin"   validate:"omitempty,url,max=100"`
	X         *string `json:"x"          validate:"omitempty,url,max=100"`
	YouTube   *string `json:"youtube"    validate:"omitempty,url,max=100"`
}

// BlogForm is the non-file part of the multipart blog form.
type BlogForm struct {
	Title   string `form:"title"   validate:"required,max=180"`
	Content string `form:"content" validate:"required"`
	Status  string `form:"status"  validate:"omitempty,oneof=draft published"`
}

type UpdateBlogForm struct {
	Title   *string `form:"title"   validate:"omitempty,min=1,max=180"`
	Content *string `form:"content" validate:"omitempty,min=1"`
	Status  *string `form:"status"  validate:"omitempty,oneof=draft published"`
}

type UserSummary struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func SummaryOf(u *models.User) UserSummary {
	return UserSummary{Username: u.Username, Email: u.Email, Role: u.Role}
}

type AuthResponse struct {
	User        UserSummary `json:"user"`
	AccessToken string      `json:"accessToken"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type UserResponse struct {
	User *models.User `json:"user"`
}

type UserListResponse struct {
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int64         `json:"total"`
	Users  []models.User `json:"users"`
}

type BlogResponse struct {
	Blog *models.Blog `json:"blog"`
}

type BlogListResponse struct {
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Total  int64         `json:"total"`
	Blogs  []models.Blog `json:"blogs"`
}

type IndexResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

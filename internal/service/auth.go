package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	Tokens   *tokens.Manager
	Events   events.Publisher
	// AdminMails lists the lowercased emails allowed to register as admin.
	AdminMails []string
}

type AuthResult struct {
	User         *models.User
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NewUsername() string {
	return "user-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func (s *AuthService) Register(ctx context.Context, email, password, role string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = NormalizeEmail(email)
	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleAdmin && !slices.Contains(s.AdminMails, email) {
		l.Warn("register_denied", "status", 403, "reason", "admin email is not allowlisted")
		return nil, fmt.Errorf("%w: not authorized to register as admin", ErrForbidden)
	}

	exists, err := s.Users.EmailExists(ctx, email)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "email lookup failed", "error", err)
		return nil, err
	}
	if exists {
		return nil, FieldErrors{"email": "Email already registered"}
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     NewUsername(),
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, FieldErrors{"email": "Email already registered"}
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}
	user.PasswordHash = ""

	res, err := s.startSession(ctx, user)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot start session", "error", err)
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, user.ID, map[string]string{
		"userId":   user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
	})
	l.Info("user_registered", "user_id", user.ID, "role", user.Role)
	return res, nil
}

// Login answers ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Users.FindUserByEmailWithPassword(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.BurnCompare(password)
			l.Warn("login_failed", "status", 404, "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 404, "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	user.PasswordHash = ""

	res, err := s.startSession(ctx, user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot start session", "error", err)
		return nil, err
	}

	s.publish(ctx, events.UserLoggedIn, user.ID, map[string]string{"userId": user.ID.String()})
	l.Info("login_successful", "user_id", user.ID)
	return res, nil
}

// RefreshAccessToken checks the Session Store before the signature, so a
// revoked token is rejected even while its signature is still valid.
// The refresh token itself is not rotated.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, time.Time, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	exists, err := s.Sessions.RefreshTokenExists(ctx, refreshToken)
	if err != nil {
		l.Error("refresh_error", "status", 500, "error", err)
		return "", time.Time{}, err
	}
	if !exists {
		l.Warn("refresh_failed", "status", 401, "reason", "unknown refresh token")
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, tokens.ErrTokenExpired) {
			l.Warn("refresh_failed", "status", 401, "reason", "refresh token expired")
			return "", time.Time{}, ErrRefreshTokenExpired
		}
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		return "", time.Time{}, ErrInvalidRefreshToken
	}

	access, exp, err := s.Tokens.IssueAccessToken(claims.UserID)
	if err != nil {
		l.Error("refresh_error", "status", 500, "error", err)
		return "", time.Time{}, err
	}
	return access, exp, nil
}

// Logout forgets the refresh token. Unknown or empty tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken != "" {
		if err := s.Sessions.DeleteRefreshToken(ctx, refreshToken); err != nil {
			l.Error("logout_error", "status", 500, "reason", "cannot delete refresh token", "error", err)
			return err
		}
	}

	s.publish(ctx, events.UserLoggedOut, userID, map[string]string{"userId": userID.String()})
	l.Info("logout_successful", "user_id", userID)
	return nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*AuthResult, error) {
	id := user.ID.String()
	access, accessExp, err := s.Tokens.IssueAccessToken(id)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Tokens.IssueRefreshToken(id)
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.SaveRefreshToken(ctx, user.ID, refresh, refreshExp); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}
	return &AuthResult{
		User:         user,
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, key uuid.UUID, data any) {
	publish(ctx, s.Events, events.TopicUser, key.String(), events.New(eventType, data))
}

func publish(ctx context.Context, p events.Publisher, topic, key string, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}

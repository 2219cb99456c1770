package middleware

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_api/internal/apierr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

const (
	MsgNoToken      = "Access denied. No token provided."
	MsgTokenExpired = "Access token has expired. Please log in again."
	MsgTokenInvalid = "Invalid access token. Please log in again."
	MsgUserNotFound = "User not found"
	MsgNoPermission = "You do not have permission to access this resource"
)

// Identity is the authenticated caller. Role is set by Authorize.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

type AccessVerifier interface {
	VerifyAccessToken(token string) (*tokens.Claims, error)
}

type RoleLookup interface {
	GetUserRole(ctx context.Context, id uuid.UUID) (string, error)
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// Authenticate requires a valid access token in the Authorization header.
func Authenticate(v AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "authenticate")

			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apierr.Authentication(MsgNoToken)
			}

			claims, err := v.VerifyAccessToken(token)
			if err != nil {
				if errors.Is(err, tokens.ErrTokenExpired) {
					l.Info("auth_failed", "status", 401, "reason", "access token expired")
					return apierr.Authentication(MsgTokenExpired)
				}
				l.Warn("auth_failed", "status", 401, "reason", "invalid access token", "error", err)
				return apierr.Authentication(MsgTokenInvalid)
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.Warn("auth_failed", "status", 401, "reason", "malformed user id")
				return apierr.Authentication(MsgTokenInvalid)
			}

			ctx = WithIdentity(ctx, Identity{UserID: userID})
			ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", userID))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// Authorize reads the caller's role from the store on every request so
// role changes apply without waiting for tokens to expire.
func Authorize(users RoleLookup, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			id, ok := IdentityFromContext(ctx)
			if !ok {
				return apierr.Authentication(MsgNoToken)
			}

			role, err := users.GetUserRole(ctx, id.UserID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierr.NotFound(MsgUserNotFound)
				}
				return apierr.Server(err)
			}
			if !slices.Contains(roles, role) {
				logging.FromContext(ctx).Warn("authorize_denied", "status", 403, "role", role)
				return apierr.Authorization(MsgNoPermission)
			}

			id.Role = role
			c.SetRequest(c.Request().WithContext(WithIdentity(ctx, id)))
			return next(c)
		}
	}
}

package httpserver

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apierr"
	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/middleware"
	"github.com/Skotchmaster/blog_api/internal/service"
)

const (
	msgUserNotFound    = "User not found"
	msgBlogNotFound    = "Blog not found"
	msgBannerRequired  = "Banner image is required"
	msgBannerTooLarge  = "Banner image must be less than 2MB"
	msgBannerType      = "Banner image must be a JPEG, PNG or WEBP image"
	msgRefreshRequired = "Refresh token required"
	msgRefreshInvalid  = "Invalid refresh token"
	msgRefreshExpired  = "Refresh token expired, please login again"
	msgAdminNotAllowed = "You are not authorized to register as admin"
	msgNotBlogAuthor   = "You do not have permission to modify this blog"
	msgInvalidUserID   = "Invalid user ID"
	msgInvalidBlogID   = "Invalid blog ID"
)

// serviceError maps service sentinels to API errors. notFound is the
// message used for ErrNotFound.
func serviceError(err error, notFound string) *apierr.Error {
	var fe service.FieldErrors
	switch {
	case errors.As(err, &fe):
		return apierr.Validation("Validation failed", fe)
	case errors.Is(err, media.ErrTooLarge):
		return apierr.TooLarge(msgBannerTooLarge)
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrEmpty):
		return apierr.Validation(msgBannerType, map[string]string{"banner_image": msgBannerType})
	case errors.Is(err, service.ErrValidation):
		return apierr.Validation("Validation failed", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apierr.NotFound(msgUserNotFound)
	case errors.Is(err, service.ErrNotFound):
		return apierr.NotFound(notFound)
	case errors.Is(err, service.ErrForbidden):
		return apierr.Authorization(middleware.MsgNoPermission)
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return apierr.Authentication(msgRefreshExpired)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return apierr.Authentication(msgRefreshInvalid)
	default:
		return apierr.Server(err)
	}
}

func identity(c echo.Context) (middleware.Identity, error) {
	id, ok := middleware.IdentityFromContext(c.Request().Context())
	if !ok {
		return middleware.Identity{}, apierr.Authentication(middleware.MsgNoToken)
	}
	return id, nil
}

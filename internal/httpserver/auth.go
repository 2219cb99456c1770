package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apierr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

type AuthHTTP struct {
	Svc           *service.AuthService
	SecureCookies bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body")
		return err
	}

	res, err := h.Svc.Register(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return apierr.Authorization(msgAdminNotAllowed)
		}
		return serviceError(err, msgUserNotFound)
	}

	c.SetCookie(refreshCookie(res.RefreshToken, res.RefreshExp, h.SecureCookies))
	l.Info("register_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, transport.AuthResponse{
		User:        transport.SummaryOf(res.User),
		AccessToken: res.AccessToken,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body")
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return serviceError(err, msgUserNotFound)
	}

	c.SetCookie(refreshCookie(res.RefreshToken, res.RefreshExp, h.SecureCookies))
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{
		User:        transport.SummaryOf(res.User),
		AccessToken: res.AccessToken,
	})
}

func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh_token")

	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "missing refresh cookie")
		return apierr.Authentication(msgRefreshRequired)
	}

	access, _, err := h.Svc.RefreshAccessToken(ctx, cookie.Value)
	if err != nil {
		return serviceError(err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, transport.RefreshResponse{AccessToken: access})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := identity(c)
	if err != nil {
		return err
	}

	var token string
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		token = cookie.Value
	}
	if err := h.Svc.Logout(ctx, id.UserID, token); err != nil {
		return serviceError(err, msgUserNotFound)
	}

	c.SetCookie(clearRefreshCookie(h.SecureCookies))
	return c.NoContent(http.StatusNoContent)
}

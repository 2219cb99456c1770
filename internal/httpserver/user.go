package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apierr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/util"
)

type UserHTTP struct {
	Svc           *service.UserService
	SecureCookies bool
	DefaultLimit  int
	DefaultOffset int
}

func (h *UserHTTP) GetCurrent(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Get(c.Request().Context(), id.UserID)
	if err != nil {
		return serviceError(err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{User: user})
}

func (h *UserHTTP) UpdateCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_current")

	id, err := identity(c)
	if err != nil {
		return err
	}

	var req transport.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("update_user_error", "status", 400, "reason", "invalid body")
		return err
	}

	user, err := h.Svc.Update(ctx, id.UserID, service.UpdateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Website:   req.Website,
		Facebook:  req.Facebook,
		Instagram: req.Instagram,
		LinkedIn:  req.LinkedIn,
		X:         req.X,
		YouTube:   req.YouTube,
	})
	if err != nil {
		return serviceError(err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{User: user})
}

func (h *UserHTTP) DeleteCurrent(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id.UserID); err != nil {
		return serviceError(err, msgUserNotFound)
	}
	c.SetCookie(clearRefreshCookie(h.SecureCookies))
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) List(c echo.Context) error {
	page, errs := util.ParsePage(c.QueryParam("limit"), c.QueryParam("offset"), h.DefaultLimit, h.DefaultOffset)
	if errs != nil {
		return apierr.Validation("Validation failed", errs)
	}

	total, users, err := h.Svc.List(c.Request().Context(), page.Offset, page.Limit)
	if err != nil {
		return serviceError(err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, transport.UserListResponse{
		Limit:  page.Limit,
		Offset: page.Offset,
		Total:  total,
		Users:  users,
	})
}

func (h *UserHTTP) GetByID(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return apierr.Validation(msgInvalidUserID, map[string]string{"userId": msgInvalidUserID})
	}
	user, err := h.Svc.Get(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err, msgUserNotFound)
	}
	return c.JSON(http.StatusOK, transport.UserResponse{User: user})
}

func (h *UserHTTP) DeleteByID(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return apierr.Validation(msgInvalidUserID, map[string]string{"userId": msgInvalidUserID})
	}
	if err := h.Svc.Delete(c.Request().Context(), userID); err != nil {
		return serviceError(err, msgUserNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

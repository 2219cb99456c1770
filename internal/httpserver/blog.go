package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/apierr"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/transport"
	"github.com/Skotchmaster/blog_api/internal/util"
)

const bannerField = "banner_image"

type BlogHTTP struct {
	Svc           *service.BlogService
	DefaultLimit  int
	DefaultOffset int
}

// readBanner returns nil, nil when the form has no banner file.
func readBanner(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile(bannerField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apierr.Validation("Invalid multipart form", nil)
	}
	if fh.Size > media.MaxImageSize {
		return nil, apierr.TooLarge(msgBannerTooLarge)
	}
	return readAll(fh)
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apierr.Server(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, media.MaxImageSize+1))
	if err != nil {
		return nil, apierr.Server(err)
	}
	if len(data) > media.MaxImageSize {
		return nil, apierr.TooLarge(msgBannerTooLarge)
	}
	return data, nil
}

func formValue(c echo.Context, key string) *string {
	params, err := c.FormParams()
	if err != nil {
		return nil
	}
	vs, ok := params[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	return &vs[0]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *BlogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.create")

	id, err := identity(c)
	if err != nil {
		return err
	}

	form := transport.BlogForm{
		Title:   deref(formValue(c, "title")),
		Content: deref(formValue(c, "content")),
		Status:  deref(formValue(c, "status")),
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("create_blog_error", "status", 400, "reason", "invalid form")
		return err
	}

	banner, err := readBanner(c)
	if err != nil {
		return err
	}
	if banner == nil {
		return apierr.Validation(msgBannerRequired, map[string]string{bannerField: msgBannerRequired})
	}

	blog, err := h.Svc.Create(ctx, id.UserID, service.CreateBlogInput{
		Title:   form.Title,
		Content: form.Content,
		Status:  form.Status,
		Banner:  banner,
	})
	if err != nil {
		return serviceError(err, msgBlogNotFound)
	}
	return c.JSON(http.StatusCreated, transport.BlogResponse{Blog: blog})
}

func (h *BlogHTTP) list(c echo.Context, authorID *uuid.UUID) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	page, errs := util.ParsePage(c.QueryParam("limit"), c.QueryParam("offset"), h.DefaultLimit, h.DefaultOffset)
	if errs != nil {
		return apierr.Validation("Validation failed", errs)
	}

	total, blogs, err := h.Svc.List(c.Request().Context(), id.Role, authorID, page.Offset, page.Limit)
	if err != nil {
		return serviceError(err, msgBlogNotFound)
	}
	return c.JSON(http.StatusOK, transport.BlogListResponse{
		Limit:  page.Limit,
		Offset: page.Offset,
		Total:  total,
		Blogs:  blogs,
	})
}

func (h *BlogHTTP) List(c echo.Context) error {
	return h.list(c, nil)
}

func (h *BlogHTTP) ListByUser(c echo.Context) error {
	authorID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return apierr.Validation(msgInvalidUserID, map[string]string{"userId": msgInvalidUserID})
	}
	return h.list(c, &authorID)
}

func (h *BlogHTTP) GetBySlug(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	blog, err := h.Svc.GetBySlug(c.Request().Context(), id.Role, c.Param("slug"))
	if err != nil {
		return serviceError(err, msgBlogNotFound)
	}
	return c.JSON(http.StatusOK, transport.BlogResponse{Blog: blog})
}

func (h *BlogHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.update")

	id, err := identity(c)
	if err != nil {
		return err
	}
	blogID, err := uuid.Parse(c.Param("blogId"))
	if err != nil {
		return apierr.Validation(msgInvalidBlogID, map[string]string{"blogId": msgInvalidBlogID})
	}

	form := transport.UpdateBlogForm{
		Title:   formValue(c, "title"),
		Content: formValue(c, "content"),
		Status:  formValue(c, "status"),
	}
	if err := c.Validate(&form); err != nil {
		l.Warn("update_blog_error", "status", 400, "reason", "invalid form")
		return err
	}

	banner, err := readBanner(c)
	if err != nil {
		return err
	}

	blog, err := h.Svc.Update(ctx, id.UserID, blogID, service.UpdateBlogInput{
		Title:   form.Title,
		Content: form.Content,
		Status:  form.Status,
		Banner:  banner,
	})
	if err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return apierr.Authorization(msgNotBlogAuthor)
		}
		return serviceError(err, msgBlogNotFound)
	}
	return c.JSON(http.StatusOK, transport.BlogResponse{Blog: blog})
}

func (h *BlogHTTP) Delete(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	blogID, err := uuid.Parse(c.Param("blogId"))
	if err != nil {
		return apierr.Validation(msgInvalidBlogID, map[string]string{"blogId": msgInvalidBlogID})
	}

	if err := h.Svc.Delete(c.Request().Context(), id.UserID, blogID); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			return apierr.Authorization(msgNotBlogAuthor)
		}
		return serviceError(err, msgBlogNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BlogHTTP) Search(c echo.Context) error {
	page, errs := util.ParsePage(c.QueryParam("limit"), c.QueryParam("offset"), h.DefaultLimit, h.DefaultOffset)
	if errs != nil {
		return apierr.Validation("Validation failed", errs)
	}

	total, blogs, err := h.Svc.Search(c.Request().Context(), c.QueryParam("q"), page.Offset, page.Limit)
	if err != nil {
		return serviceError(err, msgBlogNotFound)
	}
	return c.JSON(http.StatusOK, transport.BlogListResponse{
		Limit:  page.Limit,
		Offset: page.Offset,
		Total:  total,
		Blogs:  blogs,
	})
}

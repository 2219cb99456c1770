package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/blog_api/internal/apierr"
	"github.com/Skotchmaster/blog_api/internal/middleware"
	loggingmw "github.com/Skotchmaster/blog_api/internal/middleware/logging"
	"github.com/Skotchmaster/blog_api/internal/models"
	"github.com/Skotchmaster/blog_api/internal/ratelimit"
	"github.com/Skotchmaster/blog_api/internal/transport"
)

const APIVersion = "1.0.0"

// Store is what the router needs from storage directly: role lookups for
// Authorize and a readiness ping.
type Store interface {
	middleware.RoleLookup
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger *slog.Logger
	Store  Store
	Tokens middleware.AccessVerifier

	Auth  *AuthHTTP
	Users *UserHTTP
	Blogs *BlogHTTP

	RateLimiter    echomw.RateLimiterStore
	AllowedOrigins []string
	Production     bool

	// StaticPrefix and StaticDir serve locally stored banners. Empty disables.
	StaticPrefix string
	StaticDir    string
}

func corsConfig(d *Deps) echomw.CORSConfig {
	return echomw.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			if !d.Production || origin == "" {
				return true, nil
			}
			return slices.Contains(d.AllowedOrigins, origin), nil
		},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = apierr.Handler
	e.Validator = NewValidator()

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(
		echomw.RequestID(),
		loggingmw.RequestLogger(d.Logger),
		echomw.Recover(),
		echomw.CORSWithConfig(corsConfig(d)),
	)
	if d.RateLimiter != nil {
		e.Use(ratelimit.Middleware(d.RateLimiter))
	}
	// Above the banner limit so oversized files reach the handler's 413 message.
	e.Use(echomw.BodyLimit("4M"))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	if d.StaticPrefix != "" && d.StaticDir != "" {
		e.Static(d.StaticPrefix, d.StaticDir)
	}

	v1 := e.Group("/api/v1")
	v1.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, transport.IndexResponse{
			Message:   "API is Live",
			Status:    "ok",
			Version:   APIVersion,
			Timestamp: time.Now().UTC(),
		})
	})

	authn := middleware.Authenticate(d.Tokens)
	anyone := middleware.Authorize(d.Store, models.RoleAdmin, models.RoleUser)
	adminOnly := middleware.Authorize(d.Store, models.RoleAdmin)

	auth := v1.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh-token", d.Auth.RefreshToken)
	auth.POST("/logout", d.Auth.Logout, authn)

	user := v1.Group("/user", authn)
	user.GET("/current", d.Users.GetCurrent, anyone)
	user.PUT("/current", d.Users.UpdateCurrent, anyone)
	user.DELETE("/current", d.Users.DeleteCurrent, anyone)
	user.GET("", d.Users.List, adminOnly)
	user.GET("/:userId", d.Users.GetByID, adminOnly)
	user.DELETE("/:userId", d.Users.DeleteByID, adminOnly)

	blog := v1.Group("/blog", authn)
	blog.POST("", d.Blogs.Create, adminOnly)
	blog.GET("", d.Blogs.List, anyone)
	blog.GET("/search", d.Blogs.Search, anyone)
	blog.GET("/user/:userId", d.Blogs.ListByUser, anyone)
	blog.GET("/:slug", d.Blogs.GetBySlug, anyone)
	blog.PUT("/:blogId", d.Blogs.Update, adminOnly)
	blog.DELETE("/:blogId", d.Blogs.Delete, adminOnly)
}

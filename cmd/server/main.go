package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/blog_api/internal/config"
	"github.com/Skotchmaster/blog_api/internal/db"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/httpserver"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/media"
	"github.com/Skotchmaster/blog_api/internal/ratelimit"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/search"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.LogLevel).With("service", "blog_api", "env", cfg.AppEnv)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server_exit", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, log)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error("db_close_error", "error", err)
		}
	}()
	store := repo.New(gdb, cfg.DBQueryTimeout)

	tm, err := tokens.NewManager(tokens.Config{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenExpires,
		RefreshTTL:    cfg.RefreshTokenExpires,
	})
	if err != nil {
		return err
	}

	publisher := newPublisher(cfg, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("kafka_close_error", "error", err)
		}
	}()

	index, err := newIndex(ctx, cfg, log)
	if err != nil {
		return err
	}

	uploader, staticDir, err := newUploader(cfg)
	if err != nil {
		return err
	}

	limiter, closeLimiter, err := newRateLimiter(cfg, log)
	if err != nil {
		return err
	}
	defer closeLimiter()

	janitor := &service.SessionJanitor{Sessions: store, Interval: cfg.SessionGCInterval}
	go janitor.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	deps := httpserver.Deps{
		Logger: log,
		Store:  store,
		Tokens: tm,
		Auth: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Users:      store,
				Sessions:   store,
				Tokens:     tm,
				Events:     publisher,
				AdminMails: cfg.WhitelistAdminMails,
			},
			SecureCookies: cfg.IsProduction(),
		},
		Users: &httpserver.UserHTTP{
			Svc:           &service.UserService{Users: store},
			SecureCookies: cfg.IsProduction(),
			DefaultLimit:  cfg.DefaultResLimit,
			DefaultOffset: cfg.DefaultResOffset,
		},
		Blogs: &httpserver.BlogHTTP{
			Svc: &service.BlogService{
				Blogs:    store,
				Uploader: uploader,
				Index:    index,
				Events:   publisher,
			},
			DefaultLimit:  cfg.DefaultResLimit,
			DefaultOffset: cfg.DefaultResOffset,
		},
		RateLimiter:    limiter,
		AllowedOrigins: cfg.WhitelistOrigins,
		Production:     cfg.IsProduction(),
	}
	if staticDir != "" {
		deps.StaticPrefix = cfg.UploadBaseURL
		deps.StaticDir = staticDir
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "error", err)
	}
	log.Info("shutdown_complete")
	return nil
}

func newPublisher(cfg *config.Config, log *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("events_disabled", "reason", "KAFKA_BROKERS not set")
		return events.Nop{}
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, log)
}

// newIndex returns a nil Index when Elasticsearch is not configured or not
// reachable at startup; search then runs against the database.
func newIndex(ctx context.Context, cfg *config.Config, log *slog.Logger) (search.Index, error) {
	if cfg.ESURL == "" {
		log.Info("search_disabled", "reason", "ES_URL not set")
		return nil, nil
	}
	es, err := search.NewESIndex(search.Config{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		return nil, err
	}

	ictx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := es.EnsureIndex(ictx); err != nil {
		log.Warn("search_disabled", "reason", "cannot prepare index", "error", err)
		return nil, nil
	}
	return es, nil
}

// newUploader prefers Cloudinary and falls back to a local directory, in
// which case the directory is returned so it can be served.
func newUploader(cfg *config.Config) (media.Uploader, string, error) {
	if cfg.CloudinaryEnabled() {
		u, err := media.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, "", err
		}
		return u, "", nil
	}
	u, err := media.NewLocalUploader(cfg.UploadDir, strings.TrimRight(cfg.UploadBaseURL, "/"))
	if err != nil {
		return nil, "", err
	}
	return u, cfg.UploadDir, nil
}

func newRateLimiter(cfg *config.Config, log *slog.Logger) (echomw.RateLimiterStore, func(), error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryStore(cfg.RateLimitPerMinute), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.Error("redis_close_error", "error", err)
		}
	}
	return ratelimit.NewRedisStore(rdb, cfg.RateLimitPerMinute, ratelimit.Window, log), closeFn, nil
}

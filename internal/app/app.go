package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clipfeed/clipfeed/internal/config"
	"github.com/clipfeed/clipfeed/internal/db"
	"github.com/clipfeed/clipfeed/internal/engagement"
	"github.com/clipfeed/clipfeed/internal/middleware"
	"github.com/clipfeed/clipfeed/internal/repository"
	"github.com/clipfeed/clipfeed/internal/service"
	"github.com/clipfeed/clipfeed/internal/storage"
)

const (
	authRateBurst  = 5
	authRateWindow = 15 * time.Minute
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB // nil unless USER_STORE=sql
	Storage      storage.Storage
	Tracker      *engagement.Tracker
	AuthLimiter  *middleware.RateLimiter
	MediaService *service.MediaService
	FeedService  *service.FeedService
	Identity     service.IdentityProvider
	AuthService  *service.AuthService // nil in remote identity mode
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Cfg:         cfg,
		AuthLimiter: middleware.NewRateLimiter(authRateBurst, authRateWindow),
	}

	// Identity
	switch cfg.IdentityMode {
	case config.IdentityRemote:
		slog.Info("using remote identity service", "url", cfg.IdentityURL)
		a.Identity = service.NewRemoteIdentity(cfg.IdentityURL, nil)
	default:
		users, database, err := OpenUserRepository(cfg)
		if err != nil {
			return nil, err
		}
		a.DB = database
		a.AuthService = service.NewAuthService(users, cfg.JWTSecret, cfg.JWTExpiry)
		a.Identity = a.AuthService
	}

	// Storage
	mediaStorage, err := storage.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Storage = mediaStorage

	// Services
	a.Tracker = engagement.New(engagement.Options{
		CommentCooldown: cfg.CommentCooldown,
		Retention:       cfg.EngagementRetention,
		PruneInterval:   cfg.EngagementPruneInterval,
	})
	a.MediaService = service.NewMediaService(mediaStorage, cfg.UploadMaxBytes)

	feedService, err := service.NewFeedService(repository.NewVideoStore(cfg.VideosFile), a.MediaService, a.Tracker)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.FeedService = feedService

	return a, nil
}

// OpenUserRepository returns the configured user store. The database is
// non-nil only for the SQL store and must be closed by the caller.
func OpenUserRepository(cfg *config.Config) (repository.UserRepository, *sqlx.DB, error) {
	if cfg.UserStore == config.UserStoreSQL {
		database, err := db.Open(cfg.DBDriver, cfg.DBConnection)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repository.NewSQLUserRepository(database), database, nil
	}

	users, err := repository.NewJSONUserRepository(cfg.UsersFile)
	if err != nil {
		return nil, nil, err
	}
	return users, nil, nil
}

// Run starts background maintenance and blocks until ctx is done.
func (a *App) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.AuthLimiter.Run(ctx, authRateWindow)
		close(done)
	}()

	a.Tracker.Run(ctx)
	<-done
}

func (a *App) Close() error {
	return db.Close(a.DB)
}

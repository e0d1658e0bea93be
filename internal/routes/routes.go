package routes

import (
	"io/fs"
	"net/http"

	"github.com/clipfeed/clipfeed"
	"github.com/clipfeed/clipfeed/internal/app"
	"github.com/clipfeed/clipfeed/internal/handler"
	"github.com/clipfeed/clipfeed/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	feed := handler.NewFeedHandler(app.FeedService, app.MediaService.MaxBytes())
	auth := handler.NewAuthHandler(app.Identity)
	health := handler.NewHealthHandler(app.FeedService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Web client
	web, _ := fs.Sub(clipfeed.WebFS, "web")
	mux.Handle("GET /{$}", http.FileServer(http.FS(web)))

	// Media
	mux.Handle("GET /media/", http.StripPrefix("/media/", app.Storage.Handler()))

	mux.HandleFunc("GET /healthz", health.Health)

	// Feed
	mux.HandleFunc("GET /api/videos", feed.ListVideos)
	mux.HandleFunc("GET /api/video/{id}", feed.GetVideo)
	mux.HandleFunc("POST /api/upload", middleware.RejectBanned(feed.Upload))
	mux.HandleFunc("POST /api/view/{id}", feed.RecordView)
	mux.HandleFunc("POST /api/comment/{id}", middleware.RejectBanned(feed.AddComment))
	mux.HandleFunc("POST /api/like/{id}", middleware.RejectBanned(feed.ToggleLike))

	// Identity (register and login rate limited)
	rateLimiter := middleware.RateLimit(app.AuthLimiter)

	mux.HandleFunc("POST /auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("GET /auth/ban-status/{code}", auth.BanStatus)
	mux.HandleFunc("GET /auth/get-user/{username}", auth.GetUser)
	mux.HandleFunc("GET /auth/me", auth.Me)

	// ============================================================================
	// MIDDLEWARE
	// ============================================================================

	return middleware.Chain(mux,
		middleware.Recover,
		middleware.ClientIP(app.Cfg.TrustProxyHeaders),
		middleware.RequestLogging,
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
		middleware.Auth(app.Identity),
	)
}

package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/infra/metrics"
	pgrepo "github.com/divcode-web/Trueconnect-bot/internal/repo/postgres"
	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	geosvc "github.com/divcode-web/Trueconnect-bot/internal/services/geo"
	likessvc "github.com/divcode-web/Trueconnect-bot/internal/services/likes"
	matchessvc "github.com/divcode-web/Trueconnect-bot/internal/services/matches"
	mediasvc "github.com/divcode-web/Trueconnect-bot/internal/services/media"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
	ratesvc "github.com/divcode-web/Trueconnect-bot/internal/services/rate"
	httperrors "github.com/divcode-web/Trueconnect-bot/internal/transport/http/errors"
	"github.com/divcode-web/Trueconnect-bot/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService  *authsvc.Service
	Browsing     *browsingsvc.Service
	RateLimiter  *ratesvc.Limiter
	QuotaPolicy  *quotasvc.Policy
	LikeService  *likessvc.Service
	MatchService *matchessvc.Service
	GeoService   *geosvc.Service
	MediaService *mediasvc.Service
	ProfileRepo  *pgrepo.ProfileRepo
	Metrics      *metrics.Matching
	Logger       *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	browseHandler := handlers.NewBrowseHandler(deps.Browsing, deps.MediaService, deps.Logger)
	var observer handlers.RateLimitObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	swipeHandler := handlers.NewSwipeHandler(deps.Browsing, deps.RateLimiter, deps.MediaService, observer, deps.Logger)
	likesHandler := handlers.NewLikesHandler(deps.LikeService, deps.MediaService, deps.Logger)
	quotaHandler := handlers.NewQuotaHandler(deps.QuotaPolicy)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService, deps.ProfileRepo, deps.Logger)
	locationHandler := handlers.NewLocationHandler(deps.GeoService)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httperrors.Write(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Post("/v1/auth/telegram", authHandler.Telegram)
	r.Post("/v1/auth/refresh", authHandler.Refresh)

	r.Group(func(private chi.Router) {
		private.Use(AuthMiddleware(deps.AuthService, deps.Logger))

		private.Post("/v1/auth/logout", authHandler.Logout)
		private.Post("/v1/auth/logout-all", authHandler.LogoutAll)

		private.Get("/v1/browse", browseHandler.Current)
		private.Post("/v1/browse/reload", browseHandler.Reload)
		private.Post("/v1/swipes", swipeHandler.Swipe)
		private.Get("/v1/likes/incoming", likesHandler.Incoming)
		private.Get("/v1/quota", quotaHandler.Get)
		private.Get("/v1/matches", matchesHandler.List)
		private.Post("/v1/matches/unmatch", matchesHandler.Unmatch)
		private.Post("/v1/matches/block", matchesHandler.Block)
		private.Post("/v1/profile/location", locationHandler.Update)
	})
}

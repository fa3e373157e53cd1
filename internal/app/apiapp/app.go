package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/app/matching"
	"github.com/divcode-web/Trueconnect-bot/internal/config"
	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	stack      *matching.Stack
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	stack, err := matching.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, stack.Users, stack.AuthSessions, authsvc.Config{
		BotToken:       cfg.Bot.Token,
		InitDataMaxAge: cfg.Auth.InitDataMaxAge,
		RefreshTTL:     cfg.Auth.RefreshTTL,
		AllowUnsigned:  cfg.Auth.AllowUnsignedLogins,
	})
	if cfg.Auth.AllowUnsignedLogins {
		log.Warn("unsigned telegram logins are enabled")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		AuthService:  authService,
		Browsing:     stack.Browsing,
		RateLimiter:  stack.Limiter,
		QuotaPolicy:  stack.Quota,
		LikeService:  stack.Likes,
		MatchService: stack.Matches,
		GeoService:   stack.Geo,
		MediaService: stack.Media,
		ProfileRepo:  stack.Profiles,
		Metrics:      stack.Metrics,
		Logger:       log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		stack:      stack,
		httpRouter: r,
	}, nil
}

// Run serves HTTP and sweeps idle matching state until ctx is done or the server fails.
func (a *App) Run(ctx context.Context) error {
	go a.stack.Cleanup.Loop(ctx)

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if err := a.stack.Close(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// Package matching assembles the storage and services shared by the API and the bot.
package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/divcode-web/Trueconnect-bot/internal/config"
	"github.com/divcode-web/Trueconnect-bot/internal/infra/metrics"
	s3infra "github.com/divcode-web/Trueconnect-bot/internal/infra/s3"
	"github.com/divcode-web/Trueconnect-bot/internal/jobs/cleanup"
	memrepo "github.com/divcode-web/Trueconnect-bot/internal/repo/memory"
	pgrepo "github.com/divcode-web/Trueconnect-bot/internal/repo/postgres"
	redrepo "github.com/divcode-web/Trueconnect-bot/internal/repo/redis"
	authsvc "github.com/divcode-web/Trueconnect-bot/internal/services/auth"
	browsingsvc "github.com/divcode-web/Trueconnect-bot/internal/services/browsing"
	compatsvc "github.com/divcode-web/Trueconnect-bot/internal/services/compat"
	feedsvc "github.com/divcode-web/Trueconnect-bot/internal/services/feed"
	geosvc "github.com/divcode-web/Trueconnect-bot/internal/services/geo"
	likessvc "github.com/divcode-web/Trueconnect-bot/internal/services/likes"
	matchessvc "github.com/divcode-web/Trueconnect-bot/internal/services/matches"
	mediasvc "github.com/divcode-web/Trueconnect-bot/internal/services/media"
	quotasvc "github.com/divcode-web/Trueconnect-bot/internal/services/quota"
	ratesvc "github.com/divcode-web/Trueconnect-bot/internal/services/rate"
	swipesvc "github.com/divcode-web/Trueconnect-bot/internal/services/swipes"
)

type Stack struct {
	Postgres *pgxpool.Pool
	Redis    *goredis.Client
	S3       *minio.Client

	Users    *pgrepo.UserRepo
	Profiles *pgrepo.ProfileRepo
	Premium  *pgrepo.EntitlementRepo

	// AuthSessions backs API logins. Only the HTTP process uses it.
	AuthSessions authsvc.SessionStore

	Metrics  *metrics.Matching
	Browsing *browsingsvc.Service
	Quota    *quotasvc.Policy
	Matches  *matchessvc.Service
	Likes    *likessvc.Service
	Geo      *geosvc.Service
	Media    *mediasvc.Service
	Limiter  *ratesvc.Limiter
	Cleanup  *cleanup.Job
}

// New opens postgres, picks the volatile state backend and wires the matching services.
// S3 is optional: without it only Telegram file ids are shown as photos.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*Stack, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	st := &Stack{Postgres: pool, Metrics: metrics.NewMatching()}

	var (
		sessions browsingsvc.Store
		quotas   quotasvc.Store
		windows  ratesvc.WindowStore
		memWin   *memrepo.WindowStore
		memAuth  *memrepo.AuthSessionStore
	)
	switch cfg.State.Backend {
	case config.StateBackendRedis:
		client, err := redrepo.NewClient(ctx, redrepo.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		st.Redis = client
		sessions = redrepo.NewSessionStore(client, cfg.Session.IdleTTL)
		quotas = redrepo.NewQuotaStore(client)
		windows = redrepo.NewRateRepo(client)
		st.AuthSessions = redrepo.NewAuthSessionRepo(client)
	default:
		log.Warn("memory state backend is per-process, bot and api keep separate quotas and sessions")
		memWin = memrepo.NewWindowStore()
		memAuth = memrepo.NewAuthSessionStore()
		st.AuthSessions = memAuth
		sessions = memrepo.NewSessionStore()
		quotas = memrepo.NewQuotaStore()
		windows = memWin
	}

	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, photos limited to telegram file ids", zap.Error(err))
	} else {
		st.S3 = c
	}
	var signer mediasvc.Signer
	if st.S3 != nil {
		storage := mediasvc.NewS3Storage(st.S3, cfg.S3.Bucket)
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		}
		signer = storage
	}

	st.Users = pgrepo.NewUserRepo(pool)
	st.Profiles = pgrepo.NewProfileRepo(pool)
	st.Premium = pgrepo.NewEntitlementRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	blockRepo := pgrepo.NewBlockRepo(pool)

	ledger := swipesvc.NewLedger(swipeRepo)
	finder := feedsvc.NewService(feedsvc.Dependencies{
		Profiles: st.Profiles,
		Blocks:   blockRepo,
		Swipes:   ledger,
		Scorer:   compatsvc.NewScorer(compatsvc.Config{Normalize: cfg.Matching.NormalizeScore}),
	}, feedsvc.Config{
		BatchSize:            cfg.Matching.BatchSize,
		PoolSize:             cfg.Matching.PoolSize,
		DefaultMinAge:        cfg.Matching.DefaultMinAge,
		DefaultMaxAge:        cfg.Matching.DefaultMaxAge,
		DefaultMaxDistanceKM: cfg.Matching.DefaultMaxDistanceKM,
		MaxDistanceKM:        cfg.Matching.MaxDistanceKM,
	})
	st.Matches = matchessvc.NewService(matchessvc.Dependencies{
		MatchStore: matchRepo,
		Swipes:     ledger,
		BlockStore: blockRepo,
		Logger:     log,
	})
	st.Quota = quotasvc.NewPolicy(quotas, st.Premium, quotasvc.Config{
		FreeLikesPerDay: cfg.Quota.FreeLikesPerDay,
		Timezone:        cfg.Quota.Timezone,
	})
	st.Browsing = browsingsvc.NewService(browsingsvc.Dependencies{
		Finder:  finder,
		Ledger:  ledger,
		Matches: st.Matches,
		Quota:   st.Quota,
		Store:   sessions,
		Metrics: st.Metrics,
		Logger:  log,
	}, browsingsvc.Config{
		BatchSize:  cfg.Matching.BatchSize,
		IdleTTL:    cfg.Session.IdleTTL,
		PromoEvery: cfg.Session.PromoEvery,
	})
	st.Likes = likessvc.NewService(ledger, st.Profiles, st.Premium)
	st.Geo = geosvc.NewService(st.Profiles)
	st.Media = mediasvc.NewService(signer, cfg.S3.URLTTL)
	st.Limiter = ratesvc.NewLimiter(windows, ratesvc.Config{
		SwipesPerMinute: cfg.RateLimit.SwipesPerMinute,
		SwipesPer10Sec:  cfg.RateLimit.SwipesPer10Sec,
	})

	st.Cleanup = cleanup.New(st.Browsing, st.Quota, cleanupInterval(cfg), log)
	if memWin != nil {
		st.Cleanup.AttachExpirySweep("rate_windows", memWin)
		st.Cleanup.AttachExpirySweep("auth_sessions", memAuth)
	}

	log.Info("matching stack ready",
		zap.String("state_backend", cfg.State.Backend),
		zap.Bool("s3", st.S3 != nil),
	)

	return st, nil
}

func (s *Stack) Close() error {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

func cleanupInterval(cfg config.Config) time.Duration {
	if cfg.Bot.CleanupInterval > 0 {
		return cfg.Bot.CleanupInterval
	}
	return time.Hour
}

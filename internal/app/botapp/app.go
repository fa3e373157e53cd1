package botapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/divcode-web/Trueconnect-bot/internal/app/matching"
	"github.com/divcode-web/Trueconnect-bot/internal/config"
	tginfra "github.com/divcode-web/Trueconnect-bot/internal/infra/telegram"
)

type App struct {
	cfg    config.Config
	logger *zap.Logger
	stack  *matching.Stack
	bot    *tginfra.Bot
	flow   *Flow
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	stack, err := matching.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var (
		bot  *tginfra.Bot
		flow *Flow
	)
	if strings.TrimSpace(cfg.Bot.Token) != "" {
		bot, err = tginfra.NewBot(cfg.Bot.Token)
		if err != nil {
			_ = stack.Close()
			return nil, fmt.Errorf("init telegram bot: %w", err)
		}
		flow = NewFlow(FlowDependencies{
			Messenger: bot,
			Users:     stack.Users,
			Browser:   stack.Browsing,
			Matches:   stack.Matches,
			Likes:     stack.Likes,
			Quota:     stack.Quota,
			Geo:       stack.Geo,
			Profiles:  stack.Profiles,
			Photos:    stack.Media,
			Limiter:   stack.Limiter,
			Observer:  stack.Metrics,
			Logger:    logger,
		}, FlowTexts{
			Promo:  cfg.Bot.PromoText,
			Upsell: cfg.Bot.UpsellText,
		})
		logger.Info("telegram bot authorized", zap.String("username", bot.Username()))
	} else {
		logger.Warn("BOT_TOKEN is empty, update listener disabled")
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		stack:  stack,
		bot:    bot,
		flow:   flow,
	}, nil
}

// Run listens for updates and sweeps matching state until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.stack.Cleanup.Loop(gctx)
	})
	if a.bot != nil {
		g.Go(func() error {
			return a.bot.Listen(gctx, a.flow.Handlers())
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("bot app stopped")
	return nil
}

func (a *App) Close() {
	if err := a.stack.Close(); err != nil {
		a.logger.Warn("close matching stack", zap.Error(err))
	}
}

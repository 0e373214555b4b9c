package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"credscore/internal/config"
	"credscore/internal/notify"
	"credscore/internal/scheduler"
	"credscore/internal/service"
	"credscore/internal/statement"
	"credscore/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() notify.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newService(store *storage.Store, sched *scheduler.Scheduler) *service.Service {
	var profiles storage.ProfileStore
	var limits storage.LimitStore
	if store != nil {
		profiles = store
		limits = store
	}
	return service.New(a.Config, sched, profiles, limits, a.newNotifier(), a.Logger)
}

// Run executes the long-running rescoring daemon.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn not configured; the rescoring daemon needs persistence")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := a.newService(store, sched)

	a.Logger.Info().Msg("starting rescoring daemon")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("daemon terminated with error")
		return err
	}

	a.Logger.Info().Msg("rescoring daemon stopped")
	return nil
}

// AnalyzeOptions configure single-statement analysis.
type AnalyzeOptions struct {
	UserID   string
	FilePath string
	Type     statement.Type
}

// ScoreOptions configure limit calculation.
type ScoreOptions struct {
	UserID string
	All    bool
}

// SimulateOptions configure an offline end-to-end scoring run.
type SimulateOptions struct {
	StatementPath string
	Type          statement.Type
	KYCPath       string
	Confidence    float64
}

// ShowOptions configure the show command.
type ShowOptions struct {
	UserID string
}

// ExportOptions configure monthly-series export.
type ExportOptions struct {
	FilePath  string
	Type      statement.Type
	CSVPath   string
	PNGPath   string
	MaxPoints int
}

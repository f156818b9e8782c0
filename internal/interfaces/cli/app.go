package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/example/shuttle-pass/internal/application/usecases"
	"github.com/example/shuttle-pass/internal/domain/reservation"
	"github.com/example/shuttle-pass/internal/infrastructure/cache"
	"github.com/example/shuttle-pass/internal/infrastructure/config"
	"github.com/example/shuttle-pass/internal/infrastructure/credstore"
	"github.com/example/shuttle-pass/internal/infrastructure/crypto"
	"github.com/example/shuttle-pass/internal/infrastructure/postgres"
	"github.com/example/shuttle-pass/internal/infrastructure/settings"
	"github.com/example/shuttle-pass/internal/infrastructure/shuttle"
	"github.com/example/shuttle-pass/internal/logger"
)

const setupTimeout = 20 * time.Second

// boardingLog is implemented by both the SQLite cache and Postgres.
type boardingLog interface {
	usecases.BoardingLog
	Recent(ctx context.Context, limit int) ([]reservation.LoggedBoarding, error)
}

// app holds everything a command needs. Close releases the databases.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	settings  settings.Settings
	client    *shuttle.Client
	creds     usecases.CredentialStore
	store     *cache.Store
	schedules *cache.ScheduleCache
	boardings boardingLog
	pool      *pgxpool.Pool
	now       func() time.Time
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	if opts.envFile != "" {
		return config.FromEnv(opts.envFile)
	}
	return config.FromEnv(config.DefaultEnvPaths()...)
}

// openApp wires the stores and the shuttle client. Credentials and the
// boarding log move to Postgres when DATABASE_URL is set; the schedule cache
// always stays local.
func openApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s, err := settings.Load(cfg.SettingsPath())
	if err != nil {
		return nil, err
	}

	key := cfg.CredEncKey
	if len(key) == 0 {
		if key, err = crypto.LoadOrCreateKey(cfg.CredKeyPath()); err != nil {
			return nil, err
		}
	}
	aead, err := crypto.New(key)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), setupTimeout)
	defer cancel()

	a := &app{
		cfg:      cfg,
		logger:   log,
		settings: s,
		client: shuttle.New(shuttle.Config{
			IdentityURL: cfg.IdentityURL,
			BaseURL:     cfg.BaseURL,
			AppID:       cfg.AppID,
			HallID:      cfg.HallID,
			Timeout:     cfg.HTTPTimeout,
		}, log),
		now: time.Now,
	}

	a.store, err = cache.Open(ctx, cfg.CachePath())
	if err != nil {
		return nil, err
	}
	a.schedules = cache.NewScheduleCache(a.store)

	if cfg.DatabaseURL == "" {
		a.creds = credstore.NewFileStore(cfg.CredentialsPath(), aead)
		a.boardings = a.store
		return a, nil
	}

	a.pool, err = postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := postgres.Migrate(ctx, a.pool); err != nil {
		a.Close()
		return nil, err
	}
	a.creds = usecases.EncryptedCredentials{Store: postgres.NewCredentialRepo(a.pool), AEAD: aead}
	a.boardings = postgres.NewBoardingRepo(a.pool)
	log.Debug("using postgres for credentials and boarding log")
	return a, nil
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close cache", "err", err)
		}
	}
}

func (a *app) login() usecases.LoginService {
	return usecases.LoginService{Auth: a.client, Store: a.creds, Logger: a.logger}
}

// refresher builds the refresh chain. locator may be nil to decide the
// direction from the clock.
func (a *app) refresher(locator reservation.Locator) usecases.Refresher {
	return usecases.Refresher{
		Login:     a.login(),
		Schedule:  a.client,
		Direction: a.settings.Resolver(locator),
		Selector:  a.settings.Selector(),
		Pipeline: usecases.Pipeline{
			Provider:       a.client,
			LookupAttempts: a.settings.LookupAttempts,
			LookupDelay:    a.settings.LookupDelay(),
		},
		Cache:  a.schedules,
		Log:    a.boardings,
		Now:    a.now,
		Logger: a.logger,
	}
}

func (a *app) history() usecases.HistoryService {
	return usecases.HistoryService{
		Login:    a.login(),
		Source:   a.client,
		Template: a.settings.Aggregator(),
		Now:      a.now,
	}
}

// withApp opens the app for the duration of run.
func withApp(opts *rootOptions, run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return explain(run(cmd, args, a))
	}
}

// explain keeps the cause but leads with a message a user can act on.
func explain(err error) error {
	if err == nil {
		return nil
	}
	kinds := []error{
		reservation.ErrAuthInvalid,
		reservation.ErrNoDeparture,
		reservation.ErrNoMatchingReservation,
		reservation.ErrReservationFailed,
		reservation.ErrDecode,
		reservation.ErrTransport,
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return fmt.Errorf("%s\n  (%w)", reservation.Describe(err), err)
		}
	}
	return err
}

package afkbot

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/afkbot/core/bootstrap"
	tg "github.com/m3rciful/afkbot/core/telegram"
	"github.com/m3rciful/afkbot/core/telegram/router"
	"github.com/m3rciful/afkbot/internal/away"
	appconfig "github.com/m3rciful/afkbot/internal/config"
	"github.com/m3rciful/afkbot/internal/metrics"
	"github.com/m3rciful/afkbot/migrations"
)

// App wires configuration, storage and metrics around a Bot.
type App struct {
	cfg    *appconfig.Config
	infra  *bootstrap.Result
	bot    *Bot
	prom   *metrics.PrometheusRecorder
	server *metrics.Server
}

// Bootstrap initialises logging and storage, loads the away state and builds the app.
func Bootstrap(ctx context.Context, cfg *appconfig.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("afkbot: nil config")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:       cfg.CoreConfig(),
		Database:     cfg.Database,
		NeedDatabase: cfg.UsesPostgres(),
		Migrations:   migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg, infra.DB)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	app := NewApp(ctx, cfg, store)
	app.infra = infra
	return app, nil
}

// OpenStore picks the state backend selected by afk.storage.
func OpenStore(cfg *appconfig.Config, db *sqlx.DB) (away.Store, error) {
	if cfg.UsesPostgres() {
		if db == nil {
			return nil, errors.New("afkbot: postgres storage selected without a database connection")
		}
		return away.NewPostgresStore(db), nil
	}
	return away.NewFileStore(cfg.AFK.StatePath), nil
}

// NewApp loads the session from store and builds the bot.
func NewApp(ctx context.Context, cfg *appconfig.Config, store away.Store) *App {
	app := &App{cfg: cfg}
	var rec metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Metrics.Listen != "" {
		app.prom = metrics.NewPrometheusRecorder(nil)
		app.server = metrics.NewServer(cfg.Metrics.Listen, app.prom.Handler())
		rec = app.prom
	}
	mgr := away.NewManager(ctx, store, away.WithLocation(cfg.Location()))
	app.bot = New(Options{
		OwnerID:  cfg.Telegram.AdminID,
		Manager:  mgr,
		Renderer: Renderer{Location: cfg.Location()},
		Metrics:  rec,
	})
	return app
}

// Bot returns the Telegram handlers.
func (a *App) Bot() *Bot {
	return a.bot
}

// TelegramRunOptions builds the runtime. Updates are handled one at a time,
// which is what lets the manager run without locks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	reg := a.bot.Registry()
	owner := core.Telegram.AdminID

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       owner,
		OnAdminReject: a.bot.onIncoming,
	})
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		AdminID: owner,
		Other:   a.bot.onIncoming,
	})...)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))

	return tg.RunOptions{
		Config:      core,
		Registry:    reg,
		Synchronous: true,
		Middlewares: tg.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	if a.prom != nil && rt.Dispatcher != nil {
		a.prom.RegisterSenderErrors(rt.Dispatcher.ErrorCount)
	}
	if a.server != nil {
		return a.server.Start(ctx)
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ tg.Runtime) error {
	var errs []error
	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}
	errs = append(errs, a.Close())
	return errors.Join(errs...)
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	return a.infra.Close()
}

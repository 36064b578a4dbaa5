package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/goliatone/go-wallet-auth/client"
	"github.com/goliatone/go-wallet-auth/config"
	"github.com/goliatone/go-wallet-auth/hint/bunhint"
	"github.com/goliatone/go-wallet-auth/hint/redishint"
	"github.com/goliatone/go-wallet-auth/poll"
	"github.com/goliatone/go-wallet-auth/web"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// HintProvider builds the role hint store of one client
type HintProvider func(clientKey string) auth.HintStore

type App struct {
	config   *gconfig.Container[*config.BaseConfig]
	logger   *glog.BaseLogger
	bunDB    *bun.DB
	redis    *redis.Client
	hints    HintProvider
	registry *auth.Registry
	srv      router.Server[*fiber.App]
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("wallet"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := gconfig.New(config.Defaults())
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybePrettyJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithHints(ctx, app); err != nil {
		panic(err)
	}

	WithRegistry(app)

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go SweepIdleSessions(sweepCtx, app)

	go func() {
		if err := app.srv.Serve(app.Config().GetServer().GetAddr()); err != nil {
			app.GetLogger("http").Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())

	stopSweep()
	Shutdown(app)
}

// WithHints picks the role hint backend
func WithHints(ctx context.Context, app *App) error {
	scfg := app.Config().GetSession()
	logger := app.GetLogger("hints")

	switch scfg.GetHintBackend() {
	case config.HintBackendSQL:
		db, err := WithPersistence(ctx, app)
		if err != nil {
			return err
		}

		repo := bunhint.NewRepository(db)
		app.bunDB = db
		app.hints = repo.ForClient
		logger.Info("role hints stored in sql", "dsn", app.Config().GetPersistence().GetDSN())

	case config.HintBackendRedis:
		rcfg := app.Config().GetRedis()
		rdb := redis.NewClient(&redis.Options{
			Addr:     rcfg.GetAddr(),
			Password: rcfg.GetPassword(),
			DB:       rcfg.GetDB(),
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "unable to reach redis")
		}

		store := redishint.New(rdb,
			redishint.WithPrefix(rcfg.GetPrefix()),
			redishint.WithTTL(rcfg.GetTTL()),
		)

		app.redis = rdb
		app.hints = store.ForClient
		logger.Info("role hints stored in redis", "addr", rcfg.GetAddr())

	default:
		app.hints = func(string) auth.HintStore {
			return auth.NewMemoryHintStore()
		}
		logger.Info("role hints kept in memory")
	}

	return nil
}

// WithPersistence opens the hint database and runs the role_hints
// migrations
func WithPersistence(ctx context.Context, app *App) (*bun.DB, error) {
	pcfg := app.Config().GetPersistence()

	sqldb, err := sql.Open(sqliteshim.ShimName, pcfg.GetDSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to open hint database")
	}

	persistence.RegisterModel((*bunhint.RoleHint)(nil))

	dbClient, err := persistence.New(pcfg, sqldb, sqlitedialect.New())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to reach hint database")
	}
	dbClient.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(bunhint.MigrationsFS(), bunhint.MigrationsDir)
	if err != nil {
		return nil, err
	}
	dbClient.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel(bunhint.MigrationsDir),
	)

	if err := dbClient.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "role_hints migrations failed")
	}

	return dbClient.DB(), nil
}

// WithRegistry creates the per client store registry. Every client gets
// its own API client so session cookies never leak between visitors.
func WithRegistry(app *App) {
	cfg := app.Config()
	acfg := cfg.GetAPI()
	endpoints := acfg.GetEndpoints()
	routes := EntryRoutes(cfg.GetRoutes())

	clientLogger := app.GetLogger("api")
	storeLogger := app.GetLogger("session")

	factory := func(key string, nav auth.Navigator) *auth.Store {
		api := client.New(client.Config{
			BaseURL:   acfg.GetBaseURL(),
			Timeout:   acfg.GetTimeout(),
			UserAgent: acfg.GetUserAgent(),
			Debug:     acfg.GetDebug(),
			Endpoints: client.Endpoints{
				Verify:      endpoints.Verify,
				UserLogin:   endpoints.UserLogin,
				PeerLogin:   endpoints.PeerLogin,
				AdminLogin:  endpoints.AdminLogin,
				Logout:      endpoints.Logout,
				BalanceLog:  endpoints.BalanceLog,
				Transaction: endpoints.Transaction,
			},
		}, client.WithLogger(clientLogger))

		return auth.NewStore(api,
			auth.WithLogger(storeLogger),
			auth.WithHintStore(app.hints(key)),
			auth.WithNavigator(nav),
			auth.WithRoutes(routes),
		)
	}

	app.registry = auth.NewRegistry(factory,
		auth.WithIdleTTL(cfg.GetSession().GetIdleTTL()),
		auth.WithRegistryLogger(app.GetLogger("registry")),
	)
}

func WithHTTPServer(app *App) error {
	cfg := app.Config()
	scfg := cfg.GetSession()
	pcfg := cfg.GetPoll()

	secure := cfg.GetEnv() == "production"

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:           cfg.GetName(),
			EnablePrintRoutes: cfg.GetServer().GetPrintRoutes(),
			StrictRouting:     false,
		})
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	sessions := web.ClientSessionConfig{
		Registry:   app.registry,
		CookieName: scfg.GetCookieName(),
		Secure:     secure,
		Logger:     app.GetLogger("client"),
	}
	srv.Router().Use(web.ClientSession(sessions))

	controller := web.NewController(
		web.WithControllerLogger(app.GetLogger("web")),
		web.WithRegistry(app.registry),
		web.WithEntryRoutes(EntryRoutes(cfg.GetRoutes())),
		web.WithRejectedRouteKey(scfg.GetRejectedRouteKey()),
		web.WithSecureCookies(secure),
		web.WithDebug(cfg.GetEnv() == "development"),
		web.WithPollOptions(
			poll.WithMaxAttempts(pcfg.GetMaxAttempts()),
			poll.WithInitialDelay(pcfg.GetInitialDelay()),
			poll.WithMaxDelay(pcfg.GetMaxDelay()),
			poll.WithMultiplier(pcfg.GetMultiplier()),
		),
	)

	web.RegisterRoutes(srv.Router(), controller)
	web.RegisterEventRoutes(srv.WrappedRouter(), controller, web.FiberClientSession(sessions))

	app.srv = srv
	return nil
}

// EntryRoutes converts the configured routes
func EntryRoutes(r config.Routes) auth.Routes {
	return auth.Routes{
		Login:          r.Login,
		PeerLogin:      r.PeerLogin,
		AdminLogin:     r.AdminLogin,
		UserDashboard:  r.UserDashboard,
		PeerDashboard:  r.PeerDashboard,
		AdminDashboard: r.AdminDashboard,
	}.WithDefaults()
}

// SweepIdleSessions drops idle client stores until ctx is done
func SweepIdleSessions(ctx context.Context, app *App) {
	interval := orDefault(app.Config().GetSession().GetSweepInterval(), 5*time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.registry.Sweep()
		}
	}
}

func Shutdown(app *App) {
	logger := app.GetLogger("app")
	timeout := orDefault(app.Config().GetServer().GetShutdownTimeout(), 10*time.Second)

	if err := app.srv.WrappedRouter().ShutdownWithTimeout(timeout); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	if app.bunDB != nil {
		if err := app.bunDB.Close(); err != nil {
			logger.Error("database close", "error", err)
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			logger.Error("redis close", "error", err)
		}
	}
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

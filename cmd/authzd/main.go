package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-authz/activitymap"
	"github.com/goliatone/go-authz/config"
	"github.com/goliatone/go-authz/middleware/jwtware"
	"github.com/goliatone/go-authz/repository"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	logger     *glog.BaseLogger
	db         *bun.DB
	repo       auth.RepositoryManager
	metrics    *auth.PrometheusMetrics
	srv        router.Server[*fiber.App]
	metricsSrv *http.Server
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("authzd"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := config.Load()
	if err != nil {
		lgr.GetLogger("config").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	fmt.Println("============")
	fmt.Println(print.MaybePrettyJSON(cfg))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		app.GetLogger("persistence").Error("persistence setup failed", "error", err)
		os.Exit(1)
	}
	defer app.db.Close()

	if err := WithMetrics(app); err != nil {
		app.GetLogger("metrics").Error("metrics setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(app); err != nil {
		app.GetLogger("http").Error("http setup failed", "error", err)
		os.Exit(1)
	}

	if err := Run(ctx, app); err != nil {
		app.GetLogger("app").Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := repository.Open(ctx, app.config.DBDriver, app.config.DBDSN)
	if err != nil {
		return err
	}

	applied, err := repository.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return err
	}

	app.GetLogger("persistence").Info("database ready",
		"driver", app.config.DBDriver,
		"migrations_applied", len(applied),
	)

	app.db = db
	app.repo = auth.NewRepositoryManager(db)
	app.repo.MustValidate()

	return nil
}

func WithMetrics(app *App) error {
	metrics, err := auth.NewPrometheusMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	app.metrics = metrics

	if app.config.MetricsAddr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	app.metricsSrv = &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

func WithHTTPServer(app *App) error {
	cfg := app.config

	tokens, err := auth.NewTokenServiceFromConfig(cfg,
		auth.WithTokenLogger(app.GetLogger("tokens")),
	)
	if err != nil {
		return err
	}

	hasher := auth.NewBcryptHasher(cfg.GetBcryptCost())
	store := auth.NewRepositoryStore(app.repo)
	activityLogger := app.GetLogger("activity")
	sink := activitymap.Sink(func(_ context.Context, record activitymap.Normalized) error {
		activityLogger.Info("activity",
			"verb", record.Verb,
			"channel", record.Channel,
			"actor_id", record.ActorID,
			"object_id", record.ObjectID,
			"metadata", record.Metadata,
			"occurred_at", record.OccurredAt,
		)
		return nil
	})

	auther := auth.NewAuthenticator(store, tokens).
		WithLogger(app.GetLogger("auth")).
		WithPasswordAuthenticator(hasher).
		WithActivitySink(sink).
		WithMetrics(app.metrics)

	authorizer := auth.NewAuthorizer(tokens, store).
		WithLogger(app.GetLogger("authz")).
		WithActivitySink(sink).
		WithMetrics(app.metrics)

	registrar := auth.NewRegisterUserHandler(app.repo).
		WithLogger(app.GetLogger("register")).
		WithPasswordAuthenticator(hasher).
		WithActivitySink(sink).
		WithMetrics(app.metrics).
		WithHashid(cfg.GetUseHashid())

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.Debug,
			StrictRouting:     false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	httpLogger := app.GetLogger("http")

	guard := jwtware.New(jwtware.Config{
		Authorizer:   authorizer,
		ErrorHandler: auth.ErrorHandler(httpLogger),
		ContextKey:   cfg.GetContextKey(),
		TokenLookup:  cfg.GetTokenLookup(),
		AuthScheme:   cfg.GetAuthScheme(),
	})

	auth.RegisterAuthRoutes(srv.Router(), guard,
		auth.WithControllerAuthenticator(auther),
		auth.WithControllerRegistrar(registrar),
		auth.WithControllerLogger(httpLogger),
		auth.WithControllerContextKey(cfg.GetContextKey()),
		auth.WithControllerDebug(cfg.Debug),
	)

	app.srv = srv

	return nil
}

// Run serves HTTP and metrics until a termination signal arrives or a
// listener fails, then shuts both down
func Run(ctx context.Context, app *App) error {
	logger := app.GetLogger("app")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", "addr", app.config.HTTPAddr)
		return app.srv.Serve(app.config.HTTPAddr)
	})

	if app.metricsSrv != nil {
		g.Go(func() error {
			logger.Info("metrics listening", "addr", app.metricsSrv.Addr)
			if err := app.metricsSrv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := app.srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if app.metricsSrv != nil {
			if err := app.metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			return stderrors.Join(errs...)
		}
		return nil
	})

	return g.Wait()
}

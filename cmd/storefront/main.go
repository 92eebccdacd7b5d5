package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/packfinderz-storefront/api/controllers"
	"github.com/angelmondragon/packfinderz-storefront/api/routes"
	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/session"
	"github.com/angelmondragon/packfinderz-storefront/internal/storefront"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/env"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": env.Instance(),
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		durable   session.Store
		readiness controllers.Pinger
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store, err := session.NewRedisStore(redisClient, cfg.Session.DurableTTL)
		if err != nil {
			logg.Error(ctx, "failed to create durable session store", err)
			os.Exit(1)
		}
		durable, readiness = store, redisClient
	} else {
		logg.Warn(ctx, "redis not configured, remember-me sessions last for this process only")
		durable = session.NewMemoryStore()
	}

	sessions, err := session.NewManager(session.ManagerParams{
		Durable: durable,
		Session: session.NewMemoryStore(),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}
	if err := restoreSession(ctx, logg, cfg.Session, sessions); err != nil {
		logg.Error(ctx, "failed to restore session", err)
		os.Exit(1)
	}

	gw, err := gateway.NewClient(cfg.Gateway.BaseURL,
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithTokenSource(sessions),
	)
	if err != nil {
		logg.Error(ctx, "failed to create gateway client", err)
		os.Exit(1)
	}

	notifications := notify.NewQueue(cfg.Notify.QueueSize, logg, metrics.NewNotifyMetrics(registry))
	app, err := storefront.New(storefront.Params{
		Gateway:       gw,
		Notifier:      notifications,
		Logger:        logg,
		Registerer:    registry,
		CartDebounce:  cfg.Cart.Debounce,
		OrdersPerPage: cfg.Orders.PerPage,
		PollInterval:  cfg.Poller.OrdersInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to build storefront", err)
		os.Exit(1)
	}

	if _, err := app.Navigate(ctx, enums.SectionShop); err != nil {
		// Loader failures are already notified; the shop still renders.
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "initial shop load failed")
	}

	server := &http.Server{
		Addr:              cfg.Ops.Addr,
		Handler:           routes.NewRouter(cfg, logg, app.Sections, registry, readiness),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := app.Poller.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	// Runs until the queue is closed after the shutdown flush.
	group.Go(func() error {
		drainCtx := context.WithoutCancel(groupCtx)
		notifications.Drain(func(n notify.Notification) {
			logg.Info(logg.WithFields(drainCtx, map[string]any{
				"kind":  n.Kind,
				"field": n.Field,
			}), n.Message)
		})
		return nil
	})
	group.Go(func() error {
		logg.Info(logg.WithField(groupCtx, "addr", server.Addr), "starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownTimeout)
		defer cancel()
		if err := app.Cart.Flush(shutdownCtx); err != nil {
			logg.Warn(logg.WithField(shutdownCtx, "error", err.Error()), "pending cart changes not saved")
		}
		notifications.Close()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logg.Error(ctx, "storefront stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "storefront stopped")
}

// restoreSession signs in with a configured access token, or restores the saved session for
// the configured role. Running without a session is allowed; the gateway then sends no token.
func restoreSession(ctx context.Context, logg *logger.Logger, cfg config.SessionConfig, sessions *session.Manager) error {
	if cfg.AccessToken != "" {
		state, err := sessions.SignIn(ctx, cfg.AccessToken, cfg.RememberMe)
		if err != nil {
			return err
		}
		logg.Info(logg.WithRole(ctx, state.Role.String()), "signed in from configured token")
		return nil
	}

	role, err := enums.ParseRole(cfg.Role)
	if err != nil {
		return err
	}
	sessions.SetActiveRole(role)
	_, ok, err := sessions.Restore(ctx, role)
	if err != nil {
		return err
	}
	if !ok {
		logg.Warn(logg.WithRole(ctx, role.String()), "no saved session, browsing signed out")
	}
	return nil
}

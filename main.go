package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"golang.org/x/sync/errgroup"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/api"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/estimate"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/hash"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/notify"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/queue"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/store"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/adapters/ws"
	"github.com/BRAITOU555/reservationvtc6/internal/booking/app"
	"github.com/BRAITOU555/reservationvtc6/internal/common/auth"
	"github.com/BRAITOU555/reservationvtc6/internal/common/bus"
	"github.com/BRAITOU555/reservationvtc6/internal/common/config"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	maxConcurrent := flag.Int("max-concurrent", 100, "maximum in-flight HTTP requests, 0 disables the limit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New("reservation-service")
	log.Info(ctx, logger, "init_start", "Reservation service initializing...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, logger, "config_load_fail", "Failed to load config file", err)
		os.Exit(1)
	}
	log.Info(ctx, logger, "config_loaded", "Configuration loaded successfully")

	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = "dev-secret-change-me"
		log.Warn(ctx, logger, "auth_secret_default", "auth.secret is not set, admin tokens use an insecure development secret", nil)
	}

	eventBus := bus.New(logger)
	defer eventBus.Close()

	svc := app.NewService(
		logger,
		store.NewFileStore(cfg.Store.Path, logger),
		notify.NewSendGrid(cfg.Notifier),
		hash.NewBcrypt(),
		estimate.NewMatrixClient(cfg.Estimator),
		eventBus,
		auth.NewManager(cfg.Auth.Secret, cfg.Auth.AccessTTL),
		app.Config{
			BaseURL:       cfg.HTTP.BaseURL,
			OperatorEmail: cfg.Notifier.OperatorEmail,
			NotifyTimeout: cfg.Notifier.Timeout,
		},
	)

	gateway := ws.NewGateway(logger, eventBus, svc)
	router := api.NewHandler(svc, logger).Router(gateway.HandleClient)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.HTTP.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           withConcurrencyLimit(*maxConcurrent, cors(router)),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, logger, "http_server_start",
			fmt.Sprintf("Listening on port %d", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := gateway.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ws gateway: %w", err)
		}
		return nil
	})

	if cfg.AMQP.URL != "" {
		relay, err := queue.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			log.Error(ctx, logger, "amqp_connect_fail", "Failed to connect to RabbitMQ, relay disabled", err)
		} else {
			defer relay.Close()
			g.Go(func() error {
				if err := relay.Run(gctx, eventBus); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("amqp relay: %w", err)
				}
				return nil
			})
			log.Info(ctx, logger, "amqp_ready", "Push events relayed to exchange "+cfg.AMQP.Exchange)
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shCancel()
		if err := server.Shutdown(shCtx); err != nil {
			log.Error(ctx, logger, "http_shutdown_fail", "HTTP server shutdown failed", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error(ctx, logger, "service_fail", "Service terminated with error", err)
		os.Exit(1)
	}
	log.Info(context.Background(), logger, "shutdown_complete", "Reservation service stopped")
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter
// so at most n requests are in-flight at once.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			http.Error(w, "request cancelled while waiting for capacity", http.StatusServiceUnavailable)
		}
	})
}

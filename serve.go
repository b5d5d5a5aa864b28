package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wayfarer/auth"
	"wayfarer/booking"
	"wayfarer/chat"
	"wayfarer/config"
	"wayfarer/itinerary"
	"wayfarer/llm"
	"wayfarer/metrics"
	"wayfarer/middleware"
	"wayfarer/mq"
	"wayfarer/places"
	"wayfarer/planner"
	"wayfarer/ratelim"
	"wayfarer/rdx"
	"wayfarer/routes"
	"wayfarer/smartadjust"
)

var (
	servePort  string
	modelKind  string
	bookingURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
	serveCmd.Flags().StringVar(&modelKind, "model", "", "Model provider: genai or fixture (overrides MODEL_PROVIDER)")
	serveCmd.Flags().StringVar(&bookingURL, "booking-url", booking.DefaultSearchURL, "External booking search URL")
}

func serveOverrides(c *config.Config) {
	if servePort != "" {
		c.Server.Port = servePort
	}
	if modelKind != "" {
		c.Model.Provider = modelKind
	}
}

func newGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Generator, error) {
	if cfg.Model.Provider == "fixture" {
		log.Warn("using fixture model, responses are canned")
		return llm.NewFixture(), nil
	}
	client, err := llm.NewGenAIClient(ctx, llm.GenAIOptions{
		APIKey:   cfg.Model.GoogleAPIKey,
		Project:  cfg.Model.GoogleProject,
		Location: cfg.Model.GoogleLocation,
	}, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(configPath, serveOverrides)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeStore(cctx); err != nil {
			log.Warn("store close failed", zap.Error(err))
		}
	}()

	gen, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("model client: %w", err)
	}

	m := metrics.New()
	g, gctx := errgroup.WithContext(ctx)

	var events mq.Publisher = mq.Noop{}
	if cfg.Redis.Addr != "" {
		conn, err := rdx.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			return err
		}
		defer conn.Close()
		events = mq.NewRedisPublisher(conn)
		worker := mq.NewWorker(conn, store, log.Named("worker"))
		g.Go(func() error { return worker.Run(gctx) })
	} else {
		log.Info("REDIS_ADDR not set, itinerary events are dropped")
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		// No token can verify against a random secret, so sign-in is off.
		log.Warn("JWT_SECRET not set, sign-in is disabled")
		secret = uuid.NewString()
	}
	resolver := auth.NewJWTResolver(secret, cfg.Auth.Issuer)
	migrator := auth.NewMigrator(store, events, m, log)

	plans := planner.NewService(planner.Deps{
		Generator: gen,
		Store:     store,
		Events:    events,
		Metrics:   m,
		Log:       log,
		Model:     cfg.Model.Plan,
		Limits:    planner.Limits{MaxDays: cfg.Planning.MaxDays, MaxBudget: cfg.Planning.MaxBudget},
	})
	agent := smartadjust.NewAgent(smartadjust.Deps{
		Generator: gen,
		Metrics:   m,
		Log:       log,
		Model:     cfg.Model.Adjust,
	})

	router := httprouter.New()
	routes.RoutesWrapper(router, routes.Deps{
		Auth:        middleware.NewAuth(resolver, log),
		RateLimiter: ratelim.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
		Sessions:    auth.NewHandlers(store, resolver, migrator, log),
		Itineraries: itinerary.NewHandlers(itinerary.Deps{
			Store:         store,
			Planner:       plans,
			Agent:         agent,
			Events:        events,
			Log:           log,
			PublicBaseURL: cfg.Server.PublicBaseURL,
		}),
		Places:  places.NewHandlers(places.NewService(store, log)),
		Chat:    chat.NewService(gen, cfg.Model.Chat, m, log),
		Booking: booking.NewRedirector(bookingURL),
		Metrics: m.Handler(),
		Health:  func(r *http.Request) error { return store.Ping(r.Context()) },
	})

	// cors → security headers → access log → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Session-Id"},
		AllowCredentials: true,
	}).Handler(router)
	handler := middleware.AccessLog(log, m)(middleware.SecurityHeaders(corsHandler))

	addr := cfg.Server.Port
	if !strings.HasPrefix(addr, ":") {
		addr = ":" + addr
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	g.Go(func() error {
		log.Info("server listening",
			zap.String("addr", addr),
			zap.String("store", storeKind),
			zap.String("model", cfg.Model.Provider))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped cleanly")
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/hsd87/JerseyAI-sub001/internal/checkout"
	"github.com/hsd87/JerseyAI-sub001/internal/config"
	"github.com/hsd87/JerseyAI-sub001/internal/events"
	"github.com/hsd87/JerseyAI-sub001/internal/health"
	"github.com/hsd87/JerseyAI-sub001/internal/kitconfig"
	"github.com/hsd87/JerseyAI-sub001/internal/obs"
	"github.com/hsd87/JerseyAI-sub001/internal/order"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
	"github.com/hsd87/JerseyAI-sub001/internal/ratelimit"
)

func main() {
	cfg := config.MustLoad()

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "jersey")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "jersey-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "jersey-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if tracingEnabled {
		if err := redisotel.InstrumentTracing(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	repo := &order.PGRepository{Pool: pool}
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	rules := pricing.DefaultRules(cfg.SubscriptionBps)
	if cfg.PricingRulesPath != "" {
		rules, err = pricing.LoadRulesFile(cfg.PricingRulesPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.PricingRulesPath).Msg("load pricing rules")
		}
	}
	rulesStore, err := pricing.NewStore(rules)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise pricing rules")
	}

	formatter := pricing.NewFormatter("$")

	var pricingMetrics *obs.PricingMetrics
	if metricsEnabled {
		pricingMetrics = obs.NewPricingMetrics(metricsNamespace, nil)
	}
	pricingHandler := pricing.NewHandler(pricing.HandlerConfig{
		Store:     rulesStore,
		Formatter: formatter,
		Logger:    logger,
		Metrics:   pricingMetrics,
	})

	var catalog *kitconfig.Catalog
	if cfg.CatalogDir != "" {
		catalog, err = kitconfig.LoadCatalogDir(cfg.CatalogDir)
		if err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.CatalogDir).Msg("load catalog")
		}
		logger.Info().Int("skus", catalog.Len()).Msg("catalog loaded")
	}
	kitService := &kitconfig.Service{
		Catalog: catalog,
		Rules:   rulesStore,
		Cache:   kitconfig.NewCache(redisClient, cfg.CatalogCacheTTL),
	}
	kitHandler := kitconfig.NewHandler(kitconfig.HandlerConfig{
		Service:   kitService,
		Formatter: formatter,
		Logger:    logger,
	})

	bus := &events.Bus{
		Store:     repo,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	orderService := &order.Service{
		Repo:   repo,
		Rules:  rulesStore,
		Bus:    bus,
		Logger: logger,
	}
	orderHandler := order.NewHandler(order.HandlerConfig{
		Service:   orderService,
		Formatter: formatter,
		Logger:    logger,
	})

	checkoutService := &checkout.Service{
		Orders:   orderService,
		Intents:  checkout.NewStripeIntents(cfg.StripeSecretKey),
		Currency: cfg.Currency,
		Bus:      bus,
		Logger:   logger,
	}
	checkoutHandler := checkout.NewHandler(checkout.HandlerConfig{
		Service: checkoutService,
		Logger:  logger,
	})

	estimateLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:estimate:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ClientIP,
			Window: cfg.EstimateRateWindow,
			Max:    cfg.EstimateRateMax,
		},
		Logger: logger,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, nil, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Probes: map[string]health.Probe{
			"db":    func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			"rules": func(context.Context) error { return rulesStore.Snapshot().Validate() },
		},
		Timeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 500),
	}
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Get("/price/rules", pricingHandler.Rules)
		api.With(estimateLimit.Middleware).Post("/price/estimate", pricingHandler.Estimate)

		api.Post("/kit-config/configure", kitHandler.Configure)
		api.Get("/kit-config/sports", kitHandler.Sports)

		api.Post("/orders", orderHandler.Create)
		api.Get("/orders/{id}", orderHandler.Get)

		api.Post("/checkout/intent", checkoutHandler.CreateIntent)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

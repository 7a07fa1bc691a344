package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelleyneubauer/rest-between-sets/internal/api"
	"github.com/kelleyneubauer/rest-between-sets/internal/auth"
	"github.com/kelleyneubauer/rest-between-sets/internal/config"
	"github.com/kelleyneubauer/rest-between-sets/internal/domain"
	"github.com/kelleyneubauer/rest-between-sets/internal/events"
	"github.com/kelleyneubauer/rest-between-sets/internal/logging"
	"github.com/kelleyneubauer/rest-between-sets/internal/session"
	"github.com/kelleyneubauer/rest-between-sets/internal/store"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/badger"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/dynamo"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/memory"
	"github.com/kelleyneubauer/rest-between-sets/internal/store/postgres"
	httptransport "github.com/kelleyneubauer/rest-between-sets/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("rest-between-sets stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	gw, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	gw = store.NewInstrumented(gw, cfg.Store.Driver)
	defer func() {
		if err := gw.Close(); err != nil {
			logging.Warn().Err(err).Msg("close store")
		}
	}()

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.WriteTimeout)
		logging.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("publishing lifecycle events")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("close event publisher")
		}
	}()

	service := domain.NewService(gw, publisher)

	var keys auth.KeySource
	if cfg.Auth.Domain != "" {
		keys = auth.NewJWKSCache(auth.JWKSURL(cfg.Auth.Domain), nil, cfg.Auth.JWKSCacheTTL)
	}
	audience := cfg.Auth.Audience
	if audience == "" {
		audience = cfg.Auth.ClientID
	}
	verifier := auth.NewVerifier(auth.Config{
		Issuer:   cfg.Issuer(),
		Audience: audience,
		Secret:   cfg.Auth.JWTSecret,
		Leeway:   30 * time.Second,
	}, keys)

	browser := session.NewHandler(session.Config{
		Secret:    cfg.Auth.SessionSecret,
		LogoutURL: logoutURL(cfg),
		Secure:    cfg.IsProduction(),
	}, loginProvider(ctx, cfg), service)

	handler := api.NewRouter(api.RouterConfig{
		Protect:           auth.NewMiddleware(verifier, nil).Wrap,
		Browser:           browser,
		AllowedOrigins:    cfg.CORS.AllowedOrigins,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	}, api.NewHandler(service))

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.Address(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, handler)

	logging.Info().
		Str("environment", cfg.Environment).
		Str("store", cfg.Store.Driver).
		Str("base_url", cfg.PublicBaseURL()).
		Msg("rest-between-sets starting")
	return httptransport.Serve(ctx, server, cfg.Server.ShutdownTimeout)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Gateway, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		return badger.Open(badger.Config{Path: cfg.BadgerPath})
	case config.DriverPostgres:
		return postgres.Connect(ctx, cfg.PostgresDSN)
	case config.DriverDynamo:
		repo, err := dynamo.New(ctx, dynamo.Config{
			Table:    cfg.DynamoTable,
			Region:   cfg.DynamoRegion,
			Endpoint: cfg.DynamoEndpoint,
		})
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverMemory:
		logging.Warn().Msg("using the in-memory store; data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// loginProvider returns nil when browser sign-in is not configured or the
// issuer cannot be discovered, which leaves the API usable with bearer tokens.
func loginProvider(ctx context.Context, cfg *config.Config) session.Provider {
	if !cfg.OIDCEnabled() {
		return nil
	}
	discoverCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	provider, err := session.NewOIDCProvider(discoverCtx, session.OIDCConfig{
		Issuer:       cfg.Issuer(),
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURI:  cfg.PublicBaseURL() + "/callback",
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		logging.Error().Err(err).Msg("browser sign-in disabled")
		return nil
	}
	return provider
}

func logoutURL(cfg *config.Config) string {
	if !cfg.OIDCEnabled() {
		return "/"
	}
	return session.LogoutURL(cfg.Auth.Domain, cfg.Auth.ClientID, cfg.PublicBaseURL())
}

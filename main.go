package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/phurits/ordermind/agent/agents/orchestrator"
	llmx "github.com/phurits/ordermind/agent/llm"
	memoryx "github.com/phurits/ordermind/agent/memory"
	orderx "github.com/phurits/ordermind/agent/order"
	promptx "github.com/phurits/ordermind/agent/prompt"
	storex "github.com/phurits/ordermind/agent/store"
	toolx "github.com/phurits/ordermind/agent/tool"
	"github.com/phurits/ordermind/httpapi"
	configx "github.com/phurits/ordermind/pkg/config"
	_ "github.com/phurits/ordermind/pkg/logger/autoload"
	metricsx "github.com/phurits/ordermind/pkg/metrics"
	openrouterx "github.com/phurits/ordermind/pkg/openrouter"
)

type AppConfig struct {
	BindAddr        string        `envconfig:"BIND_ADDR" default:":8080"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	SeedOrders      bool          `envconfig:"SEED_ORDERS" default:"true"`
	MemoryTurns     int           `envconfig:"MEMORY_TURNS" default:"20"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("")
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")

	openRouterClient := openrouterx.NewClient(*openRouterCfg)
	if openRouterClient == nil {
		log.Fatal().Msg("failed to initialize openrouter client")
	}

	metrics := metricsx.New("ordermind")

	ctx := context.Background()
	orders, closeStore, err := newOrderStore(ctx, appCfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("order store init failed")
	}
	defer closeStore()

	if appCfg.SeedOrders {
		if err := seedOrders(ctx, orders); err != nil {
			log.Fatal().Err(err).Msg("seed orders failed")
		}
	}

	tools, err := toolx.NewRegistry(orders, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("tool registry init failed")
	}

	model, err := llmx.New(openRouterClient, *openRouterCfg, tools.Specs(), metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("chat model init failed")
	}

	conversation := memoryx.NewStore(appCfg.MemoryTurns)

	agent, err := orchestratorx.New(model, tools, conversation, promptx.SystemPolicy(), metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	api := httpapi.New(agent, orders, metrics.Handler())
	httpServer := &http.Server{
		Addr:    appCfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Info().Str("addr", appCfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}

func newOrderStore(ctx context.Context, dsn string) (storex.OrderStore, func(), error) {
	if dsn == "" {
		log.Info().Msg("order store: in-memory")
		return storex.NewMemory(), func() {}, nil
	}
	pg, err := storex.NewPostgres(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("order store: postgres")
	return pg, func() { _ = pg.Close() }, nil
}

// seedOrders loads a couple of demo records so the agent has something to
// talk about on a fresh start. Existing orders are left alone.
func seedOrders(ctx context.Context, orders storex.OrderStore) error {
	now := time.Now().UTC()
	seeds := []*orderx.Order{
		orderx.New("12345", "tulsi", orderx.StatusShipped, now),
		orderx.New("A-001", "acme", orderx.StatusProcessing, now),
	}
	for _, o := range seeds {
		exists, err := orders.Exists(ctx, o.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := orders.Save(ctx, o); err != nil {
			return err
		}
	}
	return nil
}

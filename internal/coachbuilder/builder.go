package coachbuilder

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-chess-coach/internal/adapter/chesspresenter"
	"github.com/park285/Cheese-chess-coach/internal/assistant"
	"github.com/park285/Cheese-chess-coach/internal/chess"
	"github.com/park285/Cheese-chess-coach/internal/config"
	"github.com/park285/Cheese-chess-coach/internal/llm"
	"github.com/park285/Cheese-chess-coach/internal/msgcat"
	"github.com/park285/Cheese-chess-coach/internal/render"
	"github.com/park285/Cheese-chess-coach/internal/server"
	"github.com/park285/Cheese-chess-coach/internal/session"
	"github.com/park285/Cheese-chess-coach/internal/uiws"
)

type Deps struct {
	Registry  *session.Registry
	Assistant *assistant.Assistant
	Hub       *uiws.Hub
	Handler   http.Handler

	redis       *redis.Client
	archive     *session.PostgresArchive
	stopJanitor context.CancelFunc
}

// New wires the coach. Redis and Postgres are optional: without REDIS_URL
// sessions live only in memory, without DATABASE_URL finished games go to an
// in-process archive.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{}

	catalog, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	var store session.SnapshotStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rdb, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		deps.redis = rdb
		store = session.NewRedisStore(rdb, cfg.SessionTTL())
	} else {
		logger.Warn("session_store_memory_only")
	}

	var archive session.Archive = session.NewMemoryArchive()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pg, err := session.OpenPostgresArchive(ctx, cfg.DatabaseURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		deps.archive = pg
		archive = pg
	}

	evalOpts := []chess.EvaluatorOption{}
	if cfg.RandomSeed != 0 {
		evalOpts = append(evalOpts, chess.WithRandomSeed(cfg.RandomSeed))
	}
	evaluator := chess.NewEvaluator(evalOpts...)

	hub := uiws.NewHub(nil, logger.Named("ws"))
	presenter := chesspresenter.NewPresenter(hub, chesspresenter.NewFormatter(catalog))

	registry := session.NewRegistry(session.Options{
		BotDelay:     cfg.BotDelay(),
		HistoryLimit: cfg.HistoryLimit,
		Evaluator:    evaluator,
		Notifier:     presenter,
		Store:        store,
		Archive:      archive,
		Logger:       logger.Named("session"),
		IdleTTL:      cfg.SessionTTL(),
	})
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	deps.stopJanitor = stopJanitor
	go registry.RunJanitor(janitorCtx, sweepInterval(cfg.SessionTTL()))

	model := llm.NewClient(cfg.LLMBaseURL,
		llm.WithAPIKey(cfg.LLMAPIKey),
		llm.WithModel(cfg.LLMModel),
		llm.WithTimeout(cfg.LLMTimeout()),
		llm.WithLogger(logger.Named("llm")),
	)
	coach := assistant.New(registry, evaluator, model, catalog, logger.Named("assistant"))

	deps.Registry = registry
	deps.Assistant = coach
	deps.Hub = hub
	deps.Handler = server.NewRouter(server.Deps{
		Registry:  registry,
		Assistant: coach,
		Renderer:  render.New(),
		Presenter: presenter,
		Catalog:   catalog,
		Hub:       hub,
		Logger:    logger.Named("http"),
	})
	return deps, nil
}

// Close releases the websocket clients and the backing stores.
func (d *Deps) Close() {
	if d.stopJanitor != nil {
		d.stopJanitor()
	}
	if d.Hub != nil {
		d.Hub.Close()
	}
	if d.archive != nil {
		_ = d.archive.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

// sweepInterval checks a few times per idle window, at most once a minute.
func sweepInterval(ttl time.Duration) time.Duration {
	every := ttl / 4
	if every > time.Minute {
		every = time.Minute
	}
	if every < time.Second {
		every = time.Second
	}
	return every
}

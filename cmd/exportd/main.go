// Command exportd serves the chat-extract REST API: it wires the Graph
// client, the run registry, and the control surface into one process.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/xprtyg33k/teams-chat-extract/internal/server"
	"github.com/xprtyg33k/teams-chat-extract/pkg/auth"
	"github.com/xprtyg33k/teams-chat-extract/pkg/graph"
	"github.com/xprtyg33k/teams-chat-extract/pkg/jobs"
	"github.com/xprtyg33k/teams-chat-extract/pkg/logging"
)

// config is populated from EXPORTD_* environment variables.
type config struct {
	Listen      string `envconfig:"LISTEN" default:":8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty   bool   `envconfig:"LOG_PRETTY" default:"false"`
	ArtifactDir string `envconfig:"ARTIFACT_DIR" default:"results"`

	// TokenVar is the environment variable holding the Graph bearer
	// token. An external login helper keeps it fresh.
	TokenVar string `envconfig:"TOKEN_VAR" default:"TEAMS_ACCESS_TOKEN"`

	GraphBaseURL string  `envconfig:"GRAPH_BASE_URL" default:""`
	MaxRetries   int     `envconfig:"MAX_RETRIES" default:"5"`
	BackoffBase  float64 `envconfig:"BACKOFF_BASE" default:"2"`

	// RedisURL enables the shared throttle state and the user-lookup
	// cache. Empty runs without Redis.
	RedisURL string `envconfig:"REDIS_URL" default:""`
}

func main() {
	var cfg config
	if err := envconfig.Process("exportd", &cfg); err != nil {
		logging.Setup(logging.DefaultConfig())
		fallback := logging.NewLogger("exportd")
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("exportd")

	tokens := auth.EnvProvider{Var: cfg.TokenVar}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatal().Err(err).Str("redis", cfg.RedisURL).Msg("Failed to connect to Redis")
		}
		cancel()
		logger.Info().Str("redis", cfg.RedisURL).Msg("Connected to Redis")
	} else {
		logger.Warn().Msg("Running without Redis; throttle state and lookup cache are per-process")
	}

	graphCfg := graph.DefaultConfig(tokens)
	if cfg.GraphBaseURL != "" {
		graphCfg.BaseURL = cfg.GraphBaseURL
	}
	graphCfg.MaxRetries = cfg.MaxRetries
	graphCfg.BackoffBase = cfg.BackoffBase
	graphCfg.Redis = redisClient

	client, err := graph.New(graphCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Graph client")
	}

	registry, err := jobs.NewRegistry(jobs.Config{
		Client:      client,
		Tokens:      tokens,
		ArtifactDir: cfg.ArtifactDir,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create run registry")
	}

	srv := server.New(registry, tokens)

	logger.Info().
		Str("listen", cfg.Listen).
		Str("artifact_dir", cfg.ArtifactDir).
		Msg("Starting exportd")

	if err := http.ListenAndServe(cfg.Listen, srv.Routes()); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

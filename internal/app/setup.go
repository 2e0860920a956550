package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientiq/clientiq/internal/config"
	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/database"
	"github.com/clientiq/clientiq/internal/embed"
	"github.com/clientiq/clientiq/internal/generator"
	"github.com/clientiq/clientiq/internal/ratelimit"
	"github.com/clientiq/clientiq/internal/search"
	"github.com/clientiq/clientiq/internal/vectorstore"
)

// Setup creates and initializes the application. On error, everything
// already initialized is cleaned up before returning.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	customers, err := customer.LoadFile(cfg.DataFile)
	if err != nil {
		return nil, fmt.Errorf("loading customers: %w", err)
	}
	a.Customers = customers
	logger.Info("customer collection loaded", "records", customers.Len(), "file", cfg.DataFile)

	g, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	provider := embed.NewGenkitProvider(embedder, cfg.EmbedderDimension)

	store, err := provideStore(ctx, a, cfg, provider)
	if err != nil {
		return nil, err
	}
	a.Store = store

	a.Retriever = search.NewRetriever(customers, provider, store,
		logger.With("component", "search"))

	a.Generator = generator.NewGenkit(g, qualifiedModelName(cfg),
		logger.With("component", "generator"))

	a.Limiter = ratelimit.New(
		time.Duration(cfg.RateWindowSeconds)*time.Second,
		cfg.RateCap,
	)

	return a, nil
}

// provideGenkit initializes Genkit with the configured model provider.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama has no auto-discovery; models and embedders register
		// explicitly.
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		return g, nil
	}
}

// provideEmbedder resolves the configured embedder from the Genkit
// registry.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		// Ollama embedders are keyed by server address.
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideStore constructs the configured vector-store backend and records
// the owned connection on the App for teardown.
func provideStore(ctx context.Context, a *App, cfg *config.Config, provider embed.Provider) (vectorstore.Store, error) {
	logger := a.Logger.With("component", "vectorstore")

	switch cfg.Storage {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL())
		if err != nil {
			return nil, fmt.Errorf("connecting to PostgreSQL: %w", err)
		}
		a.pool = pool

		store, err := vectorstore.NewPostgres(ctx, pool, provider, logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	default: // sqlite
		db, err := database.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.db = db

		if err := database.Migrate(db); err != nil {
			return nil, err
		}

		return vectorstore.NewSQLite(db, provider, cfg.SQLitePath+".lock", logger), nil
	}
}

// qualifiedModelName prefixes the configured model with its Genkit
// provider namespace.
func qualifiedModelName(cfg *config.Config) string {
	switch cfg.Provider {
	case config.ProviderOllama:
		return "ollama/" + cfg.ModelName
	default:
		return "googleai/" + cfg.ModelName
	}
}

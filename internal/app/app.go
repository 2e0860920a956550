// Package app provides application initialization and dependency wiring.
//
// Setup constructs the full component graph once at process start —
// config, customer collection, embedding provider, vector store,
// retriever, throttle, generator — and App.Close tears it down at
// shutdown. Nothing here is global: every component receives its
// dependencies explicitly.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clientiq/clientiq/internal/config"
	"github.com/clientiq/clientiq/internal/customer"
	"github.com/clientiq/clientiq/internal/generator"
	"github.com/clientiq/clientiq/internal/ratelimit"
	"github.com/clientiq/clientiq/internal/search"
	"github.com/clientiq/clientiq/internal/vectorstore"
)

// App is the application container.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Customers *customer.Store
	Store     vectorstore.Store
	Retriever *search.Retriever
	Generator generator.Generator
	Limiter   *ratelimit.Limiter

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	// Owned connections, closed by Close.
	db   *sql.DB
	pool *pgxpool.Pool
}

// Close releases all resources owned by the App.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}

	var firstErr error
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.db = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return firstErr
}

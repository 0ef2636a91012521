// Package app provides application initialization and dependency wiring.
//
// App is the container that owns the Genkit runtime, the database pool,
// the knowledge store, and the answer pipeline. Commands build an App
// once and pull what they need from it.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitscampus/campusbot/internal/config"
	"github.com/mitscampus/campusbot/internal/ingest"
	"github.com/mitscampus/campusbot/internal/knowledge"
	"github.com/mitscampus/campusbot/internal/log"
	"github.com/mitscampus/campusbot/internal/rag"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	DBPool    *pgxpool.Pool
	Knowledge *knowledge.Store
	Pipeline  *rag.Pipeline
	Ingestor  *ingest.Ingestor
}

// Close releases all resources the App owns.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	return nil
}

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/markdave123-py/csrdesk/internal/config"
	db "github.com/markdave123-py/csrdesk/internal/core/database"
	"github.com/markdave123-py/csrdesk/internal/core/llm"
	objectclient "github.com/markdave123-py/csrdesk/internal/core/object-client"
	"github.com/markdave123-py/csrdesk/internal/logger"
)

type App struct {
	Config     *config.Config
	Log        *logger.Logger
	DBClient   *db.DatabaseClient
	Components *Components
	Server     *Server

	closers []io.Closer
}

// NewApp connects the database, storage and LLM provider and wires the
// services and HTTP server on top of them.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(initCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	objClient, err := objectclient.New(initCtx, cfg, log)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	}
	log.Info("object client initialized and ready", "backend", cfg.StorageBackend)

	provider, err := llm.New(initCtx, cfg)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the llm provider, %w", err)
	}
	log.Info("llm provider ready", "mode", provider.Mode(), "model", provider.ModelName())

	components, err := NewComponents(cfg, dbClient, objClient, provider, log)
	if err != nil {
		_ = dbClient.Close()
		return nil, err
	}

	server := NewServer(cfg, NewRouter(cfg, components, dbClient, log), log)

	a := &App{Config: cfg, Log: log, DBClient: dbClient, Components: components, Server: server}
	if c, ok := provider.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	"genia/assistant/match"
	"genia/assistant/orchestrator"
	"genia/assistant/tool"
	"genia/events"
	configx "genia/pkg/config"
	logx "genia/pkg/logger"
	openaix "genia/pkg/openai"
	"genia/rag"
	"genia/server"
	"genia/todo"
)

type AppConfig struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" split_words:"true" default:":8000"`
	UploadDir       string        `envconfig:"UPLOAD_DIR" split_words:"true" default:"uploads"`
	TopK            int           `envconfig:"TOP_K" split_words:"true" default:"5"`
	MatchThreshold  float64       `envconfig:"MATCH_THRESHOLD" split_words:"true" default:"0.5"`
	DBDriver        string        `envconfig:"DB_DRIVER" split_words:"true" default:"sqlite"`
	DBDSN           string        `envconfig:"DB_DSN" split_words:"true" default:"file:genia.db?cache=shared"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}

func main() {
	logCfg := configx.MustNew[logx.Config]("LOG")
	logx.Init(*logCfg)

	appCfg := configx.MustNew[AppConfig]("GENIA")
	openaiCfg := configx.MustNew[openaix.Config]("OPENAI")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, appCfg, openaiCfg); err != nil {
		log.Fatal().Err(err).Msg("genia exited with error")
	}
}

func run(ctx context.Context, appCfg *AppConfig, openaiCfg *openaix.Config) error {
	client, err := openaix.NewClient(*openaiCfg)
	if err != nil {
		return fmt.Errorf("building openai client: %w", err)
	}
	chatModel, err := openaix.NewChatModel(client, *openaiCfg, tool.Definition())
	if err != nil {
		return fmt.Errorf("building chat model: %w", err)
	}
	embedder, err := openaix.NewEmbedder(client, *openaiCfg)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}

	db, err := openDatabase(appCfg.DBDriver, appCfg.DBDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tasks := todo.NewStore(db)
	if err := tasks.Init(ctx); err != nil {
		return fmt.Errorf("initializing task store: %w", err)
	}
	vectors := rag.NewVectorStore(db)
	if err := vectors.Init(ctx); err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}

	broadcaster := events.NewBroadcaster()
	matcher := match.New(tasks, match.WithThreshold(appCfg.MatchThreshold))
	dispatcher, err := tool.NewDispatcher(tasks, matcher, broadcaster)
	if err != nil {
		return fmt.Errorf("building tool dispatcher: %w", err)
	}
	assistant, err := orchestrator.New(embedder, vectors, chatModel, dispatcher, orchestrator.WithTopK(appCfg.TopK))
	if err != nil {
		return fmt.Errorf("building orchestrator: %w", err)
	}
	ingestor, err := rag.NewIngestor(embedder, vectors)
	if err != nil {
		return fmt.Errorf("building ingestor: %w", err)
	}

	srv, err := server.New(assistant, tasks, ingestor, broadcaster, appCfg.UploadDir)
	if err != nil {
		return fmt.Errorf("building http server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    appCfg.HTTPAddr,
		Handler: srv.Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", appCfg.HTTPAddr).Msg("genia listening")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func openDatabase(driver string, dsn string) (*bun.DB, error) {
	switch driver {
	case "sqlite":
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, errors.New("unsupported database driver: " + driver)
	}
}

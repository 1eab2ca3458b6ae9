// Package entrypoint wires the service graph and runs the HTTP server.
package entrypoint

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/refbase/internal/attachments"
	"github.com/mrlokans/refbase/internal/citations"
	"github.com/mrlokans/refbase/internal/clipboard"
	"github.com/mrlokans/refbase/internal/config"
	"github.com/mrlokans/refbase/internal/database"
	"github.com/mrlokans/refbase/internal/database/collections"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/fulltext"
	http_controllers "github.com/mrlokans/refbase/internal/http"
	"github.com/mrlokans/refbase/internal/importers"
	"github.com/mrlokans/refbase/internal/notify"
	"github.com/mrlokans/refbase/internal/scheduler"
	"github.com/mrlokans/refbase/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	// Wait for interrupt, then drain with a deadline.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Shutdown callback first (task queue, scheduler) so in-flight work
	// finishes before the listener closes.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Info().Str("version", version).Msg("starting refbase")

	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Storage.Dir).Msg("failed to create storage directory")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("error closing database")
		}
	}()

	itemsRepo := items.NewRepository(db)
	collectionsRepo := collections.NewRepository(db.DB)
	resolver := attachments.NewResolver(cfg.Storage.Dir, database.NewKey)
	bus := notify.NewBus()

	ftService, err := fulltext.NewService(db.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize full-text index")
	}

	// Task queue for post-commit index submission.
	var (
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
		indexer       importers.Indexer
	)
	if cfg.Tasks.Enabled && cfg.Fulltext.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("error closing task client")
			}
		}()

		taskClient.Register(tasks.NewIndexQueue(itemsRepo, resolver, ftService))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		indexer = tasks.NewSubmitter(taskClient)
	}

	coordinator := importers.NewCoordinator(db, itemsRepo, collectionsRepo, resolver, bus, indexer)

	// Periodic sweep picking up attachments whose index submission was
	// lost between commit and enqueue.
	var reindex *scheduler.ReindexScheduler
	if cfg.Reindex.Enabled && indexer != nil {
		reindex = scheduler.NewReindexScheduler(itemsRepo, indexer)
		if err := reindex.Start(cfg.Reindex.Schedule); err != nil {
			log.Fatal().Err(err).Msg("failed to start reindex scheduler")
		}
	}

	formatter := citations.NewFormatter()

	var sink clipboard.Sink = clipboard.NewMemorySink()
	if cfg.Citations.ClipboardCommand != "" {
		parts := strings.Fields(cfg.Citations.ClipboardCommand)
		sink = clipboard.NewCommandSink(parts[0], parts[1:]...)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:    db,
		Items:       itemsRepo,
		Coordinator: coordinator,
		Fulltext:    ftService,
		Formatter:   formatter,
		Sink:        sink,
	})

	onShutdown := func(ctx context.Context) {
		if reindex != nil {
			reindex.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

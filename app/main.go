package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vietyenltd/healthdesk/app/api"
	"github.com/vietyenltd/healthdesk/app/cfg"
	"github.com/vietyenltd/healthdesk/app/compose"
	"github.com/vietyenltd/healthdesk/app/config"
	"github.com/vietyenltd/healthdesk/app/database"
	"github.com/vietyenltd/healthdesk/app/feed"
	"github.com/vietyenltd/healthdesk/app/llm"
	"github.com/vietyenltd/healthdesk/app/relevance"
	"github.com/vietyenltd/healthdesk/app/render"
	"github.com/vietyenltd/healthdesk/app/resolve"
	"github.com/vietyenltd/healthdesk/app/seo"
	"github.com/vietyenltd/healthdesk/app/tasks"
	"github.com/vietyenltd/healthdesk/app/wordpress"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting Health Desk bot", "version", appCfg.Version)

	pipelineConf, err := config.NewLoader(appCfg.ConfigPath).Load()
	if err != nil {
		log.Fatal("Failed to load pipeline configuration: ", err)
	}
	slog.Info("Pipeline configuration loaded",
		"sources", len(pipelineConf.Sources),
		"topics", len(pipelineConf.Topics),
		"internal_links", len(pipelineConf.InternalLinks))

	db, err := database.NewConnection(appCfg.DataDir)
	if err != nil {
		log.Fatal("Failed to open publish history database: ", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	httpClient := &http.Client{Timeout: 60 * time.Second}

	var completer llm.Completer
	if appCfg.OpenAIAPIKey != "" {
		completer = llm.NewOpenAIClient(appCfg.OpenAIAPIKey)
		slog.Info("AI composition enabled")
	} else {
		slog.Info("No OpenAI credential, running deterministic pipeline only")
	}

	repo := database.NewPublicationRepository(db)
	publisher := wordpress.NewClient(httpClient, appCfg.WPBaseURL, appCfg.WPUsername,
		appCfg.WPAppPassword, appCfg.UserAgent)

	fetcher := feed.NewFetcher(httpClient, pipelineConf.Settings, appCfg.UserAgent)
	sanitizer := feed.NewSanitizer()
	extractor := feed.NewExtractor(httpClient, pipelineConf.Settings, appCfg.UserAgent)
	gate := relevance.NewGate(pipelineConf, completer)
	composer := compose.NewComposer(pipelineConf, completer)
	seoGen := seo.NewGenerator()
	resolver := resolve.NewResolver(pipelineConf)
	renderer := render.NewRenderer(pipelineConf)

	newTask := func() tasks.TaskInterface {
		return tasks.NewPublishArticleTask(pipelineConf, fetcher, sanitizer, extractor,
			gate, composer, seoGen, resolver, renderer, publisher, repo)
	}

	if appCfg.Once {
		runOnce(newTask)
		return
	}

	scheduler := tasks.NewScheduler(newTask)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(repo, scheduler, newTask)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// runOnce executes a single pipeline pass synchronously. Used by external
// schedulers (cron) instead of the built-in interval scheduler.
func runOnce(newTask func() tasks.TaskInterface) {
	task := newTask()
	task.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := task.Execute(ctx); err != nil {
		log.Fatal("Pipeline run failed: ", err)
	}

	if pt, ok := task.(*tasks.PublishArticleTask); ok {
		slog.Info("Run finished", "outcome", string(pt.Outcome), "duration", task.GetDuration().String())
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

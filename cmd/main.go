package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logsift/internal/ai"
	"logsift/internal/handlers"
	"logsift/internal/logger"
	"logsift/internal/repository"
	"logsift/internal/server"
	"logsift/internal/service"
	"logsift/internal/watcher"
	"logsift/internal/worker"

	"github.com/spf13/viper"

	_ "logsift/docs"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
)

// @title        LogSift API
// @version      1.0
// @description  Log ingestion, anomaly scoring, and analysis service.
// @BasePath     /

// @securityDefinitions.apikey BearerAuth
// @in   header
// @name Authorization
func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)

	embedder, completer := buildAIClient(log)

	ingest := service.NewIngestService(repos.Records, log)
	pool := worker.NewPool(ingest, repos.Jobs, log, poolWorkers(), poolQueueSize())

	services := service.NewService(service.Deps{
		Repos:      repos,
		Queue:      pool,
		Embedder:   embedder,
		Completer:  completer,
		Log:        log,
		SigningKey: signingKey(log),
	})

	apiHandler := handlers.NewHandler(services, log, handlers.UploadRateLimit{
		PerSecond: viper.GetFloat64("upload.rate_per_second"),
		Burst:     viper.GetInt("upload.burst"),
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)

	// optional drop-directory ingestion
	if dir := viper.GetString("watch.dir"); dir != "" {
		w := watcher.New(dir, services.Jobs, log)
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.Errorw("watcher stopped", "err", err)
			}
		}()
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, pool, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "logsift.db")
		dbPath = "logsift.db"
	}
	return repository.InitDB(dbPath)
}

// buildAIClient returns the embedding and completion collaborators, or nils
// when no API key is configured. The service layer degrades gracefully.
func buildAIClient(log *logger.Logger) (ai.Embedder, ai.Completer) {
	keyEnv := viper.GetString("ai.api_key_env")
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if apiKey == "" {
		log.Infow("no AI api key configured; assist runs in degraded mode", "env", keyEnv)
		return nil, nil
	}

	client := ai.NewClient(ai.Config{
		BaseURL:         viper.GetString("ai.base_url"),
		APIKey:          apiKey,
		EmbedModel:      viper.GetString("ai.embed_model"),
		CompletionModel: viper.GetString("ai.completion_model"),
	})
	return client, client
}

func signingKey(log *logger.Logger) string {
	key := os.Getenv("LOGSIFT_SIGNING_KEY")
	if key == "" {
		key = viper.GetString("auth.signing_key")
	}
	if key == "" {
		log.Fatalw("no JWT signing key: set LOGSIFT_SIGNING_KEY or auth.signing_key")
	}
	return key
}

func poolWorkers() int {
	if n := viper.GetInt("workers.count"); n > 0 {
		return n
	}
	return defaultWorkers
}

func poolQueueSize() int {
	if n := viper.GetInt("workers.queue_size"); n > 0 {
		return n
	}
	return defaultQueueSize
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, pool *worker.Pool, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines and drain in-flight jobs
	cancel()
	pool.Wait()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}

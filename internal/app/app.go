package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/meetfood/backend/internal/config"
	"github.com/meetfood/backend/internal/db"
	"github.com/meetfood/backend/internal/handlers"
	"github.com/meetfood/backend/internal/httpserver"
	"github.com/meetfood/backend/internal/identity"
	"github.com/meetfood/backend/internal/middleware"
	"github.com/meetfood/backend/internal/models"
	"github.com/meetfood/backend/internal/repositories"
	"github.com/meetfood/backend/internal/storage"
)

// Run bootstraps the MeetFood backend application.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, indexes, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "indexes":
		return ensureIndexes(ctx)
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Disconnect(disconnectCtx, database)
	}()

	cognitoClient, err := identity.NewCognitoClient(ctx, cfg.Cognito)
	if err != nil {
		return err
	}

	objectStore, err := storage.NewS3Store(ctx, cfg.ObjectStore)
	if err != nil {
		return err
	}

	cleaner := storage.NewCleaner(objectStore, storage.CleanerConfig{Workers: 2}, logger)

	deps := buildDependencies(database, cognitoClient, cognitoClient, objectStore, cleaner, cfg)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(mux)

	srv := httpserver.New(cfg.AppPort, handler)

	logger.Info("starting http server", "port", cfg.AppPort)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Drain pending blob deletions before exiting.
	return cleaner.Shutdown(shutdownCtx)
}

const (
	indexMaxRetries  = 3
	indexBaseBackoff = 100 * time.Millisecond
	indexMaxBackoff  = 3 * time.Second
)

// ensureIndexes creates the unique indexes the write paths depend on,
// retrying transient connectivity failures with exponential backoff.
func ensureIndexes(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Disconnect(context.Background(), database)
	}()

	var attempt int
	for attempt = 0; attempt < indexMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * indexBaseBackoff
			if backoff > indexMaxBackoff {
				backoff = indexMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			timer.Stop()
		}

		err := repositories.EnsureIndexes(ctx, database)
		if err == nil {
			fmt.Println("indexes ensured")
			return nil
		}

		if shouldRetryIndexes(err) && attempt < indexMaxRetries-1 {
			fmt.Printf("transient error ensuring indexes (attempt %d/%d): %v\n", attempt+1, indexMaxRetries, err)
			continue
		}
		return err
	}

	return fmt.Errorf("ensure indexes: exceeded max retries (%d)", attempt)
}

func shouldRetryIndexes(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err)
}

// runSeed loads a JSON fixture of video posts into the database. Meant for
// local development only.
func runSeed(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected seed name (e.g. dev)")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	seedDir := cfg.SeedDir
	if !filepath.IsAbs(seedDir) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		seedDir = filepath.Join(wd, seedDir)
	}

	seedName := args[0]
	if !strings.HasSuffix(seedName, ".json") {
		seedName = fmt.Sprintf("%s_seed.json", seedName)
	}

	seedPath := filepath.Join(seedDir, seedName)
	contents, err := os.ReadFile(seedPath)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", seedName, err)
	}

	var fixture struct {
		VideoPosts []models.VideoPost `json:"videoPosts"`
	}
	if err := json.Unmarshal(contents, &fixture); err != nil {
		return fmt.Errorf("parse seed %s: %w", seedName, err)
	}

	database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Disconnect(context.Background(), database)
	}()

	posts := repositories.NewMongoVideoPostRepository(database)
	for _, post := range fixture.VideoPosts {
		if _, err := posts.Insert(ctx, post); err != nil {
			return fmt.Errorf("apply seed %s: %w", seedName, err)
		}
	}

	fmt.Printf("applied seed %s (%d video posts)\n", seedName, len(fixture.VideoPosts))
	return nil
}

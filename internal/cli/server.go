package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/config"
	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/infra/memory"
	pginfra "quiz-game-service/internal/infra/postgres"
	redisinfra "quiz-game-service/internal/infra/redis"
	transport "quiz-game-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	gameTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleQuizzes(), sampleQuestions())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pginfra.NewCatalogLoader(pool)
	}

	var catalog app.Catalog
	if redisClient != nil {
		catalog = redisinfra.NewCatalog(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalog(loader, catalogTTL)
	}

	var store app.GameStore
	switch {
	case cfg.Postgres.URL != "":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		store = pginfra.NewGameStore(db)
	case redisClient != nil:
		store = redisinfra.NewGameStore(redisClient, gameTTL)
	default:
		store = memory.NewGameStore()
	}

	service := app.NewGameService(store, catalog)
	webHandler := transport.NewWebHandler(service)
	chatHandler := transport.NewChatHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	webHandler.Register(mux)
	mux.HandleFunc("/chat", chatHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz game service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes and sampleQuestions provide minimal demo content; real
// deployments load the catalog from Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:             "quiz-1",
			Title:          "Warm-up",
			Published:      true,
			TimerSeconds:   60,
			FiftyFiftyHint: true,
			CanSkip:        true,
			QuestionIDs:    []string{"q1", "q2"},
		},
	}
}

func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q1": {
			ID:   "q1",
			Text: "What is 2 + 2?",
			Answers: []domain.Answer{
				{ID: "q1-a1", Text: "3", Correct: false},
				{ID: "q1-a2", Text: "4", Correct: true},
				{ID: "q1-a3", Text: "5", Correct: false},
				{ID: "q1-a4", Text: "22", Correct: false},
			},
		},
		"q2": {
			ID:   "q2",
			Text: "What is 3 * 3?",
			Answers: []domain.Answer{
				{ID: "q2-a1", Text: "9", Correct: true},
				{ID: "q2-a2", Text: "6", Correct: false},
				{ID: "q2-a3", Text: "33", Correct: false},
			},
		},
	}
}

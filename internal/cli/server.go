package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashmind-student/internal/api"
	"flashmind-student/internal/app"
	"flashmind-student/internal/config"
	"flashmind-student/internal/infra/memory"
	pgloader "flashmind-student/internal/infra/postgres"
	rediscache "flashmind-student/internal/infra/redis"
	transport "flashmind-student/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the student web interface",
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3000"
	}
	if cfg.Server.SessionSecret == "" {
		return fmt.Errorf("server.sessionSecret must be set")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	client := api.NewClient(cfg.APIBaseURL(), config.TTLDuration(cfg.API.Timeout, 10*time.Second))

	loader, catalog, err := quizLoader(ctx, cfg)
	if err != nil {
		return err
	}

	// Only local banks are cached: backend question sets depend on who asks.
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	switch {
	case catalog == nil:
		quizRepo = app.UncachedRepository{Loader: loader}
	case redisClient != nil:
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	default:
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.CredentialStore
	if redisClient != nil {
		store = rediscache.NewCredentialStore(redisClient, sessionTTL)
	} else {
		store = memory.NewCredentialStore(sessionTTL)
	}

	auth := app.NewAuthService(client, store, func(ts oauth2.TokenSource) app.StudentAPI {
		return client.Student(ts)
	})
	quizzes := app.NewQuizService(quizRepo, cfg.RunnerConfig())
	if catalog != nil {
		// Local banks are unknown to the backend; keep their attempts local.
		quizzes.SetCatalog(catalog)
		quizzes.SetReporting(false)
	}

	web, err := transport.NewServer(transport.Deps{
		Auth:    auth,
		Quizzes: quizzes,
		Cookies: transport.NewCookieStore(cfg.Server.SessionSecret, cfg.Server.SecureCookie),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           web.Router(cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting flashmind student interface on :%s (quiz source: %s, api: %s)", finalPort, cfg.QuizSource(), cfg.APIBaseURL())
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

// quizLoader picks where question sets come from. Local sources also
// return a catalog for the dashboard.
func quizLoader(ctx context.Context, cfg config.Config) (app.QuizLoader, app.Catalog, error) {
	switch cfg.QuizSource() {
	case config.SourcePostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		loader := pgloader.NewQuizLoader(pool)
		return loader, loader, nil
	case config.SourceStatic:
		quizzes, err := loadBank(cfg.Quiz.BankFile)
		if err != nil {
			return nil, nil, err
		}
		loader := memory.NewBankLoader(quizzes)
		return loader, loader, nil
	default:
		return app.APIQuizLoader{}, nil, nil
	}
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/catalog"
	"mathtoys-quiz/internal/config"
	"mathtoys-quiz/internal/infra/memory"
	pgstore "mathtoys-quiz/internal/infra/postgres"
	redisstore "mathtoys-quiz/internal/infra/redis"
	"mathtoys-quiz/internal/logger"
	transport "mathtoys-quiz/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", os.Getenv("PORT"), "port to listen on (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Get()

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
		defer redisClient.Close()
	}
	redisTTL, err := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)
	if err != nil {
		return err
	}
	sessionTTL, err := config.TTLDuration(cfg.Quiz.SessionTTL, redisTTL)
	if err != nil {
		return err
	}

	var loader memory.QuizLoader
	var results app.ResultRecorder = memory.NewResultStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgstore.NewQuizLoader(pool)

		db := openBunDB(cfg.Postgres.URL)
		defer db.Close()
		results = pgstore.NewResultRecorder(db)
	} else {
		cat, err := catalog.Open(os.DirFS(cfg.Server.DataDir))
		if err != nil {
			return err
		}
		loader = cat
	}

	quizTTL, err := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if err != nil {
		return err
	}
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL, cfg.Quiz.OptionCount)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL, cfg.Quiz.OptionCount)
	}

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		store = memory.NewSessionStore(memory.WithSessionTTL(sessionTTL))
	}
	service := app.NewQuizService(store, quizRepo,
		app.WithResultRecorder(results),
		app.WithDefaultOptionCount(cfg.Quiz.OptionCount),
	)
	handler := transport.NewHandler(service,
		transport.WithCookieName(cfg.Server.CookieName),
		transport.WithDataFS(os.DirFS(cfg.Server.DataDir)),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service",
			zap.String("addr", server.Addr),
			zap.Bool("redis", redisClient != nil),
			zap.Bool("postgres", cfg.Postgres.URL != ""),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

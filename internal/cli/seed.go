package cli

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mathtoys-quiz/internal/catalog"
	pgstore "mathtoys-quiz/internal/infra/postgres"
	redisstore "mathtoys-quiz/internal/infra/redis"
	"mathtoys-quiz/internal/logger"
)

// NewSeedCmd loads the data directory into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate the data directory and upsert every quiz into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if dataDir == "" {
				dataDir = cfg.Server.DataDir
			}

			fsys := os.DirFS(dataDir)
			if report := catalog.Validate(fsys, cfg.Quiz.OptionCount); !report.OK() {
				return fmt.Errorf("refusing to seed %s: %w", dataDir, report.Err())
			}
			quizzes, err := catalog.Load(fsys)
			if err != nil {
				return err
			}

			if err := runMigrationsWithConfig(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := pgstore.NewQuizLoader(pool).Seed(ctx, quizzes); err != nil {
				return err
			}

			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				cache := redisstore.NewQuizRepository(client, nil, 0, cfg.Quiz.OptionCount)
				for _, quiz := range quizzes {
					if err := cache.Invalidate(ctx, quiz.Config.ID); err != nil {
						logger.Get().Warn("failed to invalidate cached quiz",
							zap.String("quiz_id", quiz.Config.ID),
							zap.Error(err),
						)
					}
				}
			}

			logger.Get().Info("quizzes seeded", zap.Int("count", len(quizzes)), zap.String("data_dir", dataDir))
			return nil
		},
	}
	cmd.Flags().StringVar(&dataDir, "data", "", "data directory (defaults to server.data_dir)")
	return cmd
}

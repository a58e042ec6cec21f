package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/domain"
	pgstore "mathtoys-quiz/internal/infra/postgres"
	pgmigrations "mathtoys-quiz/internal/infra/postgres/migrations"
	infraredis "mathtoys-quiz/internal/infra/redis"
)

func TestQuizRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateDB(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	if err := loader.Seed(ctx, []domain.Quiz{sampleQuiz()}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute, app.DefaultOptionCount)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	recorder := pgstore.NewResultRecorder(db)
	service := app.NewQuizService(sessionStore, quizRepo,
		app.WithResultRecorder(recorder),
		app.WithRandom(app.NewRandom(42)),
	)

	configs, err := service.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(configs) != 1 || configs[0].ID != "arithmetic" {
		t.Fatalf("expected the seeded quiz in the catalog, got %+v", configs)
	}

	total, err := service.Start(ctx, "s1", "arithmetic")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 questions, got %d", total)
	}

	answers := map[domain.QuestionID]string{"q1": "4", "q2": "7"}
	for i := 0; i < total; i++ {
		next, err := service.Next(ctx, "s1", "arithmetic")
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if next.Finished || next.Question == nil {
			t.Fatalf("expected a question at step %d, got %+v", i, next)
		}
		answer := answers[next.Question.ID]
		if i == 1 {
			answer = "wrong"
		}
		result, _, err := service.Check(ctx, "s1", "arithmetic", next.Question.ID, answer)
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if result.Correct != (i == 0) {
			t.Fatalf("unexpected verdict at step %d: %+v", i, result)
		}
	}

	next, err := service.Next(ctx, "s1", "arithmetic")
	if err != nil {
		t.Fatalf("final next: %v", err)
	}
	if !next.Finished || next.Progress.ScorePercent != 50 {
		t.Fatalf("expected finished run at 50%%, got %+v", next)
	}

	results, err := service.Results(ctx, "arithmetic", 10)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 || results[0].Correct != 1 || results[0].Answered != 2 {
		t.Fatalf("expected one recorded result, got %+v", results)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// migrateDB applies the schema and returns the bun handle used by the recorder.
func migrateDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		Config: domain.QuizConfig{
			ID:         "arithmetic",
			Name:       "Arithmetic",
			File:       "arithmetic.json",
			AnswerType: domain.AnswerRandom,
			AllOptions: []string{"3", "4", "5", "6", "7"},
		},
		Questions: []domain.QuestionRecord{
			{ID: "q1", Question: "2 + 2", Correct: "4"},
			{ID: "q2", Question: "3 + 4", Correct: "7"},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mathtoys-quiz/internal/domain"
)

// QuizLoader loads quiz JSONB from Postgres.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, fmt.Errorf("%w: %q", domain.ErrQuizNotFound, quizID)
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("%w: unmarshal quiz %q: %w", domain.ErrConfiguration, quizID, err)
	}
	return quiz, nil
}

// ListQuizzes returns the config part of every stored quiz in catalog order.
func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]domain.QuizConfig, error) {
	rows, err := l.pool.Query(ctx, `SELECT data->'config' FROM quizzes ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var configs []domain.QuizConfig
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		var cfg domain.QuizConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("%w: unmarshal quiz config: %w", domain.ErrConfiguration, err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// Seed upserts quizzes in one transaction. Slice order becomes catalog order.
func (l *QuizLoader) Seed(ctx context.Context, quizzes []domain.Quiz) error {
	return l.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		for i, quiz := range quizzes {
			data, err := json.Marshal(quiz)
			if err != nil {
				return fmt.Errorf("encode quiz %q: %w", quiz.Config.ID, err)
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO quizzes (id, position, data, updated_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (id) DO UPDATE
				SET position = EXCLUDED.position, data = EXCLUDED.data, updated_at = now()`,
				quiz.Config.ID, i, data)
			if err != nil {
				return fmt.Errorf("upsert quiz %q: %w", quiz.Config.ID, err)
			}
		}
		return nil
	})
}

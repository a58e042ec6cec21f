package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"mathtoys-quiz/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID           string    `bun:"id,pk"`
	SessionID    string    `bun:"session_id"`
	QuizID       string    `bun:"quiz_id"`
	Total        int       `bun:"total"`
	Answered     int       `bun:"answered"`
	Correct      int       `bun:"correct"`
	ScorePercent int       `bun:"score_percent"`
	StartedAt    time.Time `bun:"started_at"`
	FinishedAt   time.Time `bun:"finished_at"`
}

// ResultRecorder stores finished sessions in quiz_results.
type ResultRecorder struct {
	db *bun.DB
}

func NewResultRecorder(db *bun.DB) *ResultRecorder {
	return &ResultRecorder{db: db}
}

func (r *ResultRecorder) Record(ctx context.Context, result domain.Result) error {
	row := resultRow{
		ID:           result.ID,
		SessionID:    result.SessionID,
		QuizID:       result.QuizID,
		Total:        result.Total,
		Answered:     result.Answered,
		Correct:      result.Correct,
		ScorePercent: result.ScorePercent,
		StartedAt:    result.StartedAt,
		FinishedAt:   result.FinishedAt,
	}
	if _, err := r.db.NewInsert().Model(&row).Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	return nil
}

// Recent returns the latest results for a quiz, newest first.
func (r *ResultRecorder) Recent(ctx context.Context, quizID string, limit int) ([]domain.Result, error) {
	var rows []resultRow
	err := r.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		OrderExpr("finished_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	out := make([]domain.Result, len(rows))
	for i, row := range rows {
		out[i] = domain.Result{
			ID:           row.ID,
			SessionID:    row.SessionID,
			QuizID:       row.QuizID,
			Total:        row.Total,
			Answered:     row.Answered,
			Correct:      row.Correct,
			ScorePercent: row.ScorePercent,
			StartedAt:    row.StartedAt,
			FinishedAt:   row.FinishedAt,
		}
	}
	return out, nil
}

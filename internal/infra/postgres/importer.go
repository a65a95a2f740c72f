package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flashmind-student/internal/domain"
	"github.com/uptrace/bun"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID         string          `bun:"id,pk"`
	Title      string          `bun:"title"`
	Code       string          `bun:"code"`
	Difficulty string          `bun:"difficulty"`
	Data       json.RawMessage `bun:"data,type:jsonb"`
	UpdatedAt  time.Time       `bun:"updated_at"`
}

// ImportQuizzes upserts a question bank into the quizzes table.
func ImportQuizzes(ctx context.Context, db bun.IDB, quizzes []domain.Quiz) (int, error) {
	if len(quizzes) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]quizRow, 0, len(quizzes))
	for _, q := range quizzes {
		data, err := json.Marshal(q)
		if err != nil {
			return 0, fmt.Errorf("encode quiz %s: %w", q.ID, err)
		}
		rows = append(rows, quizRow{
			ID:         q.ID,
			Title:      q.Title,
			Code:       q.Code,
			Difficulty: q.Difficulty,
			Data:       data,
			UpdatedAt:  now,
		})
	}

	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("code = EXCLUDED.code").
		Set("difficulty = EXCLUDED.difficulty").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("import quizzes: %w", err)
	}
	return len(rows), nil
}

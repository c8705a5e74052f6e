package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"millionaire-quiz-service/internal/domain"
)

// QuestionStore reads and seeds the question bank in Postgres.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

// LoadLevel returns every question of a level. The first answer is the correct one.
func (s *QuestionStore) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, level, text, answers FROM questions WHERE level=$1 ORDER BY id`, level)
	if err != nil {
		return nil, fmt.Errorf("load level %d: %w", level, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q       domain.Question
			answers []string
		)
		if err := rows.Scan(&q.ID, &q.Level, &q.Text, &answers); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if len(answers) != len(q.Answers) {
			return nil, fmt.Errorf("question %d: expected %d answers, got %d", q.ID, len(q.Answers), len(answers))
		}
		copy(q.Answers[:], answers)
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveQuestions inserts questions in one batch, skipping ones already stored
// for the same level and text. It returns how many rows were inserted.
func (s *QuestionStore) SaveQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(
			`INSERT INTO questions (level, text, answers) VALUES ($1, $2, $3) ON CONFLICT (level, text) DO NOTHING`,
			q.Level, q.Text, q.Answers[:],
		)
	}
	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range questions {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("insert question: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

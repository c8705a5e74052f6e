// Package sqlite provides a file-backed question bank for local play.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"millionaire-quiz-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS questions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	level    INTEGER NOT NULL CHECK (level >= 0),
	text     TEXT NOT NULL,
	answer_1 TEXT NOT NULL,
	answer_2 TEXT NOT NULL,
	answer_3 TEXT NOT NULL,
	answer_4 TEXT NOT NULL,
	UNIQUE (level, text)
);
CREATE INDEX IF NOT EXISTS questions_level_idx ON questions (level);
`

// QuestionStore keeps the question bank in a SQLite file.
type QuestionStore struct {
	sqlDB *sql.DB
}

// Open opens the SQLite file at path and creates the schema if needed.
func Open(path string) (*QuestionStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &QuestionStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *QuestionStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadLevel returns every question of a level. answer_1 is the correct one.
func (s *QuestionStore) LoadLevel(ctx context.Context, level int) ([]domain.Question, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, level, text, answer_1, answer_2, answer_3, answer_4 FROM questions WHERE level = ? ORDER BY id`,
		level,
	)
	if err != nil {
		return nil, fmt.Errorf("load level %d: %w", level, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Level, &q.Text, &q.Answers[0], &q.Answers[1], &q.Answers[2], &q.Answers[3]); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SaveQuestions inserts questions, skipping ones already stored for the same
// level and text. It returns how many rows were inserted.
func (s *QuestionStore) SaveQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO questions (level, text, answer_1, answer_2, answer_3, answer_4) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, q := range questions {
		res, err := stmt.ExecContext(ctx, q.Level, q.Text, q.Answers[0], q.Answers[1], q.Answers[2], q.Answers[3])
		if err != nil {
			return 0, fmt.Errorf("insert question %q: %w", q.Text, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

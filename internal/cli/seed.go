package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"millionaire-quiz-service/internal/config"
	"millionaire-quiz-service/internal/domain"
	pgstore "millionaire-quiz-service/internal/infra/postgres"
	redisstore "millionaire-quiz-service/internal/infra/redis"
	"millionaire-quiz-service/internal/infra/sqlite"
	"millionaire-quiz-service/internal/random"
)

type questionSaver interface {
	SaveQuestions(ctx context.Context, questions []domain.Question) (int, error)
}

// NewSeedCmd loads a YAML question file into the configured question store.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load questions into Postgres or SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML question file (defaults to the built-in set)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	questions, err := loadQuestionFile(file)
	if err != nil {
		return err
	}

	var (
		saver  questionSaver
		target string
	)
	switch {
	case cfg.Postgres.URL != "":
		db := openBunDB(cfg.Postgres.URL)
		err := migrateDB(ctx, db)
		_ = db.Close()
		if err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		saver, target = pgstore.NewQuestionStore(pool), "postgres"
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		saver, target = store, cfg.SQLite.Path
	default:
		return fmt.Errorf("neither postgres url nor sqlite path configured")
	}

	inserted, err := saver.SaveQuestions(ctx, questions)
	if err != nil {
		return err
	}
	log.Printf("seeded %d of %d questions into %s", inserted, len(questions), target)

	if cfg.Redis.Addr != "" {
		client := newRedisClient(cfg)
		defer client.Close()
		invalidateLevels(ctx, client, questions)
	}
	return nil
}

// invalidateLevels drops cached levels so running servers pick up new questions.
func invalidateLevels(ctx context.Context, client *redis.Client, questions []domain.Question) {
	bank := redisstore.NewQuestionBank(client, nil, 0, random.NewSource(0))
	seen := make(map[int]bool)
	for _, q := range questions {
		if seen[q.Level] {
			continue
		}
		seen[q.Level] = true
		if err := bank.Invalidate(ctx, q.Level); err != nil {
			log.Printf("invalidate level %d: %v", q.Level, err)
		}
	}
}

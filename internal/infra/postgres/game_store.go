package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"millionaire-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

type gameModel struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID               string               `bun:"id,pk"`
	UserID           string               `bun:"user_id,notnull"`
	CurrentLevel     int                  `bun:"current_level,notnull"`
	CreatedAt        time.Time            `bun:"created_at,notnull"`
	FinishedAt       *time.Time           `bun:"finished_at"`
	IsFailed         bool                 `bun:"is_failed,notnull"`
	Prize            int                  `bun:"prize,notnull"`
	AudienceHelpUsed bool                 `bun:"audience_help_used,notnull"`
	FiftyFiftyUsed   bool                 `bun:"fifty_fifty_used,notnull"`
	FriendCallUsed   bool                 `bun:"friend_call_used,notnull"`
	Questions        []*gameQuestionModel `bun:"rel:has-many,join:id=game_id"`
}

type gameQuestionModel struct {
	bun.BaseModel `bun:"table:game_questions,alias:gq"`

	GameID     string             `bun:"game_id,pk"`
	Level      int                `bun:"level,pk"`
	QuestionID int64              `bun:"question_id,notnull"`
	Text       string             `bun:"text,notnull"`
	Answers    []string           `bun:"answers,array"`
	Order      []int              `bun:"answer_order,array"`
	Help       domain.HelpPayload `bun:"help_hash,type:jsonb"`
}

// GameStore persists games in Postgres. The partial unique index on
// games(user_id) WHERE finished_at IS NULL keeps one active game per user.
type GameStore struct {
	db *bun.DB
}

func NewGameStore(db *bun.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) Create(ctx context.Context, snap domain.GameSnapshot) error {
	game := toGameModel(snap)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(game).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrActiveGameExists
			}
			return fmt.Errorf("insert game %s: %w", snap.ID, err)
		}
		if len(game.Questions) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&game.Questions).Exec(ctx); err != nil {
			return fmt.Errorf("insert game questions %s: %w", snap.ID, err)
		}
		return nil
	})
}

func (s *GameStore) Get(ctx context.Context, gameID string) (domain.GameSnapshot, error) {
	game := new(gameModel)
	err := s.selectGames(s.db.NewSelect().Model(game)).
		Where("g.id = ?", gameID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameSnapshot{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameSnapshot{}, fmt.Errorf("select game %s: %w", gameID, err)
	}
	return fromGameModel(game), nil
}

func (s *GameStore) Update(ctx context.Context, snap domain.GameSnapshot) error {
	game := toGameModel(snap)
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(game).
			Column("current_level", "finished_at", "is_failed", "prize",
				"audience_help_used", "fifty_fifty_used", "friend_call_used").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update game %s: %w", snap.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrGameNotFound
		}
		for _, q := range game.Questions {
			if _, err := tx.NewUpdate().Model(q).Column("help_hash").WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update help for game %s level %d: %w", snap.ID, q.Level, err)
			}
		}
		return nil
	})
}

func (s *GameStore) ActiveForUser(ctx context.Context, userID string) (domain.GameSnapshot, bool, error) {
	game := new(gameModel)
	err := s.selectGames(s.db.NewSelect().Model(game)).
		Where("g.user_id = ?", userID).
		Where("g.finished_at IS NULL").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameSnapshot{}, false, nil
	}
	if err != nil {
		return domain.GameSnapshot{}, false, fmt.Errorf("select active game: %w", err)
	}
	return fromGameModel(game), true, nil
}

func (s *GameStore) ListByUser(ctx context.Context, userID string) ([]domain.GameSnapshot, error) {
	var games []*gameModel
	err := s.selectGames(s.db.NewSelect().Model(&games)).
		Where("g.user_id = ?", userID).
		Order("g.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	out := make([]domain.GameSnapshot, 0, len(games))
	for _, g := range games {
		out = append(out, fromGameModel(g))
	}
	return out, nil
}

func (s *GameStore) selectGames(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Relation("Questions", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("gq.level ASC")
	})
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}

func toGameModel(snap domain.GameSnapshot) *gameModel {
	game := &gameModel{
		ID:               snap.ID,
		UserID:           snap.UserID,
		CurrentLevel:     snap.CurrentLevel,
		CreatedAt:        snap.CreatedAt,
		FinishedAt:       snap.FinishedAt,
		IsFailed:         snap.IsFailed,
		Prize:            snap.Prize,
		AudienceHelpUsed: snap.HelpUsage.Audience,
		FiftyFiftyUsed:   snap.HelpUsage.FiftyFifty,
		FriendCallUsed:   snap.HelpUsage.FriendCall,
		Questions:        make([]*gameQuestionModel, 0, len(snap.Questions)),
	}
	for i, q := range snap.Questions {
		game.Questions = append(game.Questions, &gameQuestionModel{
			GameID:     snap.ID,
			Level:      i,
			QuestionID: q.QuestionID,
			Text:       q.Text,
			Answers:    append([]string{}, q.Answers[:]...),
			Order:      append([]int{}, q.Order[:]...),
			Help:       q.Help,
		})
	}
	return game
}

func fromGameModel(game *gameModel) domain.GameSnapshot {
	snap := domain.GameSnapshot{
		ID:           game.ID,
		UserID:       game.UserID,
		CurrentLevel: game.CurrentLevel,
		CreatedAt:    game.CreatedAt,
		FinishedAt:   game.FinishedAt,
		IsFailed:     game.IsFailed,
		Prize:        game.Prize,
		HelpUsage: domain.HelpUsage{
			Audience:   game.AudienceHelpUsed,
			FiftyFifty: game.FiftyFiftyUsed,
			FriendCall: game.FriendCallUsed,
		},
		Questions: make([]domain.GameQuestionSnapshot, 0, len(game.Questions)),
	}
	for _, q := range game.Questions {
		qs := domain.GameQuestionSnapshot{
			QuestionID: q.QuestionID,
			Level:      q.Level,
			Text:       q.Text,
			Help:       q.Help,
		}
		copy(qs.Answers[:], q.Answers)
		copy(qs.Order[:], q.Order)
		snap.Questions = append(snap.Questions, qs)
	}
	return snap
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"millionaire-quiz-service/internal/domain"
)

// GameRepository persists game snapshots (in-memory, Redis, Postgres).
// Create must reject a second unfinished game for the same user with
// domain.ErrActiveGameExists atomically; Update releases that slot once the
// snapshot is finished.
type GameRepository interface {
	Create(ctx context.Context, snap domain.GameSnapshot) error
	Get(ctx context.Context, gameID string) (domain.GameSnapshot, error)
	Update(ctx context.Context, snap domain.GameSnapshot) error
	ActiveForUser(ctx context.Context, userID string) (domain.GameSnapshot, bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.GameSnapshot, error)
}

// QuestionBank supplies one question for a ladder level.
type QuestionBank interface {
	FetchOne(ctx context.Context, level int) (domain.Question, error)
}

// Wallet keeps the users' accumulated winnings. Credit is idempotent per
// gameID: repeating it for a game already paid leaves the balance unchanged.
type Wallet interface {
	Credit(ctx context.Context, userID, gameID string, amount int) error
	Balance(ctx context.Context, userID string) (int, error)
}

// GameService contains the game use cases.
type GameService struct {
	games  GameRepository
	bank   QuestionBank
	wallet Wallet
	ladder domain.Ladder
	gen    *HelpGenerator
	rnd    Source
	now    func() time.Time
	newID  func() string
	locks  *keyedMutex
}

func NewGameService(games GameRepository, bank QuestionBank, wallet Wallet, ladder domain.Ladder, gen *HelpGenerator, rnd Source) *GameService {
	return &GameService{
		games:  games,
		bank:   bank,
		wallet: wallet,
		ladder: ladder,
		gen:    gen,
		rnd:    rnd,
		now:    time.Now,
		newID:  uuid.NewString,
		locks:  newKeyedMutex(),
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// Ladder returns the configured ladder.
func (s *GameService) Ladder() domain.Ladder {
	return s.ladder
}

// CreateGame starts a new game for userID, one bank question per level.
func (s *GameService) CreateGame(ctx context.Context, userID string) (domain.GameView, error) {
	unlock := s.locks.Lock("user:" + userID)
	defer unlock()

	active, ok, err := s.games.ActiveForUser(ctx, userID)
	if err != nil {
		return domain.GameView{}, err
	}
	if ok {
		// An abandoned game past its time budget no longer blocks the user.
		expired, err := s.expireStale(ctx, active)
		if err != nil {
			return domain.GameView{}, err
		}
		if !expired {
			return domain.GameView{}, domain.ErrActiveGameExists
		}
	}

	questions := make([]*GameQuestion, 0, s.ladder.Levels())
	for level := 0; level < s.ladder.Levels(); level++ {
		q, err := s.bank.FetchOne(ctx, level)
		if errors.Is(err, domain.ErrNoQuestion) {
			return domain.GameView{}, fmt.Errorf("%w: level %d", domain.ErrInsufficientQuestions, level)
		}
		if err != nil {
			return domain.GameView{}, err
		}
		questions = append(questions, NewGameQuestion(q, level, s.gen, s.rnd))
	}

	game, err := NewGame(s.newID(), userID, questions, s.ladder, s.now)
	if err != nil {
		return domain.GameView{}, err
	}
	if err := s.games.Create(ctx, game.Snapshot()); err != nil {
		return domain.GameView{}, err
	}
	log.Printf("game %s created for user %s", game.ID(), userID)
	return game.View(), nil
}

// Answer submits the player's letter for the current question.
func (s *GameService) Answer(ctx context.Context, gameID, userID, letter string) (domain.AnswerResult, error) {
	letter = strings.ToLower(strings.TrimSpace(letter))
	result := domain.AnswerResult{Letter: letter}

	game, err := s.withGame(ctx, gameID, userID, func(g *Game) error {
		var q *GameQuestion
		if !g.Finished() {
			q = g.CurrentQuestion()
		}
		correct, err := g.AnswerCurrentQuestion(letter)
		if err != nil {
			return err
		}
		result.Correct = correct
		if g.Finished() && q != nil {
			result.CorrectKey = q.CorrectKey()
		}
		return nil
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	result.Game = game.View()
	return result, nil
}

// Help uses a lifeline on the current question and returns its payload.
// An expired game is timed out first and the request fails with ErrGameFinished.
func (s *GameService) Help(ctx context.Context, gameID, userID, helpType string) (domain.HelpPayload, error) {
	var payload domain.HelpPayload
	_, err := s.withGame(ctx, gameID, userID, func(g *Game) error {
		if g.TimeOut() {
			return domain.ErrGameFinished
		}
		var err error
		payload, err = g.UseHelp(domain.HelpType(helpType))
		return err
	})
	if err != nil {
		return domain.HelpPayload{}, err
	}
	return payload, nil
}

// TakeMoney cashes the player out at the last cleared level.
func (s *GameService) TakeMoney(ctx context.Context, gameID, userID string) (domain.GameView, error) {
	game, err := s.withGame(ctx, gameID, userID, func(g *Game) error {
		return g.TakeMoney()
	})
	if err != nil {
		return domain.GameView{}, err
	}
	return game.View(), nil
}

// Game returns the current view of a game, committing a timeout if it expired.
func (s *GameService) Game(ctx context.Context, gameID, userID string) (domain.GameView, error) {
	game, err := s.withGame(ctx, gameID, userID, func(g *Game) error {
		g.TimeOut()
		return nil
	})
	if err != nil {
		return domain.GameView{}, err
	}
	return game.View(), nil
}

// ActiveGame returns the user's unfinished game, if any.
func (s *GameService) ActiveGame(ctx context.Context, userID string) (domain.GameView, bool, error) {
	snap, ok, err := s.games.ActiveForUser(ctx, userID)
	if err != nil || !ok {
		return domain.GameView{}, false, err
	}
	view, err := s.Game(ctx, snap.ID, userID)
	if err != nil {
		return domain.GameView{}, false, err
	}
	return view, !view.Status.Terminal(), nil
}

// History lists a user's games, newest first.
func (s *GameService) History(ctx context.Context, userID string) ([]domain.GameView, error) {
	snaps, err := s.games.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.GameView, 0, len(snaps))
	for _, snap := range snaps {
		g, err := RestoreGame(snap, s.ladder, s.gen, s.now)
		if err != nil {
			return nil, fmt.Errorf("restore game %s: %w", snap.ID, err)
		}
		views = append(views, g.View())
	}
	return views, nil
}

// Balance returns the user's accumulated winnings.
func (s *GameService) Balance(ctx context.Context, userID string) (int, error) {
	return s.wallet.Balance(ctx, userID)
}

// withGame loads a game under its lock, applies fn and persists the result.
// A failed fn leaves storage untouched unless the game timed out during the call.
// A failed persist discards the in-memory change.
func (s *GameService) withGame(ctx context.Context, gameID, userID string, fn func(*Game) error) (*Game, error) {
	unlock := s.locks.Lock("game:" + gameID)
	defer unlock()

	snap, err := s.games.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if snap.UserID != userID {
		return nil, domain.ErrGameNotOwned
	}
	game, err := RestoreGame(snap, s.ladder, s.gen, s.now)
	if err != nil {
		return nil, fmt.Errorf("restore game %s: %w", gameID, err)
	}

	wasFinished := game.Finished()
	fnErr := fn(game)
	justFinished := !wasFinished && game.Finished()
	if fnErr != nil && !justFinished {
		return nil, fnErr
	}
	if err := s.persist(ctx, game, justFinished); err != nil {
		return nil, err
	}
	if fnErr != nil {
		return nil, fnErr
	}
	return game, nil
}

func (s *GameService) expireStale(ctx context.Context, snap domain.GameSnapshot) (bool, error) {
	unlock := s.locks.Lock("game:" + snap.ID)
	defer unlock()

	game, err := RestoreGame(snap, s.ladder, s.gen, s.now)
	if err != nil {
		return false, fmt.Errorf("restore game %s: %w", snap.ID, err)
	}
	if !game.TimeOut() {
		return false, nil
	}
	return true, s.persist(ctx, game, true)
}

// persist pays the prize of a game that just finished, then saves it. A failed
// credit leaves storage untouched so the whole operation can be retried.
func (s *GameService) persist(ctx context.Context, game *Game, justFinished bool) error {
	if justFinished && game.Prize() > 0 {
		if err := s.wallet.Credit(ctx, game.UserID(), game.ID(), game.Prize()); err != nil {
			return fmt.Errorf("credit prize for game %s: %w", game.ID(), err)
		}
	}
	if err := s.games.Update(ctx, game.Snapshot()); err != nil {
		return fmt.Errorf("update game %s: %w", game.ID(), err)
	}
	if justFinished {
		log.Printf("game %s finished: status=%s level=%d prize=%d", game.ID(), game.Status(), game.CurrentLevel(), game.Prize())
	}
	return nil
}

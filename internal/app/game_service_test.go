package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"millionaire-quiz-service/internal/app"
	"millionaire-quiz-service/internal/domain"
	"millionaire-quiz-service/internal/i18n"
	"millionaire-quiz-service/internal/infra/memory"
	"millionaire-quiz-service/internal/random"
)

func TestCreateGame(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())

	view, err := service.CreateGame(ctx, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.Status != domain.StatusInProgress || view.CurrentLevel != 0 {
		t.Fatalf("expected fresh game, got %+v", view)
	}
	if len(view.Variants) != 4 || view.Question == "" {
		t.Fatalf("expected first question in view, got %+v", view)
	}

	active, ok, err := service.ActiveGame(ctx, "u1")
	if err != nil || !ok || active.ID != view.ID {
		t.Fatalf("expected active game %s, got %+v ok=%v err=%v", view.ID, active, ok, err)
	}
}

func TestCreateGameTwiceFails(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())

	if _, err := service.CreateGame(ctx, "u1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.CreateGame(ctx, "u1"); !errors.Is(err, domain.ErrActiveGameExists) {
		t.Fatalf("expected ErrActiveGameExists, got %v", err)
	}
	if _, err := service.CreateGame(ctx, "u2"); err != nil {
		t.Fatalf("other user create: %v", err)
	}
}

func TestCreateGameWithMissingLevel(t *testing.T) {
	questions := allLevels()[:10]
	service, store, _ := newTestService(t, questions)

	_, err := service.CreateGame(context.Background(), "u1")
	if !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected ErrInsufficientQuestions, got %v", err)
	}
	if _, ok, _ := store.ActiveForUser(context.Background(), "u1"); ok {
		t.Fatalf("no game must be stored")
	}
}

func TestPlayToJackpotCreditsWallet(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())

	view, err := service.CreateGame(ctx, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var result domain.AnswerResult
	for level := 0; level < 15; level++ {
		result, err = service.Answer(ctx, view.ID, "u1", " A ")
		if err != nil {
			t.Fatalf("answer level %d: %v", level, err)
		}
		if !result.Correct {
			t.Fatalf("expected level %d correct", level)
		}
	}
	if result.Game.Status != domain.StatusWon || result.Game.Prize != 1000000 {
		t.Fatalf("expected jackpot win, got %+v", result.Game)
	}
	if balance, _ := service.Balance(ctx, "u1"); balance != 1000000 {
		t.Fatalf("expected balance 1000000, got %d", balance)
	}
	if _, err := service.CreateGame(ctx, "u1"); err != nil {
		t.Fatalf("expected a new game after winning, got %v", err)
	}
}

func TestWrongAnswerRevealsCorrectKey(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())
	view, _ := service.CreateGame(ctx, "u1")

	for i := 0; i < 5; i++ {
		if _, err := service.Answer(ctx, view.ID, "u1", "a"); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}
	result, err := service.Answer(ctx, view.ID, "u1", "b")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if result.Correct || result.CorrectKey != "a" {
		t.Fatalf("expected wrong answer revealing a, got %+v", result)
	}
	if result.Game.Status != domain.StatusFail || result.Game.Prize != 1000 {
		t.Fatalf("expected fail with 1000, got %+v", result.Game)
	}
	if balance, _ := service.Balance(ctx, "u1"); balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", balance)
	}
	if _, err := service.Answer(ctx, view.ID, "u1", "a"); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("expected ErrGameFinished, got %v", err)
	}
}

func TestTakeMoney(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())
	view, _ := service.CreateGame(ctx, "u1")

	if _, err := service.TakeMoney(ctx, view.ID, "u1"); !errors.Is(err, domain.ErrNothingToCashOut) {
		t.Fatalf("expected ErrNothingToCashOut, got %v", err)
	}
	_, _ = service.Answer(ctx, view.ID, "u1", "a")
	_, _ = service.Answer(ctx, view.ID, "u1", "a")

	got, err := service.TakeMoney(ctx, view.ID, "u1")
	if err != nil {
		t.Fatalf("take money: %v", err)
	}
	if got.Status != domain.StatusMoney || got.Prize != 200 {
		t.Fatalf("expected money 200, got %+v", got)
	}
}

func TestHelpIsPersistedAndSingleUse(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())
	view, _ := service.CreateGame(ctx, "u1")

	payload, err := service.Help(ctx, view.ID, "u1", "audience_help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if len(payload.AudienceHelp) != 4 {
		t.Fatalf("expected all keys, got %v", payload.AudienceHelp)
	}

	reloaded, err := service.Game(ctx, view.ID, "u1")
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	if !reloaded.HelpUsage.Audience || reloaded.Help.AudienceHelp == nil {
		t.Fatalf("expected persisted help, got %+v", reloaded)
	}

	if _, err := service.Help(ctx, view.ID, "u1", "audience_help"); !errors.Is(err, domain.ErrHelpAlreadyUsed) {
		t.Fatalf("expected ErrHelpAlreadyUsed, got %v", err)
	}
	if _, err := service.Help(ctx, view.ID, "u1", "ask_the_host"); !errors.Is(err, domain.ErrUnknownHelpType) {
		t.Fatalf("expected ErrUnknownHelpType, got %v", err)
	}
}

func TestGameOwnership(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, allLevels())
	view, _ := service.CreateGame(ctx, "u1")

	if _, err := service.Game(ctx, view.ID, "intruder"); !errors.Is(err, domain.ErrGameNotOwned) {
		t.Fatalf("expected ErrGameNotOwned, got %v", err)
	}
	if _, err := service.Answer(ctx, "missing", "u1", "a"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestExpiredGameTimesOutAndUnblocksUser(t *testing.T) {
	ctx := context.Background()
	service, _, clock := newTestService(t, allLevels())
	view, _ := service.CreateGame(ctx, "u1")
	for i := 0; i < 6; i++ {
		_, _ = service.Answer(ctx, view.ID, "u1", "a")
	}

	*clock = clock.Add(40 * time.Minute)
	if _, err := service.Help(ctx, view.ID, "u1", "fifty_fifty"); !errors.Is(err, domain.ErrGameFinished) {
		t.Fatalf("expected ErrGameFinished, got %v", err)
	}
	got, err := service.Game(ctx, view.ID, "u1")
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	if got.Status != domain.StatusTimeout || got.Prize != 1000 {
		t.Fatalf("expected timeout with 1000, got %+v", got)
	}
	if balance, _ := service.Balance(ctx, "u1"); balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", balance)
	}
	if _, err := service.CreateGame(ctx, "u1"); err != nil {
		t.Fatalf("expected new game after timeout, got %v", err)
	}
}

func TestAbandonedGameDoesNotBlockCreate(t *testing.T) {
	ctx := context.Background()
	service, _, clock := newTestService(t, allLevels())
	first, _ := service.CreateGame(ctx, "u1")

	*clock = clock.Add(time.Hour)
	second, err := service.CreateGame(ctx, "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a new game")
	}
	history, err := service.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].ID != second.ID || history[1].Status != domain.StatusTimeout {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestFailedCreditKeepsGameUnfinished(t *testing.T) {
	ctx := context.Background()
	wallet := &flakyWallet{Wallet: memory.NewWallet()}
	service, _, _ := newTestServiceWithWallet(t, allLevels(), wallet)
	view, _ := service.CreateGame(ctx, "u1")
	for i := 0; i < 6; i++ {
		if _, err := service.Answer(ctx, view.ID, "u1", "a"); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	wallet.fail = true
	if _, err := service.TakeMoney(ctx, view.ID, "u1"); err == nil {
		t.Fatalf("expected take money to fail while the wallet is down")
	}
	got, err := service.Game(ctx, view.ID, "u1")
	if err != nil {
		t.Fatalf("game: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.CurrentLevel != 6 || got.Prize != 0 {
		t.Fatalf("expected game untouched after failed credit, got %+v", got)
	}

	wallet.fail = false
	got, err = service.TakeMoney(ctx, view.ID, "u1")
	if err != nil {
		t.Fatalf("retry take money: %v", err)
	}
	if got.Status != domain.StatusMoney || got.Prize != 2000 {
		t.Fatalf("expected money 2000, got %+v", got)
	}
	if balance, _ := service.Balance(ctx, "u1"); balance != 2000 {
		t.Fatalf("expected balance 2000, got %d", balance)
	}
}

func TestFailedUpdateDoesNotPayTwice(t *testing.T) {
	ctx := context.Background()
	wallet := memory.NewWallet()
	store := &flakyStore{GameStore: memory.NewGameStore()}
	service, _, _ := newTestServiceWith(t, allLevels(), store, wallet)
	view, _ := service.CreateGame(ctx, "u1")
	for i := 0; i < 3; i++ {
		_, _ = service.Answer(ctx, view.ID, "u1", "a")
	}

	store.failUpdate = true
	if _, err := service.TakeMoney(ctx, view.ID, "u1"); err == nil {
		t.Fatalf("expected take money to fail while the store is down")
	}
	store.failUpdate = false
	if _, err := service.TakeMoney(ctx, view.ID, "u1"); err != nil {
		t.Fatalf("retry take money: %v", err)
	}
	if balance, _ := service.Balance(ctx, "u1"); balance != 300 {
		t.Fatalf("expected prize paid once (300), got %d", balance)
	}
}

type flakyWallet struct {
	*memory.Wallet
	fail bool
}

func (w *flakyWallet) Credit(ctx context.Context, userID, gameID string, amount int) error {
	if w.fail {
		return errors.New("wallet down")
	}
	return w.Wallet.Credit(ctx, userID, gameID, amount)
}

type flakyStore struct {
	*memory.GameStore
	failUpdate bool
}

func (s *flakyStore) Update(ctx context.Context, snap domain.GameSnapshot) error {
	if s.failUpdate {
		return errors.New("store down")
	}
	return s.GameStore.Update(ctx, snap)
}

// identitySource keeps the bank order when shuffling, so "a" is always correct.
type identitySource struct{}

func (identitySource) Intn(n int) int { return n - 1 }

func newTestService(t *testing.T, questions []domain.Question) (*app.GameService, *memory.GameStore, *time.Time) {
	t.Helper()
	store := memory.NewGameStore()
	service, _, clock := newTestServiceWith(t, questions, store, memory.NewWallet())
	return service, store, clock
}

func newTestServiceWithWallet(t *testing.T, questions []domain.Question, wallet app.Wallet) (*app.GameService, app.GameRepository, *time.Time) {
	t.Helper()
	return newTestServiceWith(t, questions, memory.NewGameStore(), wallet)
}

func newTestServiceWith(t *testing.T, questions []domain.Question, store app.GameRepository, wallet app.Wallet) (*app.GameService, app.GameRepository, *time.Time) {
	t.Helper()
	cat, err := i18n.Load("en")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := &now

	bank := memory.NewQuestionBank(memory.NewStaticQuestionLoader(questions), 5*time.Minute, random.NewSource(1))
	gen := app.NewHelpGenerator(identitySource{}, cat, nil)
	service := app.NewGameService(store, bank, wallet, domain.DefaultLadder(), gen, identitySource{}).
		WithClock(func() time.Time { return *clock })
	return service, store, clock
}

func allLevels() []domain.Question {
	questions := make([]domain.Question, 0, 15)
	for level := 0; level < 15; level++ {
		questions = append(questions, domain.Question{
			ID:      int64(level + 1),
			Level:   level,
			Text:    fmt.Sprintf("Question %d", level+1),
			Answers: [4]string{"right", "wrong 1", "wrong 2", "wrong 3"},
		})
	}
	return questions
}

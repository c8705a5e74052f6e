package app

import (
	"fmt"
	"time"

	"millionaire-quiz-service/internal/domain"
)

// Game is one play-through of the ladder. Its status is always derived from
// the finish timestamp, failure flag and level pointer, never stored.
type Game struct {
	id           string
	userID       string
	questions    []*GameQuestion
	currentLevel int
	createdAt    time.Time
	finishedAt   *time.Time
	isFailed     bool
	prize        int
	helpUsage    domain.HelpUsage
	ladder       domain.Ladder
	now          func() time.Time
}

// NewGame starts a game at level 0. questions must hold one entry per ladder level.
func NewGame(id, userID string, questions []*GameQuestion, ladder domain.Ladder, now func() time.Time) (*Game, error) {
	if len(questions) != ladder.Levels() {
		return nil, fmt.Errorf("%w: got %d questions for %d levels", domain.ErrInsufficientQuestions, len(questions), ladder.Levels())
	}
	return &Game{
		id:        id,
		userID:    userID,
		questions: questions,
		createdAt: now(),
		ladder:    ladder,
		now:       now,
	}, nil
}

// RestoreGame rebuilds a game from its persisted snapshot.
func RestoreGame(snap domain.GameSnapshot, ladder domain.Ladder, gen *HelpGenerator, now func() time.Time) (*Game, error) {
	if len(snap.Questions) != ladder.Levels() {
		return nil, fmt.Errorf("%w: snapshot has %d questions, ladder has %d levels", domain.ErrInvalidInput, len(snap.Questions), ladder.Levels())
	}
	if snap.CurrentLevel < 0 || snap.CurrentLevel > ladder.Levels() {
		return nil, fmt.Errorf("%w: level %d out of range", domain.ErrInvalidInput, snap.CurrentLevel)
	}
	questions := make([]*GameQuestion, len(snap.Questions))
	for i, qs := range snap.Questions {
		gq, err := RestoreGameQuestion(qs, gen)
		if err != nil {
			return nil, err
		}
		questions[i] = gq
	}
	var finishedAt *time.Time
	if snap.FinishedAt != nil {
		t := *snap.FinishedAt
		finishedAt = &t
	}
	return &Game{
		id:           snap.ID,
		userID:       snap.UserID,
		questions:    questions,
		currentLevel: snap.CurrentLevel,
		createdAt:    snap.CreatedAt,
		finishedAt:   finishedAt,
		isFailed:     snap.IsFailed,
		prize:        snap.Prize,
		helpUsage:    snap.HelpUsage,
		ladder:       ladder,
		now:          now,
	}, nil
}

func (g *Game) ID() string                  { return g.id }
func (g *Game) UserID() string              { return g.userID }
func (g *Game) CurrentLevel() int           { return g.currentLevel }
func (g *Game) Prize() int                  { return g.prize }
func (g *Game) HelpUsage() domain.HelpUsage { return g.helpUsage }

// PreviousLevel is the last cleared level, -1 before any.
func (g *Game) PreviousLevel() int {
	return g.currentLevel - 1
}

// Finished reports whether the game reached a terminal status.
func (g *Game) Finished() bool {
	return g.finishedAt != nil
}

// Status derives the current status. Order matters: timeout outranks fail,
// which outranks won and money.
func (g *Game) Status() domain.Status {
	switch {
	case g.finishedAt == nil:
		return domain.StatusInProgress
	case g.finishedAt.Sub(g.createdAt) >= g.ladder.TimeLimit:
		return domain.StatusTimeout
	case g.isFailed:
		return domain.StatusFail
	case g.currentLevel > g.ladder.MaxLevel():
		return domain.StatusWon
	default:
		return domain.StatusMoney
	}
}

// CurrentQuestion is the question at the level pointer, nil past the last level.
func (g *Game) CurrentQuestion() *GameQuestion {
	if g.currentLevel < 0 || g.currentLevel >= len(g.questions) {
		return nil
	}
	return g.questions[g.currentLevel]
}

// TimeLeft is the remaining time budget; zero once finished or expired.
func (g *Game) TimeLeft() time.Duration {
	if g.Finished() {
		return 0
	}
	left := g.ladder.TimeLimit - g.now().Sub(g.createdAt)
	if left < 0 {
		return 0
	}
	return left
}

// TimeOut finishes an expired game with the checkpoint prize. It reports
// whether the timeout was committed by this call.
func (g *Game) TimeOut() bool {
	if g.Finished() || g.now().Sub(g.createdAt) < g.ladder.TimeLimit {
		return false
	}
	g.finish(true, g.ladder.FireproofPrize(g.PreviousLevel()))
	return true
}

// AnswerCurrentQuestion applies the player's letter. A wrong answer ends the game
// with the checkpoint prize; clearing the last level wins the jackpot.
// When the time budget is spent the game times out instead and false is returned.
func (g *Game) AnswerCurrentQuestion(letter string) (bool, error) {
	if g.Finished() {
		return false, domain.ErrGameFinished
	}
	if !validLetter(letter) {
		return false, fmt.Errorf("%w: unknown answer letter %q", domain.ErrInvalidInput, letter)
	}
	if g.TimeOut() {
		return false, nil
	}
	q := g.CurrentQuestion()
	if q == nil {
		return false, domain.ErrGameFinished
	}

	if !q.IsCorrect(letter) {
		g.finish(true, g.ladder.FireproofPrize(g.PreviousLevel()))
		return false, nil
	}

	g.currentLevel++
	if g.currentLevel > g.ladder.MaxLevel() {
		g.finish(false, g.ladder.Jackpot())
	}
	return true, nil
}

// UseHelp materializes a lifeline on the current question. Each help type
// can be used once per game.
func (g *Game) UseHelp(ht domain.HelpType) (domain.HelpPayload, error) {
	if g.Finished() || g.now().Sub(g.createdAt) >= g.ladder.TimeLimit {
		return domain.HelpPayload{}, domain.ErrGameFinished
	}
	if _, err := domain.ParseHelpType(string(ht)); err != nil {
		return domain.HelpPayload{}, err
	}
	if g.helpUsage.Used(ht) {
		return domain.HelpPayload{}, domain.ErrHelpAlreadyUsed
	}
	q := g.CurrentQuestion()
	if q == nil {
		return domain.HelpPayload{}, domain.ErrGameFinished
	}

	var err error
	switch ht {
	case domain.HelpAudience:
		err = q.AddAudienceHelp()
	case domain.HelpFiftyFifty:
		err = q.AddFiftyFifty()
	case domain.HelpFriendCall:
		err = q.AddFriendCall()
	}
	if err != nil {
		return domain.HelpPayload{}, err
	}

	switch ht {
	case domain.HelpAudience:
		g.helpUsage.Audience = true
	case domain.HelpFiftyFifty:
		g.helpUsage.FiftyFifty = true
	case domain.HelpFriendCall:
		g.helpUsage.FriendCall = true
	}
	return q.HelpPayload(), nil
}

// TakeMoney cashes out with the prize of the last cleared level.
func (g *Game) TakeMoney() error {
	if g.Finished() {
		return domain.ErrGameFinished
	}
	if g.TimeOut() {
		return nil
	}
	if g.currentLevel == 0 {
		return domain.ErrNothingToCashOut
	}
	g.finish(false, g.ladder.PrizeAt(g.PreviousLevel()))
	return nil
}

func (g *Game) finish(failed bool, prize int) {
	t := g.now()
	g.finishedAt = &t
	g.isFailed = failed
	g.prize = prize
}

// Snapshot returns the persisted form of the game.
func (g *Game) Snapshot() domain.GameSnapshot {
	questions := make([]domain.GameQuestionSnapshot, len(g.questions))
	for i, q := range g.questions {
		questions[i] = q.Snapshot()
	}
	var finishedAt *time.Time
	if g.finishedAt != nil {
		t := *g.finishedAt
		finishedAt = &t
	}
	return domain.GameSnapshot{
		ID:           g.id,
		UserID:       g.userID,
		CurrentLevel: g.currentLevel,
		CreatedAt:    g.createdAt,
		FinishedAt:   finishedAt,
		IsFailed:     g.isFailed,
		Prize:        g.prize,
		HelpUsage:    g.helpUsage,
		Questions:    questions,
	}
}

// View projects the game for callers. The current question is hidden once finished.
func (g *Game) View() domain.GameView {
	view := domain.GameView{
		ID:            g.id,
		UserID:        g.userID,
		Status:        g.Status(),
		CurrentLevel:  g.currentLevel,
		PreviousLevel: g.PreviousLevel(),
		Prize:         g.prize,
		HelpUsage:     g.helpUsage,
		CreatedAt:     g.createdAt,
		FinishedAt:    g.finishedAt,
		SecondsLeft:   int(g.TimeLeft() / time.Second),
	}
	if q := g.CurrentQuestion(); q != nil && !g.Finished() {
		view.Question = q.Text()
		view.Variants = q.Variants()
		view.Help = q.HelpPayload()
	}
	return view
}

func validLetter(letter string) bool {
	for _, l := range domain.Letters {
		if l == letter {
			return true
		}
	}
	return false
}

package app

import (
	"testing"
	"time"

	"millionaire-quiz-service/internal/domain"
	"millionaire-quiz-service/internal/i18n"
)

// queueSource replays queued draws (clamped into [0, n)) and then falls back to 0.
type queueSource struct {
	values []int
}

func (s *queueSource) Intn(n int) int {
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	if v >= n {
		return n - 1
	}
	return v
}

// funcSource answers each draw with fn(n).
type funcSource func(n int) int

func (f funcSource) Intn(n int) int { return f(n) }

// identitySource keeps the bank order when shuffling, so "a" is always correct.
var identitySource = funcSource(func(n int) int { return n - 1 })

func newTestGenerator(t *testing.T, rnd Source) *HelpGenerator {
	t.Helper()
	cat, err := i18n.Load("en")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewHelpGenerator(rnd, cat, []string{"Default Friend"})
}

func testQuestion(level int) domain.Question {
	return domain.Question{
		ID:      int64(level + 1),
		Level:   level,
		Text:    "Question for level " + string(rune('A'+level)),
		Answers: [4]string{"right", "wrong 1", "wrong 2", "wrong 3"},
	}
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

// newTestGame builds a game on the default ladder whose correct answer is always "a",
// then answers correctly until it reaches level.
func newTestGame(t *testing.T, clock *testClock, level int) *Game {
	t.Helper()
	ladder := domain.DefaultLadder()
	gen := newTestGenerator(t, identitySource)
	questions := make([]*GameQuestion, ladder.Levels())
	for i := range questions {
		questions[i] = NewGameQuestion(testQuestion(i), i, gen, identitySource)
	}
	g, err := NewGame("game-1", "user-1", questions, ladder, clock.Now)
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	for i := 0; i < level; i++ {
		if ok, err := g.AnswerCurrentQuestion("a"); err != nil || !ok {
			t.Fatalf("advance to level %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	return g
}

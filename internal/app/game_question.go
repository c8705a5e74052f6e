package app

import (
	"fmt"

	"millionaire-quiz-service/internal/domain"
)

// GameQuestion binds a bank question to one ladder level of a game.
// The letter-to-answer order is fixed at creation.
type GameQuestion struct {
	question domain.Question
	level    int
	order    [4]int
	help     domain.HelpPayload
	gen      *HelpGenerator
}

// NewGameQuestion shuffles the answers of q into letters a..d.
func NewGameQuestion(q domain.Question, level int, gen *HelpGenerator, rnd Source) *GameQuestion {
	order := [4]int{0, 1, 2, 3}
	for i := len(order) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return &GameQuestion{question: q, level: level, order: order, gen: gen}
}

// RestoreGameQuestion rebuilds a question from its persisted form.
func RestoreGameQuestion(snap domain.GameQuestionSnapshot, gen *HelpGenerator) (*GameQuestion, error) {
	seen := [4]bool{}
	for _, idx := range snap.Order {
		if idx < 0 || idx > 3 || seen[idx] {
			return nil, fmt.Errorf("%w: answer order %v is not a permutation", domain.ErrInvalidInput, snap.Order)
		}
		seen[idx] = true
	}
	return &GameQuestion{
		question: domain.Question{ID: snap.QuestionID, Level: snap.Level, Text: snap.Text, Answers: snap.Answers},
		level:    snap.Level,
		order:    snap.Order,
		help:     snap.Help.Clone(),
		gen:      gen,
	}, nil
}

func (gq *GameQuestion) Level() int   { return gq.level }
func (gq *GameQuestion) Text() string { return gq.question.Text }

// Variants maps each letter to its answer text.
func (gq *GameQuestion) Variants() map[string]string {
	out := make(map[string]string, len(domain.Letters))
	for i, letter := range domain.Letters {
		out[letter] = gq.question.Answers[gq.order[i]]
	}
	return out
}

// IsCorrect reports whether letter maps to the correct answer.
func (gq *GameQuestion) IsCorrect(letter string) bool {
	return letter == gq.CorrectKey()
}

// CorrectKey is the letter under which the correct answer sits.
func (gq *GameQuestion) CorrectKey() string {
	for i, idx := range gq.order {
		if idx == 0 {
			return domain.Letters[i]
		}
	}
	return ""
}

// CorrectAnswer is the text of the correct answer.
func (gq *GameQuestion) CorrectAnswer() string {
	return gq.question.Answers[0]
}

// Keys returns the letters still in play: the fifty-fifty survivors once
// that help was used, otherwise all four.
func (gq *GameQuestion) Keys() []string {
	if gq.help.FiftyFifty != nil {
		return append([]string{}, gq.help.FiftyFifty...)
	}
	return append([]string{}, domain.Letters...)
}

// AddAudienceHelp stores a fresh audience vote, replacing any previous one.
func (gq *GameQuestion) AddAudienceHelp() error {
	dist, err := gq.gen.AudienceDistribution(gq.Keys(), gq.CorrectKey())
	if err != nil {
		return err
	}
	gq.help.AudienceHelp = dist
	return nil
}

// AddFiftyFifty keeps the correct key and one random wrong key.
func (gq *GameQuestion) AddFiftyFifty() error {
	kept, err := gq.gen.FiftyFifty(domain.Letters, gq.CorrectKey())
	if err != nil {
		return err
	}
	gq.help.FiftyFifty = kept
	return nil
}

// AddFriendCall stores a fresh friend's guess, replacing any previous one.
func (gq *GameQuestion) AddFriendCall() error {
	msg, err := gq.gen.FriendCall(gq.Keys(), gq.CorrectKey())
	if err != nil {
		return err
	}
	gq.help.FriendCall = msg
	return nil
}

// HelpPayload returns a copy of the help granted so far.
func (gq *GameQuestion) HelpPayload() domain.HelpPayload {
	return gq.help.Clone()
}

// Snapshot returns the persisted form.
func (gq *GameQuestion) Snapshot() domain.GameQuestionSnapshot {
	return domain.GameQuestionSnapshot{
		QuestionID: gq.question.ID,
		Level:      gq.level,
		Text:       gq.question.Text,
		Answers:    gq.question.Answers,
		Order:      gq.order,
		Help:       gq.help.Clone(),
	}
}

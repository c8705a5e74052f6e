package domain

import "time"

// Letters are the answer keys shown to the player, in display order.
var Letters = []string{"a", "b", "c", "d"}

// Status is the derived state of a game.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusFail       Status = "fail"
	StatusTimeout    Status = "timeout"
	StatusMoney      Status = "money"
)

// Terminal reports whether the status is absorbing.
func (s Status) Terminal() bool {
	return s != StatusInProgress
}

// HelpType tags one of the three lifelines.
type HelpType string

const (
	HelpAudience   HelpType = "audience_help"
	HelpFiftyFifty HelpType = "fifty_fifty"
	HelpFriendCall HelpType = "friend_call"
)

// HelpTypes lists every supported help type.
var HelpTypes = []HelpType{HelpAudience, HelpFiftyFifty, HelpFriendCall}

// ParseHelpType validates a raw help tag.
func ParseHelpType(raw string) (HelpType, error) {
	for _, ht := range HelpTypes {
		if string(ht) == raw {
			return ht, nil
		}
	}
	return "", ErrUnknownHelpType
}

// Question is a bank entry. Answers[0] is always the correct answer.
type Question struct {
	ID      int64     `json:"id" yaml:"id"`
	Level   int       `json:"level" yaml:"level"`
	Text    string    `json:"text" yaml:"text"`
	Answers [4]string `json:"answers" yaml:"answers"`
}

// HelpPayload holds the materialized help for one question.
// A nil or empty field means that help was never requested.
type HelpPayload struct {
	AudienceHelp map[string]int `json:"audience_help,omitempty"`
	FiftyFifty   []string       `json:"fifty_fifty,omitempty"`
	FriendCall   string         `json:"friend_call,omitempty"`
}

// Has reports whether the payload contains the given help type.
func (h HelpPayload) Has(ht HelpType) bool {
	switch ht {
	case HelpAudience:
		return h.AudienceHelp != nil
	case HelpFiftyFifty:
		return h.FiftyFifty != nil
	case HelpFriendCall:
		return h.FriendCall != ""
	default:
		return false
	}
}

// Clone returns a deep copy so callers cannot mutate stored help.
func (h HelpPayload) Clone() HelpPayload {
	out := HelpPayload{FriendCall: h.FriendCall}
	if h.AudienceHelp != nil {
		out.AudienceHelp = make(map[string]int, len(h.AudienceHelp))
		for k, v := range h.AudienceHelp {
			out.AudienceHelp[k] = v
		}
	}
	if h.FiftyFifty != nil {
		out.FiftyFifty = append([]string{}, h.FiftyFifty...)
	}
	return out
}

// HelpUsage records which lifelines a game has consumed.
type HelpUsage struct {
	Audience   bool `json:"audience_help_used"`
	FiftyFifty bool `json:"fifty_fifty_used"`
	FriendCall bool `json:"friend_call_used"`
}

// Used reports whether the help type was consumed.
func (u HelpUsage) Used(ht HelpType) bool {
	switch ht {
	case HelpAudience:
		return u.Audience
	case HelpFiftyFifty:
		return u.FiftyFifty
	case HelpFriendCall:
		return u.FriendCall
	default:
		return false
	}
}

// GameQuestionSnapshot is the persisted form of a question bound into a game.
// Order maps letter index (a=0..d=3) to an index into Answers.
type GameQuestionSnapshot struct {
	QuestionID int64       `json:"question_id"`
	Level      int         `json:"level"`
	Text       string      `json:"text"`
	Answers    [4]string   `json:"answers"`
	Order      [4]int      `json:"order"`
	Help       HelpPayload `json:"help_hash"`
}

// GameSnapshot is the persisted form of a game. Status is never stored.
type GameSnapshot struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	CurrentLevel int                    `json:"current_level"`
	CreatedAt    time.Time              `json:"created_at"`
	FinishedAt   *time.Time             `json:"finished_at,omitempty"`
	IsFailed     bool                   `json:"is_failed"`
	Prize        int                    `json:"prize"`
	HelpUsage    HelpUsage              `json:"help_usage"`
	Questions    []GameQuestionSnapshot `json:"questions"`
}

// Finished reports whether the snapshot is in a terminal status.
func (s GameSnapshot) Finished() bool {
	return s.FinishedAt != nil
}

// GameView is the caller-facing projection of a game.
type GameView struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	Status        Status            `json:"status"`
	CurrentLevel  int               `json:"currentLevel"`
	PreviousLevel int               `json:"previousLevel"`
	Prize         int               `json:"prize"`
	Question      string            `json:"question,omitempty"`
	Variants      map[string]string `json:"variants,omitempty"`
	Help          HelpPayload       `json:"help"`
	HelpUsage     HelpUsage         `json:"helpUsage"`
	CreatedAt     time.Time         `json:"createdAt"`
	FinishedAt    *time.Time        `json:"finishedAt,omitempty"`
	SecondsLeft   int               `json:"secondsLeft"`
}

// AnswerResult summarizes the outcome of an answer submission.
type AnswerResult struct {
	Letter     string   `json:"letter"`
	Correct    bool     `json:"correct"`
	CorrectKey string   `json:"correctKey,omitempty"`
	Game       GameView `json:"game"`
}

package domain

import "errors"

var (
	// ErrInvalidInput is returned for malformed help-generation arguments or answer letters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrActiveGameExists is returned when a user already owns an unfinished game.
	ErrActiveGameExists = errors.New("user already has an active game")
	// ErrInsufficientQuestions indicates the question bank cannot fill every ladder level.
	ErrInsufficientQuestions = errors.New("not enough questions to fill the ladder")
	// ErrNoQuestion is returned by a question bank when a level has no questions.
	ErrNoQuestion = errors.New("no question available for level")
	// ErrGameFinished is returned when an operation targets a game in a terminal status.
	ErrGameFinished = errors.New("game already finished")
	// ErrUnknownHelpType indicates an unsupported help tag.
	ErrUnknownHelpType = errors.New("unknown help type")
	// ErrHelpAlreadyUsed is returned when a help type was already consumed in this game.
	ErrHelpAlreadyUsed = errors.New("help already used in this game")
	// ErrNothingToCashOut is returned when taking money before any level was cleared.
	ErrNothingToCashOut = errors.New("no level completed, nothing to cash out")
	// ErrGameNotFound indicates an unknown game ID.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameNotOwned is returned when a user acts on someone else's game.
	ErrGameNotOwned = errors.New("game belongs to another user")
	// ErrInvalidLadder indicates a misconfigured prize table or checkpoint set.
	ErrInvalidLadder = errors.New("invalid ladder configuration")
)

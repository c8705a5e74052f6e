package domain

import (
	"fmt"
	"time"
)

// Ladder is the fixed difficulty ladder: prize per cleared level, safe checkpoints, time budget.
type Ladder struct {
	Prizes    []int
	Fireproof []int
	TimeLimit time.Duration
}

// DefaultLadder returns the classic 15-level ladder.
func DefaultLadder() Ladder {
	return Ladder{
		Prizes: []int{
			100, 200, 300, 500, 1000,
			2000, 4000, 8000, 16000, 32000,
			64000, 125000, 250000, 500000, 1000000,
		},
		Fireproof: []int{4, 9},
		TimeLimit: 35 * time.Minute,
	}
}

// Validate checks the prize table is strictly increasing and checkpoints are in range.
func (l Ladder) Validate() error {
	if len(l.Prizes) == 0 {
		return fmt.Errorf("%w: empty prize table", ErrInvalidLadder)
	}
	for i := 1; i < len(l.Prizes); i++ {
		if l.Prizes[i] <= l.Prizes[i-1] {
			return fmt.Errorf("%w: prize at level %d is not above level %d", ErrInvalidLadder, i, i-1)
		}
	}
	for _, level := range l.Fireproof {
		if level < 0 || level >= len(l.Prizes) {
			return fmt.Errorf("%w: fireproof level %d out of range", ErrInvalidLadder, level)
		}
	}
	if l.TimeLimit <= 0 {
		return fmt.Errorf("%w: time limit must be positive", ErrInvalidLadder)
	}
	return nil
}

// Levels is the ladder length.
func (l Ladder) Levels() int { return len(l.Prizes) }

// MaxLevel is the last level index.
func (l Ladder) MaxLevel() int { return len(l.Prizes) - 1 }

// Jackpot is the prize for clearing the whole ladder.
func (l Ladder) Jackpot() int { return l.Prizes[len(l.Prizes)-1] }

// PrizeAt returns the prize for having cleared level, or 0 outside the table.
func (l Ladder) PrizeAt(level int) int {
	if level < 0 || level >= len(l.Prizes) {
		return 0
	}
	return l.Prizes[level]
}

// FireproofPrize returns the prize of the highest checkpoint at or below answeredLevel.
func (l Ladder) FireproofPrize(answeredLevel int) int {
	best := -1
	for _, level := range l.Fireproof {
		if level <= answeredLevel && level > best {
			best = level
		}
	}
	if best < 0 {
		return 0
	}
	return l.Prizes[best]
}

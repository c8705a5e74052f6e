package domain

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultLadderPrizes(t *testing.T) {
	l := DefaultLadder()
	if err := l.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if l.Levels() != 15 || l.MaxLevel() != 14 || l.Jackpot() != 1000000 {
		t.Fatalf("unexpected ladder shape %+v", l)
	}
	cases := []struct {
		answered int
		want     int
	}{
		{-1, 0}, {0, 0}, {3, 0}, {4, 1000}, {8, 1000}, {9, 32000}, {14, 32000},
	}
	for _, c := range cases {
		if got := l.FireproofPrize(c.answered); got != c.want {
			t.Fatalf("FireproofPrize(%d) = %d, want %d", c.answered, got, c.want)
		}
	}
	if l.PrizeAt(5) != 2000 || l.PrizeAt(-1) != 0 || l.PrizeAt(15) != 0 {
		t.Fatalf("unexpected PrizeAt values")
	}
}

func TestLadderValidate(t *testing.T) {
	bad := []Ladder{
		{},
		{Prizes: []int{100, 100}, TimeLimit: time.Minute},
		{Prizes: []int{100, 200}, Fireproof: []int{2}, TimeLimit: time.Minute},
		{Prizes: []int{100, 200}},
	}
	for i, l := range bad {
		if err := l.Validate(); !errors.Is(err, ErrInvalidLadder) {
			t.Fatalf("case %d: expected ErrInvalidLadder, got %v", i, err)
		}
	}
}

func TestParseHelpType(t *testing.T) {
	if ht, err := ParseHelpType("friend_call"); err != nil || ht != HelpFriendCall {
		t.Fatalf("expected friend_call, got %q err=%v", ht, err)
	}
	if _, err := ParseHelpType("phone"); !errors.Is(err, ErrUnknownHelpType) {
		t.Fatalf("expected ErrUnknownHelpType, got %v", err)
	}
}

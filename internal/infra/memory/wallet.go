package memory

import (
	"context"
	"sync"
)

// Wallet keeps balances in a map and remembers which games were paid.
type Wallet struct {
	mu       sync.Mutex
	balances map[string]int
	credited map[string]bool
}

func NewWallet() *Wallet {
	return &Wallet{
		balances: make(map[string]int),
		credited: make(map[string]bool),
	}
}

func (w *Wallet) Credit(_ context.Context, userID, gameID string, amount int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.credited[gameID] {
		return nil
	}
	w.credited[gameID] = true
	w.balances[userID] += amount
	return nil
}

func (w *Wallet) Balance(_ context.Context, userID string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[userID], nil
}

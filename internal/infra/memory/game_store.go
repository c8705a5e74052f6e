package memory

import (
	"context"
	"sort"
	"sync"

	"millionaire-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameRepository.
type GameStore struct {
	mu     sync.RWMutex
	games  map[string]domain.GameSnapshot
	active map[string]string // userID -> gameID
}

func NewGameStore() *GameStore {
	return &GameStore{
		games:  make(map[string]domain.GameSnapshot),
		active: make(map[string]string),
	}
}

func (s *GameStore) Create(_ context.Context, snap domain.GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[snap.UserID]; ok && !snap.Finished() {
		return domain.ErrActiveGameExists
	}
	s.games[snap.ID] = snap
	if !snap.Finished() {
		s.active[snap.UserID] = snap.ID
	}
	return nil
}

func (s *GameStore) Get(_ context.Context, gameID string) (domain.GameSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.games[gameID]
	if !ok {
		return domain.GameSnapshot{}, domain.ErrGameNotFound
	}
	return snap, nil
}

func (s *GameStore) Update(_ context.Context, snap domain.GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[snap.ID]; !ok {
		return domain.ErrGameNotFound
	}
	s.games[snap.ID] = snap
	if snap.Finished() && s.active[snap.UserID] == snap.ID {
		delete(s.active, snap.UserID)
	}
	return nil
}

func (s *GameStore) ActiveForUser(_ context.Context, userID string) (domain.GameSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gameID, ok := s.active[userID]
	if !ok {
		return domain.GameSnapshot{}, false, nil
	}
	return s.games[gameID], true, nil
}

func (s *GameStore) ListByUser(_ context.Context, userID string) ([]domain.GameSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.GameSnapshot
	for _, snap := range s.games {
		if snap.UserID == userID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

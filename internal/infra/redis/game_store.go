package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"millionaire-quiz-service/internal/domain"
)

// GameStore keeps game snapshots in Redis.
//   - game:{gameID} holds the JSON snapshot.
//   - game:active:{userID} holds the id of the user's unfinished game. It is
//     claimed with SETNX, which makes it the one-active-game constraint.
//   - user:{userID}:games lists the user's game ids, newest first.
type GameStore struct {
	client *redis.Client
}

func NewGameStore(client *redis.Client) *GameStore {
	return &GameStore{client: client}
}

// releaseActive deletes the active marker only if it still points at the game.
var releaseActive = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *GameStore) Create(ctx context.Context, snap domain.GameSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if !snap.Finished() {
		claimed, err := s.client.SetNX(ctx, activeKey(snap.UserID), snap.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("claim active game: %w", err)
		}
		if !claimed {
			return domain.ErrActiveGameExists
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(snap.ID), raw, 0)
	pipe.LPush(ctx, userGamesKey(snap.UserID), snap.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		_, _ = releaseActive.Run(ctx, s.client, []string{activeKey(snap.UserID)}, snap.ID).Result()
		return fmt.Errorf("store game %s: %w", snap.ID, err)
	}
	return nil
}

func (s *GameStore) Get(ctx context.Context, gameID string) (domain.GameSnapshot, error) {
	raw, err := s.client.Get(ctx, gameKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameSnapshot{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameSnapshot{}, err
	}
	return decodeGame(raw)
}

func (s *GameStore) Update(ctx context.Context, snap domain.GameSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	// XX only overwrites an existing key.
	ok, err := s.client.SetXX(ctx, gameKey(snap.ID), raw, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrGameNotFound
	}
	if snap.Finished() {
		if err := releaseActive.Run(ctx, s.client, []string{activeKey(snap.UserID)}, snap.ID).Err(); err != nil {
			return fmt.Errorf("release active game: %w", err)
		}
	}
	return nil
}

func (s *GameStore) ActiveForUser(ctx context.Context, userID string) (domain.GameSnapshot, bool, error) {
	gameID, err := s.client.Get(ctx, activeKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.GameSnapshot{}, false, nil
	}
	if err != nil {
		return domain.GameSnapshot{}, false, err
	}
	snap, err := s.Get(ctx, gameID)
	if errors.Is(err, domain.ErrGameNotFound) {
		// The marker outlived its game; drop it so the user can start again.
		if err := releaseActive.Run(ctx, s.client, []string{activeKey(userID)}, gameID).Err(); err != nil {
			return domain.GameSnapshot{}, false, fmt.Errorf("release orphaned active game: %w", err)
		}
		return domain.GameSnapshot{}, false, nil
	}
	if err != nil {
		return domain.GameSnapshot{}, false, err
	}
	return snap, true, nil
}

func (s *GameStore) ListByUser(ctx context.Context, userID string) ([]domain.GameSnapshot, error) {
	ids, err := s.client.LRange(ctx, userGamesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.GameSnapshot, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		snap, err := decodeGame([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func decodeGame(raw []byte) (domain.GameSnapshot, error) {
	var snap domain.GameSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.GameSnapshot{}, fmt.Errorf("decode game: %w", err)
	}
	return snap, nil
}

func gameKey(gameID string) string {
	return "game:" + gameID
}

func activeKey(userID string) string {
	return "game:active:" + userID
}

func userGamesKey(userID string) string {
	return "user:" + userID + ":games"
}

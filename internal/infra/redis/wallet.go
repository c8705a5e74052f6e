package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Wallet keeps balances as plain counters: user:{userID}:balance.
// Paid game ids are kept in user:{userID}:credited so a credit applies once.
type Wallet struct {
	client *redis.Client
}

func NewWallet(client *redis.Client) *Wallet {
	return &Wallet{client: client}
}

var creditOnce = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 1 then
	return redis.call("INCRBY", KEYS[2], ARGV[2])
end
return 0
`)

func (w *Wallet) Credit(ctx context.Context, userID, gameID string, amount int) error {
	keys := []string{creditedKey(userID), balanceKey(userID)}
	return creditOnce.Run(ctx, w.client, keys, gameID, strconv.Itoa(amount)).Err()
}

func (w *Wallet) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := w.client.Get(ctx, balanceKey(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return balance, err
}

func balanceKey(userID string) string {
	return "user:" + userID + ":balance"
}

func creditedKey(userID string) string {
	return "user:" + userID + ":credited"
}

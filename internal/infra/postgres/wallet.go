package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

type balanceModel struct {
	bun.BaseModel `bun:"table:user_balances,alias:ub"`

	UserID    string    `bun:"user_id,pk"`
	Balance   int64     `bun:"balance,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type creditModel struct {
	bun.BaseModel `bun:"table:wallet_credits,alias:wc"`

	GameID    string    `bun:"game_id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Amount    int64     `bun:"amount,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Wallet stores user balances in Postgres. Each game is paid at most once,
// keyed by wallet_credits.game_id.
type Wallet struct {
	db  *bun.DB
	now func() time.Time
}

func NewWallet(db *bun.DB) *Wallet {
	return &Wallet{db: db, now: time.Now}
}

func (w *Wallet) Credit(ctx context.Context, userID, gameID string, amount int) error {
	now := w.now()
	return w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		credit := &creditModel{GameID: gameID, UserID: userID, Amount: int64(amount), CreatedAt: now}
		res, err := tx.NewInsert().Model(credit).On("CONFLICT (game_id) DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return err
		}

		row := &balanceModel{UserID: userID, Balance: int64(amount), UpdatedAt: now}
		_, err = tx.NewInsert().Model(row).
			On("CONFLICT (user_id) DO UPDATE").
			Set("balance = ub.balance + EXCLUDED.balance").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
}

func (w *Wallet) Balance(ctx context.Context, userID string) (int, error) {
	row := new(balanceModel)
	err := w.db.NewSelect().Model(row).Where("ub.user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(row.Balance), nil
}

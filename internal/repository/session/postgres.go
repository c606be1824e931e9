package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-gateway/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Load(ctx context.Context, sessionID string) (*State, error) {
	const q = `
SELECT session_id::text, cart, orders, current_order, account, revision, updated_at
FROM storefront_sessions
WHERE session_id = $1
`
	var state State
	err := r.pool.QueryRow(ctx, q, sessionID).Scan(
		&state.SessionID,
		&state.Cart,
		&state.Orders,
		&state.CurrentOrder,
		&state.Account,
		&state.Revision,
		&state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

func (r *postgresRepo) Save(ctx context.Context, state *State) error {
	const q = `
INSERT INTO storefront_sessions (session_id, cart, orders, current_order, account, revision, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (session_id) DO UPDATE
SET cart          = EXCLUDED.cart,
    orders        = EXCLUDED.orders,
    current_order = EXCLUDED.current_order,
    account       = EXCLUDED.account,
    revision      = EXCLUDED.revision,
    updated_at    = now()
`
	_, err := r.pool.Exec(ctx, q,
		state.SessionID,
		state.Cart,
		state.Orders,
		state.CurrentOrder,
		state.Account,
		state.Revision,
	)
	return err
}

func (r *postgresRepo) Clear(ctx context.Context, sessionID string) error {
	const q = `
UPDATE storefront_sessions
SET cart          = NULL,
    orders        = NULL,
    current_order = NULL,
    account       = NULL,
    revision      = revision + 1,
    updated_at    = now()
WHERE session_id = $1
`
	_, err := r.pool.Exec(ctx, q, sessionID)
	return err
}

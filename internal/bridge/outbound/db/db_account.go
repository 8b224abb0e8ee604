package db

import (
	"context"

	"github.com/uluru/fbtotp/internal/bridge/entity"
)

func (s *DB) GetAccount(ctx context.Context, id string) (acc *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	var out entity.Account
	err = s.conn.QueryRow(ctx,
		`SELECT id, email FROM totp_accounts WHERE id = $1`, id,
	).Scan(&out.ID, &out.Email)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &out, nil
}

// UpsertAccount records the account and refreshes its email.
func (s *DB) UpsertAccount(ctx context.Context, acc entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertAccount")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO totp_accounts (id, email) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, updated_at = now()`,
		acc.ID, acc.Email,
	)
	return s.mapError(err)
}

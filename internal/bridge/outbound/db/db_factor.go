package db

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

type factorRow struct {
	ID          int64     `db:"id"`
	AccountID   string    `db:"account_id"`
	Kind        int16     `db:"kind"`
	DisplayName string    `db:"display_name"`
	Secret      []byte    `db:"secret"`
	KeyVersion  int16     `db:"key_version"`
	EnrolledAt  time.Time `db:"enrolled_at"`
}

func (s *DB) ListFactors(ctx context.Context, accountID string) (fs []entity.StoredFactor, err error) {
	ctx, span := s.startSpan(ctx, "ListFactors")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT id, account_id, kind, display_name, secret, key_version, enrolled_at
		FROM totp_factors WHERE account_id = $1 ORDER BY enrolled_at`, accountID)
	if err != nil {
		return nil, s.mapError(err)
	}

	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[factorRow])
	if err != nil {
		return nil, s.mapError(err)
	}

	fs = make([]entity.StoredFactor, 0, len(list))
	for _, r := range list {
		fs = append(fs, entity.StoredFactor{
			Factor: entity.Factor{
				ID:          strconv.FormatInt(r.ID, 10),
				AccountID:   r.AccountID,
				Kind:        entity.FactorKind(r.Kind),
				DisplayName: r.DisplayName,
				EnrolledAt:  r.EnrolledAt,
			},
			Secret:     r.Secret,
			KeyVersion: r.KeyVersion,
		})
	}

	return fs, nil
}

// CreateFactor inserts f. A second factor of the same kind is goerror.ErrConflict.
func (s *DB) CreateFactor(ctx context.Context, f entity.StoredFactor) (err error) {
	ctx, span := s.startSpan(ctx, "CreateFactor")
	defer func() { s.endSpan(span, err) }()

	id, err := strconv.ParseInt(f.ID, 10, 64)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO totp_factors (id, account_id, kind, display_name, secret, key_version, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, f.AccountID, int16(f.Kind), f.DisplayName, f.Secret, f.KeyVersion, f.EnrolledAt,
	)
	return s.mapError(err)
}

func (s *DB) DeleteFactor(ctx context.Context, accountID, factorID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteFactor")
	defer func() { s.endSpan(span, err) }()

	id, err := strconv.ParseInt(factorID, 10, 64)
	if err != nil {
		return goerror.ErrNotFound
	}

	tag, err := s.conn.Exec(ctx, `DELETE FROM totp_factors WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type otpStore struct{ db *sql.DB }

func (s *otpStore) Create(ctx context.Context, c *settle.OtpCode) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into otp_codes(id, user_id, code_hash, expires_at)
		values ($1,$2,$3,$4)
	`, c.ID, c.UserID, c.CodeHash, c.ExpiresAt)
	return mapErr(err)
}

func (s *otpStore) LatestForUser(ctx context.Context, userID string) (*settle.OtpCode, error) {
	var c settle.OtpCode
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, code_hash, expires_at, verified, created_at
		from otp_codes where user_id=$1
		order by created_at desc limit 1
	`, userID).Scan(&c.ID, &c.UserID, &c.CodeHash, &c.ExpiresAt, &c.Verified, &c.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (s *otpStore) MarkVerified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `update otp_codes set verified=true where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return settle.ErrNotFound
	}
	return nil
}

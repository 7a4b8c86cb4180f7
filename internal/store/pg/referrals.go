package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type referralStore struct{ db *sql.DB }

const referralColumns = `id, broker_user_id, client_name, client_email, client_phone, channel, status,
	commission_cents, qr_token, matter_id, created_at, updated_at`

func (s *referralStore) Create(ctx context.Context, r *settle.Referral) error {
	if r.ID == "" {
		r.ID = ids.New()
	}
	if r.Status == "" {
		r.Status = settle.ReferralPending
	}
	_, err := s.db.ExecContext(ctx, `
		insert into referrals(id, broker_user_id, client_name, client_email, client_phone, channel, status,
			commission_cents, qr_token, matter_id)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, r.ID, r.BrokerUserID, r.ClientName, r.ClientEmail, r.ClientPhone, r.Channel, r.Status,
		r.CommissionCents, r.QRToken, r.MatterID)
	return mapErr(err)
}

func (s *referralStore) Find(ctx context.Context, id string) (*settle.Referral, error) {
	row := s.db.QueryRowContext(ctx, `select `+referralColumns+` from referrals where id=$1`, id)
	return scanReferral(row)
}

func (s *referralStore) FindByQRToken(ctx context.Context, token string) (*settle.Referral, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+referralColumns+` from referrals where qr_token=$1 and qr_token <> ''`, token)
	return scanReferral(row)
}

func (s *referralStore) ListFor(ctx context.Context, viewer *settle.User) ([]*settle.Referral, error) {
	query := `select ` + referralColumns + ` from referrals`
	var args []any
	if viewer.Role != "ADMIN" {
		query += ` where broker_user_id=$1`
		args = append(args, viewer.ID)
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

// Update never writes qr_token: the column is simply absent from the SET
// list, which keeps the token immutable once issued.
func (s *referralStore) Update(ctx context.Context, id string, upd settle.ReferralUpdate) (*settle.Referral, error) {
	row := s.db.QueryRowContext(ctx, `
		update referrals set
			client_name      = coalesce($2, client_name),
			client_email     = coalesce($3, client_email),
			client_phone     = coalesce($4, client_phone),
			status           = coalesce($5, status),
			commission_cents = coalesce($6, commission_cents),
			matter_id        = coalesce($7, matter_id),
			updated_at       = now()
		where id = $1
		returning `+referralColumns,
		id, strArg(upd.ClientName), strArg(upd.ClientEmail), strArg(upd.ClientPhone),
		strArg(upd.Status), int64Arg(upd.CommissionCents), strArg(upd.MatterID),
	)
	return scanReferral(row)
}

func scanReferral(row rowScanner) (*settle.Referral, error) {
	var r settle.Referral
	err := row.Scan(&r.ID, &r.BrokerUserID, &r.ClientName, &r.ClientEmail, &r.ClientPhone,
		&r.Channel, &r.Status, &r.CommissionCents, &r.QRToken, &r.MatterID,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type paymentStore struct{ db *sql.DB }

const paymentColumns = `id, referral_id, matter_id, broker_user_id, gross_cents, platform_fee_cents,
	net_cents, status, settled_at, created_at`

func (s *paymentStore) Create(ctx context.Context, p *settle.Payment) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into payments(id, referral_id, matter_id, broker_user_id, gross_cents,
			platform_fee_cents, net_cents, status, settled_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, p.ID, p.ReferralID, p.MatterID, p.BrokerUserID, p.GrossCents,
		p.PlatformFeeCents, p.NetCents, p.Status, timeArg(p.SettledAt))
	return mapErr(err)
}

func (s *paymentStore) ListFor(ctx context.Context, viewer *settle.User) ([]*settle.Payment, error) {
	query := `select ` + paymentColumns + ` from payments`
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

	var res []*settle.Payment
	for rows.Next() {
		var (
			p       settle.Payment
			settled sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.ReferralID, &p.MatterID, &p.BrokerUserID,
			&p.GrossCents, &p.PlatformFeeCents, &p.NetCents, &p.Status,
			&settled, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.SettledAt = nullTimePtr(settled)
		res = append(res, &p)
	}
	return res, rows.Err()
}

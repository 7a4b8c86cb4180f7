package pg

import (
	"context"
	"database/sql"
	"fmt"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type matterStore struct{ db *sql.DB }

const matterColumns = `id, address, client_user_id, conveyancer_user_id, broker_user_id, status,
	pillar_pre_settlement, pillar_exchange, pillar_conditions, pillar_pre_completion, pillar_settlement,
	settlement_date, cooling_off_date, finance_date, contract_price_cents, deposit_cents,
	practice_matter_id, network_workspace_id, created_at, updated_at`

func (s *matterStore) Create(ctx context.Context, m *settle.Matter) error {
	if m.ID == "" {
		m.ID = ids.New()
	}
	if m.Status == "" {
		m.Status = "Active"
	}
	for _, p := range []*settle.StageStatus{
		&m.PillarPreSettlement, &m.PillarExchange, &m.PillarConditions,
		&m.PillarPreCompletion, &m.PillarSettlement,
	} {
		if *p == "" {
			*p = settle.StageNotStarted
		}
	}
	_, err := s.db.ExecContext(ctx, `
		insert into matters(id, address, client_user_id, conveyancer_user_id, broker_user_id, status,
			pillar_pre_settlement, pillar_exchange, pillar_conditions, pillar_pre_completion, pillar_settlement,
			settlement_date, cooling_off_date, finance_date, contract_price_cents, deposit_cents)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, m.ID, m.Address, m.ClientUserID, m.ConveyancerUserID, m.BrokerUserID, m.Status,
		string(m.PillarPreSettlement), string(m.PillarExchange), string(m.PillarConditions),
		string(m.PillarPreCompletion), string(m.PillarSettlement),
		timeArg(m.SettlementDate), timeArg(m.CoolingOffDate), timeArg(m.FinanceDate),
		m.ContractPriceCents, m.DepositCents)
	return mapErr(err)
}

func (s *matterStore) Find(ctx context.Context, id string) (*settle.Matter, error) {
	row := s.db.QueryRowContext(ctx, `select `+matterColumns+` from matters where id=$1`, id)
	return scanMatter(row)
}

// ListFor embeds the role visibility filter in the query itself: CLIENT sees
// owned matters, CONVEYANCER assigned ones, BROKER and ADMIN everything.
func (s *matterStore) ListFor(ctx context.Context, viewer *settle.User) ([]*settle.Matter, error) {
	query := `select ` + matterColumns + ` from matters`
	var args []any
	switch viewer.Role {
	case "CLIENT":
		query += ` where client_user_id=$1`
		args = append(args, viewer.ID)
	case "CONVEYANCER":
		query += ` where conveyancer_user_id=$1`
		args = append(args, viewer.ID)
	case "BROKER", "ADMIN":
		// no filter
	default:
		return nil, fmt.Errorf("unknown role: %s", viewer.Role)
	}
	query += ` order by created_at desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.Matter
	for rows.Next() {
		m, err := scanMatter(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (s *matterStore) Update(ctx context.Context, id string, upd settle.MatterUpdate) (*settle.Matter, error) {
	row := s.db.QueryRowContext(ctx, `
		update matters set
			address               = coalesce($2, address),
			status                = coalesce($3, status),
			conveyancer_user_id   = coalesce($4, conveyancer_user_id),
			broker_user_id        = coalesce($5, broker_user_id),
			pillar_pre_settlement = coalesce($6, pillar_pre_settlement),
			pillar_exchange       = coalesce($7, pillar_exchange),
			pillar_conditions     = coalesce($8, pillar_conditions),
			pillar_pre_completion = coalesce($9, pillar_pre_completion),
			pillar_settlement     = coalesce($10, pillar_settlement),
			settlement_date       = coalesce($11, settlement_date),
			cooling_off_date      = coalesce($12, cooling_off_date),
			finance_date          = coalesce($13, finance_date),
			contract_price_cents  = coalesce($14, contract_price_cents),
			deposit_cents         = coalesce($15, deposit_cents),
			practice_matter_id    = coalesce($16, practice_matter_id),
			network_workspace_id  = coalesce($17, network_workspace_id),
			updated_at            = now()
		where id = $1
		returning `+matterColumns,
		id,
		strArg(upd.Address), strArg(upd.Status),
		strArg(upd.ConveyancerUserID), strArg(upd.BrokerUserID),
		stageArg(upd.PillarPreSettlement), stageArg(upd.PillarExchange),
		stageArg(upd.PillarConditions), stageArg(upd.PillarPreCompletion),
		stageArg(upd.PillarSettlement),
		timeArg(upd.SettlementDate), timeArg(upd.CoolingOffDate), timeArg(upd.FinanceDate),
		int64Arg(upd.ContractPriceCents), int64Arg(upd.DepositCents),
		strArg(upd.PracticeMatterID), strArg(upd.NetworkWorkspaceID),
	)
	return scanMatter(row)
}

func scanMatter(row rowScanner) (*settle.Matter, error) {
	var (
		m                               settle.Matter
		settlement, coolingOff, finance sql.NullTime
	)
	err := row.Scan(
		&m.ID, &m.Address, &m.ClientUserID, &m.ConveyancerUserID, &m.BrokerUserID, &m.Status,
		&m.PillarPreSettlement, &m.PillarExchange, &m.PillarConditions,
		&m.PillarPreCompletion, &m.PillarSettlement,
		&settlement, &coolingOff, &finance,
		&m.ContractPriceCents, &m.DepositCents,
		&m.PracticeMatterID, &m.NetworkWorkspaceID,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	m.SettlementDate = nullTimePtr(settlement)
	m.CoolingOffDate = nullTimePtr(coolingOff)
	m.FinanceDate = nullTimePtr(finance)
	return &m, nil
}

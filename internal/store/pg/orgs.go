package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type orgStore struct{ db *sql.DB }

func (s *orgStore) Create(ctx context.Context, o *settle.Organisation) error {
	if o.ID == "" {
		o.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into organisations(id, name) values ($1,$2)`, o.ID, o.Name)
	return mapErr(err)
}

func (s *orgStore) Find(ctx context.Context, id string) (*settle.Organisation, error) {
	var o settle.Organisation
	err := s.db.QueryRowContext(ctx,
		`select id, name, created_at from organisations where id=$1`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (s *orgStore) List(ctx context.Context) ([]*settle.Organisation, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, created_at from organisations order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.Organisation
	for rows.Next() {
		var o settle.Organisation
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &o)
	}
	return res, rows.Err()
}

func (s *orgStore) AddMember(ctx context.Context, m *settle.OrganisationMember) error {
	_, err := s.db.ExecContext(ctx, `
		insert into organisation_members(organisation_id, user_id, role)
		values ($1,$2,$3)
	`, m.OrganisationID, m.UserID, m.Role)
	return mapErr(err)
}

func (s *orgStore) Members(ctx context.Context, orgID string) ([]*settle.OrganisationMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		select organisation_id, user_id, role, created_at
		from organisation_members where organisation_id=$1 order by created_at asc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.OrganisationMember
	for rows.Next() {
		var m settle.OrganisationMember
		if err := rows.Scan(&m.OrganisationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &m)
	}
	return res, rows.Err()
}

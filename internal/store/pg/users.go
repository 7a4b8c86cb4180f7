package pg

import (
	"context"
	"database/sql"
	"strings"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, external_id, email, name, role, phone, date_of_birth, address, state, postcode,
	voi_method, voi_status, onboarding_step, onboarding_complete, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *settle.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.VOIStatus == "" {
		u.VOIStatus = "not_started"
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := s.db.ExecContext(ctx, `
		insert into users(id, external_id, email, name, role, voi_status)
		values ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.ExternalID, u.Email, u.Name, u.Role, u.VOIStatus)
	return mapErr(err)
}

func (s *userStore) Find(ctx context.Context, id string) (*settle.User, error) {
	return s.findBy(ctx, `id=$1`, id)
}

func (s *userStore) FindByExternalID(ctx context.Context, externalID string) (*settle.User, error) {
	return s.findBy(ctx, `external_id=$1`, externalID)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*settle.User, error) {
	return s.findBy(ctx, `email=$1`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *userStore) findBy(ctx context.Context, where string, arg any) (*settle.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where `+where, arg)
	return scanUser(row)
}

func (s *userStore) UpdateProfile(ctx context.Context, id string, upd settle.ProfileUpdate) (*settle.User, error) {
	row := s.db.QueryRowContext(ctx, `
		update users set
			phone               = coalesce($2, phone),
			date_of_birth       = coalesce($3, date_of_birth),
			address             = coalesce($4, address),
			state               = coalesce($5, state),
			postcode            = coalesce($6, postcode),
			voi_method          = coalesce($7, voi_method),
			voi_status          = coalesce($8, voi_status),
			onboarding_step     = coalesce($9, onboarding_step),
			onboarding_complete = coalesce($10, onboarding_complete),
			updated_at          = now()
		where id = $1
		returning `+userColumns,
		id,
		strArg(upd.Phone), strArg(upd.DateOfBirth), strArg(upd.Address),
		strArg(upd.State), strArg(upd.Postcode), strArg(upd.VOIMethod),
		strArg(upd.VOIStatus), intArg(upd.OnboardingStep), boolArg(upd.OnboardingComplete),
	)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*settle.User, error) {
	var u settle.User
	err := row.Scan(
		&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.DateOfBirth,
		&u.Address, &u.State, &u.Postcode, &u.VOIMethod, &u.VOIStatus,
		&u.OnboardingStep, &u.OnboardingComplete, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

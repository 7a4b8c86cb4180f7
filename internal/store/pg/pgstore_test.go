package pg

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"settleline.app/internal/settle"
)

var matterRowColumns = []string{
	"id", "address", "client_user_id", "conveyancer_user_id", "broker_user_id", "status",
	"pillar_pre_settlement", "pillar_exchange", "pillar_conditions", "pillar_pre_completion", "pillar_settlement",
	"settlement_date", "cooling_off_date", "finance_date", "contract_price_cents", "deposit_cents",
	"practice_matter_id", "network_workspace_id", "created_at", "updated_at",
}

func matterRow(id, clientID string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(matterRowColumns).AddRow(
		id, "1 Apple St", clientID, "", "", "Active",
		"not_started", "not_started", "not_started", "not_started", "not_started",
		nil, nil, nil, int64(0), int64(0), "", "", now, now,
	)
}

func TestListForFiltersByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)
	ctx := context.Background()

	client := &settle.User{ID: "u1", Role: "CLIENT"}
	mock.ExpectQuery("from matters where client_user_id=").
		WithArgs("u1").
		WillReturnRows(matterRow("m1", "u1"))
	if _, err := store.Matters().ListFor(ctx, client); err != nil {
		t.Fatalf("ListFor client: %v", err)
	}

	conveyancer := &settle.User{ID: "u2", Role: "CONVEYANCER"}
	mock.ExpectQuery("from matters where conveyancer_user_id=").
		WithArgs("u2").
		WillReturnRows(matterRow("m2", "other"))
	if _, err := store.Matters().ListFor(ctx, conveyancer); err != nil {
		t.Fatalf("ListFor conveyancer: %v", err)
	}

	admin := &settle.User{ID: "u3", Role: "ADMIN"}
	mock.ExpectQuery("from matters order by created_at desc").
		WillReturnRows(matterRow("m3", "other"))
	if _, err := store.Matters().ListFor(ctx, admin); err != nil {
		t.Fatalf("ListFor admin: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteLockedDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)
	ctx := context.Background()

	mock.ExpectQuery("from documents where id=").
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(true))
	if err := store.Documents().Delete(ctx, "d1"); err != settle.ErrLocked {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	mock.ExpectQuery("from documents where id=").
		WithArgs("d2").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}).AddRow(false))
	if err := store.Documents().Delete(ctx, "d2"); err != nil {
		t.Fatalf("delete unlocked: %v", err)
	}

	mock.ExpectQuery("from documents where id=").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"locked"}))
	if err := store.Documents().Delete(ctx, "missing"); err != settle.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReferralUpdateNeverTouchesQRToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "broker_user_id", "client_name", "client_email", "client_phone", "channel", "status",
		"commission_cents", "qr_token", "matter_id", "created_at", "updated_at",
	}).AddRow("r1", "b1", "Jamie", "", "", "QR", "Converted", int64(0), "tok-1", "", now, now)

	// The SET list has no qr_token column; only the six mutable fields plus
	// updated_at appear.
	mock.ExpectQuery(`update referrals set\s+client_name`).
		WithArgs("r1", nil, nil, nil, "Converted", nil, nil).
		WillReturnRows(rows)

	status := settle.ReferralConverted
	updated, err := store.Referrals().Update(ctx, "r1", settle.ReferralUpdate{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.QRToken != "tok-1" {
		t.Fatalf("qr token changed: %q", updated.QRToken)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateProfilePartial(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "external_id", "email", "name", "role", "phone", "date_of_birth", "address",
		"state", "postcode", "voi_method", "voi_status", "onboarding_step", "onboarding_complete",
		"created_at", "updated_at",
	}).AddRow("u1", "ext1", "a@b.c", "Casey", "CLIENT", "0400000000", "", "", "", "", "", "not_started", 2, false, now, now)

	mock.ExpectQuery("update users set").
		WithArgs("u1", "0400000000", nil, nil, nil, nil, nil, nil, 2, nil).
		WillReturnRows(rows)

	phone := "0400000000"
	step := 2
	u, err := store.Users().UpdateProfile(ctx, "u1", settle.ProfileUpdate{Phone: &phone, OnboardingStep: &step})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.Phone != "0400000000" || u.OnboardingStep != 2 {
		t.Fatalf("unexpected result: %+v", u)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

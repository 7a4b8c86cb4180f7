package settle

import (
	"context"
	"testing"
)

func TestListMattersRoleVisibility(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	client := &User{Email: "client@example.com", Role: "CLIENT"}
	conveyancer := &User{Email: "conv@example.com", Role: "CONVEYANCER"}
	broker := &User{Email: "broker@example.com", Role: "BROKER"}
	for _, u := range []*User{client, conveyancer, broker} {
		if err := store.Users().Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	owned := &Matter{Address: "1 Apple St", ClientUserID: client.ID}
	assigned := &Matter{Address: "2 Beech Ave", ClientUserID: "someone-else", ConveyancerUserID: conveyancer.ID}
	other := &Matter{Address: "3 Cedar Rd", ClientUserID: "someone-else"}
	for _, m := range []*Matter{owned, assigned, other} {
		if err := store.Matters().Create(ctx, m); err != nil {
			t.Fatalf("create matter: %v", err)
		}
	}

	got, err := store.Matters().ListFor(ctx, client)
	if err != nil {
		t.Fatalf("ListFor client: %v", err)
	}
	if len(got) != 1 || got[0].ID != owned.ID {
		t.Fatalf("client should see only owned matter, got %d", len(got))
	}

	got, err = store.Matters().ListFor(ctx, conveyancer)
	if err != nil {
		t.Fatalf("ListFor conveyancer: %v", err)
	}
	if len(got) != 1 || got[0].ID != assigned.ID {
		t.Fatalf("conveyancer should see only assigned matter, got %d", len(got))
	}

	got, err = store.Matters().ListFor(ctx, broker)
	if err != nil {
		t.Fatalf("ListFor broker: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("broker should see all matters, got %d", len(got))
	}
}

func TestDocumentDeleteLocked(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	m := &Matter{Address: "1 Apple St", ClientUserID: "c1"}
	if err := store.Matters().Create(ctx, m); err != nil {
		t.Fatalf("create matter: %v", err)
	}
	locked := &Document{MatterID: m.ID, Name: "contract.pdf", Locked: true, UploadedByUserID: "c1"}
	free := &Document{MatterID: m.ID, Name: "notes.pdf", UploadedByUserID: "c1"}
	for _, d := range []*Document{locked, free} {
		if err := store.Documents().Create(ctx, d); err != nil {
			t.Fatalf("create document: %v", err)
		}
	}

	if err := store.Documents().Delete(ctx, locked.ID); err != ErrLocked {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, err := store.Documents().Find(ctx, locked.ID); err != nil {
		t.Fatalf("locked document must survive: %v", err)
	}
	if err := store.Documents().Delete(ctx, free.ID); err != nil {
		t.Fatalf("delete unlocked: %v", err)
	}
	if _, err := store.Documents().Find(ctx, free.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReferralQRTokenImmutable(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	r := &Referral{BrokerUserID: "b1", ClientName: "Jamie", Channel: ChannelQR, QRToken: "tok-1"}
	if err := store.Referrals().Create(ctx, r); err != nil {
		t.Fatalf("create referral: %v", err)
	}

	status := ReferralConverted
	updated, err := store.Referrals().Update(ctx, r.ID, ReferralUpdate{Status: &status})
	if err != nil {
		t.Fatalf("update referral: %v", err)
	}
	if updated.QRToken != "tok-1" {
		t.Fatalf("qr token changed to %q", updated.QRToken)
	}
	if updated.Status != ReferralConverted {
		t.Fatalf("status not updated: %s", updated.Status)
	}

	found, err := store.Referrals().FindByQRToken(ctx, "tok-1")
	if err != nil || found.ID != r.ID {
		t.Fatalf("FindByQRToken: %v", err)
	}
	if _, err := store.Referrals().FindByQRToken(ctx, "does-not-exist"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserProvisioningIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory()

	u := &User{ExternalID: "auth0|1", Email: "a@b.c", Role: "CLIENT"}
	if err := store.Users().Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &User{ExternalID: "auth0|1", Email: "a2@b.c", Role: "CLIENT"}
	if err := store.Users().Create(ctx, dup); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	found, err := store.Users().FindByExternalID(ctx, "auth0|1")
	if err != nil || found.ID != u.ID {
		t.Fatalf("FindByExternalID: %v", err)
	}
}

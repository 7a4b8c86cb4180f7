package notify

import (
	"context"
	"errors"
	"testing"

	"settleline.app/internal/settle"
)

func TestRender(t *testing.T) {
	vars := map[string]string{"recipientName": "Casey", "matterAddress": "1 Apple St"}
	got := Render("Hi {{recipientName}}, {{ matterAddress }} is on track. {{unknown}}", vars)
	want := "Hi Casey, 1 Apple St is on track. {{unknown}}"
	if got != want {
		t.Fatalf("Render=%q, want %q", got, want)
	}
}

type fakeEmail struct {
	to, subject, body string
	err               error
}

func (f *fakeEmail) Send(ctx context.Context, to, subject, body string) error {
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

func setupDispatch(t *testing.T) (settle.Store, *settle.User, *settle.Matter) {
	t.Helper()
	ctx := context.Background()
	store := settle.NewInMemory()

	user := &settle.User{Email: "casey@example.com", Name: "Casey", Role: "CLIENT"}
	if err := store.Users().Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	matter := &settle.Matter{Address: "1 Apple St", ClientUserID: user.ID, PillarPreSettlement: settle.StageComplete}
	if err := store.Matters().Create(ctx, matter); err != nil {
		t.Fatalf("create matter: %v", err)
	}
	tmpl := &settle.NotificationTemplate{
		Name:    "Pillar update",
		Channel: settle.ChannelEmail,
		Trigger: "pillar.updated",
		Subject: "Progress on {{matterAddress}}",
		Body:    "Hi {{recipientName}}, your settlement is {{overallPercent}}% complete.",
		Active:  true,
	}
	if err := store.Templates().Create(ctx, tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	return store, user, matter
}

func TestDispatchSent(t *testing.T) {
	ctx := context.Background()
	store, user, matter := setupDispatch(t)
	email := &fakeEmail{}
	d := NewDispatcher(store, email, nil)

	entry, err := d.Dispatch(ctx, "pillar.updated", settle.ChannelEmail, user, matter)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if entry.Status != settle.DeliverySent {
		t.Fatalf("unexpected status: %s", entry.Status)
	}
	if email.to != "casey@example.com" {
		t.Fatalf("unexpected recipient: %s", email.to)
	}
	if email.subject != "Progress on 1 Apple St" {
		t.Fatalf("unexpected subject: %q", email.subject)
	}
	if email.body != "Hi Casey, your settlement is 20% complete." {
		t.Fatalf("unexpected body: %q", email.body)
	}

	logs, err := store.NotificationLogs().List(ctx, 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("expected one log entry, got %d (%v)", len(logs), err)
	}
	if logs[0].Status != settle.DeliverySent || logs[0].MatterID != matter.ID {
		t.Fatalf("unexpected log: %+v", logs[0])
	}
}

func TestDispatchFailureRecorded(t *testing.T) {
	ctx := context.Background()
	store, user, matter := setupDispatch(t)
	email := &fakeEmail{err: errors.New("vendor returned 500")}
	d := NewDispatcher(store, email, nil)

	entry, err := d.Dispatch(ctx, "pillar.updated", settle.ChannelEmail, user, matter)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if entry.Status != settle.DeliveryFailed || entry.Error == "" {
		t.Fatalf("expected failed log with error, got %+v", entry)
	}
}

func TestDispatchNoTemplate(t *testing.T) {
	ctx := context.Background()
	store, user, matter := setupDispatch(t)
	d := NewDispatcher(store, &fakeEmail{}, nil)

	if _, err := d.Dispatch(ctx, "unknown.trigger", settle.ChannelEmail, user, matter); !errors.Is(err, settle.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDispatchPushUnavailable(t *testing.T) {
	ctx := context.Background()
	store, user, matter := setupDispatch(t)
	tmpl := &settle.NotificationTemplate{Channel: settle.ChannelPush, Trigger: "pillar.updated", Body: "x", Active: true}
	if err := store.Templates().Create(ctx, tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	d := NewDispatcher(store, &fakeEmail{}, nil)

	if _, err := d.Dispatch(ctx, "pillar.updated", settle.ChannelPush, user, matter); !errors.Is(err, ErrChannelUnavailable) {
		t.Fatalf("expected ErrChannelUnavailable, got %v", err)
	}
}

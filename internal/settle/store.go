package settle

import (
	"context"
	"time"
)

// Store bundles the typed accessors behind the HTTP layer. Each accessor
// exposes one function per query shape.
type Store interface {
	Users() UserStore
	Matters() MatterStore
	Tasks() TaskStore
	Documents() DocumentStore
	Referrals() ReferralStore
	Payments() PaymentStore
	Organisations() OrganisationStore
	Templates() TemplateStore
	NotificationLogs() NotificationLogStore
	Playbook() PlaybookStore
	OtpCodes() OtpStore
}

// ProfileUpdate is the onboarding/profile partial update. Nil fields are
// left untouched. The set of fields IS the allow-list: role, email and
// identity bindings are not representable here.
type ProfileUpdate struct {
	Phone              *string
	DateOfBirth        *string
	Address            *string
	State              *string
	Postcode           *string
	VOIMethod          *string
	VOIStatus          *string
	OnboardingStep     *int
	OnboardingComplete *bool
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByExternalID(ctx context.Context, externalID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
}

// MatterUpdate is a partial update; nil fields are untouched. Advancing a
// pillar sets exactly one pillar field and nothing else.
type MatterUpdate struct {
	Address           *string
	Status            *string
	ConveyancerUserID *string
	BrokerUserID      *string

	PillarPreSettlement *StageStatus
	PillarExchange      *StageStatus
	PillarConditions    *StageStatus
	PillarPreCompletion *StageStatus
	PillarSettlement    *StageStatus

	SettlementDate *time.Time
	CoolingOffDate *time.Time
	FinanceDate    *time.Time

	ContractPriceCents *int64
	DepositCents       *int64

	PracticeMatterID   *string
	NetworkWorkspaceID *string
}

type MatterStore interface {
	Create(ctx context.Context, m *Matter) error
	Find(ctx context.Context, id string) (*Matter, error)
	// ListFor applies role visibility: CLIENT sees owned matters,
	// CONVEYANCER assigned ones, BROKER and ADMIN all.
	ListFor(ctx context.Context, viewer *User) ([]*Matter, error)
	Update(ctx context.Context, id string, upd MatterUpdate) (*Matter, error)
}

type TaskUpdate struct {
	Title          *string
	Status         *string
	DueDate        *time.Time
	Category       *string
	AssigneeUserID *string
}

type TaskStore interface {
	Create(ctx context.Context, t *Task) error
	Find(ctx context.Context, id string) (*Task, error)
	ListByMatter(ctx context.Context, matterID string) ([]*Task, error)
	Update(ctx context.Context, id string, upd TaskUpdate) (*Task, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *Document) error
	Find(ctx context.Context, id string) (*Document, error)
	ListByMatter(ctx context.Context, matterID string) ([]*Document, error)
	// Delete hard-deletes the record. Returns ErrLocked while the lock flag
	// is set.
	Delete(ctx context.Context, id string) error
}

// ReferralUpdate deliberately has no QR token field: the token is immutable
// once issued.
type ReferralUpdate struct {
	ClientName      *string
	ClientEmail     *string
	ClientPhone     *string
	Status          *string
	CommissionCents *int64
	MatterID        *string
}

type ReferralStore interface {
	Create(ctx context.Context, r *Referral) error
	Find(ctx context.Context, id string) (*Referral, error)
	FindByQRToken(ctx context.Context, token string) (*Referral, error)
	ListFor(ctx context.Context, viewer *User) ([]*Referral, error)
	Update(ctx context.Context, id string, upd ReferralUpdate) (*Referral, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *Payment) error
	ListFor(ctx context.Context, viewer *User) ([]*Payment, error)
}

type OrganisationStore interface {
	Create(ctx context.Context, o *Organisation) error
	Find(ctx context.Context, id string) (*Organisation, error)
	List(ctx context.Context) ([]*Organisation, error)
	AddMember(ctx context.Context, m *OrganisationMember) error
	Members(ctx context.Context, orgID string) ([]*OrganisationMember, error)
}

type TemplateUpdate struct {
	Name    *string
	Channel *string
	Trigger *string
	Subject *string
	Body    *string
	Active  *bool
}

type TemplateStore interface {
	Create(ctx context.Context, t *NotificationTemplate) error
	Find(ctx context.Context, id string) (*NotificationTemplate, error)
	List(ctx context.Context) ([]*NotificationTemplate, error)
	// FindByTrigger returns the active template for a trigger+channel pair.
	FindByTrigger(ctx context.Context, trigger, channel string) (*NotificationTemplate, error)
	Update(ctx context.Context, id string, upd TemplateUpdate) (*NotificationTemplate, error)
	Delete(ctx context.Context, id string) error
}

type NotificationLogStore interface {
	Append(ctx context.Context, l *NotificationLog) error
	List(ctx context.Context, limit int) ([]*NotificationLog, error)
}

type PlaybookStore interface {
	Create(ctx context.Context, a *PlaybookArticle) error
	List(ctx context.Context, category, pillar string) ([]*PlaybookArticle, error)
	FindBySlug(ctx context.Context, slug string) (*PlaybookArticle, error)
}

type OtpStore interface {
	Create(ctx context.Context, c *OtpCode) error
	LatestForUser(ctx context.Context, userID string) (*OtpCode, error)
	MarkVerified(ctx context.Context, id string) error
}

// CanViewMatter is the single visibility predicate applied to matter-scoped
// reads, so role filtering is not re-derived per handler.
func CanViewMatter(viewer *User, m *Matter) bool {
	if viewer == nil || m == nil {
		return false
	}
	switch viewer.Role {
	case "CLIENT":
		return m.ClientUserID == viewer.ID
	case "CONVEYANCER":
		return m.ConveyancerUserID == viewer.ID
	case "BROKER", "ADMIN":
		return true
	}
	return false
}

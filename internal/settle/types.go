package settle

import "time"

// User is an identity record, provisioned idempotently on the external
// identity subject. Users are never hard-deleted.
type User struct {
	ID                 string    `json:"id"`
	ExternalID         string    `json:"-"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	Phone              string    `json:"phone,omitempty"`
	DateOfBirth        string    `json:"dateOfBirth,omitempty"`
	Address            string    `json:"address,omitempty"`
	State              string    `json:"state,omitempty"`
	Postcode           string    `json:"postcode,omitempty"`
	VOIMethod          string    `json:"voiMethod,omitempty"`
	VOIStatus          string    `json:"voiStatus"`
	OnboardingStep     int       `json:"onboardingStep"`
	OnboardingComplete bool      `json:"onboardingComplete"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Matter is one property-settlement transaction tracked end-to-end.
// Monetary fields are integer cents. A matter has exactly one client owner;
// conveyancer and broker assignments are optional.
type Matter struct {
	ID                string `json:"id"`
	Address           string `json:"address"`
	ClientUserID      string `json:"clientUserId"`
	ConveyancerUserID string `json:"conveyancerUserId,omitempty"`
	BrokerUserID      string `json:"brokerUserId,omitempty"`
	Status            string `json:"status"`

	PillarPreSettlement StageStatus `json:"pillarPreSettlement"`
	PillarExchange      StageStatus `json:"pillarExchange"`
	PillarConditions    StageStatus `json:"pillarConditions"`
	PillarPreCompletion StageStatus `json:"pillarPreCompletion"`
	PillarSettlement    StageStatus `json:"pillarSettlement"`

	SettlementDate *time.Time `json:"settlementDate,omitempty"`
	CoolingOffDate *time.Time `json:"coolingOffDate,omitempty"`
	FinanceDate    *time.Time `json:"financeDate,omitempty"`

	ContractPriceCents int64 `json:"contractPriceCents"`
	DepositCents       int64 `json:"depositCents"`

	PracticeMatterID   string `json:"practiceMatterId,omitempty"`
	NetworkWorkspaceID string `json:"networkWorkspaceId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VOI statuses. A verification session moves a user from not_started to
// pending; the vendor webhook or an admin marks them verified.
const (
	VOINotStarted = "not_started"
	VOIPending    = "pending"
	VOIVerified   = "verified"
)

// Task statuses. Tasks have a lifecycle independent from pillars.
const (
	TaskPending  = "PENDING"
	TaskInReview = "IN_REVIEW"
	TaskComplete = "COMPLETE"
)

// ValidTaskStatus reports whether s is a recognised task status.
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskPending, TaskInReview, TaskComplete:
		return true
	}
	return false
}

// Task is a unit of work scoped to one matter.
type Task struct {
	ID             string     `json:"id"`
	MatterID       string     `json:"matterId"`
	Title          string     `json:"title"`
	Status         string     `json:"status"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Category       string     `json:"category,omitempty"`
	AssigneeUserID string     `json:"assigneeUserId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Document is a file record scoped to one matter. The lock flag gates hard
// deletion; blob storage itself is external.
type Document struct {
	ID               string    `json:"id"`
	MatterID         string    `json:"matterId"`
	Name             string    `json:"name"`
	SizeLabel        string    `json:"sizeLabel,omitempty"`
	UploadedByUserID string    `json:"uploadedByUserId"`
	Locked           bool      `json:"locked"`
	StorageKey       string    `json:"storageKey,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Referral channels and statuses. Status transitions are plain field
// overwrites from handlers; there is no enforced transition function.
const (
	ChannelPortal = "PORTAL"
	ChannelSMS    = "SMS"
	ChannelQR     = "QR"

	ReferralPending   = "Pending"
	ReferralConverted = "Converted"
	ReferralSettled   = "Settled"
)

// ValidReferralChannel reports whether c is a recognised channel.
func ValidReferralChannel(c string) bool {
	switch c {
	case ChannelPortal, ChannelSMS, ChannelQR:
		return true
	}
	return false
}

// ValidReferralStatus reports whether s is a recognised referral status.
func ValidReferralStatus(s string) bool {
	switch s {
	case ReferralPending, ReferralConverted, ReferralSettled:
		return true
	}
	return false
}

// Referral is a prospective client introduction by a broker. QRToken, once
// issued, is unique and immutable.
type Referral struct {
	ID              string    `json:"id"`
	BrokerUserID    string    `json:"brokerUserId"`
	ClientName      string    `json:"clientName"`
	ClientEmail     string    `json:"clientEmail,omitempty"`
	ClientPhone     string    `json:"clientPhone,omitempty"`
	Channel         string    `json:"channel"`
	Status          string    `json:"status"`
	CommissionCents int64     `json:"commissionCents"`
	QRToken         string    `json:"qrToken,omitempty"`
	MatterID        string    `json:"matterId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Payment statuses share the referral casing.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
)

// Payment is a commission payout record tied to a referral.
type Payment struct {
	ID               string     `json:"id"`
	ReferralID       string     `json:"referralId,omitempty"`
	MatterID         string     `json:"matterId,omitempty"`
	BrokerUserID     string     `json:"brokerUserId"`
	GrossCents       int64      `json:"grossCents"`
	PlatformFeeCents int64      `json:"platformFeeCents"`
	NetCents         int64      `json:"netCents"`
	Status           string     `json:"status"`
	SettledAt        *time.Time `json:"settledAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Organisation member roles.
const (
	OrgOwner   = "OWNER"
	OrgManager = "MANAGER"
	OrgMember  = "MEMBER"
)

// ValidOrgRole reports whether r is a recognised membership role.
func ValidOrgRole(r string) bool {
	switch r {
	case OrgOwner, OrgManager, OrgMember:
		return true
	}
	return false
}

// Organisation is a brokerage team grouping.
type Organisation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrganisationMember links a user to an organisation with a role.
type OrganisationMember struct {
	OrganisationID string    `json:"organisationId"`
	UserID         string    `json:"userId"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Notification channels and delivery outcomes.
const (
	ChannelEmail = "email"
	ChannelText  = "sms"
	ChannelPush  = "push"

	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// ValidNotificationChannel reports whether c is a recognised channel.
func ValidNotificationChannel(c string) bool {
	switch c {
	case ChannelEmail, ChannelText, ChannelPush:
		return true
	}
	return false
}

// NotificationTemplate defines channel + trigger + body with {{placeholder}}
// variables.
type NotificationTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Channel   string    `json:"channel"`
	Trigger   string    `json:"trigger"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NotificationLog records one delivery attempt.
type NotificationLog struct {
	ID              string    `json:"id"`
	TemplateID      string    `json:"templateId,omitempty"`
	MatterID        string    `json:"matterId,omitempty"`
	RecipientUserID string    `json:"recipientUserId"`
	Channel         string    `json:"channel"`
	Trigger         string    `json:"trigger"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PlaybookArticle is static educational content keyed by slug.
type PlaybookArticle struct {
	ID       string `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Pillar   string `json:"pillar,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Body     string `json:"body"`
}

// OtpCode is a short-lived one-time code for phone verification. Only the
// hash of the code is stored.
type OtpCode struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CodeHash  string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

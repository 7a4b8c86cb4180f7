package settle

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"settleline.app/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. Used by
// HTTP-layer tests and for running the API without a database.
type InMemory struct {
	mu        sync.RWMutex
	users     map[string]*User
	matters   map[string]*Matter
	tasks     map[string]*Task
	documents map[string]*Document
	referrals map[string]*Referral
	payments  map[string]*Payment
	orgs      map[string]*Organisation
	members   []*OrganisationMember
	templates map[string]*NotificationTemplate
	logs      []*NotificationLog
	articles  map[string]*PlaybookArticle
	otps      map[string]*OtpCode
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:     make(map[string]*User),
		matters:   make(map[string]*Matter),
		tasks:     make(map[string]*Task),
		documents: make(map[string]*Document),
		referrals: make(map[string]*Referral),
		payments:  make(map[string]*Payment),
		orgs:      make(map[string]*Organisation),
		templates: make(map[string]*NotificationTemplate),
		articles:  make(map[string]*PlaybookArticle),
		otps:      make(map[string]*OtpCode),
	}
}

func (s *InMemory) Users() UserStore                       { return (*memUsers)(s) }
func (s *InMemory) Matters() MatterStore                   { return (*memMatters)(s) }
func (s *InMemory) Tasks() TaskStore                       { return (*memTasks)(s) }
func (s *InMemory) Documents() DocumentStore               { return (*memDocuments)(s) }
func (s *InMemory) Referrals() ReferralStore               { return (*memReferrals)(s) }
func (s *InMemory) Payments() PaymentStore                 { return (*memPayments)(s) }
func (s *InMemory) Organisations() OrganisationStore       { return (*memOrgs)(s) }
func (s *InMemory) Templates() TemplateStore               { return (*memTemplates)(s) }
func (s *InMemory) NotificationLogs() NotificationLogStore { return (*memLogs)(s) }
func (s *InMemory) Playbook() PlaybookStore                { return (*memPlaybook)(s) }
func (s *InMemory) OtpCodes() OtpStore                     { return (*memOtps)(s) }

// Users ---------------------------------------------------------------------

type memUsers InMemory

func (s *memUsers) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = ids.New()
	}
	for _, existing := range s.users {
		if existing.Email == u.Email || (u.ExternalID != "" && existing.ExternalID == u.ExternalID) {
			return ErrAlreadyExists
		}
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.VOIStatus == "" {
		u.VOIStatus = VOINotStarted
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUsers) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) FindByExternalID(ctx context.Context, externalID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ExternalID == externalID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	setStr(&u.Phone, upd.Phone)
	setStr(&u.DateOfBirth, upd.DateOfBirth)
	setStr(&u.Address, upd.Address)
	setStr(&u.State, upd.State)
	setStr(&u.Postcode, upd.Postcode)
	setStr(&u.VOIMethod, upd.VOIMethod)
	setStr(&u.VOIStatus, upd.VOIStatus)
	if upd.OnboardingStep != nil {
		u.OnboardingStep = *upd.OnboardingStep
	}
	if upd.OnboardingComplete != nil {
		u.OnboardingComplete = *upd.OnboardingComplete
	}
	u.UpdatedAt = time.Now().UTC()
	cp := *u
	return &cp, nil
}

// Matters -------------------------------------------------------------------

type memMatters InMemory

func (s *memMatters) Create(ctx context.Context, m *Matter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = ids.New()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	defaultStages(m)
	cp := *m
	s.matters[m.ID] = &cp
	return nil
}

func (s *memMatters) Find(ctx context.Context, id string) (*Matter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matters[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memMatters) ListFor(ctx context.Context, viewer *User) ([]*Matter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Matter
	for _, m := range s.matters {
		if CanViewMatter(viewer, m) {
			cp := *m
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memMatters) Update(ctx context.Context, id string, upd MatterUpdate) (*Matter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matters[id]
	if !ok {
		return nil, ErrNotFound
	}
	setStr(&m.Address, upd.Address)
	setStr(&m.Status, upd.Status)
	setStr(&m.ConveyancerUserID, upd.ConveyancerUserID)
	setStr(&m.BrokerUserID, upd.BrokerUserID)
	setStage(&m.PillarPreSettlement, upd.PillarPreSettlement)
	setStage(&m.PillarExchange, upd.PillarExchange)
	setStage(&m.PillarConditions, upd.PillarConditions)
	setStage(&m.PillarPreCompletion, upd.PillarPreCompletion)
	setStage(&m.PillarSettlement, upd.PillarSettlement)
	if upd.SettlementDate != nil {
		m.SettlementDate = upd.SettlementDate
	}
	if upd.CoolingOffDate != nil {
		m.CoolingOffDate = upd.CoolingOffDate
	}
	if upd.FinanceDate != nil {
		m.FinanceDate = upd.FinanceDate
	}
	if upd.ContractPriceCents != nil {
		m.ContractPriceCents = *upd.ContractPriceCents
	}
	if upd.DepositCents != nil {
		m.DepositCents = *upd.DepositCents
	}
	setStr(&m.PracticeMatterID, upd.PracticeMatterID)
	setStr(&m.NetworkWorkspaceID, upd.NetworkWorkspaceID)
	m.UpdatedAt = time.Now().UTC()
	cp := *m
	return &cp, nil
}

// Tasks ---------------------------------------------------------------------

type memTasks InMemory

func (s *memTasks) Create(ctx context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matters[t.MatterID]; !ok {
		return ErrNotFound
	}
	if t.ID == "" {
		t.ID = ids.New()
	}
	if t.Status == "" {
		t.Status = TaskPending
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *memTasks) Find(ctx context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTasks) ListByMatter(ctx context.Context, matterID string) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Task
	for _, t := range s.tasks {
		if t.MatterID == matterID {
			cp := *t
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memTasks) Update(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	setStr(&t.Title, upd.Title)
	setStr(&t.Status, upd.Status)
	setStr(&t.Category, upd.Category)
	setStr(&t.AssigneeUserID, upd.AssigneeUserID)
	if upd.DueDate != nil {
		t.DueDate = upd.DueDate
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

// Documents -----------------------------------------------------------------

type memDocuments InMemory

func (s *memDocuments) Create(ctx context.Context, d *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matters[d.MatterID]; !ok {
		return ErrNotFound
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	s.documents[d.ID] = &cp
	return nil
}

func (s *memDocuments) Find(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *memDocuments) ListByMatter(ctx context.Context, matterID string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Document
	for _, d := range s.documents {
		if d.MatterID == matterID {
			cp := *d
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memDocuments) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.documents[id]
	if !ok {
		return ErrNotFound
	}
	if d.Locked {
		return ErrLocked
	}
	delete(s.documents, id)
	return nil
}

// Referrals -----------------------------------------------------------------

type memReferrals InMemory

func (s *memReferrals) Create(ctx context.Context, r *Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = ids.New()
	}
	if r.Status == "" {
		r.Status = ReferralPending
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	cp := *r
	s.referrals[r.ID] = &cp
	return nil
}

func (s *memReferrals) Find(ctx context.Context, id string) (*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memReferrals) FindByQRToken(ctx context.Context, token string) (*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.referrals {
		if r.QRToken != "" && r.QRToken == token {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memReferrals) ListFor(ctx context.Context, viewer *User) ([]*Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Referral
	for _, r := range s.referrals {
		if viewer.Role == "ADMIN" || r.BrokerUserID == viewer.ID {
			cp := *r
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memReferrals) Update(ctx context.Context, id string, upd ReferralUpdate) (*Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, ErrNotFound
	}
	setStr(&r.ClientName, upd.ClientName)
	setStr(&r.ClientEmail, upd.ClientEmail)
	setStr(&r.ClientPhone, upd.ClientPhone)
	setStr(&r.Status, upd.Status)
	setStr(&r.MatterID, upd.MatterID)
	if upd.CommissionCents != nil {
		r.CommissionCents = *upd.CommissionCents
	}
	r.UpdatedAt = time.Now().UTC()
	cp := *r
	return &cp, nil
}

// Payments ------------------------------------------------------------------

type memPayments InMemory

func (s *memPayments) Create(ctx context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s *memPayments) ListFor(ctx context.Context, viewer *User) ([]*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Payment
	for _, p := range s.payments {
		if viewer.Role == "ADMIN" || p.BrokerUserID == viewer.ID {
			cp := *p
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// Organisations -------------------------------------------------------------

type memOrgs InMemory

func (s *memOrgs) Create(ctx context.Context, o *Organisation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = ids.New()
	}
	o.CreatedAt = time.Now().UTC()
	cp := *o
	s.orgs[o.ID] = &cp
	return nil
}

func (s *memOrgs) Find(ctx context.Context, id string) (*Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *memOrgs) List(ctx context.Context) ([]*Organisation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Organisation
	for _, o := range s.orgs {
		cp := *o
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memOrgs) AddMember(ctx context.Context, m *OrganisationMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[m.OrganisationID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.members {
		if existing.OrganisationID == m.OrganisationID && existing.UserID == m.UserID {
			return ErrAlreadyExists
		}
	}
	m.CreatedAt = time.Now().UTC()
	cp := *m
	s.members = append(s.members, &cp)
	return nil
}

func (s *memOrgs) Members(ctx context.Context, orgID string) ([]*OrganisationMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*OrganisationMember
	for _, m := range s.members {
		if m.OrganisationID == orgID {
			cp := *m
			res = append(res, &cp)
		}
	}
	return res, nil
}

// Templates -----------------------------------------------------------------

type memTemplates InMemory

func (s *memTemplates) Create(ctx context.Context, t *NotificationTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = ids.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	cp := *t
	s.templates[t.ID] = &cp
	return nil
}

func (s *memTemplates) Find(ctx context.Context, id string) (*NotificationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTemplates) List(ctx context.Context) ([]*NotificationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*NotificationTemplate
	for _, t := range s.templates {
		cp := *t
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *memTemplates) FindByTrigger(ctx context.Context, trigger, channel string) (*NotificationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templates {
		if t.Active && t.Trigger == trigger && t.Channel == channel {
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memTemplates) Update(ctx context.Context, id string, upd TemplateUpdate) (*NotificationTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	setStr(&t.Name, upd.Name)
	setStr(&t.Channel, upd.Channel)
	setStr(&t.Trigger, upd.Trigger)
	setStr(&t.Subject, upd.Subject)
	setStr(&t.Body, upd.Body)
	if upd.Active != nil {
		t.Active = *upd.Active
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (s *memTemplates) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[id]; !ok {
		return ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

// Notification logs ---------------------------------------------------------

type memLogs InMemory

func (s *memLogs) Append(ctx context.Context, l *NotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = ids.New()
	}
	l.CreatedAt = time.Now().UTC()
	cp := *l
	s.logs = append(s.logs, &cp)
	return nil
}

func (s *memLogs) List(ctx context.Context, limit int) ([]*NotificationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	res := make([]*NotificationLog, 0, limit)
	// Newest first.
	for i := len(s.logs) - 1; i >= 0 && len(res) < limit; i-- {
		cp := *s.logs[i]
		res = append(res, &cp)
	}
	return res, nil
}

// Playbook ------------------------------------------------------------------

type memPlaybook InMemory

func (s *memPlaybook) Create(ctx context.Context, a *PlaybookArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	for _, existing := range s.articles {
		if existing.Slug == a.Slug {
			return ErrAlreadyExists
		}
	}
	cp := *a
	s.articles[a.ID] = &cp
	return nil
}

func (s *memPlaybook) List(ctx context.Context, category, pillar string) ([]*PlaybookArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*PlaybookArticle
	for _, a := range s.articles {
		if category != "" && a.Category != category {
			continue
		}
		if pillar != "" && a.Pillar != pillar {
			continue
		}
		cp := *a
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Slug < res[j].Slug })
	return res, nil
}

func (s *memPlaybook) FindBySlug(ctx context.Context, slug string) (*PlaybookArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// OTP -----------------------------------------------------------------------

type memOtps InMemory

func (s *memOtps) Create(ctx context.Context, c *OtpCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.otps[c.ID] = &cp
	return nil
}

func (s *memOtps) LatestForUser(ctx context.Context, userID string) (*OtpCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *OtpCode
	for _, c := range s.otps {
		if c.UserID != userID {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) || (c.CreatedAt.Equal(latest.CreatedAt) && c.ID > latest.ID) {
			latest = c
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memOtps) MarkVerified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.otps[id]
	if !ok {
		return ErrNotFound
	}
	c.Verified = true
	return nil
}

// helpers -------------------------------------------------------------------

func setStr(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setStage(dst *StageStatus, src *StageStatus) {
	if src != nil {
		*dst = *src
	}
}

func defaultStages(m *Matter) {
	if m.Status == "" {
		m.Status = "Active"
	}
	if m.PillarPreSettlement == "" {
		m.PillarPreSettlement = StageNotStarted
	}
	if m.PillarExchange == "" {
		m.PillarExchange = StageNotStarted
	}
	if m.PillarConditions == "" {
		m.PillarConditions = StageNotStarted
	}
	if m.PillarPreCompletion == "" {
		m.PillarPreCompletion = StageNotStarted
	}
	if m.PillarSettlement == "" {
		m.PillarSettlement = StageNotStarted
	}
}

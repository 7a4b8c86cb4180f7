package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"settleline.app/internal/settle"
)

// Store implements settle.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ settle.Store = (*Store)(nil)

// Open connects with tuned pool defaults; adjust under load tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool (used by tests).
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() settle.UserStore                       { return &userStore{db: s.db} }
func (s *Store) Matters() settle.MatterStore                   { return &matterStore{db: s.db} }
func (s *Store) Tasks() settle.TaskStore                       { return &taskStore{db: s.db} }
func (s *Store) Documents() settle.DocumentStore               { return &documentStore{db: s.db} }
func (s *Store) Referrals() settle.ReferralStore               { return &referralStore{db: s.db} }
func (s *Store) Payments() settle.PaymentStore                 { return &paymentStore{db: s.db} }
func (s *Store) Organisations() settle.OrganisationStore       { return &orgStore{db: s.db} }
func (s *Store) Templates() settle.TemplateStore               { return &templateStore{db: s.db} }
func (s *Store) NotificationLogs() settle.NotificationLogStore { return &logStore{db: s.db} }
func (s *Store) Playbook() settle.PlaybookStore                { return &playbookStore{db: s.db} }
func (s *Store) OtpCodes() settle.OtpStore                     { return &otpStore{db: s.db} }

// Ping checks connectivity for the readiness probe.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- helpers ---

// mapErr translates driver errors into domain sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return settle.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return settle.ErrAlreadyExists
	}
	return err
}

// Nullable argument helpers for coalesce-based partial updates. A nil
// pointer binds SQL NULL, which coalesce resolves to the current column
// value.

func strArg(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func stageArg(p *settle.StageStatus) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func intArg(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func int64Arg(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolArg(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func timeArg(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

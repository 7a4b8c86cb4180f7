package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type templateStore struct{ db *sql.DB }

const templateColumns = `id, name, channel, trigger_key, subject, body, active, created_at, updated_at`

func (s *templateStore) Create(ctx context.Context, t *settle.NotificationTemplate) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into notification_templates(id, name, channel, trigger_key, subject, body, active)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, t.ID, t.Name, t.Channel, t.Trigger, t.Subject, t.Body, t.Active)
	return mapErr(err)
}

func (s *templateStore) Find(ctx context.Context, id string) (*settle.NotificationTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+templateColumns+` from notification_templates where id=$1`, id)
	return scanTemplate(row)
}

func (s *templateStore) List(ctx context.Context) ([]*settle.NotificationTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+templateColumns+` from notification_templates order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.NotificationTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *templateStore) FindByTrigger(ctx context.Context, trigger, channel string) (*settle.NotificationTemplate, error) {
	row := s.db.QueryRowContext(ctx, `
		select `+templateColumns+` from notification_templates
		where trigger_key=$1 and channel=$2 and active
		order by updated_at desc limit 1
	`, trigger, channel)
	return scanTemplate(row)
}

func (s *templateStore) Update(ctx context.Context, id string, upd settle.TemplateUpdate) (*settle.NotificationTemplate, error) {
	row := s.db.QueryRowContext(ctx, `
		update notification_templates set
			name        = coalesce($2, name),
			channel     = coalesce($3, channel),
			trigger_key = coalesce($4, trigger_key),
			subject     = coalesce($5, subject),
			body        = coalesce($6, body),
			active      = coalesce($7, active),
			updated_at  = now()
		where id = $1
		returning `+templateColumns,
		id, strArg(upd.Name), strArg(upd.Channel), strArg(upd.Trigger),
		strArg(upd.Subject), strArg(upd.Body), boolArg(upd.Active),
	)
	return scanTemplate(row)
}

func (s *templateStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from notification_templates where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return settle.ErrNotFound
	}
	return nil
}

func scanTemplate(row rowScanner) (*settle.NotificationTemplate, error) {
	var t settle.NotificationTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Channel, &t.Trigger, &t.Subject, &t.Body,
		&t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

type logStore struct{ db *sql.DB }

func (s *logStore) Append(ctx context.Context, l *settle.NotificationLog) error {
	if l.ID == "" {
		l.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into notification_logs(id, template_id, matter_id, recipient_user_id, channel, trigger_key, status, error)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, l.ID, l.TemplateID, l.MatterID, l.RecipientUserID, l.Channel, l.Trigger, l.Status, l.Error)
	return mapErr(err)
}

func (s *logStore) List(ctx context.Context, limit int) ([]*settle.NotificationLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, template_id, matter_id, recipient_user_id, channel, trigger_key, status, error, created_at
		from notification_logs order by created_at desc limit $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.NotificationLog
	for rows.Next() {
		var l settle.NotificationLog
		if err := rows.Scan(&l.ID, &l.TemplateID, &l.MatterID, &l.RecipientUserID,
			&l.Channel, &l.Trigger, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, &l)
	}
	return res, rows.Err()
}

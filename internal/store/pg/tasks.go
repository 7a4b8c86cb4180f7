package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type taskStore struct{ db *sql.DB }

const taskColumns = `id, matter_id, title, status, due_date, category, assignee_user_id, created_at, updated_at`

func (s *taskStore) Create(ctx context.Context, t *settle.Task) error {
	if t.ID == "" {
		t.ID = ids.New()
	}
	if t.Status == "" {
		t.Status = settle.TaskPending
	}
	_, err := s.db.ExecContext(ctx, `
		insert into tasks(id, matter_id, title, status, due_date, category, assignee_user_id)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, t.ID, t.MatterID, t.Title, t.Status, timeArg(t.DueDate), t.Category, t.AssigneeUserID)
	return mapErr(err)
}

func (s *taskStore) Find(ctx context.Context, id string) (*settle.Task, error) {
	row := s.db.QueryRowContext(ctx, `select `+taskColumns+` from tasks where id=$1`, id)
	return scanTask(row)
}

func (s *taskStore) ListByMatter(ctx context.Context, matterID string) ([]*settle.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+taskColumns+` from tasks where matter_id=$1 order by created_at asc`, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (s *taskStore) Update(ctx context.Context, id string, upd settle.TaskUpdate) (*settle.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		update tasks set
			title            = coalesce($2, title),
			status           = coalesce($3, status),
			due_date         = coalesce($4, due_date),
			category         = coalesce($5, category),
			assignee_user_id = coalesce($6, assignee_user_id),
			updated_at       = now()
		where id = $1
		returning `+taskColumns,
		id, strArg(upd.Title), strArg(upd.Status), timeArg(upd.DueDate),
		strArg(upd.Category), strArg(upd.AssigneeUserID),
	)
	return scanTask(row)
}

func scanTask(row rowScanner) (*settle.Task, error) {
	var (
		t   settle.Task
		due sql.NullTime
	)
	err := row.Scan(&t.ID, &t.MatterID, &t.Title, &t.Status, &due, &t.Category,
		&t.AssigneeUserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	t.DueDate = nullTimePtr(due)
	return &t, nil
}

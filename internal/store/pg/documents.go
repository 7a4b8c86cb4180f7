package pg

import (
	"context"
	"database/sql"
	"errors"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type documentStore struct{ db *sql.DB }

const documentColumns = `id, matter_id, name, size_label, uploaded_by_user_id, locked, storage_key, created_at`

func (s *documentStore) Create(ctx context.Context, d *settle.Document) error {
	if d.ID == "" {
		d.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into documents(id, matter_id, name, size_label, uploaded_by_user_id, locked, storage_key)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, d.ID, d.MatterID, d.Name, d.SizeLabel, d.UploadedByUserID, d.Locked, d.StorageKey)
	return mapErr(err)
}

func (s *documentStore) Find(ctx context.Context, id string) (*settle.Document, error) {
	row := s.db.QueryRowContext(ctx, `select `+documentColumns+` from documents where id=$1`, id)
	return scanDocument(row)
}

func (s *documentStore) ListByMatter(ctx context.Context, matterID string) ([]*settle.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+documentColumns+` from documents where matter_id=$1 order by created_at desc`, matterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// Delete checks the lock flag before removing the row. The check and the
// delete run in one statement so a concurrent lock cannot slip between them.
func (s *documentStore) Delete(ctx context.Context, id string) error {
	var locked bool
	err := s.db.QueryRowContext(ctx, `
		with target as (select id, locked from documents where id=$1),
		deleted as (delete from documents where id=$1 and not (select locked from target))
		select locked from target
	`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return settle.ErrNotFound
	}
	if err != nil {
		return err
	}
	if locked {
		return settle.ErrLocked
	}
	return nil
}

func scanDocument(row rowScanner) (*settle.Document, error) {
	var d settle.Document
	err := row.Scan(&d.ID, &d.MatterID, &d.Name, &d.SizeLabel, &d.UploadedByUserID,
		&d.Locked, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

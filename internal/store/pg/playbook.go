package pg

import (
	"context"
	"database/sql"

	"settleline.app/internal/ids"
	"settleline.app/internal/settle"
)

type playbookStore struct{ db *sql.DB }

const playbookColumns = `id, slug, title, category, pillar, summary, body`

func (s *playbookStore) Create(ctx context.Context, a *settle.PlaybookArticle) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into playbook_articles(id, slug, title, category, pillar, summary, body)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, a.ID, a.Slug, a.Title, a.Category, a.Pillar, a.Summary, a.Body)
	return mapErr(err)
}

func (s *playbookStore) List(ctx context.Context, category, pillar string) ([]*settle.PlaybookArticle, error) {
	// Empty filter values match everything.
	rows, err := s.db.QueryContext(ctx, `
		select `+playbookColumns+` from playbook_articles
		where ($1 = '' or category = $1) and ($2 = '' or pillar = $2)
		order by slug asc
	`, category, pillar)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*settle.PlaybookArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *playbookStore) FindBySlug(ctx context.Context, slug string) (*settle.PlaybookArticle, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+playbookColumns+` from playbook_articles where slug=$1`, slug)
	return scanArticle(row)
}

func scanArticle(row rowScanner) (*settle.PlaybookArticle, error) {
	var a settle.PlaybookArticle
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Category, &a.Pillar, &a.Summary, &a.Body)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

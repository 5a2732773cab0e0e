package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aman-CERP/siteindex/internal/content"
)

const webpageColumns = `id, site_id, title, url_segment, body_content, document_type, publish_on, is_deleted, created_on, updated_on`

// SaveWebpage inserts page, or replaces it when page.ID is set.
func (s *Store) SaveWebpage(ctx context.Context, page *content.Webpage) error {
	stamp(&page.CreatedOn, &page.UpdatedOn)
	return s.write(func() error {
		id, err := upsert(ctx, s.db,
			`INSERT INTO webpages (site_id, title, url_segment, body_content, document_type, publish_on, is_deleted, created_on, updated_on)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			`INSERT OR REPLACE INTO webpages (`+webpageColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			page.ID, page.SiteID, page.Title, page.URLSegment, page.BodyContent, page.DocumentType,
			nullTime(page.PublishOn), page.IsDeleted, formatTime(page.CreatedOn), formatTime(page.UpdatedOn))
		if err != nil {
			return fmt.Errorf("failed to save webpage: %w", err)
		}
		page.ID = id
		return nil
	})
}

// DeleteWebpage soft-deletes the page with the given ID.
func (s *Store) DeleteWebpage(ctx context.Context, id int64) error {
	return s.softDelete(ctx, "webpages", id)
}

// GetWebpage returns the page with the given ID, deleted or not.
func (s *Store) GetWebpage(ctx context.Context, id int64) (*content.Webpage, error) {
	var page *content.Webpage
	err := s.read(func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+webpageColumns+` FROM webpages WHERE id = ?`, id)
		p, err := scanWebpage(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("webpage %d: %w", id, ErrNotFound)
		}
		page = p
		return err
	})
	return page, err
}

// ListWebpages returns every page that is not soft-deleted.
// A non-nil site restricts the result to that site.
func (s *Store) ListWebpages(ctx context.Context, site *content.Site) ([]*content.Webpage, error) {
	q := `SELECT ` + webpageColumns + ` FROM webpages WHERE is_deleted = 0`
	var args []any
	if site != nil {
		q += ` AND site_id = ?`
		args = append(args, site.ID)
	}

	var pages []*content.Webpage
	err := s.read(func() error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("failed to list webpages: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanWebpage(rows)
			if err != nil {
				return err
			}
			pages = append(pages, p)
		}
		return rows.Err()
	})
	return pages, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWebpage(row scanner) (*content.Webpage, error) {
	var (
		p                content.Webpage
		publishOn        sql.NullString
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.SiteID, &p.Title, &p.URLSegment, &p.BodyContent, &p.DocumentType,
		&publishOn, &p.IsDeleted, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if p.PublishOn, err = parseNullTime(publishOn); err != nil {
		return nil, err
	}
	if p.CreatedOn, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedOn, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

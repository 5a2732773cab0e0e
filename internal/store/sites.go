package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aman-CERP/siteindex/internal/content"
)

// SaveSite inserts site, or replaces it when site.ID is set.
// A new site gets its ID assigned.
func (s *Store) SaveSite(ctx context.Context, site *content.Site) error {
	return s.write(func() error {
		id, err := upsert(ctx, s.db,
			`INSERT INTO sites (name, base_url) VALUES (?, ?)`,
			`INSERT INTO sites (id, name, base_url) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, base_url = excluded.base_url`,
			site.ID, site.Name, site.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to save site: %w", err)
		}
		site.ID = id
		return nil
	})
}

// GetSite returns the site with the given ID.
func (s *Store) GetSite(ctx context.Context, id int64) (*content.Site, error) {
	var site content.Site
	err := s.read(func() error {
		row := s.db.QueryRowContext(ctx, `SELECT id, name, base_url FROM sites WHERE id = ?`, id)
		if err := row.Scan(&site.ID, &site.Name, &site.BaseURL); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("site %d: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to load site %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &site, nil
}

// ListSites returns every site ordered by ID.
func (s *Store) ListSites(ctx context.Context) ([]content.Site, error) {
	var sites []content.Site
	err := s.read(func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, name, base_url FROM sites ORDER BY id`)
		if err != nil {
			return fmt.Errorf("failed to list sites: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var site content.Site
			if err := rows.Scan(&site.ID, &site.Name, &site.BaseURL); err != nil {
				return err
			}
			sites = append(sites, site)
		}
		return rows.Err()
	})
	return sites, err
}

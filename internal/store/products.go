package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Aman-CERP/siteindex/internal/content"
)

const productColumns = `id, site_id, name, sku, description, price, is_deleted, created_on, updated_on`

// SaveProduct inserts product, or replaces it when product.ID is set.
func (s *Store) SaveProduct(ctx context.Context, product *content.Product) error {
	stamp(&product.CreatedOn, &product.UpdatedOn)
	return s.write(func() error {
		id, err := upsert(ctx, s.db,
			`INSERT INTO products (site_id, name, sku, description, price, is_deleted, created_on, updated_on)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			`INSERT OR REPLACE INTO products (`+productColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			product.ID, product.SiteID, product.Name, product.SKU, product.Description, product.Price,
			product.IsDeleted, formatTime(product.CreatedOn), formatTime(product.UpdatedOn))
		if err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		product.ID = id
		return nil
	})
}

// DeleteProduct soft-deletes the product with the given ID.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.softDelete(ctx, "products", id)
}

// GetProduct returns the product with the given ID, deleted or not.
func (s *Store) GetProduct(ctx context.Context, id int64) (*content.Product, error) {
	var product *content.Product
	err := s.read(func() error {
		row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
		p, err := scanProduct(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		product = p
		return err
	})
	return product, err
}

// ListProducts returns every product that is not soft-deleted.
// A non-nil site restricts the result to that site.
func (s *Store) ListProducts(ctx context.Context, site *content.Site) ([]*content.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE is_deleted = 0`
	var args []any
	if site != nil {
		q += ` AND site_id = ?`
		args = append(args, site.ID)
	}

	var products []*content.Product
	err := s.read(func() error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			products = append(products, p)
		}
		return rows.Err()
	})
	return products, err
}

func scanProduct(row scanner) (*content.Product, error) {
	var (
		p                content.Product
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.SiteID, &p.Name, &p.SKU, &p.Description, &p.Price,
		&p.IsDeleted, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if p.CreatedOn, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedOn, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

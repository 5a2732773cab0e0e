package store

import (
	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/index"
)

// Webpages returns the live-webpage source for index rebuilds.
func (s *Store) Webpages() index.Source[*content.Webpage] {
	return index.SourceFunc[*content.Webpage](s.ListWebpages)
}

// Products returns the live-product source for index rebuilds.
func (s *Store) Products() index.Source[*content.Product] {
	return index.SourceFunc[*content.Product](s.ListProducts)
}

// Users returns the live-user source for index rebuilds.
func (s *Store) Users() index.Source[*content.User] {
	return index.SourceFunc[*content.User](s.ListUsers)
}

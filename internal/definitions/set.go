package definitions

import (
	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/index"
)

// Set is one instance of every definition.
type Set struct {
	Webpages *WebpageDefinition
	Products *ProductDefinition
	Users    *UserDefinition
}

// NewSet creates every definition with the given options.
func NewSet(opts ...index.DefinitionOption) *Set {
	return &Set{
		Webpages: NewWebpageDefinition(opts...),
		Products: NewProductDefinition(opts...),
		Users:    NewUserDefinition(opts...),
	}
}

// Sources supplies the live entities of every content type.
type Sources interface {
	Webpages() index.Source[*content.Webpage]
	Products() index.Source[*content.Product]
	Users() index.Source[*content.User]
}

// Register adds a Manager for every definition in s to svc.
func (s *Set) Register(svc *index.Service, src Sources, opts ...index.ManagerOption) {
	index.Register(svc, index.Definition[*content.Webpage](s.Webpages), src.Webpages(), opts...)
	index.Register(svc, index.Definition[*content.Product](s.Products), src.Products(), opts...)
	index.Register(svc, index.Definition[*content.User](s.Users), src.Users(), opts...)
}

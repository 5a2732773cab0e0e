package definitions

import (
	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/index"
)

// Product document fields.
const (
	FieldName        = "name"
	FieldSKU         = "sku"
	FieldDescription = "description"
	FieldPrice       = "price"
)

// ProductDefinition indexes the product catalogue. SKUs are analysed with
// the identifier analyzer so that fragments like "shirt" match "BlueShirt-XL".
type ProductDefinition struct {
	*index.BaseDefinition[*content.Product]
}

// NewProductDefinition creates the product definition.
func NewProductDefinition(opts ...index.DefinitionOption) *ProductDefinition {
	analyser := index.StandardAnalyser()
	analyser.Custom = map[string]map[string]any{
		index.IdentifierAnalyzerName: index.IdentifierAnalyzerConfig(),
	}
	analyser.Fields = map[string]string{FieldSKU: index.IdentifierAnalyzerName}

	opts = append([]index.DefinitionOption{index.WithAnalyser(analyser)}, opts...)
	return &ProductDefinition{
		BaseDefinition: index.NewBaseDefinition("Products", "products", convertProduct, opts...),
	}
}

func convertProduct(p *content.Product) index.Document {
	return index.NewDocument().
		Set(FieldName, p.Name).
		Set(FieldSKU, p.SKU).
		Set(FieldDescription, p.Description).
		Set(FieldPrice, p.Price).
		Set(FieldSiteID, float64(p.SiteID))
}

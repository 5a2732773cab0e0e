package definitions

import (
	"time"

	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/char/html"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"

	"github.com/Aman-CERP/siteindex/internal/content"
	"github.com/Aman-CERP/siteindex/internal/index"
)

// Webpage document fields.
const (
	FieldTitle        = "title"
	FieldURLSegment   = "url_segment"
	FieldBody         = "body"
	FieldDocumentType = "document_type"
	FieldSiteID       = "site_id"
	FieldPublished    = "published"
	FieldPublishOn    = "publish_on"
)

// HTMLAnalyzerName strips markup before tokenizing page bodies.
const HTMLAnalyzerName = "html_text"

// WebpageDefinition indexes site pages.
type WebpageDefinition struct {
	*index.BaseDefinition[*content.Webpage]
}

// NewWebpageDefinition creates the webpage definition.
func NewWebpageDefinition(opts ...index.DefinitionOption) *WebpageDefinition {
	analyser := index.StandardAnalyser()
	analyser.Custom = map[string]map[string]any{
		HTMLAnalyzerName: {
			"type":          custom.Name,
			"char_filters":  []string{html.Name},
			"tokenizer":     unicode.Name,
			"token_filters": []string{lowercase.Name, en.StopName},
		},
	}
	analyser.Fields = map[string]string{FieldBody: HTMLAnalyzerName}

	opts = append([]index.DefinitionOption{index.WithAnalyser(analyser)}, opts...)
	return &WebpageDefinition{
		BaseDefinition: index.NewBaseDefinition("Webpages", "webpages", convertWebpage, opts...),
	}
}

func convertWebpage(w *content.Webpage) index.Document {
	doc := index.NewDocument().
		Set(FieldTitle, w.Title).
		Set(FieldURLSegment, w.URLSegment).
		Set(FieldBody, w.BodyContent).
		Set(FieldDocumentType, w.DocumentType).
		Set(FieldSiteID, float64(w.SiteID)).
		Set(FieldPublished, w.Published(time.Now()))
	if w.PublishOn != nil {
		doc.Set(FieldPublishOn, w.PublishOn.UTC())
	}
	return doc
}

package index

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// IdentifierTokenizerName splits SKUs, slugs and other identifiers on
	// punctuation, snake_case and camelCase boundaries.
	IdentifierTokenizerName = "identifier_tokenizer"

	// IdentifierAnalyzerName is the analyzer built on the identifier tokenizer.
	IdentifierAnalyzerName = "identifier_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(IdentifierTokenizerName, identifierTokenizerConstructor)
}

// IdentifierAnalyzerConfig is the custom analyzer config for IdentifierAnalyzerName.
func IdentifierAnalyzerConfig() map[string]any {
	return map[string]any{
		"type":          custom.Name,
		"tokenizer":     IdentifierTokenizerName,
		"token_filters": []string{lowercase.Name},
	}
}

// wordRegex matches alphanumeric runs, underscores included for the second split.
var wordRegex = regexp.MustCompile(`[\pL\pN_]+`)

// SplitIdentifier splits an identifier into its parts.
// "BlueShirt_XL" -> ["Blue", "Shirt", "XL"]
func SplitIdentifier(word string) []string {
	var result []string
	for _, part := range strings.Split(word, "_") {
		if part != "" {
			result = append(result, SplitCamelCase(part)...)
		}
	}
	return result
}

// SplitCamelCase splits camelCase and PascalCase identifiers.
// Examples:
//   - "blueShirt" -> ["blue", "Shirt"]
//   - "XLShirt" -> ["XL", "Shirt"]
func SplitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			// Split if previous is lowercase OR next is lowercase (handles acronyms)
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}

func identifierTokenizerConstructor(config map[string]any, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &identifierTokenizer{}, nil
}

// identifierTokenizer emits every identifier whole, followed by its parts
// when it splits into more than one.
type identifierTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *identifierTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	result := make(analysis.TokenStream, 0)
	pos := 1

	for _, loc := range wordRegex.FindAllStringIndex(text, -1) {
		word := text[loc[0]:loc[1]]
		result = append(result, &analysis.Token{
			Term:     []byte(word),
			Start:    loc[0],
			End:      loc[1],
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++

		parts := SplitIdentifier(word)
		if len(parts) < 2 {
			continue
		}
		cursor := 0
		for _, part := range parts {
			start := strings.Index(word[cursor:], part) + cursor
			end := start + len(part)
			result = append(result, &analysis.Token{
				Term:     []byte(part),
				Start:    loc[0] + start,
				End:      loc[0] + end,
				Position: pos,
				Type:     analysis.AlphaNumeric,
			})
			pos++
			cursor = end
		}
	}

	return result
}

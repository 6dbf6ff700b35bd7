package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/protocolos-api/protocolparser/entities"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold lower-cases s and strips diacritics so "CISPLATINA" matches "cisplatína"
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// SuggestProtocols returns up to limit protocol names containing query.
// An empty query yields no suggestions.
func SuggestProtocols(names []string, query string, limit int) []string {
	needle := fold(strings.TrimSpace(query))
	if needle == "" {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	suggestions := make([]string, 0, limit)
	for _, name := range names {
		if strings.Contains(fold(name), needle) {
			suggestions = append(suggestions, name)
			if len(suggestions) == limit {
				break
			}
		}
	}
	return suggestions
}

// SearchCIDs returns up to limit CIDs whose code or meaning contains query.
// Queries shorter than MinCIDQueryLength yield nothing.
func SearchCIDs(cids []entities.CID, query string, limit int) []entities.CID {
	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < MinCIDQueryLength {
		return []entities.CID{}
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	needle := fold(trimmed)
	results := make([]entities.CID, 0, limit)
	for _, cid := range cids {
		if strings.Contains(fold(cid.Code), needle) || strings.Contains(fold(cid.Meaning), needle) {
			results = append(results, cid)
			if len(results) == limit {
				break
			}
		}
	}
	return results
}

// Package categorizer maps transaction free text to the fixed line-item
// taxonomy through a declarative keyword table.
package categorizer

import (
	"strings"

	"github.com/schollz/closestmatch"

	"github.com/dvloznov/agrofin/internal/domain"
)

// Uncategorized is assigned when no rule matches. The report builders treat
// it like any other unknown category: it never reaches a DRE row.
const Uncategorized = "NÃO CLASSIFICADO"

// Categorizer applies a keyword rule table to transaction descriptions.
// The zero value is not usable; construct with New or NewWithRules.
type Categorizer struct {
	rules []Rule

	// keyword → category, for fuzzy suggestions
	byKeyword map[string]string
	fuzzy     *closestmatch.ClosestMatch
}

// New creates a categorizer with the built-in Brazilian rule table.
func New() *Categorizer {
	return NewWithRules(DefaultRules())
}

// NewWithRules creates a categorizer from an explicit rule table, normally
// loaded from a YAML override file.
func NewWithRules(rules []Rule) *Categorizer {
	byKeyword := make(map[string]string)
	keywords := make([]string, 0, len(rules)*8)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			norm := Normalize(kw)
			byKeyword[norm] = r.Category
			keywords = append(keywords, norm)
		}
	}

	return &Categorizer{
		rules:     rules,
		byKeyword: byKeyword,
		fuzzy:     closestmatch.New(keywords, []int{2, 3}),
	}
}

// Categorize returns the category whose keyword list matches the
// description, or ("", false) when nothing matches. The first rule whose
// keyword occurs as a substring of the normalized description wins, in table
// order.
func (c *Categorizer) Categorize(description string) (string, bool) {
	norm := Normalize(description)
	if norm == "" {
		return "", false
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(norm, Normalize(kw)) {
				return r.Category, true
			}
		}
	}
	return "", false
}

// Suggest returns the category of the keyword closest to the description.
// It is advisory only: callers surface it to the user, they never apply it
// silently.
func (c *Categorizer) Suggest(description string) string {
	norm := Normalize(description)
	if norm == "" {
		return ""
	}
	closest := c.fuzzy.Closest(norm)
	if closest == "" {
		return ""
	}
	return c.byKeyword[closest]
}

// Apply categorizes every transaction that does not already carry a
// category. Unmatched transactions receive Uncategorized and are counted in
// the returned total so callers can warn about them.
func (c *Categorizer) Apply(txs []domain.Transaction) (out []domain.Transaction, unmatched int) {
	out = make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		if tx.Category == "" {
			if cat, ok := c.Categorize(tx.Description); ok {
				tx.Category = cat
			} else {
				tx.Category = Uncategorized
				unmatched++
			}
		}
		out[i] = tx
	}
	return out, unmatched
}

// accentReplacer folds the accented characters that occur in Brazilian bank
// descriptions, so keyword tables can be written without diacritics.
var accentReplacer = strings.NewReplacer(
	"Á", "A", "À", "A", "Â", "A", "Ã", "A",
	"É", "E", "Ê", "E",
	"Í", "I",
	"Ó", "O", "Ô", "O", "Õ", "O",
	"Ú", "U", "Ü", "U",
	"Ç", "C",
)

// Normalize uppercases, trims and strips accents from a label for
// comparison. The same normalization is used by the report builders when
// matching categories against line items.
func Normalize(s string) string {
	return accentReplacer.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

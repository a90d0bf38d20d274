package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/impexo/storefront/pkg/errors"
)

// Kind is a canonical attribute kind the storefront understands. Upstream
// attribute names vary by locale and merchant habit; the Mapper owns the
// translation.
type Kind string

const (
	KindModel     Kind = "model"
	KindColor     Kind = "color"
	KindMaterial  Kind = "material"
	KindReference Kind = "reference"
)

// defaultPatterns are the accepted upstream attribute names per kind,
// covering the French catalog's accented spellings.
var defaultPatterns = map[Kind][]string{
	KindModel:     {`mod`, `mod[eè]le`, `iphone`},
	KindColor:     {`couleur`, `color`},
	KindMaterial:  {`mat[ée]riau`, `material`},
	KindReference: {`r[eé]f[eé]rence`, `reference`},
}

// Mapper resolves upstream attribute names to canonical kinds. The pattern
// table is compiled and validated once, at catalog-sync time, so a bad
// pattern fails construction instead of surfacing per lookup.
type Mapper struct {
	matchers map[Kind]*regexp.Regexp
}

// NewMapper compiles the default pattern table.
func NewMapper() (*Mapper, error) {
	return NewMapperWithPatterns(defaultPatterns)
}

// NewMapperWithPatterns compiles a custom pattern table. Every kind must
// carry at least one pattern and every pattern must compile.
func NewMapperWithPatterns(patterns map[Kind][]string) (*Mapper, error) {
	if len(patterns) == 0 {
		return nil, apperrors.Configuration("attribute patterns")
	}

	matchers := make(map[Kind]*regexp.Regexp, len(patterns))
	for kind, pats := range patterns {
		if len(pats) == 0 {
			return nil, apperrors.Wrap(apperrors.ErrConfiguration,
				fmt.Sprintf("attribute kind %q has no patterns", kind))
		}
		rx, err := regexp.Compile(`(?i)(` + strings.Join(pats, `|`) + `)`)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrConfiguration,
				fmt.Sprintf("attribute kind %q pattern: %v", kind, err))
		}
		matchers[kind] = rx
	}
	return &Mapper{matchers: matchers}, nil
}

// Matches reports whether an upstream attribute name belongs to the kind.
func (m *Mapper) Matches(kind Kind, name string) bool {
	rx, ok := m.matchers[kind]
	return ok && rx.MatchString(name)
}

// FindAttribute returns the product's attribute of the given kind, skipping
// attributes with no option values. Returns nil when absent.
func (m *Mapper) FindAttribute(p *Product, kind Kind) *Attribute {
	if p == nil {
		return nil
	}
	for i := range p.Attributes {
		a := &p.Attributes[i]
		if m.Matches(kind, a.Name) && len(a.Options) > 0 {
			return a
		}
	}
	return nil
}

// Options returns the option values of the given kind on a product, with
// blanks dropped.
func (m *Mapper) Options(p *Product, kind Kind) []string {
	attr := m.FindAttribute(p, kind)
	if attr == nil {
		return nil
	}
	out := make([]string, 0, len(attr.Options))
	for _, o := range attr.Options {
		if strings.TrimSpace(o) != "" {
			out = append(out, o)
		}
	}
	return out
}

// CollectOptions gathers the distinct option values of a kind across
// products, trimmed and sorted.
func (m *Mapper) CollectOptions(products []Product, kind Kind) []string {
	seen := make(map[string]struct{})
	for i := range products {
		for _, o := range m.Options(&products[i], kind) {
			seen[strings.TrimSpace(o)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for o := range seen {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// Selection is the option set a shopper picked. Empty fields are wildcards.
type Selection struct {
	Model     string
	Color     string
	Reference string
}

// MatchVariation returns the first variation whose attributes satisfy every
// non-empty field of the selection. Values compare case-insensitively with
// accents stripped, so "Marron Foncé" matches "marron fonce". Returns nil
// when nothing matches.
func (m *Mapper) MatchVariation(variations []Variation, sel Selection) *Variation {
	selModel := normalizeValue(sel.Model)
	selColor := normalizeValue(sel.Color)
	selRef := normalizeValue(sel.Reference)

	for i := range variations {
		v := &variations[i]
		if selModel != "" && !m.hasOption(v, KindModel, selModel) {
			continue
		}
		if selColor != "" && !m.hasOption(v, KindColor, selColor) {
			continue
		}
		if selRef != "" && !m.hasOption(v, KindReference, selRef) {
			continue
		}
		return v
	}
	return nil
}

func (m *Mapper) hasOption(v *Variation, kind Kind, normalized string) bool {
	for _, a := range v.Attributes {
		if m.Matches(kind, a.Name) && normalizeValue(a.Option) == normalized {
			return true
		}
	}
	return false
}

// accentReplacer folds the accented characters the catalog actually uses.
var accentReplacer = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ç", "c",
	"œ", "oe", "æ", "ae",
)

func normalizeValue(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

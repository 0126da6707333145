package interpreter

import (
	"strings"
)

// IgnoredChars is the punctuation stripped from both ends of every token
// before keyword and subcategory matching.
const IgnoredChars = "?=)(/&%¤#\"!,.-;:_^*`´><|"

// MatcherConfig describes the keyword tables of one feature
type MatcherConfig struct {
	Category      CommandCategory
	Keywords      []string
	Subcategories map[string]CommandSubcategory
	// IgnoredChars maps a rune to its replacement. It is applied to tokens
	// before category matching only.
	IgnoredChars map[rune]string
}

// Matcher decides whether a message belongs to a feature and which of the
// feature's actions it asks for.
type Matcher struct {
	category      CommandCategory
	keywords      map[string]struct{}
	subcategories map[string]CommandSubcategory
	replacer      *strings.Replacer
}

// NewMatcher validates cfg and builds a matcher
func NewMatcher(cfg MatcherConfig) (*Matcher, error) {
	if !cfg.Category.Valid() || cfg.Category == CategoryUnidentified {
		return nil, configErrorf("matcher", "category must be a registered feature category, got %s", cfg.Category)
	}
	if len(cfg.Keywords) == 0 {
		return nil, configErrorf("matcher", "%s: keywords must not be empty", cfg.Category)
	}

	keywords := make(map[string]struct{}, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		if kw == "" {
			return nil, configErrorf("matcher", "%s: empty keyword", cfg.Category)
		}
		keywords[kw] = struct{}{}
	}

	subcategories := make(map[string]CommandSubcategory, len(cfg.Subcategories))
	for word, sub := range cfg.Subcategories {
		if !sub.Valid() || sub == SubcategoryUnidentified {
			return nil, configErrorf("matcher", "%s: %q maps to illegal subcategory %d", cfg.Category, word, int(sub))
		}
		subcategories[word] = sub
	}

	replacer, err := buildReplacer(cfg.Category, cfg.IgnoredChars)
	if err != nil {
		return nil, err
	}

	return &Matcher{
		category:      cfg.Category,
		keywords:      keywords,
		subcategories: subcategories,
		replacer:      replacer,
	}, nil
}

// IgnoreAll returns a substitution table that removes every given rune
func IgnoreAll(chars ...rune) map[rune]string {
	table := make(map[rune]string, len(chars))
	for _, c := range chars {
		table[c] = ""
	}
	return table
}

func buildReplacer(category CommandCategory, table map[rune]string) (*strings.Replacer, error) {
	if len(table) == 0 {
		return nil, nil
	}
	// Replacements must be disjoint so that the table order is insignificant.
	pairs := make([]string, 0, 2*len(table))
	for from, to := range table {
		for other := range table {
			if strings.ContainsRune(to, other) {
				return nil, configErrorf("matcher", "%s: replacement for %q contains substituted rune %q", category, from, other)
			}
		}
		pairs = append(pairs, string(from), to)
	}
	return strings.NewReplacer(pairs...), nil
}

// Category returns the category this matcher reports
func (m *Matcher) Category() CommandCategory {
	return m.category
}

// Keywords returns a copy of the keyword set
func (m *Matcher) Keywords() []string {
	out := make([]string, 0, len(m.keywords))
	for kw := range m.keywords {
		out = append(out, kw)
	}
	return out
}

// Subcategories returns the distinct subcategories the matcher can produce
func (m *Matcher) Subcategories() []CommandSubcategory {
	seen := make(map[CommandSubcategory]struct{})
	var out []CommandSubcategory
	for _, sub := range m.subcategories {
		if _, ok := seen[sub]; ok {
			continue
		}
		seen[sub] = struct{}{}
		out = append(out, sub)
	}
	return out
}

// MatchCategory applies the substitution table, strips punctuation and
// returns the category on the first token that is a keyword.
func (m *Matcher) MatchCategory(tokens []string) (CommandCategory, bool) {
	for _, word := range tokens {
		if m.replacer != nil {
			word = m.replacer.Replace(word)
		}
		if _, ok := m.keywords[strings.Trim(word, IgnoredChars)]; ok {
			return m.category, true
		}
	}
	return CategoryUnidentified, false
}

// MatchSubcategory strips punctuation and returns the subcategory of the
// first token found in the table. The substitution table is not applied.
func (m *Matcher) MatchSubcategory(tokens []string) CommandSubcategory {
	for _, word := range tokens {
		if sub, ok := m.subcategories[strings.Trim(word, IgnoredChars)]; ok {
			return sub
		}
	}
	return SubcategoryUnidentified
}

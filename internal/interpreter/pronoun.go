package interpreter

import "strings"

// PronounClassifier maps message tokens to grammatical pronoun tags using
// fixed Swedish word tables.
type PronounClassifier struct {
	tables map[PronounTag]map[string]struct{}
}

var pronounWords = map[PronounTag][]string{
	PronounInterrogative: {
		"vad", "vem",
		"hur", "varför",
		"vilken", "vilket",
		"hurdan", "hurudan",
		"undrar", "när",
	},
	PronounPersonal: {
		"jag", "vi",
		"du", "ni",
		"han", "hon",
		"den", "de",
		"dem",
	},
	PronounPossessive: {
		"mitt", "mina",
		"min", "vårt",
		"vår", "våra",
		"din", "ditt",
		"dina", "ert",
		"er", "era",
		"sin", "sitt",
		"sina",
	},
}

// NewPronounClassifier creates a classifier with the built-in tables
func NewPronounClassifier() *PronounClassifier {
	tables := make(map[PronounTag]map[string]struct{}, len(pronounWords))
	for tag, words := range pronounWords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		tables[tag] = set
	}
	return &PronounClassifier{tables: tables}
}

// Lookup returns the sorted set of pronoun tags found in tokens, or
// {UNIDENTIFIED} if there are none. A token containing '?' counts as
// interrogative.
func (c *PronounClassifier) Lookup(tokens []string) PronounSet {
	var found []PronounTag

	for _, word := range tokens {
		for tag, table := range c.tables {
			if _, ok := table[word]; ok {
				found = append(found, tag)
			}
		}
		if strings.Contains(word, "?") {
			found = append(found, PronounInterrogative)
		}
	}

	if len(found) == 0 {
		return PronounSet{PronounUnidentified}
	}
	return NewPronounSet(found...)
}

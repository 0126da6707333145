package interpreter

import "math/rand"

// Phrases are the fixed replies used when no feature produces a response
type Phrases struct {
	NoImplementation string
	NoSubcategory    []string
	NoResponse       []string
	InternalError    string
}

// DefaultPhrases returns the built-in Swedish replies
func DefaultPhrases() Phrases {
	return Phrases{
		NoImplementation: "Det har mina utvecklare inte lagt in något svar för än :sad:",
		NoSubcategory: []string{
			"Jag förstod nästan vad du menade, kan du uttrycka dig annorlunda?",
			"Hmm, jag har det på tungan. Kan du kontrollera stavningen?",
			"Nja... kan inte riktigt förstå vad du menar, säg igen?",
		},
		NoResponse: []string{
			"Jag har inget bra svar på det.",
			"Hm, vet inte vad du menar riktigt?",
			"Jag vet inte?",
			"?",
			"Vad menas? :thinking:",
		},
		InternalError: "CommandProcessor: Internal error",
	}
}

// withDefaults fills empty fields from DefaultPhrases
func (p Phrases) withDefaults() Phrases {
	d := DefaultPhrases()
	if p.NoImplementation == "" {
		p.NoImplementation = d.NoImplementation
	}
	if len(p.NoSubcategory) == 0 {
		p.NoSubcategory = d.NoSubcategory
	}
	if len(p.NoResponse) == 0 {
		p.NoResponse = d.NoResponse
	}
	if p.InternalError == "" {
		p.InternalError = d.InternalError
	}
	return p
}

// RandomSource picks phrase indices. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// globalRand delegates to the package level generator, which is safe for
// concurrent use
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// choice returns an action that picks a phrase at call time
func choice(src RandomSource, phrases []string) Invocable {
	return ImmediateInvocable(func() (string, error) {
		return phrases[src.Intn(len(phrases))], nil
	})
}

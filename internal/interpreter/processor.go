// Package interpreter classifies chat messages by pronoun and keyword and
// resolves exactly one response per message from the registered features.
package interpreter

import (
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/msto63/robbot/pkg/core/logging"
)

// registry is an immutable snapshot of the registered features
type registry struct {
	features []Feature
	pronouns []PronounSet // cached MappedPronouns, aligned with features
}

// Processor matches messages against registered features and returns an
// Interpretation for each of them.
type Processor struct {
	classifier *PronounClassifier
	phrases    Phrases
	random     RandomSource
	logger     *logging.Logger

	registry atomic.Pointer[registry]
}

// Config holds processor configuration
type Config struct {
	Classifier *PronounClassifier
	Phrases    Phrases
	Random     RandomSource
	Logger     *logging.Logger
}

// DefaultConfig returns default processor configuration
func DefaultConfig() *Config {
	return &Config{
		Classifier: NewPronounClassifier(),
		Phrases:    DefaultPhrases(),
		Random:     globalRand{},
	}
}

// NewProcessor creates a new processor without features
func NewProcessor(cfg *Config) *Processor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Processor{
		classifier: cfg.Classifier,
		phrases:    cfg.Phrases.withDefaults(),
		random:     cfg.Random,
		logger:     cfg.Logger,
	}
	if p.classifier == nil {
		p.classifier = NewPronounClassifier()
	}
	if p.random == nil {
		p.random = globalRand{}
	}
	if p.logger == nil {
		p.logger = logging.New("interpreter")
	}
	p.registry.Store(&registry{})
	return p
}

// SetFeatures replaces the registered features. Registration order is the
// order candidates are tried in. The pronoun cache is rebuilt in full.
func (p *Processor) SetFeatures(features ...Feature) error {
	reg := &registry{
		features: make([]Feature, 0, len(features)),
		pronouns: make([]PronounSet, 0, len(features)),
	}
	seen := make(map[CommandCategory]struct{}, len(features))

	for i, f := range features {
		if f == nil {
			return configErrorf("processor", "feature %d is nil", i)
		}
		cat := f.Category()
		if _, dup := seen[cat]; dup {
			return configErrorf("processor", "category %s registered twice", cat)
		}
		seen[cat] = struct{}{}

		reg.features = append(reg.features, f)
		reg.pronouns = append(reg.pronouns, f.MappedPronouns())
	}

	p.registry.Store(reg)
	p.logger.Info("Features registered", "count", len(reg.features))
	return nil
}

// Features returns the registered features in registration order
func (p *Processor) Features() []Feature {
	reg := p.registry.Load()
	out := make([]Feature, len(reg.features))
	copy(out, reg.features)
	return out
}

// Process tokenizes msg, stores the tokens on it and resolves a response.
// It never panics; every failure is reported through the Interpretation.
func (p *Processor) Process(msg *Message) (result *Interpretation) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			p.logger.Error("Panic recovered while processing message", "panic", r, "stack", string(stack))
			result = &Interpretation{
				category:       CategoryUnidentified,
				subcategory:    SubcategoryUnidentified,
				message:        msg,
				response:       constant(p.phrases.InternalError),
				err:            &InternalError{Cause: panicError(r), Stack: stack},
				internalPhrase: p.phrases.InternalError,
			}
		}
		p.logger.Debug("Message interpreted",
			"category", result.category.String(),
			"subcategory", result.subcategory.String(),
			"duration", time.Since(start))
	}()

	msg.Tokens = Tokenize(msg.Content)
	return p.interpret(msg)
}

// interpret runs classification, candidate filtering and dispatch
func (p *Processor) interpret(msg *Message) *Interpretation {
	reg := p.registry.Load()
	pronouns := p.classifier.Lookup(msg.Tokens)

	base := Interpretation{
		pronouns:       pronouns,
		category:       CategoryUnidentified,
		subcategory:    SubcategoryUnidentified,
		message:        msg,
		internalPhrase: p.phrases.InternalError,
	}

	var candidates []Feature
	for i, f := range reg.features {
		if !reg.pronouns[i].Intersects(pronouns) {
			continue
		}
		if _, ok := f.MatchCategory(msg.Tokens); ok {
			candidates = append(candidates, f)
		}
	}

	if len(candidates) == 0 {
		res := base
		res.response = choice(p.random, p.phrases.NoResponse)
		return &res
	}

	for _, f := range candidates {
		sub := f.MatchSubcategory(msg.Tokens)
		invocable, err := f.Invoke(msg)

		if err != nil {
			res := base
			res.category = f.Category()
			res.subcategory = sub
			if _, ok := err.(*NotImplementedError); ok {
				p.logger.Warn("Feature has no action for subcategory",
					"category", f.Category().String(),
					"subcategory", sub.String())
				res.response = constant(p.phrases.NoImplementation)
				res.err = err
				return &res
			}
			res.response = constant(p.phrases.InternalError)
			res.err = &InternalError{Cause: err, Stack: debug.Stack()}
			return &res
		}

		if invocable.IsZero() {
			continue
		}

		res := base
		res.category = f.Category()
		res.subcategory = sub
		res.response = invocable
		return &res
	}

	res := base
	res.category = candidates[len(candidates)-1].Category()
	res.response = choice(p.random, p.phrases.NoSubcategory)
	return &res
}

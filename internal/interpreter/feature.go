package interpreter

// Action is a callable mapped to a subcategory. It is either Immediate or
// Interactive.
type Action interface {
	isAction()
}

// Immediate is an action that needs no message context
type Immediate func() (string, error)

func (Immediate) isAction() {}

// Interactive is an action that needs the originating message. It is never
// run during matching; Invoke hands it back as a deferred thunk.
type Interactive func(msg *Message) (string, error)

func (Interactive) isAction() {}

// InvocationKind tells the caller how a response was produced
type InvocationKind int

const (
	InvocationNone InvocationKind = iota
	InvocationImmediate
	InvocationDeferred
)

// String returns the string representation of the kind
func (k InvocationKind) String() string {
	switch k {
	case InvocationImmediate:
		return "immediate"
	case InvocationDeferred:
		return "deferred"
	default:
		return "none"
	}
}

// Invocable is the resolved response of a message. The zero value means
// there is no response.
type Invocable struct {
	kind InvocationKind
	fn   func() (string, error)
}

// ImmediateInvocable wraps a zero-argument action
func ImmediateInvocable(fn func() (string, error)) Invocable {
	return Invocable{kind: InvocationImmediate, fn: fn}
}

// DeferredInvocable wraps a thunk that has the message bound
func DeferredInvocable(fn func() (string, error)) Invocable {
	return Invocable{kind: InvocationDeferred, fn: fn}
}

// constant returns an immediate invocable producing a fixed text
func constant(text string) Invocable {
	return ImmediateInvocable(func() (string, error) { return text, nil })
}

// Kind returns how the invocable was produced
func (i Invocable) Kind() InvocationKind {
	return i.kind
}

// IsZero reports whether there is nothing to invoke
func (i Invocable) IsZero() bool {
	return i.fn == nil
}

// Invoke runs the response. An empty string means nothing should be sent.
func (i Invocable) Invoke() (string, error) {
	if i.fn == nil {
		return "", nil
	}
	return i.fn()
}

// Feature is a pluggable handler bundling a matcher and its actions
type Feature interface {
	// Category identifies the feature; unique per registry
	Category() CommandCategory
	// MappedPronouns is the set of pronoun tags the feature handles; it
	// always includes PronounUnidentified
	MappedPronouns() PronounSet
	MatchCategory(tokens []string) (CommandCategory, bool)
	MatchSubcategory(tokens []string) CommandSubcategory
	// Invoke resolves the response for msg without running it. A zero
	// Invocable with a nil error means the feature declines the message.
	Invoke(msg *Message) (Invocable, error)
}

// FeatureConfig describes a feature built on BaseFeature
type FeatureConfig struct {
	Matcher        MatcherConfig
	Commands       map[CommandSubcategory]Action
	MappedPronouns []PronounTag
}

// BaseFeature implements Feature on top of a Matcher and an action table.
// Concrete features embed it and supply their own actions.
type BaseFeature struct {
	matcher  *Matcher
	commands map[CommandSubcategory]Action
	pronouns PronounSet
}

// NewFeature validates cfg and builds a feature
func NewFeature(cfg FeatureConfig) (*BaseFeature, error) {
	matcher, err := NewMatcher(cfg.Matcher)
	if err != nil {
		return nil, err
	}

	commands := make(map[CommandSubcategory]Action, len(cfg.Commands))
	for sub, action := range cfg.Commands {
		if !sub.Valid() || sub == SubcategoryUnidentified {
			return nil, configErrorf("feature", "%s: command key %d is not a subcategory", matcher.Category(), int(sub))
		}
		if isNilAction(action) {
			return nil, configErrorf("feature", "%s: action for %s is nil", matcher.Category(), sub)
		}
		commands[sub] = action
	}

	pronouns := append([]PronounTag{PronounUnidentified}, cfg.MappedPronouns...)

	return &BaseFeature{
		matcher:  matcher,
		commands: commands,
		pronouns: NewPronounSet(pronouns...),
	}, nil
}

func isNilAction(a Action) bool {
	switch fn := a.(type) {
	case Immediate:
		return fn == nil
	case Interactive:
		return fn == nil
	default:
		return true
	}
}

// Category returns the feature category
func (f *BaseFeature) Category() CommandCategory {
	return f.matcher.Category()
}

// MappedPronouns returns the pronoun tags the feature handles
func (f *BaseFeature) MappedPronouns() PronounSet {
	return f.pronouns
}

// Matcher returns the feature matcher
func (f *BaseFeature) Matcher() *Matcher {
	return f.matcher
}

// MatchCategory delegates to the matcher
func (f *BaseFeature) MatchCategory(tokens []string) (CommandCategory, bool) {
	return f.matcher.MatchCategory(tokens)
}

// MatchSubcategory delegates to the matcher
func (f *BaseFeature) MatchSubcategory(tokens []string) CommandSubcategory {
	return f.matcher.MatchSubcategory(tokens)
}

// Invoke resolves the action for msg
func (f *BaseFeature) Invoke(msg *Message) (Invocable, error) {
	sub := f.matcher.MatchSubcategory(msg.Tokens)
	if sub == SubcategoryUnidentified {
		return Invocable{}, nil
	}

	action, ok := f.commands[sub]
	if !ok {
		return Invocable{}, &NotImplementedError{Category: f.Category(), Subcategory: sub}
	}

	switch fn := action.(type) {
	case Interactive:
		return DeferredInvocable(func() (string, error) { return fn(msg) }), nil
	case Immediate:
		return ImmediateInvocable(fn), nil
	default:
		return Invocable{}, &NotImplementedError{Category: f.Category(), Subcategory: sub}
	}
}

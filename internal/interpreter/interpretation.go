package interpreter

import (
	"runtime/debug"
)

// Interpretation is the immutable result of processing one message
type Interpretation struct {
	pronouns    PronounSet
	category    CommandCategory
	subcategory CommandSubcategory
	message     *Message
	response    Invocable
	err         error

	// internalPhrase is used by Respond when the response fails
	internalPhrase string
}

// Pronouns returns the pronoun tags found in the message
func (i *Interpretation) Pronouns() PronounSet { return i.pronouns }

// Category returns the matched feature category
func (i *Interpretation) Category() CommandCategory { return i.category }

// Subcategory returns the matched action subcategory
func (i *Interpretation) Subcategory() CommandSubcategory { return i.subcategory }

// Message returns the original message
func (i *Interpretation) Message() *Message { return i.message }

// Response returns the resolved response
func (i *Interpretation) Response() Invocable { return i.response }

// HasResponse reports whether a response is present
func (i *Interpretation) HasResponse() bool { return !i.response.IsZero() }

// Err returns the error caught while interpreting, if any
func (i *Interpretation) Err() error { return i.err }

// Respond runs the response and returns the text to send. Failures inside
// the action are isolated and reported as an InternalError together with the
// internal error phrase.
func (i *Interpretation) Respond() (text string, err error) {
	if !i.HasResponse() {
		return "", nil
	}

	defer func() {
		if r := recover(); r != nil {
			text = i.internalPhrase
			err = &InternalError{Cause: panicError(r), Stack: debug.Stack()}
		}
	}()

	text, err = i.response.Invoke()
	if err != nil {
		return i.internalPhrase, &InternalError{Cause: err, Stack: debug.Stack()}
	}
	return text, nil
}

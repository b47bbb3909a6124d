// Package apperror defines the error taxonomy shared by services and
// handlers. Services return *Error values (usually package-level sentinels);
// the HTTP layer maps the Kind to a status code. Anything that is not an
// *Error is treated as an internal failure.
package apperror

// Kind classifies an error for the transport layer.
type Kind int

const (
	// KindValidation covers bad or missing input.
	KindValidation Kind = iota + 1
	// KindAuthentication covers missing, invalid or expired credentials.
	KindAuthentication
	// KindAuthorization covers role or ownership mismatches.
	KindAuthorization
	// KindNotFound covers scoped lookup misses. Used in preference to
	// KindAuthorization for resources outside the actor's scope, so a
	// denial does not confirm the resource exists.
	KindNotFound
	// KindConflict covers uniqueness violations such as a duplicate email.
	KindConflict
)

// Error is a classified, caller-visible error. The message is safe to
// return to the client verbatim.
type Error struct {
	kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Kind reports the error class.
func (e *Error) Kind() Kind { return e.kind }

// New builds an Error with an explicit kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Validation builds a bad-input error.
func Validation(msg string) *Error { return New(KindValidation, msg) }

// Authentication builds a credential error.
func Authentication(msg string) *Error { return New(KindAuthentication, msg) }

// Authorization builds a permission error.
func Authorization(msg string) *Error { return New(KindAuthorization, msg) }

// NotFound builds a scoped-miss error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Conflict builds a uniqueness error.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

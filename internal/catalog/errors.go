package catalog

import "errors"

// Kind classifies a catalog failure.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	}
	return "unexpected"
}

// Messages returned to callers.
const (
	MsgRequired     = "name, price & email required"
	MsgInvalidID    = "invalid product id"
	MsgNotFound     = "Product Not Found"
	MsgUnauthorized = "Unauthorized — You cannot delete this!"
	MsgUnexpected   = "Internal Server Error"
)

// Error is the error type every Service method returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is; they match any Error of the same Kind.
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUnauthorized = &Error{Kind: KindAuthorization}
	ErrUnexpected   = &Error{Kind: KindUnexpected}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf reports the Kind of err, KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return MsgUnexpected
}

func validationError(msg string, err error) error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

func notFound() error {
	return &Error{Kind: KindNotFound, Message: MsgNotFound}
}

func unexpected(err error) error {
	return &Error{Kind: KindUnexpected, Message: MsgUnexpected, Err: err}
}

package model

import "github.com/pkg/errors"

// EncodingError reports a malformed expression caught at model-construction
// time (expanded spec §7: "reported eagerly at model-construction time,
// never during search"). The offending Identifier is carried alongside the
// message so a caller building atoms in bulk can point at the one that
// failed without re-deriving it from the error text.
type EncodingError struct {
	Subject Identifier
	err     error
}

// NewEncodingError wraps msg as an EncodingError attributed to subject,
// using github.com/pkg/errors (the ambient error-wrapping library this
// module uses elsewhere, e.g. portfolio.Run); Unwrap lets callers
// errors.Is/errors.As through it.
func NewEncodingError(subject Identifier, msg string) *EncodingError {
	return &EncodingError{Subject: subject, err: errors.New(msg)}
}

func (e *EncodingError) Error() string {
	return string(e.Subject) + ": " + e.err.Error()
}

func (e *EncodingError) Unwrap() error { return e.err }

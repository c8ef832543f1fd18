package errors

import stderrors "errors"

// Error is a rejection or failure carrying a stable code. Message is for logs;
// players see the catalog text resolved from Code and Metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so sentinel values built with New
// work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns an error with code and log message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata returns an error whose metadata fills the catalog template.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap attaches code to cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func find(err error) (*Error, bool) {
	var coded *Error
	if err == nil || !stderrors.As(err, &coded) {
		return nil, false
	}
	return coded, true
}

// GetCode returns the code of the outermost *Error in err's chain. A nil error
// has no code; any other error without one is CodeUnknown.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}
	if coded, ok := find(err); ok {
		return coded.Code
	}
	return CodeUnknown
}

// GetMetadata returns the metadata of the outermost *Error in err's chain.
func GetMetadata(err error) map[string]string {
	if coded, ok := find(err); ok {
		return coded.Metadata
	}
	return nil
}

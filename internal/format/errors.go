package format

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the codecs. Use [errors.Is] to check them.
var (
	// ErrVersion indicates the first line is not the supported version tag.
	ErrVersion = errors.New("unsupported version")

	// ErrMalformed indicates a line or token that does not follow the grammar.
	ErrMalformed = errors.New("malformed")

	// ErrCorrupt indicates a snapshot or YAML document that cannot be decoded.
	ErrCorrupt = errors.New("corrupt document")
)

// ParseError reports the line a text decode failed on.
//
// The underlying cause appears first, followed by the location:
//
//	fret out of range (must be 0-24): 25 (line 4: "m1b2 s1f25")
//
// Use [errors.As] to extract the line number and [errors.Is] to check the
// cause ([ErrVersion], [ErrMalformed], or one of the tab range errors).
type ParseError struct {
	// Line is the 1-based line number in the input.
	Line int

	// Text is the offending line without its trailing newline.
	Text string

	// Err is the underlying cause.
	Err error
}

// Error formats as "<cause> (line N: "<text>")".
func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	return fmt.Sprintf("%v (line %d: %q)", e.Err, e.Line, e.Text)
}

// Unwrap returns the underlying error for use with [errors.Is] and [errors.As].
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

package feed

import "fmt"

// ParseError reports a feed body that could not be parsed.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse feed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to parse feed: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

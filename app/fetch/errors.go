package fetch

import (
	"fmt"
	"net/http"
)

// Error reports a failed request: a transport failure when Err is set,
// otherwise an unexpected HTTP status.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: HTTP error: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *Error) Unwrap() error {
	return e.Err
}

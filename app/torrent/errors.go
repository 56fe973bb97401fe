package torrent

import "fmt"

// ResolutionError reports a failed hash resolution. The failure has already
// been cached as a sentinel when it is returned.
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

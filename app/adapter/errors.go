package adapter

import "fmt"

// ExtractionError reports a feed item missing a field its rule set needs.
type ExtractionError struct {
	Adapter Kind
	Index   int
	Field   string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s adapter: item %d: field %s: %v", e.Adapter, e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("%s adapter: item %d: field %s not found", e.Adapter, e.Index, e.Field)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// fieldError is raised by extraction rules; the item loop adds the adapter
// and index.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("field %s: %v", e.field, e.err)
	}
	return fmt.Sprintf("field %s not found", e.field)
}

func missing(field string) error {
	return &fieldError{field: field}
}

func invalid(field string, err error) error {
	return &fieldError{field: field, err: err}
}

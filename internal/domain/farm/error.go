package farm

import "errors"

var (
	ErrNotFound           = errors.New("farm not found")
	ErrInvalidInput       = errors.New("invalid farm input")
	ErrMobileIDTaken      = errors.New("mobile id already in use")
	ErrSuggestionNotFound = errors.New("inspection suggestion not found")
	ErrSectionNotFound    = errors.New("boundary point not found")
)

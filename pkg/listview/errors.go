package listview

import "errors"

var (
	ErrClosed          = errors.New("listview: orchestrator closed")
	ErrPageOutOfRange  = errors.New("listview: page out of range")
	ErrInvalidPageSize = errors.New("listview: page size must be positive")
	ErrInvalidFilter   = errors.New("listview: invalid filter value")
	ErrNothingToRetry  = errors.New("listview: no coordinates loaded yet")

	errFetcherPanicked = errors.New("listview: fetcher panicked")
)

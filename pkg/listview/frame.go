package listview

import (
	"context"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/pagination"
)

// Status is what the UI shows next to the list
type Status string

const (
	StatusIdle Status = "idle"
	// StatusCachedRevalidating shows a cached page with a subtle refresh hint.
	StatusCachedRevalidating Status = "cached-revalidating"
	// StatusLoading shows a blocking loading indicator.
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// State is the orchestrator's position in its fetch cycle
type State string

const (
	StateIdle              State = "Idle"
	StateServingCached     State = "ServingCached+Fetching"
	StateFetchingColdCache State = "FetchingColdCache"
	StateError             State = "Error"
)

// Frame is one complete render of a list view. Frames are values and carry a
// strictly increasing Version, so a consumer can drop anything older than
// what it already shows.
type Frame struct {
	Version     uint64                `json:"version"`
	Coordinates listquery.Coordinates `json:"coordinates"`
	Page        pagination.Page       `json:"page"`
	Status      Status                `json:"status"`
	State       State                 `json:"state"`
	Error       string                `json:"error,omitempty"`
	// FromCache is set when Page came from the cache rather than the fetch
	// that Status describes.
	FromCache bool `json:"fromCache"`
	Retryable bool `json:"retryable"`
}

// Fetcher retrieves the raw envelope for one set of coordinates.
type Fetcher interface {
	FetchPage(ctx context.Context, coords listquery.Coordinates) (any, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, coords listquery.Coordinates) (any, error)

func (f FetcherFunc) FetchPage(ctx context.Context, coords listquery.Coordinates) (any, error) {
	return f(ctx, coords)
}

// Renderer receives frames. Render is called from the scheduler and must not
// call back into the Orchestrator.
type Renderer interface {
	Render(frame Frame)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(frame Frame)

func (f RendererFunc) Render(frame Frame) {
	f(frame)
}

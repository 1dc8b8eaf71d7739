package types

import "context"

// SearchService executes a search. Implementations must return promptly
// with ctx.Err() once ctx is cancelled.
type SearchService interface {
	Search(ctx context.Context, req *SearchRequest) (*ResponsePayload, error)
}

type FilterStateObserver interface {
	FilterStateChanged(snapshot FilterSnapshot)
}

type FilterStateObserverFunc func(snapshot FilterSnapshot)

func (f FilterStateObserverFunc) FilterStateChanged(snapshot FilterSnapshot) {
	f(snapshot)
}

type ResultObserver interface {
	ResultReceived(payload *ResponsePayload)
}

type ResultObserverFunc func(payload *ResponsePayload)

func (f ResultObserverFunc) ResultReceived(payload *ResponsePayload) {
	f(payload)
}

type ErrorObserver interface {
	SearchFailed(err error)
}

type ErrorObserverFunc func(err error)

func (f ErrorObserverFunc) SearchFailed(err error) {
	f(err)
}

// FacetListController renders facet values and reports taps.
type FacetListController interface {
	Render(items []FacetValue)
	OnSelect(fn func(value string))
}

type TextController interface {
	RenderText(text string)
}

type HitsController interface {
	RenderHits(hits []Hit)
}

type QueryInputController interface {
	SetQuery(text string)
	OnTextChanged(fn func(text string))
	OnSubmit(fn func(text string))
}

type ClearController interface {
	OnClear(fn func())
}

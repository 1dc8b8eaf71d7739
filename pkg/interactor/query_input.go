package interactor

import (
	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

type SearchTrigger uint8

const (
	SearchAsYouType SearchTrigger = iota
	SearchOnSubmit
)

// QueryInputInteractor forwards text input to a searcher.
type QueryInputInteractor struct {
	Trigger  SearchTrigger
	searcher *searcher.Searcher
}

func NewQueryInputInteractor(trigger SearchTrigger) *QueryInputInteractor {
	return &QueryInputInteractor{Trigger: trigger}
}

func (q *QueryInputInteractor) ConnectSearcher(s *searcher.Searcher) {
	q.searcher = s
}

func (q *QueryInputInteractor) ConnectController(ctrl types.QueryInputController) {
	if q.searcher != nil {
		ctrl.SetQuery(q.searcher.Query())
	}
	ctrl.OnTextChanged(func(text string) {
		if q.Trigger == SearchAsYouType {
			q.setQuery(text)
		}
	})
	ctrl.OnSubmit(q.setQuery)
}

func (q *QueryInputInteractor) setQuery(text string) {
	if q.searcher == nil {
		return
	}
	q.searcher.SetQuery(text)
}

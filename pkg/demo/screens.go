package demo

import (
	"fmt"
	"io"

	"github.com/matst80/slask-instant/pkg/display"
	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/interactor"
	"github.com/matst80/slask-instant/pkg/types"
)

const (
	RefinementIndex = "mobile_demo_facet_list"
	GuideIndex      = "bestbuy"
)

// Refinement shows a multiple choice color list and a single choice
// category list side by side with the search state and a clear button.
func Refinement(service types.SearchService, out io.Writer, opts Options) (*Screen, error) {
	out = display.Synchronized(out)
	s := opts.searcher(service, RefinementIndex)
	sc := newScreen("refinement", s, out)
	sc.FilterState = filterstate.New()
	s.ConnectFilterState(sc.FilterState)

	lists := []struct {
		attribute string
		mode      types.SelectionMode
		title     string
	}{
		{"color", types.MultipleSelection, "Multiple choice"},
		{"category", types.SingleSelection, "Single choice"},
	}
	for _, l := range lists {
		f := interactor.NewFacetListInteractor(l.mode)
		f.ConnectSearcher(s, l.attribute)
		f.ConnectController(display.NewListPrinter(out, l.title))
		if err := f.ConnectFilterState(sc.FilterState, l.attribute, types.Or); err != nil {
			return nil, err
		}
		sc.facets[l.attribute] = f
	}

	sc.State = interactor.NewSearchStateInteractor()
	sc.State.ConnectSearcher(s)
	sc.State.ConnectFilterState(sc.FilterState)
	sc.State.ConnectController(display.NewTextPrinter(out, "Search state"))

	sc.Clear = &display.ClearButton{}
	s.ConnectClearController(sc.Clear)

	s.Search()
	return sc, nil
}

// Guide builds the getting started screen as it looks after step. Every
// step adds to the previous one:
//
//  1. a hits list
//  2. the search box is connected and the first search runs
//  3. the search box takes focus
//  4. stats are collected
//  5. stats are shown as the title
//  6. a category facet list filters the hits
//  7. the category list gets its own titled panel
func Guide(service types.SearchService, out io.Writer, step int, opts Options) (*Screen, error) {
	if step < 1 || step > 7 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStep, step)
	}
	out = display.Synchronized(out)
	s := opts.searcher(service, GuideIndex)
	sc := newScreen(fmt.Sprintf("guide step %d", step), s, out)

	sc.Hits = interactor.NewHitsInteractor()
	sc.Hits.ConnectController(display.NewHitsPrinter(out, "Hits", "name"))
	if step == 1 {
		return sc, nil
	}

	if step >= 6 {
		sc.FilterState = filterstate.New()
		s.ConnectFilterState(sc.FilterState)
	}
	sc.Hits.ConnectSearcher(s)
	sc.Box = &display.SearchBox{}
	input := interactor.NewQueryInputInteractor(interactor.SearchAsYouType)
	input.ConnectSearcher(s)
	input.ConnectController(sc.Box)
	if step >= 3 {
		fmt.Fprintln(out, "search box focused")
	}

	if step >= 4 {
		sc.Stats = interactor.NewStatsInteractor(nil)
		sc.Stats.ConnectSearcher(s)
	}
	if step >= 5 {
		sc.Stats.ConnectController(display.NewTextPrinter(out, "Title"))
	}

	if step >= 6 {
		title := ""
		if step >= 7 {
			title = "Category"
		}
		connector := interactor.NewFacetListConnector(s, sc.FilterState, "category", types.And, types.MultipleSelection, display.NewListPrinter(out, title))
		if err := connector.Connect(); err != nil {
			return nil, err
		}
		sc.facets["category"] = connector.Interactor
	}

	s.Search()
	return sc, nil
}

// Package demo assembles the demo screens from interactors and console
// printers and drives them with scripted user actions.
package demo

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matst80/slask-instant/pkg/display"
	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/interactor"
	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrUnsupportedAction = errors.New("action not available on this screen")
	ErrUnknownStep       = errors.New("guide step must be between 1 and 7")
)

type Options struct {
	HitsPerPage int
	Tracker     types.Tracker
}

func (o Options) searcher(service types.SearchService, index string) *searcher.Searcher {
	return searcher.New(service, index, searcher.Options{
		HitsPerPage: o.HitsPerPage,
		Tracker:     o.Tracker,
	})
}

// Screen is one assembled demo. Nil widgets are not part of the screen.
type Screen struct {
	Name        string
	Searcher    *searcher.Searcher
	FilterState *filterstate.FilterState
	Box         *display.SearchBox
	Clear       *display.ClearButton
	Hits        *interactor.HitsInteractor
	Stats       *interactor.StatsInteractor
	State       *interactor.SearchStateInteractor
	facets      map[string]*interactor.FacetListInteractor
	out         io.Writer
}

func newScreen(name string, s *searcher.Searcher, out io.Writer) *Screen {
	return &Screen{
		Name:     name,
		Searcher: s,
		facets:   map[string]*interactor.FacetListInteractor{},
		out:      display.Synchronized(out),
	}
}

func (sc *Screen) Facet(attribute string) (*interactor.FacetListInteractor, bool) {
	f, ok := sc.facets[attribute]
	return f, ok
}

// Do performs one action and waits for the searches it caused:
//
//	type <text>               types into the search box
//	submit                    submits the search box
//	select <attribute> <val>  taps a facet value
//	clear                     presses clear filters
//	more                      loads the next page of hits
func (sc *Screen) Do(action string) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(action), " ")
	var err error
	switch verb {
	case "":
		return nil
	case "type", "submit":
		if sc.Box == nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedAction, verb)
		}
		if verb == "type" {
			sc.Box.Type(rest)
		} else {
			sc.Box.Submit()
		}
	case "select":
		attribute, value, _ := strings.Cut(rest, " ")
		f, ok := sc.facets[attribute]
		if !ok {
			return fmt.Errorf("%w: no facet list for %q", ErrUnsupportedAction, attribute)
		}
		err = f.Select(value)
	case "clear":
		if sc.Clear == nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedAction, verb)
		}
		sc.Clear.Press()
	case "more":
		if sc.Hits == nil {
			return fmt.Errorf("%w: %s", ErrUnsupportedAction, verb)
		}
		sc.Hits.LoadNextPage()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, verb)
	}
	sc.Searcher.Wait()
	return err
}

// Run performs actions in order. Failing actions are reported to the
// output and do not stop the run.
func (sc *Screen) Run(actions []string) {
	sc.Searcher.Wait()
	for _, action := range actions {
		fmt.Fprintf(sc.out, "> %s\n", action)
		if err := sc.Do(action); err != nil {
			fmt.Fprintf(sc.out, "! %v\n", err)
		}
	}
}

func (sc *Screen) Close() {
	sc.Searcher.Close()
}

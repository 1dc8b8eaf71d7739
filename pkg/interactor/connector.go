package interactor

import (
	"github.com/matst80/slask-instant/pkg/filterstate"
	"github.com/matst80/slask-instant/pkg/searcher"
	"github.com/matst80/slask-instant/pkg/types"
)

// FacetListConnector wires a facet list to a searcher, a filter state and a
// controller in one call.
type FacetListConnector struct {
	Searcher    *searcher.Searcher
	FilterState *filterstate.FilterState
	Attribute   string
	Operator    types.FilterOperator
	Interactor  *FacetListInteractor
	Controller  types.FacetListController
}

func NewFacetListConnector(s *searcher.Searcher, fs *filterstate.FilterState, attribute string, op types.FilterOperator, mode types.SelectionMode, ctrl types.FacetListController, opts ...FacetListOption) *FacetListConnector {
	return &FacetListConnector{
		Searcher:    s,
		FilterState: fs,
		Attribute:   attribute,
		Operator:    op,
		Interactor:  NewFacetListInteractor(mode, opts...),
		Controller:  ctrl,
	}
}

func (c *FacetListConnector) Connect() error {
	c.Searcher.ConnectFilterState(c.FilterState)
	c.Interactor.ConnectSearcher(c.Searcher, c.Attribute)
	err := c.Interactor.ConnectFilterState(c.FilterState, c.Attribute, c.Operator)
	if c.Controller != nil {
		c.Interactor.ConnectController(c.Controller)
	}
	return err
}

func (c *FacetListConnector) Disconnect() {
	c.Interactor.Disconnect()
}

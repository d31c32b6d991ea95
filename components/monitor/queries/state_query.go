package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

type stateService interface {
	State(ctx context.Context, viewer monitor.ViewerContext) (monitor.ViewState, error)
}

// StateQuery returns the session's view state.
type StateQuery struct {
	service stateService
}

// NewStateQuery builds the query.
func NewStateQuery(service stateService) *StateQuery {
	return &StateQuery{service: service}
}

var _ gocommand.Querier[monitor.ViewerContext, monitor.ViewState] = (*StateQuery)(nil)

func (q *StateQuery) Query(ctx context.Context, viewer monitor.ViewerContext) (monitor.ViewState, error) {
	return q.service.State(ctx, viewer)
}

package queries

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// MapInput resolves the map widget. A non-empty Address switches to address
// mode; otherwise PlantID (or the session's plant) is used.
type MapInput struct {
	Viewer  monitor.ViewerContext
	PlantID int
	Address string
}

type mapService interface {
	Map(ctx context.Context, viewer monitor.ViewerContext, plantID int) (monitor.MapWidgetState, error)
	MapForAddress(ctx context.Context, viewer monitor.ViewerContext, address string) monitor.MapWidgetState
}

// MapQuery resolves the map widget state.
type MapQuery struct {
	service mapService
}

// NewMapQuery builds the query.
func NewMapQuery(service mapService) *MapQuery {
	return &MapQuery{service: service}
}

var _ gocommand.Querier[MapInput, monitor.MapWidgetState] = (*MapQuery)(nil)

func (q *MapQuery) Query(ctx context.Context, input MapInput) (monitor.MapWidgetState, error) {
	if address := strings.TrimSpace(input.Address); address != "" {
		return q.service.MapForAddress(ctx, input.Viewer, address), nil
	}
	return q.service.Map(ctx, input.Viewer, input.PlantID)
}

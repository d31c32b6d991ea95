package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// PlantListInput selects an optional plant type on top of the session filter.
type PlantListInput struct {
	Viewer monitor.ViewerContext
	Type   monitor.PlantType
}

type plantListService interface {
	PlantList(ctx context.Context, viewer monitor.ViewerContext, kind monitor.PlantType) (monitor.PlantListResult, error)
}

// PlantListQuery returns the current page of the plant list with summary counters.
type PlantListQuery struct {
	service plantListService
}

// NewPlantListQuery builds the query.
func NewPlantListQuery(service plantListService) *PlantListQuery {
	return &PlantListQuery{service: service}
}

var _ gocommand.Querier[PlantListInput, monitor.PlantListResult] = (*PlantListQuery)(nil)

// Query fetches the catalog once and applies search and pagination.
func (q *PlantListQuery) Query(ctx context.Context, input PlantListInput) (monitor.PlantListResult, error) {
	return q.service.PlantList(ctx, input.Viewer, input.Type)
}

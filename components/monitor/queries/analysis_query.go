package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// AnalysisInput names the plant to analyze. PlantID <= 0 uses the session's selection.
type AnalysisInput struct {
	Viewer  monitor.ViewerContext
	PlantID int
}

type analysisService interface {
	Analysis(ctx context.Context, viewer monitor.ViewerContext, plantID int) (monitor.AnalysisResult, error)
}

// AnalysisQuery loads the composed analysis page.
type AnalysisQuery struct {
	service analysisService
}

// NewAnalysisQuery builds the query.
func NewAnalysisQuery(service analysisService) *AnalysisQuery {
	return &AnalysisQuery{service: service}
}

var _ gocommand.Querier[AnalysisInput, monitor.AnalysisResult] = (*AnalysisQuery)(nil)

func (q *AnalysisQuery) Query(ctx context.Context, input AnalysisInput) (monitor.AnalysisResult, error) {
	return q.service.Analysis(ctx, input.Viewer, input.PlantID)
}

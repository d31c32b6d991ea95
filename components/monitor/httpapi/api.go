package httpapi

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/components/monitor/commands"
	"github.com/plantwatch/go-plantwatch/components/monitor/queries"
)

// Executor runs the state-changing actions shared by every transport.
type Executor interface {
	Navigate(ctx context.Context, input commands.NavigateInput) error
	SelectPlant(ctx context.Context, input commands.SelectPlantInput) error
	Search(ctx context.Context, input commands.SearchInput) error
	ChangePage(ctx context.Context, input commands.ChangePageInput) error
	ToggleTheme(ctx context.Context, input commands.ToggleThemeInput) error
	SetMapOpen(ctx context.Context, input commands.SetMapOpenInput) error
}

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	NavigateCmd    gocommand.Commander[commands.NavigateInput]
	SelectPlantCmd gocommand.Commander[commands.SelectPlantInput]
	SearchCmd      gocommand.Commander[commands.SearchInput]
	ChangePageCmd  gocommand.Commander[commands.ChangePageInput]
	ToggleThemeCmd gocommand.Commander[commands.ToggleThemeInput]
	SetMapOpenCmd  gocommand.Commander[commands.SetMapOpenInput]
}

// NewCommandExecutor wires the default commanders over service.
func NewCommandExecutor(service *monitor.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		NavigateCmd:    commands.NewNavigateCommand(service, telemetry),
		SelectPlantCmd: commands.NewSelectPlantCommand(service, telemetry),
		SearchCmd:      commands.NewSearchCommand(service, telemetry),
		ChangePageCmd:  commands.NewChangePageCommand(service, telemetry),
		ToggleThemeCmd: commands.NewToggleThemeCommand(service, telemetry),
		SetMapOpenCmd:  commands.NewSetMapOpenCommand(service, telemetry),
	}
}

func (e *CommandExecutor) Navigate(ctx context.Context, input commands.NavigateInput) error {
	return e.NavigateCmd.Execute(ctx, input)
}

func (e *CommandExecutor) SelectPlant(ctx context.Context, input commands.SelectPlantInput) error {
	return e.SelectPlantCmd.Execute(ctx, input)
}

func (e *CommandExecutor) Search(ctx context.Context, input commands.SearchInput) error {
	return e.SearchCmd.Execute(ctx, input)
}

func (e *CommandExecutor) ChangePage(ctx context.Context, input commands.ChangePageInput) error {
	return e.ChangePageCmd.Execute(ctx, input)
}

func (e *CommandExecutor) ToggleTheme(ctx context.Context, input commands.ToggleThemeInput) error {
	return e.ToggleThemeCmd.Execute(ctx, input)
}

func (e *CommandExecutor) SetMapOpen(ctx context.Context, input commands.SetMapOpenInput) error {
	return e.SetMapOpenCmd.Execute(ctx, input)
}

// Reader groups the read models served over HTTP.
type Reader struct {
	State    gocommand.Querier[monitor.ViewerContext, monitor.ViewState]
	Plants   gocommand.Querier[queries.PlantListInput, monitor.PlantListResult]
	Analysis gocommand.Querier[queries.AnalysisInput, monitor.AnalysisResult]
	Map      gocommand.Querier[queries.MapInput, monitor.MapWidgetState]
}

// NewReader wires the default queries over service.
func NewReader(service *monitor.Service) Reader {
	return Reader{
		State:    queries.NewStateQuery(service),
		Plants:   queries.NewPlantListQuery(service),
		Analysis: queries.NewAnalysisQuery(service),
		Map:      queries.NewMapQuery(service),
	}
}

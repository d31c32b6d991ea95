package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// NavigateInput switches the session's view. PlantID <= 0 keeps the selection.
type NavigateInput struct {
	Viewer  monitor.ViewerContext `json:"-"`
	View    string                `json:"view"`
	PlantID int                   `json:"plant_id,omitempty"`
}

type navigateService interface {
	Navigate(ctx context.Context, viewer monitor.ViewerContext, view monitor.View, plantID int) (monitor.ViewState, error)
}

// NavigateCommand changes the current view.
type NavigateCommand struct {
	service   navigateService
	telemetry Telemetry
}

// NewNavigateCommand creates the command.
func NewNavigateCommand(service navigateService, telemetry Telemetry) *NavigateCommand {
	return &NavigateCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[NavigateInput] = (*NavigateCommand)(nil)

// Execute validates the view tag and stores the new view.
func (c *NavigateCommand) Execute(ctx context.Context, msg NavigateInput) error {
	if c.service == nil {
		return errors.New("navigate command requires service")
	}
	view, err := monitor.ParseView(msg.View)
	if err != nil {
		return err
	}
	state, err := c.service.Navigate(ctx, msg.Viewer, view, msg.PlantID)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "navigate", msg.Viewer, map[string]any{
		"view":     string(state.View),
		"plant_id": state.PlantID,
	})
	return nil
}

// SelectPlantInput picks a plant from the list.
type SelectPlantInput struct {
	Viewer  monitor.ViewerContext `json:"-"`
	PlantID int                   `json:"plant_id"`
}

type selectService interface {
	SelectPlant(ctx context.Context, viewer monitor.ViewerContext, plantID int) (monitor.ViewState, error)
}

// SelectPlantCommand opens the analysis page for a listed plant.
type SelectPlantCommand struct {
	service   selectService
	telemetry Telemetry
}

// NewSelectPlantCommand creates the command.
func NewSelectPlantCommand(service selectService, telemetry Telemetry) *SelectPlantCommand {
	return &SelectPlantCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectPlantInput] = (*SelectPlantCommand)(nil)

// Execute selects the plant.
func (c *SelectPlantCommand) Execute(ctx context.Context, msg SelectPlantInput) error {
	if c.service == nil {
		return errors.New("select plant command requires service")
	}
	if msg.PlantID <= 0 {
		return errors.New("select plant command requires a positive plant id")
	}
	if _, err := c.service.SelectPlant(ctx, msg.Viewer, msg.PlantID); err != nil {
		return err
	}
	record(ctx, c.telemetry, "select_plant", msg.Viewer, map[string]any{
		"plant_id": msg.PlantID,
	})
	return nil
}

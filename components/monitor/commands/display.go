package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// ToggleThemeInput flips the session theme.
type ToggleThemeInput struct {
	Viewer monitor.ViewerContext `json:"-"`
}

// SetMapOpenInput shows or hides the map modal.
type SetMapOpenInput struct {
	Viewer monitor.ViewerContext `json:"-"`
	Open   bool                  `json:"open"`
}

type displayService interface {
	ToggleTheme(ctx context.Context, viewer monitor.ViewerContext) (monitor.ViewState, error)
	SetMapOpen(ctx context.Context, viewer monitor.ViewerContext, open bool) (monitor.ViewState, error)
}

// ToggleThemeCommand switches between light and dark.
type ToggleThemeCommand struct {
	service   displayService
	telemetry Telemetry
}

// NewToggleThemeCommand creates the command.
func NewToggleThemeCommand(service displayService, telemetry Telemetry) *ToggleThemeCommand {
	return &ToggleThemeCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleThemeInput] = (*ToggleThemeCommand)(nil)

// Execute toggles the theme.
func (c *ToggleThemeCommand) Execute(ctx context.Context, msg ToggleThemeInput) error {
	if c.service == nil {
		return errors.New("theme command requires service")
	}
	state, err := c.service.ToggleTheme(ctx, msg.Viewer)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "theme", msg.Viewer, map[string]any{
		"theme": string(state.Theme),
	})
	return nil
}

// SetMapOpenCommand controls the map modal.
type SetMapOpenCommand struct {
	service   displayService
	telemetry Telemetry
}

// NewSetMapOpenCommand creates the command.
func NewSetMapOpenCommand(service displayService, telemetry Telemetry) *SetMapOpenCommand {
	return &SetMapOpenCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetMapOpenInput] = (*SetMapOpenCommand)(nil)

// Execute stores the modal flag.
func (c *SetMapOpenCommand) Execute(ctx context.Context, msg SetMapOpenInput) error {
	if c.service == nil {
		return errors.New("map command requires service")
	}
	if _, err := c.service.SetMapOpen(ctx, msg.Viewer, msg.Open); err != nil {
		return err
	}
	record(ctx, c.telemetry, "map", msg.Viewer, map[string]any{
		"open": msg.Open,
	})
	return nil
}

package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// SearchInput sets the plant list search term.
type SearchInput struct {
	Viewer monitor.ViewerContext `json:"-"`
	Term   string                `json:"term"`
}

// ChangePageInput moves the plant list.
type ChangePageInput struct {
	Viewer monitor.ViewerContext `json:"-"`
	monitor.PageRequest
}

type plantListService interface {
	Search(ctx context.Context, viewer monitor.ViewerContext, term string) (monitor.ViewState, error)
	ChangePage(ctx context.Context, viewer monitor.ViewerContext, req monitor.PageRequest) (monitor.ViewState, error)
}

// SearchCommand filters the plant list and resets its page.
type SearchCommand struct {
	service   plantListService
	telemetry Telemetry
}

// NewSearchCommand creates the command.
func NewSearchCommand(service plantListService, telemetry Telemetry) *SearchCommand {
	return &SearchCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SearchInput] = (*SearchCommand)(nil)

// Execute stores the term.
func (c *SearchCommand) Execute(ctx context.Context, msg SearchInput) error {
	if c.service == nil {
		return errors.New("search command requires service")
	}
	if _, err := c.service.Search(ctx, msg.Viewer, msg.Term); err != nil {
		return err
	}
	record(ctx, c.telemetry, "search", msg.Viewer, map[string]any{
		"term_len": len(msg.Term),
	})
	return nil
}

// ChangePageCommand pages through the plant list.
type ChangePageCommand struct {
	service   plantListService
	telemetry Telemetry
}

// NewChangePageCommand creates the command.
func NewChangePageCommand(service plantListService, telemetry Telemetry) *ChangePageCommand {
	return &ChangePageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ChangePageInput] = (*ChangePageCommand)(nil)

// Execute moves the page; the service clamps it to the filtered range.
func (c *ChangePageCommand) Execute(ctx context.Context, msg ChangePageInput) error {
	if c.service == nil {
		return errors.New("page command requires service")
	}
	if msg.Direction == "" && msg.Page <= 0 {
		return errors.New("page command requires a direction or a page number")
	}
	state, err := c.service.ChangePage(ctx, msg.Viewer, msg.PageRequest)
	if err != nil {
		return err
	}
	record(ctx, c.telemetry, "page", msg.Viewer, map[string]any{
		"page": state.Page,
	})
	return nil
}

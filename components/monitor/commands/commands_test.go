package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

type stubService struct {
	state    monitor.ViewState
	err      error
	calls    map[string]int
	lastView monitor.View
	lastTerm string
	lastPage monitor.PageRequest
}

func newStubService() *stubService {
	return &stubService{state: monitor.DefaultViewState(), calls: map[string]int{}}
}

func (s *stubService) Navigate(_ context.Context, _ monitor.ViewerContext, view monitor.View, plantID int) (monitor.ViewState, error) {
	s.calls["navigate"]++
	s.lastView = view
	s.state = s.state.Navigate(view, plantID)
	return s.state, s.err
}

func (s *stubService) SelectPlant(_ context.Context, _ monitor.ViewerContext, plantID int) (monitor.ViewState, error) {
	s.calls["select"]++
	s.state = s.state.Navigate(monitor.ViewAnalysis, plantID)
	return s.state, s.err
}

func (s *stubService) Search(_ context.Context, _ monitor.ViewerContext, term string) (monitor.ViewState, error) {
	s.calls["search"]++
	s.lastTerm = term
	return s.state.Search(term), s.err
}

func (s *stubService) ChangePage(_ context.Context, _ monitor.ViewerContext, req monitor.PageRequest) (monitor.ViewState, error) {
	s.calls["page"]++
	s.lastPage = req
	return s.state, s.err
}

func (s *stubService) ToggleTheme(context.Context, monitor.ViewerContext) (monitor.ViewState, error) {
	s.calls["theme"]++
	s.state.Theme = s.state.Theme.Toggle()
	return s.state, s.err
}

func (s *stubService) SetMapOpen(_ context.Context, _ monitor.ViewerContext, open bool) (monitor.ViewState, error) {
	s.calls["map"]++
	s.state.MapOpen = open
	return s.state, s.err
}

type stubTelemetry struct {
	events   []string
	payloads []map[string]any
}

func (s *stubTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
}

var viewer = monitor.ViewerContext{SessionID: "session-1"}

func TestNavigateCommand(t *testing.T) {
	service := newStubService()
	telemetry := &stubTelemetry{}
	cmd := NewNavigateCommand(service, telemetry)

	require.NoError(t, cmd.Execute(context.Background(), NavigateInput{Viewer: viewer, View: "PowerPlant"}))
	assert.Equal(t, monitor.ViewPowerPlant, service.lastView)
	assert.Equal(t, []string{"monitor.command.navigate"}, telemetry.events)
	assert.Equal(t, "session-1", telemetry.payloads[0]["session_id"])
	assert.Equal(t, "powerplant", telemetry.payloads[0]["view"])

	err := cmd.Execute(context.Background(), NavigateInput{Viewer: viewer, View: "reports"})
	assert.Error(t, err)
	assert.Equal(t, 1, service.calls["navigate"])
}

func TestSelectPlantCommand(t *testing.T) {
	service := newStubService()
	cmd := NewSelectPlantCommand(service, nil)

	require.NoError(t, cmd.Execute(context.Background(), SelectPlantInput{Viewer: viewer, PlantID: 4}))
	assert.Equal(t, 4, service.state.PlantID)
	assert.Equal(t, monitor.ViewAnalysis, service.state.View)

	assert.Error(t, cmd.Execute(context.Background(), SelectPlantInput{Viewer: viewer}))
	assert.Equal(t, 1, service.calls["select"])
}

func TestSearchCommand(t *testing.T) {
	service := newStubService()
	cmd := NewSearchCommand(service, nil)
	require.NoError(t, cmd.Execute(context.Background(), SearchInput{Viewer: viewer, Term: "solar"}))
	assert.Equal(t, "solar", service.lastTerm)
}

func TestChangePageCommand(t *testing.T) {
	service := newStubService()
	cmd := NewChangePageCommand(service, nil)

	require.NoError(t, cmd.Execute(context.Background(), ChangePageInput{Viewer: viewer, PageRequest: monitor.PageRequest{Direction: "next"}}))
	assert.Equal(t, "next", service.lastPage.Direction)

	assert.Error(t, cmd.Execute(context.Background(), ChangePageInput{Viewer: viewer}))
	assert.Equal(t, 1, service.calls["page"])
}

func TestDisplayCommands(t *testing.T) {
	service := newStubService()
	telemetry := &stubTelemetry{}

	require.NoError(t, NewToggleThemeCommand(service, telemetry).Execute(context.Background(), ToggleThemeInput{Viewer: viewer}))
	assert.Equal(t, monitor.ThemeDark, service.state.Theme)

	require.NoError(t, NewSetMapOpenCommand(service, telemetry).Execute(context.Background(), SetMapOpenInput{Viewer: viewer, Open: true}))
	assert.True(t, service.state.MapOpen)
	assert.Equal(t, []string{"monitor.command.theme", "monitor.command.map"}, telemetry.events)
}

func TestCommandsPropagateServiceErrors(t *testing.T) {
	service := newStubService()
	service.err = errors.New("store unavailable")
	telemetry := &stubTelemetry{}

	assert.Error(t, NewToggleThemeCommand(service, telemetry).Execute(context.Background(), ToggleThemeInput{Viewer: viewer}))
	assert.Error(t, NewSearchCommand(service, telemetry).Execute(context.Background(), SearchInput{Viewer: viewer}))
	assert.Empty(t, telemetry.events)
}

func TestCommandsRequireService(t *testing.T) {
	assert.Error(t, NewNavigateCommand(nil, nil).Execute(context.Background(), NavigateInput{View: "home"}))
	assert.Error(t, NewSetMapOpenCommand(nil, nil).Execute(context.Background(), SetMapOpenInput{}))
}

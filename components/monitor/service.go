package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/plantwatch/go-plantwatch/pkg/log"
)

const (
	// DefaultSessionTTL is how long an idle session keeps its state.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultMaxSessions bounds the sessions held in memory at once.
	DefaultMaxSessions = 1024

	sessionSweepInterval = time.Minute
)

var (
	errServiceClosed  = errors.New("monitor: service closed")
	errMissingGateway = errors.New("monitor: gateway not configured")
	errMissingSession = errors.New("monitor: session id is required")
)

// Options configures the monitor Service. Collaborators are interfaces so the
// backend, geocoder and session store can be swapped in tests and tools.
type Options struct {
	Gateway   Gateway
	Geocoder  Geocoder
	Sessions  SessionStore
	Charts    *ChartRenderer
	Events    EventHook
	Telemetry Telemetry
	Labels    *Labels
	Clock     *Clock
	Location  *time.Location
	Locale    string
	PageSize  int
	MapAppKey string
	MapLevel  int

	// SessionTTL and MaxSessions bound per-session state. Idle sessions are
	// swept and the least recently used one is evicted when full.
	SessionTTL  time.Duration
	MaxSessions int
}

// Service composes the four views for a session. It owns one AnalysisView
// per session so a newer plant selection fences off older responses.
type Service struct {
	opts     Options
	maps     *MapWidget
	reshaper Reshaper
	now      func() time.Time

	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	lastSweep time.Time
	closed    bool
}

type sessionEntry struct {
	view     *AnalysisView
	lastSeen time.Time
}

// sessionForgetter is implemented by stores that can drop a session.
type sessionForgetter interface {
	Forget(sessionID string)
}

// NewService builds a Service with safe defaults.
func NewService(opts Options) *Service {
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore(DefaultViewState())
	}
	if opts.Charts == nil {
		opts.Charts = NewChartRenderer()
	}
	opts.Events = normalizeEventHook(opts.Events)
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.Labels == nil {
		opts.Labels = DefaultLabels()
	}
	if opts.Clock == nil {
		opts.Clock = NewClock(opts.Events, WithClockLocation(opts.Location))
	}
	if opts.Locale == "" {
		opts.Locale = DefaultLocale
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	return &Service{
		opts: opts,
		maps: NewMapWidget(MapWidgetOptions{
			Plants:   opts.Gateway,
			Geocoder: opts.Geocoder,
			AppKey:   opts.MapAppKey,
			Level:    opts.MapLevel,
			Labels:   opts.Labels,
		}),
		reshaper: Reshaper{Location: opts.Location},
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// Clock exposes the display clock so the server can start and stop it.
func (s *Service) Clock() *Clock {
	return s.opts.Clock
}

// Labels returns the label catalog.
func (s *Service) Labels() *Labels {
	return s.opts.Labels
}

// Locale resolves the locale for viewer.
func (s *Service) Locale(viewer ViewerContext) string {
	if viewer.Locale != "" {
		return viewer.Locale
	}
	return s.opts.Locale
}

// State returns the session's view state.
func (s *Service) State(ctx context.Context, viewer ViewerContext) (ViewState, error) {
	s.seen(viewer.SessionID)
	return s.opts.Sessions.Load(ctx, viewer)
}

// Navigate switches the view. A plantID <= 0 keeps the selected plant.
func (s *Service) Navigate(ctx context.Context, viewer ViewerContext, view View, plantID int) (ViewState, error) {
	return s.update(ctx, viewer, "monitor.view.navigate", func(state ViewState) ViewState {
		return state.Navigate(view, plantID)
	})
}

// SelectPlant picks a plant from the catalog and opens its analysis page.
// Unknown ids leave the state untouched and return MissingData.
func (s *Service) SelectPlant(ctx context.Context, viewer ViewerContext, plantID int) (ViewState, error) {
	plants, err := s.listPlants(ctx)
	if err != nil {
		return ViewState{}, err
	}
	var (
		state  ViewState
		navErr error
	)
	list := NewPlantListView(plants, s.opts.PageSize, func(id int) {
		state, navErr = s.Navigate(ctx, viewer, ViewAnalysis, id)
	})
	if !list.Select(plantID) {
		return ViewState{}, MissingDataError("select plant", fmt.Sprintf("plant %d is not listed", plantID))
	}
	return state, navErr
}

// Search stores a new search term and returns to page 1.
func (s *Service) Search(ctx context.Context, viewer ViewerContext, term string) (ViewState, error) {
	return s.update(ctx, viewer, "monitor.plants.search", func(state ViewState) ViewState {
		return state.Search(term)
	})
}

// PageRequest moves the plant list. Direction is "next" or "prev"; otherwise
// Page is used as an absolute page number.
type PageRequest struct {
	Direction string    `json:"direction,omitempty"`
	Page      int       `json:"page,omitempty"`
	Type      PlantType `json:"type,omitempty"`
}

// ChangePage moves the plant list page, clamped against the filtered count.
func (s *Service) ChangePage(ctx context.Context, viewer ViewerContext, req PageRequest) (ViewState, error) {
	plants, err := s.listPlants(ctx)
	if err != nil {
		return ViewState{}, err
	}
	current, err := s.State(ctx, viewer)
	if err != nil {
		return ViewState{}, err
	}
	list := NewPlantListView(plants, s.opts.PageSize, nil)
	list.FilterType(req.Type)
	list.Search(current.SearchTerm)
	list.GoTo(current.Page)
	var page PlantPage
	switch strings.ToLower(strings.TrimSpace(req.Direction)) {
	case "next":
		page = list.Next()
	case "prev", "previous":
		page = list.Prev()
	case "":
		page = list.GoTo(req.Page)
	default:
		return ViewState{}, fmt.Errorf("monitor: unknown page direction %q", req.Direction)
	}
	return s.update(ctx, viewer, "monitor.plants.page", func(state ViewState) ViewState {
		state.Page = page.Page
		return state
	})
}

// ToggleTheme flips light and dark.
func (s *Service) ToggleTheme(ctx context.Context, viewer ViewerContext) (ViewState, error) {
	return s.update(ctx, viewer, "monitor.theme.toggle", func(state ViewState) ViewState {
		state.Theme = state.Theme.Toggle()
		return state
	})
}

// SetMapOpen shows or hides the map modal.
func (s *Service) SetMapOpen(ctx context.Context, viewer ViewerContext, open bool) (ViewState, error) {
	return s.update(ctx, viewer, "monitor.map.toggle", func(state ViewState) ViewState {
		state.MapOpen = open
		return state
	})
}

// PlantListResult is the plant page read model.
type PlantListResult struct {
	State   ViewState    `json:"state"`
	Page    PlantPage    `json:"page"`
	Summary PlantSummary `json:"summary"`
	Type    PlantType    `json:"type,omitempty"`
}

// PlantList fetches the catalog and applies the session's search and page.
func (s *Service) PlantList(ctx context.Context, viewer ViewerContext, kind PlantType) (PlantListResult, error) {
	state, err := s.State(ctx, viewer)
	if err != nil {
		return PlantListResult{}, err
	}
	plants, err := s.listPlants(ctx)
	if err != nil {
		return PlantListResult{}, err
	}
	list := NewPlantListView(plants, s.opts.PageSize, nil)
	list.FilterType(kind)
	list.Search(state.SearchTerm)
	return PlantListResult{
		State:   state,
		Page:    list.GoTo(state.Page),
		Summary: list.Summary(),
		Type:    kind,
	}, nil
}

// AnalysisResult is the analysis page read model.
type AnalysisResult struct {
	Analysis    AnalysisState  `json:"analysis"`
	Stats       AnalysisStats  `json:"stats"`
	HourlyChart string         `json:"hourly_chart,omitempty"`
	DailyChart  string         `json:"daily_chart,omitempty"`
	Map         MapWidgetState `json:"map"`
	Theme       ThemeSelection `json:"theme"`
}

// Analysis loads every slice for plantID (or the selected plant when
// plantID <= 0) and derives stats, charts and the map state.
func (s *Service) Analysis(ctx context.Context, viewer ViewerContext, plantID int) (AnalysisResult, error) {
	if s.opts.Gateway == nil {
		return AnalysisResult{}, errMissingGateway
	}
	state, err := s.State(ctx, viewer)
	if err != nil {
		return AnalysisResult{}, err
	}
	if plantID <= 0 {
		plantID = state.PlantID
	}
	view, err := s.analysisView(viewer.SessionID)
	if err != nil {
		return AnalysisResult{}, err
	}
	locale := s.Locale(viewer)
	theme := SelectTheme(state.Theme)
	analysis := view.Load(ctx, plantID)

	result := AnalysisResult{
		Analysis: analysis,
		Stats:    analysis.Stats(NewNumberFormatter(locale)),
		Theme:    theme,
	}
	if analysis.Hourly.Ready() {
		result.HourlyChart = s.renderChart(ctx, "hourly", func() (string, error) {
			return s.opts.Charts.HourlyChart(s.opts.Labels.Get(locale, "analysis.hourly"), analysis.Hourly.Value, theme)
		})
	}
	if analysis.Daily.Ready() {
		result.DailyChart = s.renderChart(ctx, "daily", func() (string, error) {
			return s.opts.Charts.DailyChart(s.opts.Labels.Get(locale, "analysis.daily"), analysis.Daily.Value, theme)
		})
	}
	switch analysis.Plant.Status {
	case SliceReady:
		result.Map = s.maps.ForPlantRecord(ctx, analysis.Plant.Value, locale)
	case SliceFailed:
		result.Map = s.maps.failed(ctx, MapModeCoordinates, locale, analysis.Plant.Err())
	default:
		result.Map = s.maps.Pending(MapModeCoordinates, locale)
	}
	return result, nil
}

// Map resolves the coordinates-mode map for plantID, or the selected plant.
func (s *Service) Map(ctx context.Context, viewer ViewerContext, plantID int) (MapWidgetState, error) {
	if plantID <= 0 {
		state, err := s.State(ctx, viewer)
		if err != nil {
			return MapWidgetState{}, err
		}
		plantID = state.PlantID
	}
	return s.maps.ForPlant(ctx, plantID, s.Locale(viewer)), nil
}

// MapForAddress resolves the address-mode map.
func (s *Service) MapForAddress(ctx context.Context, viewer ViewerContext, address string) MapWidgetState {
	return s.maps.ForAddress(ctx, address, "", s.Locale(viewer))
}

// Close cancels in-flight analysis fetches and stops the clock.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*sessionEntry)
	s.closed = true
	s.mu.Unlock()
	for _, entry := range sessions {
		if entry.view != nil {
			entry.view.Close()
		}
	}
	s.opts.Clock.Stop()
}

// EndSession drops everything kept for sessionID.
func (s *Service) EndSession(sessionID string) {
	s.mu.Lock()
	entry := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	s.release(map[string]*sessionEntry{sessionID: entry})
}

// ActiveSessions reports how many sessions hold state.
func (s *Service) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) analysisView(sessionID string) (*AnalysisView, error) {
	if sessionID == "" {
		return nil, errMissingSession
	}
	return s.touch(sessionID, true)
}

// seen refreshes an existing session without creating one.
func (s *Service) seen(sessionID string) {
	s.mu.Lock()
	if entry, ok := s.sessions[sessionID]; ok {
		entry.lastSeen = s.now()
	}
	s.mu.Unlock()
}

// touch marks sessionID as used, creating its entry (and analysis view when
// withView is set). Making room for a new session may evict others.
func (s *Service) touch(sessionID string, withView bool) (*AnalysisView, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errServiceClosed
	}
	now := s.now()
	var evicted map[string]*sessionEntry
	entry, ok := s.sessions[sessionID]
	if !ok {
		evicted = s.reclaim(now)
		entry = &sessionEntry{}
		s.sessions[sessionID] = entry
	}
	entry.lastSeen = now
	if withView && entry.view == nil {
		entry.view = NewAnalysisView(s.opts.Gateway,
			WithReshaper(s.reshaper),
			WithAnalysisEvents(s.opts.Events, sessionID),
			WithAnalysisTelemetry(s.opts.Telemetry),
		)
	}
	view := entry.view
	s.mu.Unlock()

	s.release(evicted)
	return view, nil
}

// reclaim removes idle sessions and, when still full, the least recently
// used ones. Caller holds mu.
func (s *Service) reclaim(now time.Time) map[string]*sessionEntry {
	full := len(s.sessions) >= s.opts.MaxSessions
	if !full && now.Sub(s.lastSweep) < sessionSweepInterval {
		return nil
	}
	s.lastSweep = now
	evicted := make(map[string]*sessionEntry)
	for id, entry := range s.sessions {
		if now.Sub(entry.lastSeen) > s.opts.SessionTTL {
			evicted[id] = entry
			delete(s.sessions, id)
		}
	}
	for len(s.sessions) >= s.opts.MaxSessions {
		var oldest string
		var at time.Time
		for id, entry := range s.sessions {
			if oldest == "" || entry.lastSeen.Before(at) {
				oldest, at = id, entry.lastSeen
			}
		}
		evicted[oldest] = s.sessions[oldest]
		delete(s.sessions, oldest)
	}
	return evicted
}

func (s *Service) release(entries map[string]*sessionEntry) {
	forgetter, _ := s.opts.Sessions.(sessionForgetter)
	for id, entry := range entries {
		if entry != nil && entry.view != nil {
			entry.view.Close()
		}
		if forgetter != nil {
			forgetter.Forget(id)
		}
	}
}

func (s *Service) listPlants(ctx context.Context) ([]Plant, error) {
	if s.opts.Gateway == nil {
		return nil, errMissingGateway
	}
	plants, err := s.opts.Gateway.ListPlants(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "plant list failed",
			"kind", FailureKind(err),
			"error", err)
		return nil, err
	}
	return plants, nil
}

func (s *Service) renderChart(ctx context.Context, name string, render func() (string, error)) string {
	html, err := render()
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "chart render failed", "chart", name, "error", err)
		return ""
	}
	return html
}

func (s *Service) update(ctx context.Context, viewer ViewerContext, event string, fn func(ViewState) ViewState) (ViewState, error) {
	if viewer.SessionID == "" {
		return ViewState{}, errMissingSession
	}
	if _, err := s.touch(viewer.SessionID, false); err != nil {
		return ViewState{}, err
	}
	state, err := s.opts.Sessions.Update(ctx, viewer, fn)
	if err != nil {
		return ViewState{}, err
	}
	payload := map[string]any{
		"view":     string(state.View),
		"plant_id": state.PlantID,
		"page":     state.Page,
		"theme":    string(state.Theme),
		"map_open": state.MapOpen,
	}
	s.opts.Telemetry.Record(ctx, event, payload)
	if err := s.opts.Events.Publish(ctx, Event{
		Type:      EventStateChanged,
		SessionID: viewer.SessionID,
		PlantID:   state.PlantID,
		Payload:   payload,
		At:        time.Now(),
	}); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "publish state change failed", "error", err)
	}
	return state, nil
}

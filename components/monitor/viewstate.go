package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ettle/strcase"
	"github.com/google/uuid"
)

// View tags one of the four top-level pages.
type View string

const (
	ViewHome       View = "home"
	ViewPowerPlant View = "powerplant"
	ViewAnalysis   View = "analysis"
	ViewSettings   View = "settings"
)

// Views lists the pages in navigation order.
var Views = []View{ViewHome, ViewPowerPlant, ViewAnalysis, ViewSettings}

// ParseView accepts the canonical tag or a case/separator variant such as
// "PowerPlant" or "power-plant".
func ParseView(raw string) (View, error) {
	key := strings.ReplaceAll(strcase.ToSnake(strings.TrimSpace(raw)), "_", "")
	for _, view := range Views {
		if string(view) == key {
			return view, nil
		}
	}
	return "", fmt.Errorf("monitor: unknown view %q", raw)
}

// Theme is the light/dark presentation mode.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle flips light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// ParseTheme falls back to light for anything but "dark".
func ParseTheme(raw string) Theme {
	if strings.EqualFold(strings.TrimSpace(raw), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// ViewState is the per-session UI state.
type ViewState struct {
	View       View   `json:"view"`
	PlantID    int    `json:"plant_id"`
	SearchTerm string `json:"search_term"`
	Page       int    `json:"page"`
	Theme      Theme  `json:"theme"`
	MapOpen    bool   `json:"map_open"`
}

// DefaultViewState opens the analysis page for plant 1 in light mode.
func DefaultViewState() ViewState {
	return ViewState{
		View:    ViewAnalysis,
		PlantID: 1,
		Page:    1,
		Theme:   ThemeLight,
	}
}

// Navigate switches views. A positive plant id changes the selection and
// closes the map modal; zero keeps the current plant.
func (s ViewState) Navigate(view View, plantID int) ViewState {
	s.View = view
	if plantID > 0 && plantID != s.PlantID {
		s.PlantID = plantID
		s.MapOpen = false
	}
	return s
}

// Search sets the term as typed and resets pagination.
func (s ViewState) Search(term string) ViewState {
	s.SearchTerm = term
	s.Page = 1
	return s
}

// SessionStore keeps view state per session.
type SessionStore interface {
	Load(ctx context.Context, viewer ViewerContext) (ViewState, error)
	Update(ctx context.Context, viewer ViewerContext, fn func(ViewState) ViewState) (ViewState, error)
}

// InMemorySessionStore is a concurrency-safe SessionStore.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	defaults ViewState
	data     map[string]ViewState
}

// NewInMemorySessionStore creates an empty store seeded with defaults for new sessions.
func NewInMemorySessionStore(defaults ViewState) *InMemorySessionStore {
	normalizeViewState(&defaults, DefaultViewState())
	return &InMemorySessionStore{
		defaults: defaults,
		data:     make(map[string]ViewState),
	}
}

// Load returns stored state or the defaults.
func (s *InMemorySessionStore) Load(_ context.Context, viewer ViewerContext) (ViewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.data[viewer.SessionID]; ok && viewer.SessionID != "" {
		return state, nil
	}
	return s.defaults, nil
}

// Update applies fn atomically and stores the normalized result.
func (s *InMemorySessionStore) Update(_ context.Context, viewer ViewerContext, fn func(ViewState) ViewState) (ViewState, error) {
	if viewer.SessionID == "" {
		return ViewState{}, fmt.Errorf("monitor: session store requires a session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.data[viewer.SessionID]
	if !ok {
		state = s.defaults
	}
	state = fn(state)
	normalizeViewState(&state, s.defaults)
	s.data[viewer.SessionID] = state
	return state, nil
}

// Forget drops a session.
func (s *InMemorySessionStore) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.data, sessionID)
	s.mu.Unlock()
}

// NewSessionID mints an opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

func normalizeViewState(state *ViewState, defaults ViewState) {
	if _, err := ParseView(string(state.View)); err != nil {
		state.View = defaults.View
	}
	if state.PlantID <= 0 {
		state.PlantID = defaults.PlantID
	}
	if state.Page < 1 {
		state.Page = 1
	}
	if state.Theme != ThemeDark {
		state.Theme = ThemeLight
	}
}

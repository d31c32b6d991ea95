package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseView(t *testing.T) {
	for raw, want := range map[string]View{
		"home":        ViewHome,
		"PowerPlant":  ViewPowerPlant,
		"power-plant": ViewPowerPlant,
		" analysis ":  ViewAnalysis,
		"SETTINGS":    ViewSettings,
	} {
		got, err := ParseView(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseView("reports")
	assert.Error(t, err)
}

func TestThemeToggle(t *testing.T) {
	assert.Equal(t, ThemeDark, ThemeLight.Toggle())
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.Equal(t, ThemeDark, Theme("").Toggle())
	assert.Equal(t, ThemeLight, ParseTheme("sepia"))
}

func TestViewStateNavigateClosesMapOnNewPlant(t *testing.T) {
	state := DefaultViewState()
	state.MapOpen = true

	same := state.Navigate(ViewAnalysis, 1)
	assert.True(t, same.MapOpen)

	moved := state.Navigate(ViewAnalysis, 4)
	assert.Equal(t, 4, moved.PlantID)
	assert.False(t, moved.MapOpen)

	kept := state.Navigate(ViewSettings, 0)
	assert.Equal(t, 1, kept.PlantID)
	assert.Equal(t, ViewSettings, kept.View)
}

func TestInMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySessionStore(ViewState{})
	viewer := ViewerContext{SessionID: NewSessionID()}

	state, err := store.Load(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, DefaultViewState(), state)

	state, err = store.Update(ctx, viewer, func(s ViewState) ViewState {
		s.Page = 0
		s.Theme = "neon"
		return s.Search("  solar ")
	})
	require.NoError(t, err)
	assert.Equal(t, "  solar ", state.SearchTerm)
	assert.Equal(t, 1, state.Page)
	assert.Equal(t, ThemeLight, state.Theme)

	loaded, err := store.Load(ctx, viewer)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)

	other, err := store.Load(ctx, ViewerContext{SessionID: "other"})
	require.NoError(t, err)
	assert.Empty(t, other.SearchTerm)

	_, err = store.Update(ctx, ViewerContext{}, func(s ViewState) ViewState { return s })
	assert.Error(t, err)

	store.Forget(viewer.SessionID)
	loaded, _ = store.Load(ctx, viewer)
	assert.Empty(t, loaded.SearchTerm)
}

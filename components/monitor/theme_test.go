package monitor

import (
	"strings"
	"testing"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
)

func TestSelectTheme(t *testing.T) {
	light := SelectTheme(ThemeLight)
	assert.Equal(t, ThemeLight, light.Name)
	assert.Equal(t, types.ThemeWesteros, light.ChartTheme)

	dark := SelectTheme(ThemeDark)
	assert.Equal(t, types.ThemeChalk, dark.ChartTheme)
	assert.Equal(t, "#111827", dark.Tokens["bg"])

	assert.Equal(t, ThemeLight, SelectTheme("sepia").Name)

	// selections do not share token maps
	light.Tokens["bg"] = "red"
	assert.Equal(t, "#f9fafb", SelectTheme(ThemeLight).Tokens["bg"])
}

func TestThemeCSSVariablesInline(t *testing.T) {
	inline := SelectTheme(ThemeLight).CSSVariablesInline()
	assert.True(t, strings.HasPrefix(inline, "--accent: #10b981;"))
	assert.Contains(t, inline, "--bg: #f9fafb;")
	assert.Equal(t, inline, SelectTheme(ThemeLight).CSSVariablesInline())

	assert.Empty(t, ThemeSelection{}.CSSVariablesInline())
}

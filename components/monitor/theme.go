package monitor

import (
	"sort"
	"strings"

	"github.com/go-echarts/go-echarts/v2/types"
)

// ThemeSelection carries resolved presentation tokens for one theme.
type ThemeSelection struct {
	Name       Theme             `json:"name"`
	Tokens     map[string]string `json:"tokens"`
	ChartTheme string            `json:"chart_theme"`
}

var themeTokens = map[Theme]map[string]string{
	ThemeLight: {
		"bg":          "#f9fafb",
		"surface":     "#ffffff",
		"text":        "#111827",
		"muted":       "#6b7280",
		"accent":      "#10b981",
		"accent-soft": "#ecfdf5",
		"border":      "#f3f4f6",
	},
	ThemeDark: {
		"bg":          "#111827",
		"surface":     "#1f2937",
		"text":        "#f9fafb",
		"muted":       "#9ca3af",
		"accent":      "#34d399",
		"accent-soft": "#064e3b",
		"border":      "#374151",
	},
}

// SelectTheme resolves tokens and the chart theme for t.
func SelectTheme(t Theme) ThemeSelection {
	if t != ThemeDark {
		t = ThemeLight
	}
	tokens := make(map[string]string, len(themeTokens[t]))
	for key, value := range themeTokens[t] {
		tokens[key] = value
	}
	chart := types.ThemeWesteros
	if t == ThemeDark {
		chart = types.ThemeChalk
	}
	return ThemeSelection{Name: t, Tokens: tokens, ChartTheme: chart}
}

// CSSVariables normalizes token keys into CSS variable names.
func (theme ThemeSelection) CSSVariables() map[string]string {
	if len(theme.Tokens) == 0 {
		return nil
	}
	vars := make(map[string]string, len(theme.Tokens))
	for key, value := range theme.Tokens {
		name := normalizeCSSVariable(key)
		if name == "" {
			continue
		}
		vars[name] = value
	}
	return vars
}

// CSSVariablesInline renders the CSS variables as a style attribute value, sorted by name.
func (theme ThemeSelection) CSSVariablesInline() string {
	vars := theme.CSSVariables()
	if len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	var builder strings.Builder
	for _, name := range names {
		if vars[name] == "" {
			continue
		}
		builder.WriteString(name)
		builder.WriteString(": ")
		builder.WriteString(vars[name])
		builder.WriteString("; ")
	}
	return strings.TrimSpace(builder.String())
}

func normalizeCSSVariable(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "--") {
		return name
	}
	return "--" + name
}

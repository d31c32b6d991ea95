package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/plantwatch/go-plantwatch/pkg/log"
)

// DefaultTemplates maps each view to its page template.
var DefaultTemplates = map[View]string{
	ViewHome:       "home.html",
	ViewPowerPlant: "powerplant.html",
	ViewAnalysis:   "analysis.html",
	ViewSettings:   "settings.html",
}

// Event stream kinds the page script can subscribe with.
const (
	EventStreamSSE       = "sse"
	EventStreamWebSocket = "ws"
)

// ControllerOptions wires the controller. EventStream tells the page which
// transport serves /events and defaults to EventStreamSSE.
type ControllerOptions struct {
	Service     *Service
	Renderer    Renderer
	BasePath    string
	Templates   map[View]string
	EventStream string
}

// Controller renders the current view of a session as HTML.
type Controller struct {
	service   *Service
	renderer  Renderer
	basePath  string
	templates map[View]string
	stream    string
}

// NewController wires the service and renderer into a controller.
func NewController(opts ControllerOptions) *Controller {
	templates := make(map[View]string, len(DefaultTemplates))
	for view, name := range DefaultTemplates {
		templates[view] = name
	}
	for view, name := range opts.Templates {
		if name != "" {
			templates[view] = name
		}
	}
	stream := opts.EventStream
	if stream != EventStreamWebSocket {
		stream = EventStreamSSE
	}
	return &Controller{
		service:   opts.Service,
		renderer:  opts.Renderer,
		basePath:  strings.TrimRight(opts.BasePath, "/"),
		templates: templates,
		stream:    stream,
	}
}

// NavItem is one entry of the navigation bar.
type NavItem struct {
	View   View   `json:"view"`
	Label  string `json:"label"`
	Href   string `json:"href"`
	Active bool   `json:"active"`
}

// Payload builds the template data for the session's current view. Data
// failures are reported in the payload; only session errors are returned.
func (c *Controller) Payload(ctx context.Context, viewer ViewerContext) (map[string]any, ViewState, error) {
	if c.service == nil {
		return nil, ViewState{}, errors.New("monitor: controller has no service")
	}
	state, err := c.service.State(ctx, viewer)
	if err != nil {
		return nil, ViewState{}, err
	}
	locale := c.service.Locale(viewer)
	labels := c.service.Labels()
	theme := SelectTheme(state.Theme)

	payload := map[string]any{
		"state":        state,
		"view":         string(state.View),
		"nav":          c.navigation(state, labels, locale, viewer.SessionID),
		"labels":       labels.Map(locale),
		"locale":       locale,
		"theme":        theme,
		"theme_css":    theme.CSSVariablesInline(),
		"clock":        c.service.Clock().Display(),
		"base_path":    c.basePath,
		"session_id":   viewer.SessionID,
		"event_stream": c.stream,
	}

	switch state.View {
	case ViewHome:
		if list, err := c.service.PlantList(ctx, viewer, ""); err != nil {
			c.reportFailure(ctx, payload, "home", err)
		} else {
			payload["summary"] = list.Summary
		}
	case ViewPowerPlant:
		if list, err := c.service.PlantList(ctx, viewer, ""); err != nil {
			c.reportFailure(ctx, payload, "powerplant", err)
		} else {
			payload["plants"] = list
		}
	case ViewAnalysis:
		if result, err := c.service.Analysis(ctx, viewer, state.PlantID); err != nil {
			c.reportFailure(ctx, payload, "analysis", err)
		} else {
			payload["analysis"] = result
		}
	case ViewSettings:
		key := "settings.theme_to_dark"
		if state.Theme == ThemeDark {
			key = "settings.theme_to_light"
		}
		payload["toggle_label"] = labels.Get(locale, key)
	}
	return payload, state, nil
}

// RenderView writes the session's current view to out.
func (c *Controller) RenderView(ctx context.Context, viewer ViewerContext, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("monitor: controller has no renderer")
	}
	payload, state, err := c.Payload(ctx, viewer)
	if err != nil {
		return err
	}
	name, ok := c.templates[state.View]
	if !ok {
		return fmt.Errorf("monitor: no template for view %q", state.View)
	}
	if _, err := c.renderer.Render(name, payload, out); err != nil {
		return fmt.Errorf("monitor: render %s: %w", name, err)
	}
	return nil
}

// navigation links carry the session id so transports without cookies keep
// the viewer across page loads.
func (c *Controller) navigation(state ViewState, labels *Labels, locale, sessionID string) []NavItem {
	suffix := ""
	if sessionID != "" {
		suffix = "&session=" + url.QueryEscape(sessionID)
	}
	items := make([]NavItem, 0, len(Views))
	for _, view := range Views {
		items = append(items, NavItem{
			View:   view,
			Label:  labels.Get(locale, "nav."+string(view)),
			Href:   c.basePath + "/?view=" + string(view) + suffix,
			Active: view == state.View,
		})
	}
	return items
}

func (c *Controller) reportFailure(ctx context.Context, payload map[string]any, view string, err error) {
	log.Ctx(ctx).WarnContext(ctx, "view data unavailable",
		"view", view,
		"kind", FailureKind(err),
		"error", err)
	payload["error"] = FailureKind(err)
}

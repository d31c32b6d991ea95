package gorouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/components/monitor/commands"
	"github.com/plantwatch/go-plantwatch/components/monitor/httpapi"
	"github.com/plantwatch/go-plantwatch/components/monitor/queries"
)

// ViewerResolver converts a router.Context into a monitor.ViewerContext.
type ViewerResolver func(router.Context) monitor.ViewerContext

// Config wires go-router with the monitor controller, actions and event hook.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *monitor.Controller
	API            httpapi.Executor
	Reader         httpapi.Reader
	Broadcast      *monitor.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths of the monitor endpoints.
type RouteConfig struct {
	HTML      string
	State     string
	Navigate  string
	Select    string
	Search    string
	Page      string
	Theme     string
	MapOpen   string
	Plants    string
	Analysis  string
	Map       string
	Geocode   string
	WebSocket string
}

// Register mounts the monitor routes (HTML, JSON, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := strings.TrimRight(cfg.BasePath, "/")
	if base == "" {
		base = monitor.DefaultBasePath
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		if cfg.API != nil {
			if err := applyQueryNavigation(ctx, cfg.API, viewer); err != nil {
				return respondError(ctx, statusFor(err, http.StatusBadRequest), err)
			}
		}
		var buf bytes.Buffer
		if err := cfg.Controller.RenderView(ctx.Context(), viewer, &buf); err != nil {
			return respondError(ctx, http.StatusInternalServerError, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	if cfg.Reader.State != nil {
		group.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
			return respondState(ctx, cfg.Reader, resolver(ctx))
		}))
	}

	if cfg.API != nil {
		registerActions(group, cfg.API, cfg.Reader, resolver, routes)
	}
	registerReads(group, cfg.Reader, resolver, routes)

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerActions[T any](r router.Router[T], api httpapi.Executor, reader httpapi.Reader, resolver ViewerResolver, routes RouteConfig) {
	r.Post(routes.Navigate, router.WrapHandler(jsonAction(reader, resolver,
		func(in *commands.NavigateInput) *monitor.ViewerContext { return &in.Viewer }, api.Navigate)))
	r.Post(routes.Select, router.WrapHandler(jsonAction(reader, resolver,
		func(in *commands.SelectPlantInput) *monitor.ViewerContext { return &in.Viewer }, api.SelectPlant)))
	r.Post(routes.Search, router.WrapHandler(jsonAction(reader, resolver,
		func(in *commands.SearchInput) *monitor.ViewerContext { return &in.Viewer }, api.Search)))
	r.Post(routes.Page, router.WrapHandler(jsonAction(reader, resolver,
		func(in *commands.ChangePageInput) *monitor.ViewerContext { return &in.Viewer }, api.ChangePage)))
	r.Post(routes.MapOpen, router.WrapHandler(jsonAction(reader, resolver,
		func(in *commands.SetMapOpenInput) *monitor.ViewerContext { return &in.Viewer }, api.SetMapOpen)))

	// theme toggles take no body
	r.Post(routes.Theme, router.WrapHandler(func(ctx router.Context) error {
		viewer := resolver(ctx)
		return afterAction(ctx, reader, viewer, api.ToggleTheme(ctx.Context(), commands.ToggleThemeInput{Viewer: viewer}))
	}))
}

// jsonAction decodes the request body into In, stamps the resolved viewer on
// it and runs the command.
func jsonAction[In any](reader httpapi.Reader, resolver ViewerResolver, viewerOf func(*In) *monitor.ViewerContext, run func(context.Context, In) error) func(router.Context) error {
	return func(ctx router.Context) error {
		var input In
		if body := ctx.Body(); len(body) > 0 {
			if err := json.Unmarshal(body, &input); err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
		}
		viewer := viewerOf(&input)
		*viewer = resolver(ctx)
		return afterAction(ctx, reader, *viewer, run(ctx.Context(), input))
	}
}

func registerReads[T any](r router.Router[T], reader httpapi.Reader, resolver ViewerResolver, routes RouteConfig) {
	if reader.Plants != nil {
		r.Get(routes.Plants, router.WrapHandler(func(ctx router.Context) error {
			input := queries.PlantListInput{Viewer: resolver(ctx)}
			switch kind := monitor.PlantType(strings.ToLower(ctx.Query("type"))); kind {
			case "", monitor.PlantTypeSolar, monitor.PlantTypeWind:
				input.Type = kind
			default:
				return respondError(ctx, http.StatusBadRequest, errors.New("type must be solar or wind"))
			}
			result, err := reader.Plants.Query(ctx.Context(), input)
			if err != nil {
				return respondError(ctx, statusFor(err, http.StatusInternalServerError), err)
			}
			return ctx.JSON(http.StatusOK, result)
		}))
	}

	if reader.Analysis != nil {
		r.Get(routes.Analysis, router.WrapHandler(func(ctx router.Context) error {
			id, err := plantID(ctx.Param("id"))
			if err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			result, err := reader.Analysis.Query(ctx.Context(), queries.AnalysisInput{Viewer: resolver(ctx), PlantID: id})
			if err != nil {
				return respondError(ctx, statusFor(err, http.StatusInternalServerError), err)
			}
			return ctx.JSON(http.StatusOK, result)
		}))
	}

	if reader.Map != nil {
		r.Get(routes.Map, router.WrapHandler(func(ctx router.Context) error {
			id, err := plantID(ctx.Param("id"))
			if err != nil {
				return respondError(ctx, http.StatusBadRequest, err)
			}
			return respondMap(ctx, reader, queries.MapInput{Viewer: resolver(ctx), PlantID: id})
		}))

		r.Get(routes.Geocode, router.WrapHandler(func(ctx router.Context) error {
			address := strings.TrimSpace(ctx.Query("address"))
			if address == "" {
				return respondError(ctx, http.StatusBadRequest, errors.New("address is required"))
			}
			return respondMap(ctx, reader, queries.MapInput{Viewer: resolver(ctx), Address: address})
		}))
	}
}

func registerWebSocket[T any](r router.Router[T], hook *monitor.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				// the socket carries no session, so only global events go out
				if event.SessionID != "" {
					continue
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

// applyQueryNavigation lets plain links (?view=, ?plant=, ?search=, ?page=,
// ?map=) drive the session the same way the JSON actions do.
func applyQueryNavigation(ctx router.Context, api httpapi.Executor, viewer monitor.ViewerContext) error {
	c := ctx.Context()
	if view := ctx.Query("view"); view != "" {
		id, _ := strconv.Atoi(ctx.Query("plant"))
		if err := api.Navigate(c, commands.NavigateInput{Viewer: viewer, View: view, PlantID: id}); err != nil {
			return err
		}
	}
	if term := ctx.Query("search"); term != "" {
		if err := api.Search(c, commands.SearchInput{Viewer: viewer, Term: term}); err != nil {
			return err
		}
	}
	if page, err := strconv.Atoi(ctx.Query("page")); err == nil && page > 0 {
		if err := api.ChangePage(c, commands.ChangePageInput{Viewer: viewer, PageRequest: monitor.PageRequest{Page: page}}); err != nil {
			return err
		}
	}
	if raw := ctx.Query("map"); raw != "" {
		open, _ := strconv.ParseBool(raw)
		if err := api.SetMapOpen(c, commands.SetMapOpenInput{Viewer: viewer, Open: open}); err != nil {
			return err
		}
	}
	return nil
}

func afterAction(ctx router.Context, reader httpapi.Reader, viewer monitor.ViewerContext, err error) error {
	if err != nil {
		return respondError(ctx, statusFor(err, http.StatusBadRequest), err)
	}
	if reader.State == nil {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	return respondState(ctx, reader, viewer)
}

func respondState(ctx router.Context, reader httpapi.Reader, viewer monitor.ViewerContext) error {
	state, err := reader.State.Query(ctx.Context(), viewer)
	if err != nil {
		return respondError(ctx, statusFor(err, http.StatusInternalServerError), err)
	}
	return ctx.JSON(http.StatusOK, map[string]any{"state": state})
}

func respondMap(ctx router.Context, reader httpapi.Reader, input queries.MapInput) error {
	state, err := reader.Map.Query(ctx.Context(), input)
	if err != nil {
		return respondError(ctx, statusFor(err, http.StatusInternalServerError), err)
	}
	return ctx.JSON(http.StatusOK, state)
}

const (
	sessionLocal = "session_id"
	localeLocal  = "locale"
)

// defaultViewerResolver reads the session from locals, the query string or
// the session header, and mints one when the client sent none. The minted
// id is echoed in the session header so scripts can keep it.
func defaultViewerResolver(ctx router.Context) monitor.ViewerContext {
	viewer := monitor.ViewerContext{SessionID: resolveSession(ctx)}
	if viewer.SessionID == "" {
		viewer.SessionID = monitor.NewSessionID()
		ctx.Locals(sessionLocal, viewer.SessionID)
	}
	ctx.SetHeader(httpapi.SessionHeader, viewer.SessionID)
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func resolveSession(ctx router.Context) string {
	if id, ok := ctx.Locals(sessionLocal).(string); ok && id != "" {
		return id
	}
	if id := strings.TrimSpace(ctx.Query(httpapi.SessionQuery)); id != "" {
		return id
	}
	return strings.TrimSpace(ctx.Header(httpapi.SessionHeader))
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals(localeLocal).(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return httpapi.ParseAcceptLanguage(ctx.Header("Accept-Language"))
}

func plantID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New("plant id must be a positive integer")
	}
	return id, nil
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, monitor.ErrMissingData):
		return http.StatusNotFound
	case errors.Is(err, monitor.ErrNetwork), errors.Is(err, monitor.ErrParse):
		return http.StatusBadGateway
	default:
		return fallback
	}
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.HTML, "/")
	set(&routes.State, "/api/state")
	set(&routes.Navigate, "/api/navigate")
	set(&routes.Select, "/api/select")
	set(&routes.Search, "/api/search")
	set(&routes.Page, "/api/page")
	set(&routes.Theme, "/api/theme")
	set(&routes.MapOpen, "/api/map")
	set(&routes.Plants, "/api/plants")
	set(&routes.Analysis, "/api/analysis/:id")
	set(&routes.Map, "/api/map/:id")
	set(&routes.Geocode, "/api/geocode")
	set(&routes.WebSocket, "/events")
	return routes
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/websocket"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/components/monitor/commands"
	"github.com/plantwatch/go-plantwatch/components/monitor/queries"
	"github.com/plantwatch/go-plantwatch/pkg/log"
)

// Handlers exposes the monitor routes over net/http.
type Handlers struct {
	Controller *monitor.Controller
	Actions    Executor
	Reader     Reader
	Broadcast  *monitor.BroadcastHook
	BasePath   string
}

// NewHandler builds the route table. Everything but the event stream is gzip
// compressed; every route runs behind WithSession.
func NewHandler(h *Handlers) http.Handler {
	base := strings.TrimRight(h.BasePath, "/")
	api := http.NewServeMux()
	api.HandleFunc("GET "+base+"/{$}", h.HandleView)
	api.HandleFunc("GET "+base+"/api/state", h.HandleState)
	api.HandleFunc("POST "+base+"/api/navigate", h.HandleNavigate)
	api.HandleFunc("POST "+base+"/api/select", h.HandleSelect)
	api.HandleFunc("POST "+base+"/api/search", h.HandleSearch)
	api.HandleFunc("POST "+base+"/api/page", h.HandleChangePage)
	api.HandleFunc("POST "+base+"/api/theme", h.HandleTheme)
	api.HandleFunc("POST "+base+"/api/map", h.HandleMapOpen)
	api.HandleFunc("GET "+base+"/api/plants", h.HandlePlants)
	api.HandleFunc("GET "+base+"/api/analysis/{id}", h.HandleAnalysis)
	api.HandleFunc("GET "+base+"/api/map/{id}", h.HandleMap)
	api.HandleFunc("GET "+base+"/api/geocode", h.HandleGeocode)

	mux := http.NewServeMux()
	mux.Handle("/", gziphandler.GzipHandler(api))
	mux.HandleFunc("GET "+base+"/events", h.HandleEvents)
	return WithSession(mux)
}

// HandleView renders the current view. Query parameters (view, plant,
// search, page, map) are applied first so plain links can drive navigation.
func (h *Handlers) HandleView(w http.ResponseWriter, r *http.Request) {
	if h.Controller == nil {
		respondError(w, http.StatusNotFound, errors.New("html view not configured"))
		return
	}
	viewer := ViewerFrom(r.Context())
	if err := h.applyQueryNavigation(r, viewer); err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	var buf bytes.Buffer
	if err := h.Controller.RenderView(r.Context(), viewer, &buf); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *Handlers) applyQueryNavigation(r *http.Request, viewer monitor.ViewerContext) error {
	if h.Actions == nil {
		return nil
	}
	q := r.URL.Query()
	ctx := r.Context()
	if view := q.Get("view"); view != "" {
		plantID, _ := strconv.Atoi(q.Get("plant"))
		if err := h.Actions.Navigate(ctx, commands.NavigateInput{Viewer: viewer, View: view, PlantID: plantID}); err != nil {
			return err
		}
	}
	if q.Has("search") {
		if err := h.Actions.Search(ctx, commands.SearchInput{Viewer: viewer, Term: q.Get("search")}); err != nil {
			return err
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		if err := h.Actions.ChangePage(ctx, commands.ChangePageInput{Viewer: viewer, PageRequest: monitor.PageRequest{Page: page}}); err != nil {
			return err
		}
	}
	if raw := q.Get("map"); raw != "" {
		open, _ := strconv.ParseBool(raw)
		if err := h.Actions.SetMapOpen(ctx, commands.SetMapOpenInput{Viewer: viewer, Open: open}); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, r, http.StatusOK)
}

func (h *Handlers) HandleNavigate(w http.ResponseWriter, r *http.Request) {
	var payload commands.NavigateInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = ViewerFrom(r.Context())
	h.execute(w, r, h.Actions.Navigate(r.Context(), payload))
}

func (h *Handlers) HandleSelect(w http.ResponseWriter, r *http.Request) {
	var payload commands.SelectPlantInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = ViewerFrom(r.Context())
	h.execute(w, r, h.Actions.SelectPlant(r.Context(), payload))
}

func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var payload commands.SearchInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = ViewerFrom(r.Context())
	h.execute(w, r, h.Actions.Search(r.Context(), payload))
}

// HandleChangePage accepts {"direction": "next"|"prev"} or {"page": n}.
func (h *Handlers) HandleChangePage(w http.ResponseWriter, r *http.Request) {
	var payload commands.ChangePageInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = ViewerFrom(r.Context())
	h.execute(w, r, h.Actions.ChangePage(r.Context(), payload))
}

// HandleTheme toggles the theme. With ?redirect=1 it sends the browser back
// to the page, which lets a plain form drive it.
func (h *Handlers) HandleTheme(w http.ResponseWriter, r *http.Request) {
	err := h.Actions.ToggleTheme(r.Context(), commands.ToggleThemeInput{Viewer: ViewerFrom(r.Context())})
	if err == nil && r.URL.Query().Get("redirect") != "" {
		http.Redirect(w, r, strings.TrimRight(h.BasePath, "/")+"/", http.StatusSeeOther)
		return
	}
	h.execute(w, r, err)
}

func (h *Handlers) HandleMapOpen(w http.ResponseWriter, r *http.Request) {
	var payload commands.SetMapOpenInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Viewer = ViewerFrom(r.Context())
	h.execute(w, r, h.Actions.SetMapOpen(r.Context(), payload))
}

func (h *Handlers) HandlePlants(w http.ResponseWriter, r *http.Request) {
	input := queries.PlantListInput{Viewer: ViewerFrom(r.Context())}
	switch kind := monitor.PlantType(strings.ToLower(r.URL.Query().Get("type"))); kind {
	case "", monitor.PlantTypeSolar, monitor.PlantTypeWind:
		input.Type = kind
	default:
		respondError(w, http.StatusBadRequest, errors.New("type must be solar or wind"))
		return
	}
	result, err := h.Reader.Plants.Query(r.Context(), input)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := plantID(w, r.PathValue("id"))
	if !ok {
		return
	}
	result, err := h.Reader.Analysis.Query(r.Context(), queries.AnalysisInput{Viewer: ViewerFrom(r.Context()), PlantID: id})
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) HandleMap(w http.ResponseWriter, r *http.Request) {
	id, ok := plantID(w, r.PathValue("id"))
	if !ok {
		return
	}
	h.respondMap(w, r, queries.MapInput{Viewer: ViewerFrom(r.Context()), PlantID: id})
}

func (h *Handlers) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		respondError(w, http.StatusBadRequest, errors.New("address is required"))
		return
	}
	h.respondMap(w, r, queries.MapInput{Viewer: ViewerFrom(r.Context()), Address: address})
}

// HandleEvents streams clock and analysis events for the session, over
// WebSocket when the client asks for an upgrade and SSE otherwise.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if h.Broadcast == nil {
		respondError(w, http.StatusNotFound, errors.New("event stream not configured"))
		return
	}
	viewer := ViewerFrom(r.Context())
	if websocket.IsWebSocketUpgrade(r) {
		h.Broadcast.ServeWebSocket(w, r, viewer.SessionID)
		return
	}
	h.Broadcast.ServeSSE(w, r, viewer.SessionID)
}

func (h *Handlers) respondMap(w http.ResponseWriter, r *http.Request, input queries.MapInput) {
	state, err := h.Reader.Map.Query(r.Context(), input)
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (h *Handlers) execute(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		respondError(w, statusFor(err, http.StatusBadRequest), err)
		return
	}
	h.respondState(w, r, http.StatusOK)
}

func (h *Handlers) respondState(w http.ResponseWriter, r *http.Request, status int) {
	state, err := h.Reader.State.Query(r.Context(), ViewerFrom(r.Context()))
	if err != nil {
		respondError(w, statusFor(err, http.StatusInternalServerError), err)
		return
	}
	respondJSON(w, status, map[string]any{"state": state})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func plantID(w http.ResponseWriter, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, errors.New("plant id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// statusFor maps fetch failures onto HTTP statuses.
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

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Default().Error("request failed", "status", status, "error", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

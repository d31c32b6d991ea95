package plantwatch

import (
	"fmt"
	"net/http"

	router "github.com/goliatone/go-router"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/components/monitor/gorouter"
	"github.com/plantwatch/go-plantwatch/components/monitor/httpapi"
	"github.com/plantwatch/go-plantwatch/pkg/geocode"
	"github.com/plantwatch/go-plantwatch/pkg/plantapi"
)

// Re-exports of the monitor component.
type (
	Config        = monitor.Config
	Service       = monitor.Service
	Options       = monitor.Options
	ViewerContext = monitor.ViewerContext
	ViewState     = monitor.ViewState
)

// NewService proxies to the component constructor.
func NewService(opts Options) *Service {
	return monitor.NewService(opts)
}

// LoadConfig reads a config file; an empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	return monitor.LoadConfigFile(path)
}

// Option customizes New.
type Option func(*App)

// WithGateway replaces the HTTP backend client.
func WithGateway(gw monitor.Gateway) Option {
	return func(a *App) { a.Gateway = gw }
}

// WithGeocoder replaces the Kakao geocoder.
func WithGeocoder(g monitor.Geocoder) Option {
	return func(a *App) { a.Geocoder = g }
}

// WithRenderer replaces the embedded page templates.
func WithRenderer(r monitor.Renderer) Option {
	return func(a *App) { a.Renderer = r }
}

// App is a fully wired monitor: backend client, geocoder, service and the
// event hook both transports stream from.
type App struct {
	Config    Config
	Gateway   monitor.Gateway
	Geocoder  monitor.Geocoder
	Renderer  monitor.Renderer
	Broadcast *monitor.BroadcastHook
	Telemetry monitor.Telemetry
	Service   *Service
}

// New assembles an App from cfg.
func New(cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{
		Config:    cfg,
		Broadcast: monitor.NewBroadcastHook(),
		Telemetry: monitor.LogTelemetry{},
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.Gateway == nil {
		client, err := plantapi.New(plantapi.Config{
			BaseURL:   cfg.API.BaseURL,
			Timeout:   cfg.API.Timeout,
			UserAgent: cfg.API.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		app.Gateway = client
	}
	if app.Geocoder == nil && cfg.Map.RESTKey != "" {
		kakao, err := geocode.NewKakao(geocode.Config{
			BaseURL: cfg.Map.GeocodeURL,
			RESTKey: cfg.Map.RESTKey,
			Timeout: cfg.API.Timeout,
		})
		if err != nil {
			return nil, err
		}
		app.Geocoder = geocode.NewRateLimited(kakao, cfg.Map.GeocodeRPS, cfg.Map.GeocodeBurst)
	}
	if app.Renderer == nil {
		renderer, err := monitor.NewTemplateRenderer()
		if err != nil {
			return nil, fmt.Errorf("plantwatch: load templates: %w", err)
		}
		app.Renderer = renderer
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	charts := monitor.NewChartRenderer(
		monitor.WithChartCache(monitor.NewChartCache(cfg.Charts.CacheTTL)),
		monitor.WithChartAssetsHost(cfg.Charts.AssetsHost),
	)
	app.Service = monitor.NewService(monitor.Options{
		Gateway:   app.Gateway,
		Geocoder:  app.Geocoder,
		Sessions:  monitor.NewInMemorySessionStore(cfg.DefaultViewState()),
		Charts:    charts,
		Events:    app.Broadcast,
		Telemetry: app.Telemetry,
		Location:  loc,
		Locale:    cfg.View.Locale,
		PageSize:  cfg.View.PageSize,
		MapAppKey: cfg.Map.AppKey,
		MapLevel:  cfg.Map.Level,

		SessionTTL:  cfg.View.SessionTTL,
		MaxSessions: cfg.View.MaxSessions,
	})
	return app, nil
}

// Start begins the display clock.
func (a *App) Start() {
	a.Service.Clock().Start()
}

// Close stops the clock and cancels in-flight analysis loads.
func (a *App) Close() {
	a.Service.Close()
}

// Controller builds an HTML controller for the given event stream kind.
func (a *App) Controller(stream string) *monitor.Controller {
	return monitor.NewController(monitor.ControllerOptions{
		Service:     a.Service,
		Renderer:    a.Renderer,
		BasePath:    a.Config.BasePath,
		EventStream: stream,
	})
}

// Handler serves the monitor over net/http with SSE or WebSocket events.
func (a *App) Handler() http.Handler {
	return httpapi.NewHandler(&httpapi.Handlers{
		Controller: a.Controller(monitor.EventStreamSSE),
		Actions:    httpapi.NewCommandExecutor(a.Service, a.Telemetry),
		Reader:     httpapi.NewReader(a.Service),
		Broadcast:  a.Broadcast,
		BasePath:   a.Config.BasePath,
	})
}

// Register mounts the monitor on a go-router router with WebSocket events.
func Register[T any](app *App, r router.Router[T]) error {
	return gorouter.Register(gorouter.Config[T]{
		Router:     r,
		Controller: app.Controller(monitor.EventStreamWebSocket),
		API:        httpapi.NewCommandExecutor(app.Service, app.Telemetry),
		Reader:     httpapi.NewReader(app.Service),
		Broadcast:  app.Broadcast,
		BasePath:   app.Config.BasePath,
	})
}

package monitor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plantwatch/go-plantwatch/pkg/log"
)

// SliceStatus tracks one independently loaded part of the analysis page.
type SliceStatus string

const (
	SlicePending SliceStatus = "pending"
	SliceReady   SliceStatus = "ready"
	SliceFailed  SliceStatus = "failed"
)

// Slice names used in events and logs.
const (
	SlicePlant      = "plant"
	SliceWeather    = "weather"
	SliceIrradiance = "irradiance"
	SliceRealtime   = "realtime"
	SliceHourly     = "hourly"
	SliceDaily      = "daily"
)

// Slice holds a value that loads and fails on its own.
type Slice[T any] struct {
	Status  SliceStatus `json:"status"`
	Value   T           `json:"value"`
	Failure string      `json:"failure,omitempty"`
	err     error
}

// Ready reports whether Value holds loaded data.
func (s Slice[T]) Ready() bool { return s.Status == SliceReady }

// Err returns the load error of a failed slice.
func (s Slice[T]) Err() error { return s.err }

func pendingSlice[T any]() Slice[T] {
	return Slice[T]{Status: SlicePending}
}

func settle[T any](value T, err error) Slice[T] {
	if err != nil {
		return Slice[T]{Status: SliceFailed, Failure: FailureKind(err), err: err}
	}
	return Slice[T]{Status: SliceReady, Value: value}
}

// AnalysisState is everything the analysis page shows for one plant.
type AnalysisState struct {
	PlantID    int                      `json:"plant_id"`
	Generation uint64                   `json:"generation"`
	Plant      Slice[Plant]             `json:"plant"`
	Weather    Slice[WeatherSnapshot]   `json:"weather"`
	Irradiance Slice[IrradianceReading] `json:"irradiance"`
	Realtime   Slice[PredictionPoint]   `json:"realtime"`
	Hourly     Slice[[]HourlyBar]       `json:"hourly"`
	Daily      Slice[[]DailyBar]        `json:"daily"`
}

func newAnalysisState(plantID int, generation uint64) AnalysisState {
	return AnalysisState{
		PlantID:    plantID,
		Generation: generation,
		Plant:      pendingSlice[Plant](),
		Weather:    pendingSlice[WeatherSnapshot](),
		Irradiance: pendingSlice[IrradianceReading](),
		Realtime:   pendingSlice[PredictionPoint](),
		Hourly:     pendingSlice[[]HourlyBar](),
		Daily:      pendingSlice[[]DailyBar](),
	}
}

// Settled reports whether no slice is still pending.
func (s AnalysisState) Settled() bool {
	return s.Plant.Status != SlicePending &&
		s.Weather.Status != SlicePending &&
		s.Irradiance.Status != SlicePending &&
		s.Realtime.Status != SlicePending &&
		s.Hourly.Status != SlicePending &&
		s.Daily.Status != SlicePending
}

// AnalysisStats are the formatted stat cards.
type AnalysisStats struct {
	CurrentPowerKW   string `json:"current_power_kw"`
	CurrentPowerHero string `json:"current_power_hero"`
	CumulativeKWh    string `json:"cumulative_kwh"`
	Efficiency       string `json:"efficiency"`
	Irradiance       string `json:"irradiance"`
	Temperature      string `json:"temperature"`
	CloudCover       string `json:"cloud_cover"`
	Capacity         string `json:"capacity"`
}

// Stats derives the stat cards. Anything not loaded renders as Placeholder.
func (s AnalysisState) Stats(numbers NumberFormatter) AnalysisStats {
	var current, cumulative, capacity OptionalFloat
	if s.Realtime.Ready() {
		current = s.Realtime.Value.PredictedPower
		cumulative = s.Realtime.Value.CumulativeMWh
	}
	if s.Plant.Ready() {
		capacity = s.Plant.Value.CapacityMW
	}
	stats := AnalysisStats{
		CurrentPowerKW:   FormatFixed(scaled(current), 2),
		CurrentPowerHero: numbers.KW(current),
		CumulativeKWh:    FormatFixed(scaled(cumulative), 2),
		Efficiency:       FormatEfficiency(current, capacity),
		Irradiance:       Placeholder,
		Temperature:      Placeholder,
		CloudCover:       Placeholder,
		Capacity:         Placeholder,
	}
	if capacity.Usable() {
		stats.Capacity = plainNumber(capacity.Value) + " MW"
	}
	if s.Irradiance.Ready() && s.Irradiance.Value.GHI.Usable() {
		stats.Irradiance = plainNumber(s.Irradiance.Value.GHI.Value) + " W/m²"
	}
	if s.Weather.Ready() {
		if t := s.Weather.Value.Temperature; t.Usable() {
			stats.Temperature = plainNumber(t.Value) + "℃"
		}
		if c := s.Weather.Value.CloudCover; c.Usable() {
			stats.CloudCover = plainNumber(c.Value) + "%"
		}
	}
	return stats
}

func scaled(v OptionalFloat) OptionalFloat {
	if !v.Valid {
		return v
	}
	return Float(ScaleUp(v.Value))
}

func plainNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// AnalysisOption customizes an AnalysisView.
type AnalysisOption func(*AnalysisView)

// WithReshaper sets how forecast timestamps are labeled.
func WithReshaper(r Reshaper) AnalysisOption {
	return func(v *AnalysisView) {
		v.reshaper = r
	}
}

// WithAnalysisEvents publishes slice updates for the given session.
func WithAnalysisEvents(hook EventHook, sessionID string) AnalysisOption {
	return func(v *AnalysisView) {
		v.hook = normalizeEventHook(hook)
		v.sessionID = sessionID
	}
}

// WithAnalysisTelemetry records selections.
func WithAnalysisTelemetry(t Telemetry) AnalysisOption {
	return func(v *AnalysisView) {
		v.telemetry = normalizeTelemetry(t)
	}
}

// AnalysisView loads the analysis page for the selected plant. Every
// selection bumps a generation counter and cancels the previous one;
// results tagged with an older generation are dropped.
type AnalysisView struct {
	source    AnalysisSource
	reshaper  Reshaper
	hook      EventHook
	sessionID string
	telemetry Telemetry

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      AnalysisState
}

// NewAnalysisView builds a view over source.
func NewAnalysisView(source AnalysisSource, opts ...AnalysisOption) *AnalysisView {
	v := &AnalysisView{
		source:    source,
		hook:      noopEventHook{},
		telemetry: noopTelemetry{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Activation tracks the fetches started by one Select call.
type Activation struct {
	PlantID    int
	Generation uint64
	done       chan struct{}
}

// Done is closed once every fetch of the activation has returned.
func (a *Activation) Done() <-chan struct{} { return a.done }

// Wait blocks until the activation settles or ctx ends.
func (a *Activation) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select resets every slice and starts the six fetches for plantID.
func (v *AnalysisView) Select(ctx context.Context, plantID int) *Activation {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.state = newAnalysisState(plantID, gen)
	v.mu.Unlock()

	v.telemetry.Record(ctx, "monitor.analysis.select", map[string]any{
		"plant_id":   plantID,
		"generation": gen,
	})

	act := &Activation{PlantID: plantID, Generation: gen, done: make(chan struct{})}
	src := v.source

	// A plain Group: a failed slice never cancels its siblings, and Wait
	// hands back the first failure for the settle event.
	var g errgroup.Group
	g.Go(func() error {
		return fetchSlice(v, fetchCtx, gen, plantID, SlicePlant, func(ctx context.Context) (Plant, error) {
			return src.GetPlant(ctx, plantID)
		}, func(s *AnalysisState, slice Slice[Plant]) { s.Plant = slice })
	})
	g.Go(func() error {
		return fetchSlice(v, fetchCtx, gen, plantID, SliceWeather, func(ctx context.Context) (WeatherSnapshot, error) {
			return src.GetCurrentWeather(ctx, plantID)
		}, func(s *AnalysisState, slice Slice[WeatherSnapshot]) { s.Weather = slice })
	})
	g.Go(func() error {
		return fetchSlice(v, fetchCtx, gen, plantID, SliceIrradiance, func(ctx context.Context) (IrradianceReading, error) {
			return src.GetSolarRealtime(ctx, plantID)
		}, func(s *AnalysisState, slice Slice[IrradianceReading]) { s.Irradiance = slice })
	})
	g.Go(func() error {
		return fetchSlice(v, fetchCtx, gen, plantID, SliceRealtime, func(ctx context.Context) (PredictionPoint, error) {
			points, err := src.GetRealtimePrediction(ctx, plantID)
			if err != nil {
				return PredictionPoint{}, err
			}
			if len(points) == 0 {
				return PredictionPoint{}, MissingDataError("realtime prediction", "empty series")
			}
			return points[len(points)-1], nil
		}, func(s *AnalysisState, slice Slice[PredictionPoint]) { s.Realtime = slice })
	})
	g.Go(func() error {
		return fetchSlice(v, fetchCtx, gen, plantID, SliceHourly, func(ctx context.Context) ([]HourlyBar, error) {
			points, err := src.GetHourlyForecast(ctx, plantID)
			if err != nil {
				return nil, err
			}
			return v.reshaper.Hourly(points)
		}, func(s *AnalysisState, slice Slice[[]HourlyBar]) { s.Hourly = slice })
	})
	g.Go(func() error {
		return fetchSlice(v, fetchCtx, gen, plantID, SliceDaily, func(ctx context.Context) ([]DailyBar, error) {
			points, err := src.GetDailyPrediction(ctx, plantID)
			if err != nil {
				return nil, err
			}
			return v.reshaper.Daily(points)
		}, func(s *AnalysisState, slice Slice[[]DailyBar]) { s.Daily = slice })
	})

	go func() {
		err := g.Wait()
		cancel()
		payload := map[string]any{
			"plant_id":   plantID,
			"generation": gen,
			"complete":   err == nil,
		}
		if err != nil {
			payload["first_failure"] = FailureKind(err)
		}
		v.telemetry.Record(context.WithoutCancel(ctx), "monitor.analysis.settled", payload)
		close(act.done)
	}()
	return act
}

// Load selects plantID and waits for its fetches to settle. When a newer
// selection supersedes this one, the returned state belongs to the newer plant.
func (v *AnalysisView) Load(ctx context.Context, plantID int) AnalysisState {
	act := v.Select(ctx, plantID)
	_ = act.Wait(ctx)
	return v.Snapshot()
}

// Snapshot returns a copy of the current state.
func (v *AnalysisView) Snapshot() AnalysisState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Close cancels in-flight fetches.
func (v *AnalysisView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *AnalysisView) apply(gen uint64, update func(*AnalysisState)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		return false
	}
	update(&v.state)
	return true
}

// fetchSlice stores one slice result and returns its error. Stale results
// are dropped and report nil.
func fetchSlice[T any](v *AnalysisView, ctx context.Context, gen uint64, plantID int, name string, fetch func(context.Context) (T, error), assign func(*AnalysisState, Slice[T])) error {
	value, err := fetch(ctx)
	slice := settle(value, err)
	if !v.apply(gen, func(s *AnalysisState) { assign(s, slice) }) {
		log.Ctx(ctx).DebugContext(ctx, "discarding stale analysis response",
			"slice", name, "generation", gen)
		return nil
	}
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "analysis slice failed",
			"slice", name,
			"plant_id", plantID,
			"kind", FailureKind(err),
			"error", err)
	}
	_ = v.hook.Publish(context.WithoutCancel(ctx), Event{
		Type:      EventAnalysisSlice,
		SessionID: v.sessionID,
		PlantID:   plantID,
		Payload: map[string]any{
			"slice":      name,
			"status":     string(slice.Status),
			"generation": gen,
		},
		At: time.Now(),
	})
	return err
}

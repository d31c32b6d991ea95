package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// fakeGateway serves deterministic data keyed by plant id. A gate blocks
// every call for that plant until it is closed, ignoring cancellation.
type fakeGateway struct {
	mu       sync.Mutex
	plants   []Plant
	gates    map[int]chan struct{}
	failures map[string]error
	calls    map[string]int
	started  chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		plants: []Plant{
			{ID: 1, Name: "Yeongam Solar", Place: "전남 영암군", CapacityMW: Float(3), Latitude: Float(34.8), Longitude: Float(126.4), Type: PlantTypeSolar, Status: PlantStatusNormal},
			{ID: 2, Name: "Jeju Wind", Place: "제주 한림읍", CapacityMW: Float(6), Latitude: Float(33.4), Longitude: Float(126.2), Type: PlantTypeWind, Status: PlantStatusMaintenance},
			{ID: 3, Name: "Unmapped Solar", Place: "세종", Type: PlantTypeSolar, Status: PlantStatusNormal},
		},
		gates:    map[int]chan struct{}{},
		failures: map[string]error{},
		calls:    map[string]int{},
	}
}

func (f *fakeGateway) gate(id int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

func (f *fakeGateway) fail(op string, err error) {
	f.mu.Lock()
	f.failures[op] = err
	f.mu.Unlock()
}

func (f *fakeGateway) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) enter(op string, id int) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gates[id]
	err := f.failures[op]
	started := f.started
	f.mu.Unlock()
	if started != nil {
		started <- fmt.Sprintf("%s:%d", op, id)
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeGateway) ListPlants(ctx context.Context) ([]Plant, error) {
	if err := f.enter("plants", 0); err != nil {
		return nil, err
	}
	return append([]Plant(nil), f.plants...), nil
}

func (f *fakeGateway) GetPlant(ctx context.Context, id int) (Plant, error) {
	if err := f.enter("plant", id); err != nil {
		return Plant{}, err
	}
	for _, plant := range f.plants {
		if plant.ID == id {
			return plant, nil
		}
	}
	return Plant{}, MissingDataError("get plant", "not found")
}

func (f *fakeGateway) GetCurrentWeather(ctx context.Context, id int) (WeatherSnapshot, error) {
	if err := f.enter("weather", id); err != nil {
		return WeatherSnapshot{}, err
	}
	return WeatherSnapshot{Temperature: Float(float64(id * 10)), CloudCover: Float(40)}, nil
}

func (f *fakeGateway) GetSolarRealtime(ctx context.Context, id int) (IrradianceReading, error) {
	if err := f.enter("irradiance", id); err != nil {
		return IrradianceReading{}, err
	}
	return IrradianceReading{GHI: Float(float64(id * 100))}, nil
}

func (f *fakeGateway) GetRealtimePrediction(ctx context.Context, id int) ([]PredictionPoint, error) {
	if err := f.enter("realtime", id); err != nil {
		return nil, err
	}
	return []PredictionPoint{
		{ForecastTime: "2025-06-21T13:00:00Z", PredictedPower: Float(0.5), CumulativeMWh: Float(1)},
		{ForecastTime: "2025-06-21T14:00:00Z", PredictedPower: Float(1.5 * float64(id)), CumulativeMWh: Float(2.25)},
	}, nil
}

func (f *fakeGateway) GetHourlyForecast(ctx context.Context, id int) ([]ForecastPoint, error) {
	if err := f.enter("hourly", id); err != nil {
		return nil, err
	}
	return []ForecastPoint{
		{ForecastTime: "2025-06-21T14:00:00Z", PredictedPower: 3.2 * float64(id)},
	}, nil
}

func (f *fakeGateway) GetDailyPrediction(ctx context.Context, id int) ([]DailyForecastPoint, error) {
	if err := f.enter("daily", id); err != nil {
		return nil, err
	}
	return []DailyForecastPoint{
		{ForecastDate: "2025-06-21", TotalPower: float64(id)},
		{ForecastDate: "2025-06-22", TotalPower: float64(id) * 2},
	}, nil
}

func (f *fakeGateway) GetSolarForecast(ctx context.Context, id int) (json.RawMessage, error) {
	if err := f.enter("solar_forecast", id); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"forecast":[]}`), nil
}

func (f *fakeGateway) GetDailyForecast(ctx context.Context, id int, window DateRange) (json.RawMessage, error) {
	if err := f.enter("daily_forecast", id); err != nil {
		return nil, err
	}
	return json.RawMessage(`[]`), nil
}

type recordingHook struct {
	mu     sync.Mutex
	events []Event
}

func (h *recordingHook) Publish(_ context.Context, event Event) error {
	h.mu.Lock()
	h.events = append(h.events, event)
	h.mu.Unlock()
	return nil
}

func (h *recordingHook) snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

type stubRenderer struct {
	mu    sync.Mutex
	calls int
	last  string
	data  any
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.mu.Lock()
	s.calls++
	s.last = name
	s.data = data
	s.mu.Unlock()
	if len(out) > 0 && out[0] != nil {
		_, _ = out[0].Write([]byte("<html>" + name + "</html>"))
	}
	return name, nil
}

type recordingTelemetry struct {
	mu       sync.Mutex
	events   []string
	payloads []map[string]any
}

func (r *recordingTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	r.mu.Unlock()
}

func (r *recordingTelemetry) last(event string) map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i] == event {
			return r.payloads[i]
		}
	}
	return nil
}

package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisViewLoadsEverySlice(t *testing.T) {
	gateway := newFakeGateway()
	hook := &recordingHook{}
	view := NewAnalysisView(gateway, WithAnalysisEvents(hook, "s1"), WithAnalysisTelemetry(LogTelemetry{}))

	state := view.Load(context.Background(), 1)

	require.True(t, state.Settled())
	assert.Equal(t, 1, state.PlantID)
	assert.Equal(t, "Yeongam Solar", state.Plant.Value.Name)
	assert.Equal(t, 1.5, state.Realtime.Value.PredictedPower.Value, "the last realtime point is now")
	assert.Equal(t, []HourlyBar{{Label: "14시", PowerKW: 3200, FullDate: "2025-06-21T14:00:00Z"}}, state.Hourly.Value)
	assert.Equal(t, []DailyBar{{Label: "6/21일", PredictedKW: 1000}, {Label: "6/22일", PredictedKW: 2000}}, state.Daily.Value)

	stats := state.Stats(NewNumberFormatter("en"))
	assert.Equal(t, "1500.00", stats.CurrentPowerKW)
	assert.Equal(t, "1,500", stats.CurrentPowerHero)
	assert.Equal(t, "2250.00", stats.CumulativeKWh)
	assert.Equal(t, "50.0", stats.Efficiency)
	assert.Equal(t, "100 W/m²", stats.Irradiance)
	assert.Equal(t, "10℃", stats.Temperature)
	assert.Equal(t, "40%", stats.CloudCover)
	assert.Equal(t, "3 MW", stats.Capacity)

	events := hook.snapshot()
	assert.Len(t, events, 6)
	for _, event := range events {
		assert.Equal(t, EventAnalysisSlice, event.Type)
		assert.Equal(t, "s1", event.SessionID)
		assert.Equal(t, 1, event.PlantID)
	}
}

func TestAnalysisViewSliceFailuresAreIndependent(t *testing.T) {
	gateway := newFakeGateway()
	gateway.fail("weather", NetworkError("weather", 0, errors.New("connection refused")))
	gateway.fail("hourly", ParseError("hourly", errors.New("unexpected token")))
	view := NewAnalysisView(gateway)

	state := view.Load(context.Background(), 1)

	assert.Equal(t, SliceFailed, state.Weather.Status)
	assert.Equal(t, "network", state.Weather.Failure)
	assert.True(t, errors.Is(state.Weather.Err(), ErrNetwork))
	assert.Equal(t, SliceFailed, state.Hourly.Status)
	assert.Equal(t, "parse", state.Hourly.Failure)

	assert.True(t, state.Plant.Ready())
	assert.True(t, state.Irradiance.Ready())
	assert.True(t, state.Realtime.Ready())
	assert.True(t, state.Daily.Ready())

	stats := state.Stats(NewNumberFormatter("en"))
	assert.Equal(t, Placeholder, stats.Temperature)
	assert.Equal(t, Placeholder, stats.CloudCover)
	assert.Equal(t, "50.0", stats.Efficiency)
}

func TestAnalysisViewReportsSettleOutcome(t *testing.T) {
	gateway := newFakeGateway()
	telemetry := &recordingTelemetry{}
	view := NewAnalysisView(gateway, WithAnalysisTelemetry(telemetry))

	state := view.Load(context.Background(), 1)
	require.True(t, state.Settled())
	settled := telemetry.last("monitor.analysis.settled")
	require.NotNil(t, settled)
	assert.Equal(t, true, settled["complete"])
	assert.NotContains(t, settled, "first_failure")

	gateway.fail("weather", NetworkError("weather", 0, errors.New("connection refused")))
	state = view.Load(context.Background(), 2)
	assert.True(t, state.Plant.Ready(), "siblings still load")
	assert.True(t, state.Daily.Ready())
	settled = telemetry.last("monitor.analysis.settled")
	require.NotNil(t, settled)
	assert.Equal(t, false, settled["complete"])
	assert.Equal(t, "network", settled["first_failure"])
	assert.Equal(t, 2, settled["plant_id"])
}

func TestAnalysisViewMissingCapacityShowsPlaceholder(t *testing.T) {
	gateway := newFakeGateway()
	view := NewAnalysisView(gateway)

	state := view.Load(context.Background(), 3)

	require.True(t, state.Plant.Ready())
	stats := state.Stats(NewNumberFormatter("en"))
	assert.Equal(t, Placeholder, stats.Efficiency)
	assert.Equal(t, Placeholder, stats.Capacity)
	assert.Equal(t, "4500.00", stats.CurrentPowerKW)
}

func TestAnalysisViewEmptyRealtimeIsMissingData(t *testing.T) {
	view := NewAnalysisView(emptyRealtimeGateway{newFakeGateway()})

	state := view.Load(context.Background(), 1)

	assert.Equal(t, SliceFailed, state.Realtime.Status)
	assert.Equal(t, "missing_data", state.Realtime.Failure)
	stats := state.Stats(NewNumberFormatter("en"))
	assert.Equal(t, Placeholder, stats.CurrentPowerKW)
	assert.Equal(t, Placeholder, stats.CurrentPowerHero)
	assert.Equal(t, Placeholder, stats.Efficiency)
}

func TestAnalysisViewDiscardsStaleResponses(t *testing.T) {
	gateway := newFakeGateway()
	releasePlant1 := gateway.gate(1)
	hook := &recordingHook{}
	view := NewAnalysisView(gateway, WithAnalysisEvents(hook, "s1"))
	ctx := context.Background()

	first := view.Select(ctx, 1)
	second := view.Select(ctx, 2)
	require.NoError(t, second.Wait(ctx))

	// plant 1 responses arrive after plant 2 already settled
	close(releasePlant1)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, first.Wait(waitCtx))

	state := view.Snapshot()
	assert.Equal(t, 2, state.PlantID)
	assert.Equal(t, second.Generation, state.Generation)
	assert.Equal(t, 2, state.Plant.Value.ID)
	assert.Equal(t, "Jeju Wind", state.Plant.Value.Name)
	assert.Equal(t, 20.0, state.Weather.Value.Temperature.Value)
	assert.Equal(t, 200.0, state.Irradiance.Value.GHI.Value)
	assert.Equal(t, 3.0, state.Realtime.Value.PredictedPower.Value)
	assert.Equal(t, int64(6400), state.Hourly.Value[0].PowerKW)
	assert.Equal(t, int64(2000), state.Daily.Value[0].PredictedKW)

	for _, event := range hook.snapshot() {
		assert.Equal(t, 2, event.PlantID, "stale slices must not be published")
	}
}

func TestAnalysisViewSelectResetsSlices(t *testing.T) {
	gateway := newFakeGateway()
	view := NewAnalysisView(gateway)
	ctx := context.Background()

	view.Load(ctx, 1)
	release := gateway.gate(2)
	act := view.Select(ctx, 2)

	pending := view.Snapshot()
	assert.Equal(t, 2, pending.PlantID)
	assert.Equal(t, SlicePending, pending.Plant.Status)
	assert.Equal(t, SlicePending, pending.Hourly.Status)
	assert.False(t, pending.Settled())

	close(release)
	require.NoError(t, act.Wait(ctx))
	assert.True(t, view.Snapshot().Settled())
}

func TestAnalysisViewRefetchesOnEverySelection(t *testing.T) {
	gateway := newFakeGateway()
	view := NewAnalysisView(gateway)
	ctx := context.Background()

	view.Load(ctx, 1)
	view.Load(ctx, 2)
	view.Load(ctx, 1)

	for _, op := range []string{"plant", "weather", "irradiance", "realtime", "hourly", "daily"} {
		assert.Equal(t, 3, gateway.callCount(op), op)
	}
}

func TestAnalysisViewCloseCancelsInFlight(t *testing.T) {
	view := NewAnalysisView(blockingGateway{newFakeGateway()})
	act := view.Select(context.Background(), 1)
	view.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, act.Wait(ctx))

	state := view.Snapshot()
	assert.Equal(t, SliceFailed, state.Weather.Status)
}

type emptyRealtimeGateway struct {
	*fakeGateway
}

func (emptyRealtimeGateway) GetRealtimePrediction(context.Context, int) ([]PredictionPoint, error) {
	return nil, nil
}

// blockingGateway waits on ctx for weather so cancellation is observable.
type blockingGateway struct {
	*fakeGateway
}

func (blockingGateway) GetCurrentWeather(ctx context.Context, id int) (WeatherSnapshot, error) {
	<-ctx.Done()
	return WeatherSnapshot{}, NetworkError("weather", 0, ctx.Err())
}

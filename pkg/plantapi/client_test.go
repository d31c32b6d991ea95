package plantapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

func newTestClient(t *testing.T, routes map[string]string) (*Client, *[]string) {
	t.Helper()
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.RequestURI())
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "500" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	client, err := New(Config{BaseURL: server.URL + "/", Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client, &seen
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestListAndGetPlant(t *testing.T) {
	client, seen := newTestClient(t, map[string]string{
		"/plants":   `[{"id":1,"name":"Yeongam","capacity_mw":"3.5","latitude":34.8,"longitude":null,"type":"solar"}]`,
		"/plants/1": `{"id":1,"name":"Yeongam","place":"Jeonnam"}`,
	})
	ctx := context.Background()

	plants, err := client.ListPlants(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, 3.5, plants[0].CapacityMW.Value)
	_, ok := plants[0].Coordinates()
	assert.False(t, ok)

	plant, err := client.GetPlant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Jeonnam", plant.Place)

	_, err = client.GetPlant(ctx, 7)
	assert.ErrorIs(t, err, monitor.ErrMissingData)
	assert.Equal(t, []string{"/plants", "/plants/1", "/plants/7"}, *seen)
}

func TestEnvelopes(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/weather/current/1":         `{"weather":{"temperature":21.5,"cloud":"40"}}`,
		"/weather/current/2":         `{"weather":null}`,
		"/solar/realtime/1":          `{"ghi":512.3}`,
		"/solar/realtime/2":          `{}`,
		"/prediction/realtime/1":     `{"data":[{"predicted_power":1.2,"cumulative_power":3.4}]}`,
		"/prediction/realtime/2":     `{"status":"ok"}`,
		"/prediction/hourly/today/1": `{"data":[{"forecast_time":"2025-06-21T09:00:00","predicted_power":2.5}]}`,
		"/prediction/daily/3days/1":  `{"data":[{"forecast_date":"2025-06-21","total_power":30}]}`,
		"/prediction/hourly/today/2": `{"data":[{"forecast_time":"2025-06-21T09:00:00"}]}`,
		"/prediction/hourly/today/3": `{"data":[{"forecast_time":"2025-06-21T14:00:00Z","predicted_power":3.2},{"forecast_time":"2025-06-21T15:00:00Z","predicted_power":null}]}`,
		"/prediction/daily/3days/3":  `{"data":[{"forecast_date":"2025-06-21","total_power":null}]}`,
	})
	ctx := context.Background()

	weather, err := client.GetCurrentWeather(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 21.5, weather.Temperature.Value)
	assert.Equal(t, 40.0, weather.CloudCover.Value)
	_, err = client.GetCurrentWeather(ctx, 2)
	assert.ErrorIs(t, err, monitor.ErrMissingData)

	reading, err := client.GetSolarRealtime(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 512.3, reading.GHI.Value)
	_, err = client.GetSolarRealtime(ctx, 2)
	assert.ErrorIs(t, err, monitor.ErrMissingData)

	points, err := client.GetRealtimePrediction(ctx, 1)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 3.4, points[0].CumulativeMWh.Value)
	_, err = client.GetRealtimePrediction(ctx, 2)
	assert.ErrorIs(t, err, monitor.ErrMissingData)

	hourly, err := client.GetHourlyForecast(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, hourly[0].PredictedPower)
	_, err = client.GetHourlyForecast(ctx, 2)
	assert.ErrorIs(t, err, monitor.ErrParse)

	daily, err := client.GetDailyPrediction(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-21", daily[0].ForecastDate)

	hourly, err = client.GetHourlyForecast(ctx, 3)
	require.NoError(t, err)
	require.Len(t, hourly, 2)
	assert.Equal(t, 3.2, hourly[0].PredictedPower)
	assert.Zero(t, hourly[1].PredictedPower)

	daily, err = client.GetDailyPrediction(ctx, 3)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Zero(t, daily[0].TotalPower)
}

func TestDailyForecastSendsDateWindow(t *testing.T) {
	client, seen := newTestClient(t, map[string]string{
		"/forecast/daily/3": `[{"date":"2025-01-01"}]`,
	})
	window := monitor.CalendarYear(time.Date(2025, time.June, 21, 0, 0, 0, 0, time.UTC))

	raw, err := client.GetDailyForecast(context.Background(), 3, window)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2025-01-01"}]`, string(raw))
	assert.Equal(t, []string{"/forecast/daily/3?end_date=2025-12-31&start_date=2025-01-01"}, *seen)
}

func TestFailureKinds(t *testing.T) {
	client, _ := newTestClient(t, map[string]string{
		"/plants":           "500",
		"/solar/forecast/1": `{not json`,
	})
	ctx := context.Background()

	_, err := client.ListPlants(ctx)
	assert.ErrorIs(t, err, monitor.ErrNetwork)
	assert.Contains(t, err.Error(), "status 500")

	_, err = client.GetSolarForecast(ctx, 1)
	assert.ErrorIs(t, err, monitor.ErrParse)

	unreachable, err := New(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = unreachable.ListPlants(ctx)
	assert.ErrorIs(t, err, monitor.ErrNetwork)
}

package monitor

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReshapeHourly(t *testing.T) {
	bars, err := Reshaper{}.Hourly([]ForecastPoint{
		{ForecastTime: "2025-06-21T14:00:00Z", PredictedPower: 3.2},
		{ForecastTime: "2025-06-21T15:30:00", PredictedPower: 0.0004},
	})
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "14시", bars[0].Label)
	assert.Equal(t, int64(3200), bars[0].PowerKW)
	assert.Equal(t, "2025-06-21T14:00:00Z", bars[0].FullDate)

	assert.Equal(t, "15시", bars[1].Label)
	assert.Equal(t, int64(0), bars[1].PowerKW)
}

func TestReshapeNullPowerIsZero(t *testing.T) {
	var hourly []ForecastPoint
	require.NoError(t, json.Unmarshal([]byte(`[{"forecast_time":"2025-06-21T14:00:00Z","predicted_power":3.2},{"forecast_time":"2025-06-21T15:00:00Z","predicted_power":null}]`), &hourly))
	bars, err := Reshaper{}.Hourly(hourly)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, int64(3200), bars[0].PowerKW)
	assert.Equal(t, "15시", bars[1].Label)
	assert.Zero(t, bars[1].PowerKW)

	var daily []DailyForecastPoint
	require.NoError(t, json.Unmarshal([]byte(`[{"forecast_date":"2025-06-22","total_power":null}]`), &daily))
	days, err := Reshaper{}.Daily(daily)
	require.NoError(t, err)
	assert.Equal(t, DailyBar{Label: "6/22일", PredictedKW: 0}, days[0])
}

func TestReshapeHourlyInDisplayLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	bars, err := Reshaper{Location: seoul}.Hourly([]ForecastPoint{
		{ForecastTime: "2025-06-21T05:00:00Z", PredictedPower: 1},
		{ForecastTime: "2025-06-21 09:00:00", PredictedPower: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, "14시", bars[0].Label)
	assert.Equal(t, "9시", bars[1].Label)
}

func TestReshapeDaily(t *testing.T) {
	bars, err := Reshaper{}.Daily([]DailyForecastPoint{
		{ForecastDate: "2025-06-21", TotalPower: 12.3456},
		{ForecastDate: "2025-12-01", TotalPower: 0},
	})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, DailyBar{Label: "6/21일", PredictedKW: 12346}, bars[0])
	assert.Equal(t, DailyBar{Label: "12/1일", PredictedKW: 0}, bars[1])
}

func TestReshapeRejectsBadTimestamp(t *testing.T) {
	_, err := Reshaper{}.Hourly([]ForecastPoint{{ForecastTime: "yesterday"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Equal(t, "parse", FailureKind(err))
}

func TestReshapeEmptySeries(t *testing.T) {
	bars, err := Reshaper{}.Daily(nil)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

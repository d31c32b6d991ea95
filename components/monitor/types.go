package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PlantType classifies a plant by energy source.
type PlantType string

const (
	PlantTypeSolar PlantType = "solar"
	PlantTypeWind  PlantType = "wind"
)

// PlantStatus is the operating state shown on the plant list.
type PlantStatus string

const (
	PlantStatusNormal      PlantStatus = "normal"
	PlantStatusMaintenance PlantStatus = "maintenance"
)

// OptionalFloat is a nullable number that also accepts numeric strings on the wire.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float wraps a known value.
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

// Usable reports whether the value is present and finite.
func (f OptionalFloat) Usable() bool {
	return f.Valid && !math.IsNaN(f.Value) && !math.IsInf(f.Value, 0)
}

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (f *OptionalFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = OptionalFloat{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*f = OptionalFloat{}
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("monitor: invalid number %q", raw)
		}
		*f = Float(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// MarshalJSON writes null for missing or non-finite values.
func (f OptionalFloat) MarshalJSON() ([]byte, error) {
	if !f.Usable() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Plant is the backend plant record.
type Plant struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	Place      string        `json:"place,omitempty"`
	CapacityMW OptionalFloat `json:"capacity_mw"`
	StartDate  string        `json:"start_date,omitempty"`
	Latitude   OptionalFloat `json:"latitude"`
	Longitude  OptionalFloat `json:"longitude"`
	Type       PlantType     `json:"type,omitempty"`
	Status     PlantStatus   `json:"status,omitempty"`
	Operator   string        `json:"operator,omitempty"`
}

// Coordinates returns the plant position when both axes are known.
func (p Plant) Coordinates() (Coordinates, bool) {
	if !p.Latitude.Usable() || !p.Longitude.Usable() {
		return Coordinates{}, false
	}
	return Coordinates{Lat: p.Latitude.Value, Lng: p.Longitude.Value}, true
}

// WeatherSnapshot is the latest observed weather for a plant.
type WeatherSnapshot struct {
	Temperature   OptionalFloat `json:"temperature"`
	CloudCover    OptionalFloat `json:"cloud"`
	Humidity      OptionalFloat `json:"humidity"`
	WindSpeed     OptionalFloat `json:"wind_speed"`
	Precipitation string        `json:"precipitation_label,omitempty"`
}

// IrradianceReading holds global horizontal irradiance in W/m².
type IrradianceReading struct {
	GHI OptionalFloat `json:"ghi"`
}

// PredictionPoint is one entry of the realtime prediction series.
type PredictionPoint struct {
	ForecastTime   string        `json:"forecast_time,omitempty"`
	PredictedPower OptionalFloat `json:"predicted_power"`
	CumulativeMWh  OptionalFloat `json:"cumulative_power"`
}

// ForecastPoint is one hourly forecast entry in MW. A null power decodes as 0.
type ForecastPoint struct {
	ForecastTime   string  `json:"forecast_time"`
	PredictedPower float64 `json:"predicted_power"`
}

// DailyForecastPoint is one daily forecast total in MW. A null total decodes as 0.
type DailyForecastPoint struct {
	ForecastDate string  `json:"forecast_date"`
	TotalPower   float64 `json:"total_power"`
}

// HourlyBar is a chart-ready hourly record.
type HourlyBar struct {
	Label    string `json:"time"`
	PowerKW  int64  `json:"power"`
	FullDate string `json:"full_date,omitempty"`
}

// DailyBar is a chart-ready daily record.
type DailyBar struct {
	Label       string `json:"date"`
	PredictedKW int64  `json:"predicted"`
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DateRange bounds the daily forecast query.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CalendarYear returns Jan 1 through Dec 31 of the year containing t.
func CalendarYear(t time.Time) DateRange {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	end := time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
	return DateRange{Start: start, End: end}
}

// ViewerContext identifies the session a request belongs to.
type ViewerContext struct {
	SessionID string `json:"session_id"`
	Locale    string `json:"locale,omitempty"`
}

// Event is published to broadcast subscribers.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	PlantID   int            `json:"plant_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

const (
	EventClockTick     = "clock.tick"
	EventAnalysisSlice = "analysis.slice"
	EventStateChanged  = "view.state"
)

package monitor

import (
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// Reshaper turns backend series into chart-ready records.
// A nil Location keeps zoned timestamps in their own offset and reads
// naive timestamps as UTC.
type Reshaper struct {
	Location *time.Location
}

// ParseTimestamp accepts RFC 3339, naive date-time and date-only values.
func (r Reshaper) ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	naiveLoc := time.UTC
	if r.Location != nil {
		naiveLoc = r.Location
	}
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, raw)
		} else {
			t, err = time.ParseInLocation(layout, raw, naiveLoc)
		}
		if err != nil {
			continue
		}
		if r.Location != nil {
			t = t.In(r.Location)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// HourLabel renders the hour-of-day axis label, e.g. "14시".
func HourLabel(t time.Time) string {
	return fmt.Sprintf("%d시", t.Hour())
}

// DayLabel renders the month/day axis label, e.g. "6/21일".
func DayLabel(t time.Time) string {
	return fmt.Sprintf("%d/%d일", int(t.Month()), t.Day())
}

// Hourly maps hourly forecasts to {time, power} records in kW.
func (r Reshaper) Hourly(points []ForecastPoint) ([]HourlyBar, error) {
	out := make([]HourlyBar, 0, len(points))
	for _, point := range points {
		ts, err := r.ParseTimestamp(point.ForecastTime)
		if err != nil {
			return nil, ParseError("reshape hourly", err)
		}
		out = append(out, HourlyBar{
			Label:    HourLabel(ts),
			PowerKW:  MWToKW(point.PredictedPower),
			FullDate: point.ForecastTime,
		})
	}
	return out, nil
}

// Daily maps daily totals to {date, predicted} records in kW.
func (r Reshaper) Daily(points []DailyForecastPoint) ([]DailyBar, error) {
	out := make([]DailyBar, 0, len(points))
	for _, point := range points {
		ts, err := r.ParseTimestamp(point.ForecastDate)
		if err != nil {
			return nil, ParseError("reshape daily", err)
		}
		out = append(out, DailyBar{
			Label:       DayLabel(ts),
			PredictedKW: MWToKW(point.TotalPower),
		})
	}
	return out, nil
}

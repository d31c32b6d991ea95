package plantapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/pkg/common"
)

// Config configures the backend client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Validator  monitor.ResponseValidator
}

// Client talks to the plant monitoring backend. Every method issues exactly
// one GET and never retries.
type Client struct {
	baseURL   string
	client    *http.Client
	validator monitor.ResponseValidator
}

var _ monitor.Gateway = (*Client)(nil)

// New builds a client for the backend at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("plantapi: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("plantapi: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = common.HTTPClientWithAgent(cfg.Timeout, cfg.UserAgent)
	}
	validator := cfg.Validator
	if validator == nil {
		validator = monitor.NewJSONSchemaValidator(nil)
	}
	return &Client{baseURL: base, client: httpClient, validator: validator}, nil
}

// ListPlants fetches the plant catalog.
func (c *Client) ListPlants(ctx context.Context) ([]monitor.Plant, error) {
	var plants []monitor.Plant
	if err := c.get(ctx, "/plants", nil, monitor.ShapePlantList, &plants); err != nil {
		return nil, err
	}
	return plants, nil
}

// GetPlant fetches one plant record.
func (c *Client) GetPlant(ctx context.Context, id int) (monitor.Plant, error) {
	var plant monitor.Plant
	if err := c.get(ctx, idPath("/plants/", id), nil, monitor.ShapePlant, &plant); err != nil {
		return monitor.Plant{}, err
	}
	return plant, nil
}

// GetCurrentWeather unwraps the {"weather": {...}} envelope.
func (c *Client) GetCurrentWeather(ctx context.Context, id int) (monitor.WeatherSnapshot, error) {
	var envelope struct {
		Weather *monitor.WeatherSnapshot `json:"weather"`
	}
	path := idPath("/weather/current/", id)
	if err := c.get(ctx, path, nil, monitor.ShapeWeather, &envelope); err != nil {
		return monitor.WeatherSnapshot{}, err
	}
	if envelope.Weather == nil {
		return monitor.WeatherSnapshot{}, monitor.MissingDataError(opName(path), "weather field missing")
	}
	return *envelope.Weather, nil
}

// GetSolarRealtime reads the ghi field.
func (c *Client) GetSolarRealtime(ctx context.Context, id int) (monitor.IrradianceReading, error) {
	var raw map[string]json.RawMessage
	path := idPath("/solar/realtime/", id)
	if err := c.get(ctx, path, nil, monitor.ShapeIrradiance, &raw); err != nil {
		return monitor.IrradianceReading{}, err
	}
	ghi, ok := raw["ghi"]
	if !ok {
		return monitor.IrradianceReading{}, monitor.MissingDataError(opName(path), "ghi field missing")
	}
	var reading monitor.IrradianceReading
	if err := json.Unmarshal(ghi, &reading.GHI); err != nil {
		return monitor.IrradianceReading{}, monitor.ParseError(opName(path), err)
	}
	return reading, nil
}

// GetRealtimePrediction unwraps the {"data": [...]} envelope.
func (c *Client) GetRealtimePrediction(ctx context.Context, id int) ([]monitor.PredictionPoint, error) {
	var points []monitor.PredictionPoint
	if err := c.getData(ctx, idPath("/prediction/realtime/", id), monitor.ShapeRealtime, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// GetHourlyForecast returns today's hourly forecast in MW.
func (c *Client) GetHourlyForecast(ctx context.Context, id int) ([]monitor.ForecastPoint, error) {
	var points []monitor.ForecastPoint
	if err := c.getData(ctx, idPath("/prediction/hourly/today/", id), monitor.ShapeHourly, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// GetDailyPrediction returns the three-day forecast in MW.
func (c *Client) GetDailyPrediction(ctx context.Context, id int) ([]monitor.DailyForecastPoint, error) {
	var points []monitor.DailyForecastPoint
	if err := c.getData(ctx, idPath("/prediction/daily/3days/", id), monitor.ShapeDaily, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// GetSolarForecast returns the raw solar forecast payload.
func (c *Client) GetSolarForecast(ctx context.Context, id int) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, idPath("/solar/forecast/", id), nil, "solar_forecast", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetDailyForecast returns the raw daily forecast for window, sent as
// start_date and end_date in YYYY-MM-DD.
func (c *Client) GetDailyForecast(ctx context.Context, id int, window monitor.DateRange) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("start_date", window.Start.Format(time.DateOnly))
	query.Set("end_date", window.End.Format(time.DateOnly))
	var raw json.RawMessage
	if err := c.get(ctx, idPath("/forecast/daily/", id), query, "daily_forecast", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) getData(ctx context.Context, path, shape string, target any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, path, nil, shape, &envelope); err != nil {
		return err
	}
	if len(envelope.Data) == 0 || bytes.Equal(envelope.Data, []byte("null")) {
		return monitor.MissingDataError(opName(path), "data field missing")
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return monitor.ParseError(opName(path), err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, shape string, target any) error {
	op := opName(path)
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("plantapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return monitor.NetworkError(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return monitor.NetworkError(op, resp.StatusCode, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return monitor.MissingDataError(op, "not found")
	case resp.StatusCode >= 300:
		return monitor.NetworkError(op, resp.StatusCode, fmt.Errorf("remote error: %s", snippet(body)))
	}
	if err := c.validator.Validate(shape, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return monitor.ParseError(op, err)
	}
	return nil
}

func idPath(prefix string, id int) string {
	return prefix + strconv.Itoa(id)
}

func opName(path string) string {
	return "plantapi: GET " + path
}

func snippet(body []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}

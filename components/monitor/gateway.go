package monitor

import (
	"context"
	"encoding/json"
)

// PlantLister returns the plant catalog.
type PlantLister interface {
	ListPlants(ctx context.Context) ([]Plant, error)
}

// PlantLocator resolves a single plant.
type PlantLocator interface {
	GetPlant(ctx context.Context, id int) (Plant, error)
}

// AnalysisSource covers the endpoints the analysis view fans out to.
type AnalysisSource interface {
	PlantLocator
	GetCurrentWeather(ctx context.Context, id int) (WeatherSnapshot, error)
	GetSolarRealtime(ctx context.Context, id int) (IrradianceReading, error)
	GetRealtimePrediction(ctx context.Context, id int) ([]PredictionPoint, error)
	GetHourlyForecast(ctx context.Context, id int) ([]ForecastPoint, error)
	GetDailyPrediction(ctx context.Context, id int) ([]DailyForecastPoint, error)
}

// Gateway is the full backend surface. Each call issues exactly one request.
type Gateway interface {
	PlantLister
	AnalysisSource
	GetSolarForecast(ctx context.Context, id int) (json.RawMessage, error)
	GetDailyForecast(ctx context.Context, id int, window DateRange) (json.RawMessage, error)
}

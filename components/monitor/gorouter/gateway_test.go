package gorouter

import (
	"context"
	"encoding/json"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

type stubGateway struct {
	plants []monitor.Plant
}

func newStubGateway() *stubGateway {
	return &stubGateway{plants: []monitor.Plant{
		{ID: 1, Name: "Yeongam Solar", CapacityMW: monitor.Float(3), Latitude: monitor.Float(34.8), Longitude: monitor.Float(126.4), Type: monitor.PlantTypeSolar},
		{ID: 2, Name: "Jeju Wind", CapacityMW: monitor.Float(6), Type: monitor.PlantTypeWind},
	}}
}

func (g *stubGateway) ListPlants(context.Context) ([]monitor.Plant, error) {
	return g.plants, nil
}

func (g *stubGateway) GetPlant(_ context.Context, id int) (monitor.Plant, error) {
	for _, plant := range g.plants {
		if plant.ID == id {
			return plant, nil
		}
	}
	return monitor.Plant{}, monitor.MissingDataError("get plant", "not found")
}

func (g *stubGateway) GetCurrentWeather(context.Context, int) (monitor.WeatherSnapshot, error) {
	return monitor.WeatherSnapshot{Temperature: monitor.Float(18)}, nil
}

func (g *stubGateway) GetSolarRealtime(context.Context, int) (monitor.IrradianceReading, error) {
	return monitor.IrradianceReading{GHI: monitor.Float(420)}, nil
}

func (g *stubGateway) GetRealtimePrediction(context.Context, int) ([]monitor.PredictionPoint, error) {
	return nil, nil
}

func (g *stubGateway) GetHourlyForecast(context.Context, int) ([]monitor.ForecastPoint, error) {
	return []monitor.ForecastPoint{{ForecastTime: "2025-06-21T09:00:00Z", PredictedPower: 1.1}}, nil
}

func (g *stubGateway) GetDailyPrediction(context.Context, int) ([]monitor.DailyForecastPoint, error) {
	return nil, nil
}

func (g *stubGateway) GetSolarForecast(context.Context, int) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (g *stubGateway) GetDailyForecast(context.Context, int, monitor.DateRange) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

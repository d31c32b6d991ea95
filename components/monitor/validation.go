package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Response shapes checked before decoding backend payloads.
const (
	ShapePlantList  = "plant_list"
	ShapePlant      = "plant"
	ShapeWeather    = "weather"
	ShapeIrradiance = "irradiance"
	ShapeRealtime   = "prediction_realtime"
	ShapeHourly     = "prediction_hourly"
	ShapeDaily      = "prediction_daily"
	ShapeGeocode    = "geocode"
)

var nullableNumber = map[string]any{"type": []any{"number", "string", "null"}}

// numberOrNull admits null series values; they decode as zero power.
var numberOrNull = map[string]any{"type": []any{"number", "null"}}

var plantSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "name"},
	"properties": map[string]any{
		"id":          map[string]any{"type": "integer"},
		"name":        map[string]any{"type": "string"},
		"place":       map[string]any{"type": []any{"string", "null"}},
		"capacity_mw": nullableNumber,
		"latitude":    nullableNumber,
		"longitude":   nullableNumber,
	},
}

func dataEnvelope(item map[string]any) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"data": map[string]any{"type": "array", "items": item},
		},
	}
}

// ResponseSchemas are the built-in shapes for backend and geocoder payloads.
var ResponseSchemas = map[string]map[string]any{
	ShapePlantList: {"type": "array", "items": plantSchema},
	ShapePlant:     plantSchema,
	ShapeWeather: {
		"type": "object",
		"properties": map[string]any{
			"weather": map[string]any{
				"type": []any{"object", "null"},
				"properties": map[string]any{
					"temperature": nullableNumber,
					"cloud":       nullableNumber,
				},
			},
		},
	},
	ShapeIrradiance: {
		"type":       "object",
		"properties": map[string]any{"ghi": nullableNumber},
	},
	ShapeRealtime: dataEnvelope(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"predicted_power":  nullableNumber,
			"cumulative_power": nullableNumber,
		},
	}),
	ShapeHourly: dataEnvelope(map[string]any{
		"type":     "object",
		"required": []any{"forecast_time", "predicted_power"},
		"properties": map[string]any{
			"forecast_time":   map[string]any{"type": "string"},
			"predicted_power": numberOrNull,
		},
	}),
	ShapeDaily: dataEnvelope(map[string]any{
		"type":     "object",
		"required": []any{"forecast_date", "total_power"},
		"properties": map[string]any{
			"forecast_date": map[string]any{"type": "string"},
			"total_power":   numberOrNull,
		},
	}),
	ShapeGeocode: {
		"type":     "object",
		"required": []any{"documents"},
		"properties": map[string]any{
			"documents": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []any{"x", "y"},
					"properties": map[string]any{
						"x": map[string]any{"type": "string"},
						"y": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

// ResponseValidator checks a raw payload against a named shape.
type ResponseValidator interface {
	Validate(shape string, body []byte) error
}

// JSONSchemaValidator compiles shapes lazily and caches them.
type JSONSchemaValidator struct {
	schemas  map[string]map[string]any
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator over schemas; nil uses ResponseSchemas.
func NewJSONSchemaValidator(schemas map[string]map[string]any) *JSONSchemaValidator {
	if schemas == nil {
		schemas = ResponseSchemas
	}
	return &JSONSchemaValidator{
		schemas:  schemas,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate returns a ParseError when body is not JSON or does not match shape.
// Unknown shapes only require well-formed JSON.
func (v *JSONSchemaValidator) Validate(shape string, body []byte) error {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ParseError(shape, err)
	}
	schema, err := v.schemaFor(shape)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	if err := schema.Validate(payload); err != nil {
		return ParseError(shape, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(shape string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[shape]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	def, ok := v.schemas[shape]
	if !ok {
		return nil, nil
	}
	data, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("monitor: marshal schema %s: %w", shape, err)
	}
	compiler := jsonschema.NewCompiler()
	name := shape + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("monitor: load schema %s: %w", shape, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("monitor: compile schema %s: %w", shape, err)
	}
	v.mu.Lock()
	v.compiled[shape] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopResponseValidator struct{}

func (noopResponseValidator) Validate(_ string, body []byte) error {
	if !json.Valid(body) {
		return ParseError("response", fmt.Errorf("body is not valid JSON"))
	}
	return nil
}

// NoopResponseValidator only checks that the body is JSON.
func NoopResponseValidator() ResponseValidator {
	return noopResponseValidator{}
}

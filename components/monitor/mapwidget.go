package monitor

import (
	"context"
	"errors"
	"strings"

	"github.com/plantwatch/go-plantwatch/pkg/log"
)

// DefaultMapLevel is the provider zoom level used for a single plant.
const DefaultMapLevel = 4

// MapMode tells how the widget obtained its position.
type MapMode string

const (
	MapModeCoordinates MapMode = "coordinates"
	MapModeAddress     MapMode = "address"
)

// MapStatus is the widget lifecycle.
type MapStatus string

const (
	MapLoading MapStatus = "loading"
	MapReady   MapStatus = "ready"
	MapError   MapStatus = "error"
)

// Geocoder resolves a free-text address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// MapMarker pins one labeled position.
type MapMarker struct {
	Position Coordinates `json:"position"`
	Label    string      `json:"label"`
}

// MapWidgetState is what the map template renders.
type MapWidgetState struct {
	Mode    MapMode     `json:"mode"`
	Status  MapStatus   `json:"status"`
	Center  Coordinates `json:"center"`
	Marker  *MapMarker  `json:"marker,omitempty"`
	Level   int         `json:"level"`
	Message string      `json:"message,omitempty"`
	Failure string      `json:"failure,omitempty"`
	AppKey  string      `json:"app_key,omitempty"`
}

// MapWidgetOptions configures a MapWidget.
type MapWidgetOptions struct {
	Plants   PlantLocator
	Geocoder Geocoder
	AppKey   string
	Level    int
	Labels   *Labels
}

// MapWidget resolves a center and marker in coordinates or address mode.
// A failed resolution is final; there are no retries.
type MapWidget struct {
	plants   PlantLocator
	geocoder Geocoder
	appKey   string
	level    int
	labels   *Labels
}

// NewMapWidget builds a widget with defaults applied.
func NewMapWidget(opts MapWidgetOptions) *MapWidget {
	level := opts.Level
	if level <= 0 {
		level = DefaultMapLevel
	}
	labels := opts.Labels
	if labels == nil {
		labels = DefaultLabels()
	}
	return &MapWidget{
		plants:   opts.Plants,
		geocoder: opts.Geocoder,
		appKey:   opts.AppKey,
		level:    level,
		labels:   labels,
	}
}

// Pending is the state shown before resolution finishes.
func (w *MapWidget) Pending(mode MapMode, locale string) MapWidgetState {
	return MapWidgetState{
		Mode:    mode,
		Status:  MapLoading,
		Level:   w.level,
		Message: w.labels.Get(locale, "map.loading"),
		AppKey:  w.appKey,
	}
}

// ForPlant fetches the plant and centers on its coordinates.
func (w *MapWidget) ForPlant(ctx context.Context, plantID int, locale string) MapWidgetState {
	if w.plants == nil {
		return w.failed(ctx, MapModeCoordinates, locale, MissingDataError("map plant", "no plant source"))
	}
	plant, err := w.plants.GetPlant(ctx, plantID)
	if err != nil {
		return w.failed(ctx, MapModeCoordinates, locale, err)
	}
	return w.ForPlantRecord(ctx, plant, locale)
}

// ForPlantRecord centers on already loaded plant metadata.
func (w *MapWidget) ForPlantRecord(ctx context.Context, plant Plant, locale string) MapWidgetState {
	pos, ok := plant.Coordinates()
	if !ok {
		return w.failed(ctx, MapModeCoordinates, locale, MissingDataError("map plant", "plant has no coordinates"))
	}
	return w.ready(MapModeCoordinates, pos, plant.Name)
}

// ForAddress geocodes address and pins it with label.
func (w *MapWidget) ForAddress(ctx context.Context, address, label, locale string) MapWidgetState {
	address = strings.TrimSpace(address)
	if address == "" {
		return w.failed(ctx, MapModeAddress, locale, GeocodeError("map address", errors.New("address is empty")))
	}
	if w.geocoder == nil {
		return w.failed(ctx, MapModeAddress, locale, GeocodeError("map address", errors.New("no geocoder configured")))
	}
	pos, err := w.geocoder.Geocode(ctx, address)
	if err != nil {
		return w.failed(ctx, MapModeAddress, locale, err)
	}
	if label == "" {
		label = address
	}
	return w.ready(MapModeAddress, pos, label)
}

func (w *MapWidget) ready(mode MapMode, pos Coordinates, label string) MapWidgetState {
	return MapWidgetState{
		Mode:   mode,
		Status: MapReady,
		Center: pos,
		Marker: &MapMarker{Position: pos, Label: label},
		Level:  w.level,
		AppKey: w.appKey,
	}
}

func (w *MapWidget) failed(ctx context.Context, mode MapMode, locale string, err error) MapWidgetState {
	log.Ctx(ctx).WarnContext(ctx, "map widget failed",
		"mode", string(mode),
		"kind", FailureKind(err),
		"error", err)
	return MapWidgetState{
		Mode:    mode,
		Status:  MapError,
		Level:   w.level,
		Message: w.labels.Get(locale, "map.error"),
		Failure: FailureKind(err),
		AppKey:  w.appKey,
	}
}

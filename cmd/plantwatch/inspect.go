package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/pkg/plantwatch"
)

// cliViewer is the session the one-shot commands run under.
var cliViewer = monitor.ViewerContext{SessionID: "cli"}

type plantsCmd struct {
	Search string `help:"Case-insensitive name filter."`
	Page   int    `default:"1" help:"1-based page number."`
	Type   string `help:"Restrict to solar or wind plants."`
	JSON   bool   `name:"json" help:"Print JSON instead of a table."`
}

func (cmd *plantsCmd) Run(ctx context.Context, globals *Globals) error {
	kind := monitor.PlantType(strings.ToLower(cmd.Type))
	switch kind {
	case "", monitor.PlantTypeSolar, monitor.PlantTypeWind:
	default:
		return fmt.Errorf("plantwatch: --type must be solar or wind, got %q", cmd.Type)
	}
	app, err := globals.app()
	if err != nil {
		return err
	}
	defer app.Close()
	result, err := listPlants(ctx, app.Service, cmd.Search, cmd.Page, kind)
	if err != nil {
		return err
	}
	if cmd.JSON {
		return writeJSON(os.Stdout, result)
	}
	writePlantTable(os.Stdout, result)
	return nil
}

func listPlants(ctx context.Context, service *plantwatch.Service, term string, page int, kind monitor.PlantType) (monitor.PlantListResult, error) {
	if _, err := service.Search(ctx, cliViewer, term); err != nil {
		return monitor.PlantListResult{}, err
	}
	if page > 1 {
		if _, err := service.ChangePage(ctx, cliViewer, monitor.PageRequest{Page: page, Type: kind}); err != nil {
			return monitor.PlantListResult{}, err
		}
	}
	return service.PlantList(ctx, cliViewer, kind)
}

func writePlantTable(w io.Writer, result monitor.PlantListResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Type", "Capacity (MW)", "Status", "Place"})
	for _, plant := range result.Page.Items {
		table.Append([]string{
			strconv.Itoa(plant.ID),
			plant.Name,
			string(plant.Type),
			monitor.FormatFixed(plant.CapacityMW, 1),
			string(plant.Status),
			plant.Place,
		})
	}
	table.Render()
	fmt.Fprintf(w, "page %d/%d, %d plants (solar %d, wind %d, maintenance %d)\n",
		result.Page.Page, result.Page.TotalPages, result.Page.TotalItems,
		result.Summary.Solar, result.Summary.Wind, result.Summary.Maintenance)
}

type analysisCmd struct {
	Plant int  `required:"" help:"Plant id."`
	JSON  bool `name:"json" help:"Print the full analysis as JSON."`
}

func (cmd *analysisCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.app()
	if err != nil {
		return err
	}
	defer app.Close()
	result, err := app.Service.Analysis(ctx, cliViewer, cmd.Plant)
	if err != nil {
		return err
	}
	if cmd.JSON {
		result.HourlyChart, result.DailyChart = "", ""
		return writeJSON(os.Stdout, result)
	}
	writeAnalysisTable(os.Stdout, result)
	return nil
}

func writeAnalysisTable(w io.Writer, result monitor.AnalysisResult) {
	a := result.Analysis
	if a.Plant.Ready() {
		fmt.Fprintf(w, "%s (#%d) %s\n", a.Plant.Value.Name, a.PlantID, a.Plant.Value.Place)
	} else {
		fmt.Fprintf(w, "plant #%d: %s\n", a.PlantID, a.Plant.Failure)
	}
	stats := result.Stats
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"Current output (kW)", stats.CurrentPowerKW},
		{"Cumulative (kWh)", stats.CumulativeKWh},
		{"Efficiency (%)", stats.Efficiency},
		{"Irradiance", stats.Irradiance},
		{"Temperature", stats.Temperature},
		{"Cloud cover", stats.CloudCover},
		{"Capacity", stats.Capacity},
	})
	table.Render()

	if a.Hourly.Ready() && len(a.Hourly.Value) > 0 {
		hourly := tablewriter.NewWriter(w)
		hourly.SetHeader([]string{"Hour", "Forecast (kW)"})
		for _, bar := range a.Hourly.Value {
			hourly.Append([]string{bar.Label, strconv.FormatInt(bar.PowerKW, 10)})
		}
		hourly.Render()
	}
}

type mapCmd struct {
	Plant int `required:"" help:"Plant id."`
}

func (cmd *mapCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.app()
	if err != nil {
		return err
	}
	defer app.Close()
	state, err := app.Service.Map(ctx, cliViewer, cmd.Plant)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, state)
}

type geocodeCmd struct {
	Address string `arg:"" help:"Free-text address."`
}

func (cmd *geocodeCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := globals.app()
	if err != nil {
		return err
	}
	defer app.Close()
	state := app.Service.MapForAddress(ctx, cliViewer, cmd.Address)
	if state.Status == monitor.MapError {
		return fmt.Errorf("plantwatch: %s (%s)", state.Message, state.Failure)
	}
	return writeJSON(os.Stdout, state)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/pkg/common"
	"github.com/plantwatch/go-plantwatch/pkg/log"
	"github.com/plantwatch/go-plantwatch/pkg/plantwatch"
)

// Globals are shared by every subcommand.
type Globals struct {
	Config   string `short:"c" type:"path" env:"PLANTWATCH_CONFIG" help:"Path to the YAML config file."`
	LogLevel string `name:"log-level" env:"PLANTWATCH_LOG_LEVEL" help:"Override log.level (debug, info, warn, error)."`
}

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" help:"Serve the monitoring dashboard."`
	Plants   plantsCmd   `cmd:"" help:"List plants with search, type filter and paging."`
	Analysis analysisCmd `cmd:"" help:"Print the analysis stats for one plant."`
	Map      mapCmd      `cmd:"" help:"Resolve the map center and marker for a plant."`
	Geocode  geocodeCmd  `cmd:"" help:"Resolve an address to coordinates."`
	Version  versionCmd  `cmd:"" help:"Print the version."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var app cli
	kctx := kong.Parse(&app,
		kong.Name("plantwatch"),
		kong.Description("Solar and wind plant monitoring dashboard."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(&app.Globals),
	)
	kctx.FatalIfErrorf(kctx.Run())
}

// load reads the config and applies the log level.
func (g *Globals) load() (monitor.Config, error) {
	cfg, err := plantwatch.LoadConfig(g.Config)
	if err != nil {
		return monitor.Config{}, err
	}
	level := cfg.Log.Level
	if g.LogLevel != "" {
		level = g.LogLevel
	}
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return monitor.Config{}, fmt.Errorf("plantwatch: %w", err)
		}
		log.SetDefaultLogLevel(parsed)
	}
	return cfg, nil
}

// app builds a wired App for the one-shot inspection commands.
func (g *Globals) app(opts ...plantwatch.Option) (*plantwatch.App, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	return plantwatch.New(cfg, opts...)
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Fprintln(os.Stdout, common.Version())
	return nil
}

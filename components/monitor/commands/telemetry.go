package commands

import (
	"context"

	"github.com/plantwatch/go-plantwatch/components/monitor"
)

// Telemetry receives one event per executed command.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// record tags the payload with the viewer's session before emitting it.
func record(ctx context.Context, t Telemetry, event string, viewer monitor.ViewerContext, payload map[string]any) {
	if payload == nil {
		payload = make(map[string]any, 1)
	}
	payload["session_id"] = viewer.SessionID
	if viewer.Locale != "" {
		payload["locale"] = viewer.Locale
	}
	t.Record(ctx, "monitor.command."+event, payload)
}

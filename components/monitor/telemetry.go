package monitor

import (
	"context"
	"log/slog"
	"sort"

	"github.com/plantwatch/go-plantwatch/pkg/log"
)

// Telemetry records monitor events for observability.
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

// LogTelemetry writes events through the context logger at debug level.
type LogTelemetry struct{}

func (LogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys)+1)
	attrs = append(attrs, slog.String("event", event))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, payload[key]))
	}
	log.Ctx(ctx).LogAttrs(ctx, slog.LevelDebug, "telemetry", attrs...)
}

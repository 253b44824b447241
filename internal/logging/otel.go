package logging

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	logglobal "go.opentelemetry.io/otel/log/global"
)

const instrumentationScope = "lettercount/internal/logging"

// otelEmitter forwards entries to the globally registered OpenTelemetry
// logger provider. With no provider installed the global no-op drops them.
type otelEmitter struct {
	scope string
}

func newOTelEmitter() *otelEmitter {
	return &otelEmitter{scope: instrumentationScope}
}

func (emitter *otelEmitter) emit(entry Entry) {
	if emitter == nil {
		return
	}
	logger := logglobal.GetLoggerProvider().Logger(emitter.scope)

	var record otellog.Record
	record.SetTimestamp(entry.Time)
	record.SetObservedTimestamp(time.Now().UTC())
	record.SetSeverity(severityFor(entry.Level))
	record.SetSeverityText(string(entry.Level))
	record.SetBody(otellog.StringValue(entry.Message))
	if len(entry.Fields) > 0 {
		attrs := make([]otellog.KeyValue, 0, len(entry.Fields))
		for key, value := range entry.Fields {
			attrs = append(attrs, otellog.String(key, value))
		}
		record.AddAttributes(attrs...)
	}
	logger.Emit(context.Background(), record)
}

func severityFor(level Level) otellog.Severity {
	switch level {
	case LevelDebug:
		return otellog.SeverityDebug
	case LevelWarning:
		return otellog.SeverityWarn
	case LevelError:
		return otellog.SeverityError
	default:
		return otellog.SeverityInfo
	}
}

package otel

import (
	"context"
	"path/filepath"
	"time"

	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "lettercount/internal/processor"

const (
	MetricFilesProcessed  = "lettercount.files.processed"
	MetricFilesFailed     = "lettercount.files.failed"
	MetricLettersCounted  = "lettercount.letters.counted"
	MetricProcessDuration = "lettercount.process.duration"
	SpanProcessFile       = "lettercount.process"
)

var ProcessDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}

// Instruments groups the tracer and meters used per processed file.
type Instruments struct {
	tracer    trace.Tracer
	processed metric.Int64Counter
	failed    metric.Int64Counter
	letters   metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewInstruments binds instruments to the global providers.
func NewInstruments() *Instruments {
	return NewInstrumentsWithProviders(otelapi.GetTracerProvider(), otelapi.GetMeterProvider())
}

// NewInstrumentsWithProviders binds instruments to explicit providers.
// Instruments that fail to register are left nil and skipped when recording.
func NewInstrumentsWithProviders(tracerProvider trace.TracerProvider, meterProvider metric.MeterProvider) *Instruments {
	instruments := &Instruments{
		tracer: tracerProvider.Tracer(instrumentationName),
	}
	meter := meterProvider.Meter(instrumentationName)
	instruments.processed, _ = meter.Int64Counter(MetricFilesProcessed,
		metric.WithDescription("Files counted and written"),
		metric.WithUnit("{file}"),
	)
	instruments.failed, _ = meter.Int64Counter(MetricFilesFailed,
		metric.WithDescription("Files that failed to process"),
		metric.WithUnit("{file}"),
	)
	instruments.letters, _ = meter.Int64Counter(MetricLettersCounted,
		metric.WithDescription("Letters counted across processed files"),
		metric.WithUnit("{letter}"),
	)
	instruments.duration, _ = meter.Float64Histogram(MetricProcessDuration,
		metric.WithDescription("Time spent reading, counting and writing one file"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(ProcessDurationBuckets...),
	)
	return instruments
}

// StartProcess opens the span covering one file.
func (instruments *Instruments) StartProcess(ctx context.Context, source string) (context.Context, trace.Span) {
	if instruments == nil || instruments.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return instruments.tracer.Start(ctx, SpanProcessFile, trace.WithAttributes(
		attribute.String("file.name", filepath.Base(source)),
		attribute.String("file.path", source),
	))
}

// RecordOutcome closes span and updates the counters for one attempt.
func (instruments *Instruments) RecordOutcome(ctx context.Context, span trace.Span, letters int, err error, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("error", err != nil))
	if span != nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("lettercount.letters", letters))
		}
		span.End()
	}
	if instruments == nil {
		return
	}
	if instruments.duration != nil {
		instruments.duration.Record(ctx, duration.Seconds(), attrs)
	}
	if err != nil {
		if instruments.failed != nil {
			instruments.failed.Add(ctx, 1)
		}
		return
	}
	if instruments.processed != nil {
		instruments.processed.Add(ctx, 1)
	}
	if instruments.letters != nil {
		instruments.letters.Add(ctx, int64(letters))
	}
}

package observability

import (
	"context"
	"errors"
	"time"

	"tradeops/internal/models"
	"tradeops/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedReportStore wraps a storage.ReportStore with spans, an
// operation latency histogram and an error counter.
type InstrumentedReportStore struct {
	inner    storage.ReportStore
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedReportStore wraps inner. Nil providers fall back to the
// global ones installed by Setup.
func NewInstrumentedReportStore(inner storage.ReportStore, tp trace.TracerProvider, mp metric.MeterProvider) (*InstrumentedReportStore, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName + "/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of report archive operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of failed report archive operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedReportStore{
		inner:    inner,
		tracer:   tp.Tracer(instrumentationName + "/storage"),
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedReportStore) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "storage."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
}

// record ends span and updates metrics. A missing report is an expected
// outcome, not a failure.
func (s *InstrumentedReportStore) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, storage.ErrNotFound):
		span.SetAttributes(attribute.Bool("storage.not_found", true))
	default:
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func (s *InstrumentedReportStore) SaveReport(ctx context.Context, report *models.Report) error {
	var attrs []attribute.KeyValue
	if report != nil {
		attrs = append(attrs,
			attribute.String("report.id", report.ID),
			attribute.String("report.sector", report.Sector),
		)
	}
	ctx, span := s.startSpan(ctx, "SaveReport", attrs...)
	start := time.Now()
	err := s.inner.SaveReport(ctx, report)
	s.record(ctx, span, "SaveReport", start, err)
	return err
}

func (s *InstrumentedReportStore) ListReports(ctx context.Context, owner string) ([]*models.Report, error) {
	ctx, span := s.startSpan(ctx, "ListReports")
	start := time.Now()
	result, err := s.inner.ListReports(ctx, owner)
	if err == nil {
		span.SetAttributes(attribute.Int("report.count", len(result)))
	}
	s.record(ctx, span, "ListReports", start, err)
	return result, err
}

func (s *InstrumentedReportStore) GetReport(ctx context.Context, id string) (*models.Report, error) {
	ctx, span := s.startSpan(ctx, "GetReport", attribute.String("report.id", id))
	start := time.Now()
	result, err := s.inner.GetReport(ctx, id)
	s.record(ctx, span, "GetReport", start, err)
	return result, err
}

func (s *InstrumentedReportStore) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedReportStore) Close() error {
	return s.inner.Close()
}

package observability

import (
	"context"

	"tradeops/internal/ratelimit"
	"tradeops/internal/session"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Admitter is the admission surface of session.Gate.
type Admitter interface {
	Admit(identity string) (session.Decision, ratelimit.Info)
	End(identity string) bool
	ActiveSessions() int
}

// InstrumentedGate counts admission decisions and reports the live session
// count as an observable gauge.
type InstrumentedGate struct {
	inner      Admitter
	admissions metric.Int64Counter
	gauge      metric.Int64ObservableGauge
}

// NewInstrumentedGate wraps inner. A nil provider uses the global one.
func NewInstrumentedGate(inner Admitter, mp metric.MeterProvider) (*InstrumentedGate, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName + "/session")

	admissions, err := meter.Int64Counter(
		"session.admissions",
		metric.WithDescription("Admission decisions by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	gauge, err := meter.Int64ObservableGauge(
		"session.active",
		metric.WithDescription("Sessions currently held in the directory"),
		metric.WithUnit("{session}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(inner.ActiveSessions()))
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGate{inner: inner, admissions: admissions, gauge: gauge}, nil
}

func (g *InstrumentedGate) Admit(identity string) (session.Decision, ratelimit.Info) {
	decision, info := g.inner.Admit(identity)
	g.admissions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("decision", decision.String())))
	return decision, info
}

func (g *InstrumentedGate) End(identity string) bool {
	return g.inner.End(identity)
}

func (g *InstrumentedGate) ActiveSessions() int {
	return g.inner.ActiveSessions()
}

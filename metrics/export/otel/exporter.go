package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/authlayer/metrics"
	"github.com/MrEthical07/authlayer/metrics/export/internaldefs"
)

var ErrNilMeter = errors.New("nil meter")

// Exporter implements metrics.Recorder on an OpenTelemetry Meter.
type Exporter struct {
	authAttempts      metric.Int64Counter
	sessionsCreated   metric.Int64Counter
	sessionsDestroyed metric.Int64Counter
	sessionsExpired   metric.Int64Counter
	auditDropped      metric.Int64Counter
}

// New creates the counters on meter.
func New(meter metric.Meter) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}

	counters := make([]metric.Int64Counter, len(internaldefs.CounterDefs))
	for i, def := range internaldefs.CounterDefs {
		c, err := meter.Int64Counter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		counters[i] = c
	}

	return &Exporter{
		authAttempts:      counters[0],
		sessionsCreated:   counters[1],
		sessionsDestroyed: counters[2],
		sessionsExpired:   counters[3],
		auditDropped:      counters[4],
	}, nil
}

func (e *Exporter) AuthAttempt(strategy, outcome string) {
	e.authAttempts.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	))
}

func (e *Exporter) SessionCreated(backend string) {
	e.sessionsCreated.Add(context.Background(), 1, backendAttr(backend))
}

func (e *Exporter) SessionDestroyed(backend string) {
	e.sessionsDestroyed.Add(context.Background(), 1, backendAttr(backend))
}

func (e *Exporter) SessionExpired(backend string) {
	e.sessionsExpired.Add(context.Background(), 1, backendAttr(backend))
}

func (e *Exporter) AuditDropped(reason string) {
	e.auditDropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func backendAttr(backend string) metric.AddOption {
	return metric.WithAttributes(attribute.String("backend", backend))
}

var _ metrics.Recorder = (*Exporter)(nil)

package prometheus

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrEthical07/authlayer/metrics"
	"github.com/MrEthical07/authlayer/metrics/export/internaldefs"
)

// Exporter implements metrics.Recorder with Prometheus counters.
type Exporter struct {
	registry          *prom.Registry
	authAttempts      *prom.CounterVec
	sessionsCreated   *prom.CounterVec
	sessionsDestroyed *prom.CounterVec
	sessionsExpired   *prom.CounterVec
	auditDropped      *prom.CounterVec
}

// New registers the authlayer counters on registry. A nil registry creates a private one.
func New(registry *prom.Registry) (*Exporter, error) {
	if registry == nil {
		registry = prom.NewRegistry()
	}

	e := &Exporter{
		registry:          registry,
		authAttempts:      newCounterVec(internaldefs.AuthAttempts),
		sessionsCreated:   newCounterVec(internaldefs.SessionsCreated),
		sessionsDestroyed: newCounterVec(internaldefs.SessionsDestroyed),
		sessionsExpired:   newCounterVec(internaldefs.SessionsExpired),
		auditDropped:      newCounterVec(internaldefs.AuditDropped),
	}

	for _, c := range []prom.Collector{e.authAttempts, e.sessionsCreated, e.sessionsDestroyed, e.sessionsExpired, e.auditDropped} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func newCounterVec(def internaldefs.CounterDef) *prom.CounterVec {
	return prom.NewCounterVec(prom.CounterOpts{Name: def.Name, Help: def.Help}, def.Labels)
}

// Handler serves the registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

func (e *Exporter) AuthAttempt(strategy, outcome string) {
	e.authAttempts.WithLabelValues(strategy, outcome).Inc()
}

func (e *Exporter) SessionCreated(backend string) {
	e.sessionsCreated.WithLabelValues(backend).Inc()
}

func (e *Exporter) SessionDestroyed(backend string) {
	e.sessionsDestroyed.WithLabelValues(backend).Inc()
}

func (e *Exporter) SessionExpired(backend string) {
	e.sessionsExpired.WithLabelValues(backend).Inc()
}

func (e *Exporter) AuditDropped(reason string) {
	e.auditDropped.WithLabelValues(reason).Inc()
}

var _ metrics.Recorder = (*Exporter)(nil)

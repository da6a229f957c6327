package internaldefs

// CounterDef names one labelled counter.
type CounterDef struct {
	Name   string
	Help   string
	Labels []string
}

var (
	AuthAttempts = CounterDef{
		Name:   "authlayer_auth_attempts_total",
		Help:   "Requests evaluated by an authentication strategy.",
		Labels: []string{"strategy", "outcome"},
	}
	SessionsCreated = CounterDef{
		Name:   "authlayer_sessions_created_total",
		Help:   "Created sessions.",
		Labels: []string{"backend"},
	}
	SessionsDestroyed = CounterDef{
		Name:   "authlayer_sessions_destroyed_total",
		Help:   "Sessions removed by logout.",
		Labels: []string{"backend"},
	}
	SessionsExpired = CounterDef{
		Name:   "authlayer_sessions_expired_total",
		Help:   "Session lookups rejected because the session outlived its duration.",
		Labels: []string{"backend"},
	}
	AuditDropped = CounterDef{
		Name:   "authlayer_audit_events_dropped_total",
		Help:   "Audit events discarded before delivery.",
		Labels: []string{"reason"},
	}
)

// CounterDefs lists every counter in export order.
var CounterDefs = []CounterDef{AuthAttempts, SessionsCreated, SessionsDestroyed, SessionsExpired, AuditDropped}

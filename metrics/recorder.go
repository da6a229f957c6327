package metrics

// Authentication outcomes reported through Recorder.AuthAttempt.
const (
	OutcomeAuthenticated   = "authenticated"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeError           = "error"
	OutcomeExempt          = "exempt"
)

// Reasons reported through Recorder.AuditDropped.
const (
	DropBufferFull = "buffer_full"
	DropCanceled   = "canceled"
)

// Recorder receives authentication and session lifecycle events.
//
// Implementations must be safe for concurrent use and must not block.
type Recorder interface {
	AuthAttempt(strategy, outcome string)
	SessionCreated(backend string)
	SessionDestroyed(backend string)
	SessionExpired(backend string)
	// AuditDropped counts an audit event that never reached its sink.
	AuditDropped(reason string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) AuthAttempt(string, string) {}
func (Nop) SessionCreated(string)      {}
func (Nop) SessionDestroyed(string)    {}
func (Nop) SessionExpired(string)      {}
func (Nop) AuditDropped(string)        {}

// Multi fans every event out to each recorder in order.
type Multi []Recorder

func (m Multi) AuthAttempt(strategy, outcome string) {
	for _, r := range m {
		r.AuthAttempt(strategy, outcome)
	}
}

func (m Multi) SessionCreated(backend string) {
	for _, r := range m {
		r.SessionCreated(backend)
	}
}

func (m Multi) SessionDestroyed(backend string) {
	for _, r := range m {
		r.SessionDestroyed(backend)
	}
}

func (m Multi) SessionExpired(backend string) {
	for _, r := range m {
		r.SessionExpired(backend)
	}
}

func (m Multi) AuditDropped(reason string) {
	for _, r := range m {
		r.AuditDropped(reason)
	}
}

package emola

// Trace captures the boundary points of one top-level evaluation: the source
// that was evaluated, what it defined, and its result or error. Replaying the
// definitions from a session log reproduces the global environment.
type Trace struct {
	Entry     string // source text of the evaluated expression
	Defined   string // name bound by a top-level def, if any
	Steps     int    // trees evaluated
	Result    Value  // final result value
	Error     string // non-empty on error
	ErrorKind string // kind of the error, when it is an interpreter error
	Timestamp string // ISO 8601
}

// Failed reports whether the traced evaluation returned an error.
func (t *Trace) Failed() bool {
	return t.Error != ""
}

// ToGo converts a Trace to a JSON-ready map for the traces op.
func (t *Trace) ToGo() map[string]any {
	m := map[string]any{
		"entry":     t.Entry,
		"steps":     t.Steps,
		"timestamp": t.Timestamp,
	}
	if t.Defined != "" {
		m["defined"] = t.Defined
	}
	if t.Failed() {
		m["error"] = t.Error
		if t.ErrorKind != "" {
			m["error_kind"] = t.ErrorKind
		}
		return m
	}
	if v, err := ValueToGo(t.Result); err == nil {
		m["result"] = v
	}
	m["text"] = t.Result.Repr()
	return m
}

// traceRing keeps the most recent traces, dropping the oldest beyond max.
type traceRing struct {
	traces []Trace
	max    int
}

func (r *traceRing) append(t Trace) {
	r.traces = append(r.traces, t)
	if r.max > 0 && len(r.traces) > r.max {
		excess := len(r.traces) - r.max
		r.traces = r.traces[excess:]
	}
}

// last returns up to n of the newest traces, oldest first. n <= 0 means all.
func (r *traceRing) last(n int) []Trace {
	if n <= 0 || n > len(r.traces) {
		n = len(r.traces)
	}
	out := make([]Trace, n)
	copy(out, r.traces[len(r.traces)-n:])
	return out
}

func (r *traceRing) reset() {
	r.traces = nil
}

package guard

// Status is the progress of one asynchronous source
type Status int8

const (
	StatusNotStarted Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "not_started"
	}
}

// Load is the state of an asynchronous source: NotStarted, Loading, Ready(value) or
// Failed(err). The zero value is NotStarted.
type Load[T any] struct {
	status Status
	value  T
	err    error
}

// NotStarted returns a source that has not been requested
func NotStarted[T any]() Load[T] {
	return Load[T]{}
}

// Loading returns a source that is in flight
func Loading[T any]() Load[T] {
	return Load[T]{status: StatusLoading}
}

// Ready returns a source that resolved to v
func Ready[T any](v T) Load[T] {
	return Load[T]{status: StatusReady, value: v}
}

// Failed returns a source that resolved to an error
func Failed[T any](err error) Load[T] {
	return Load[T]{status: StatusFailed, err: err}
}

// Status returns the source status
func (l Load[T]) Status() Status {
	return l.status
}

// Value returns the resolved value; ok is false unless the source is Ready
func (l Load[T]) Value() (T, bool) {
	return l.value, l.status == StatusReady
}

// Err returns the failure of a Failed source
func (l Load[T]) Err() error {
	return l.err
}

// Pending reports whether the source has not resolved yet
func (l Load[T]) Pending() bool {
	return l.status == StatusNotStarted || l.status == StatusLoading
}

// InFlight reports whether the source is actively loading
func (l Load[T]) InFlight() bool {
	return l.status == StatusLoading
}

// IsReady reports whether the source resolved to a value
func (l Load[T]) IsReady() bool {
	return l.status == StatusReady
}

// IsFailed reports whether the source resolved to an error
func (l Load[T]) IsFailed() bool {
	return l.status == StatusFailed
}

// Readiness is satisfied by every Load
type Readiness interface {
	IsReady() bool
}

// AllReady reports whether every source resolved to a value
func AllReady(sources ...Readiness) bool {
	for _, s := range sources {
		if !s.IsReady() {
			return false
		}
	}
	return true
}

package shiftengine

// FailureKind tags why a lifecycle operation was refused. Operations
// return these inside a Result instead of raising errors so the caller
// can render inline feedback.
type FailureKind string

const (
	KindNotFound        FailureKind = "not_found"
	KindUnavailable     FailureKind = "unavailable"
	KindConflict        FailureKind = "conflict"
	KindNotOwner        FailureKind = "not_owner"
	KindTooLate         FailureKind = "too_late"
	KindNotActive       FailureKind = "not_active"
	KindHandoffRequired FailureKind = "handoff_required"
)

// Result is the outcome of a lifecycle operation: a success flag, a
// failure kind when refused, and a human-readable reason either way.
type Result struct {
	Success bool        `json:"success"`
	Kind    FailureKind `json:"kind,omitempty"`
	Message string      `json:"message"`
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func fail(kind FailureKind, message string) Result {
	return Result{Success: false, Kind: kind, Message: message}
}

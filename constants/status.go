package constants

// ProcessingStatus is the lifecycle label of a resume record.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusUploaded   ProcessingStatus = "uploaded"   // file stored, record created
	StatusProcessing ProcessingStatus = "processing" // pipeline running
	StatusCompleted  ProcessingStatus = "completed"  // terminal: parsed + scored
	StatusFailed     ProcessingStatus = "failed"     // terminal: processing_error set
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []ProcessingStatus{StatusUploaded, StatusProcessing, StatusCompleted, StatusFailed}

// ParseStatus returns the status named by s, if any.
func ParseStatus(s string) (ProcessingStatus, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no pipeline transition may leave s.
func (s ProcessingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the pipeline may move a record from -> to.
// Only uploaded -> processing -> {completed|failed} is reachable.
func CanTransition(from, to ProcessingStatus) bool {
	switch from {
	case StatusUploaded:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

package download

// Status tracks job state.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusExtracting  Status = "extracting"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// validTransitions defines allowed state transitions.
// Key is the "from" status, value is list of valid "to" statuses.
var validTransitions = map[Status][]Status{
	StatusQueued:      {StatusDownloading, StatusFailed, StatusCancelled},
	StatusDownloading: {StatusExtracting, StatusCompleted, StatusFailed, StatusCancelled},
	StatusExtracting:  {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:   {}, // terminal
	StatusFailed:      {}, // terminal - retry creates a new job
	StatusCancelled:   {}, // terminal - retry creates a new job
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s Status) CanTransitionTo(target Status) bool {
	valid, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if this status has no valid outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsActive returns true while an external process is running for the job.
func (s Status) IsActive() bool {
	return s == StatusDownloading || s == StatusExtracting
}

package events

// Entity types
const (
	EntityJob = "job"
)

// Event type constants
const (
	EventJobCreated        = "job.created"
	EventJobStarted        = "job.started"
	EventJobProgressed     = "job.progressed"
	EventJobStatusChanged  = "job.status.changed"
	EventJobFileDiscovered = "job.file.discovered"
	EventJobCompleted      = "job.completed"
	EventJobFailed         = "job.failed"
	EventJobCancelled      = "job.cancelled"
)

// JobCreated is emitted when a URL is accepted into the queue.
type JobCreated struct {
	BaseEvent
	URL string `json:"url"`
}

// JobStarted is emitted when a queued job claims a slot.
type JobStarted struct {
	BaseEvent
}

// JobProgressed is emitted when parsed output advances the progress fraction.
type JobProgressed struct {
	BaseEvent
	Progress float64 `json:"progress"` // 0.0 - 1.0
}

// JobStatusChanged is emitted on every forward status transition.
type JobStatusChanged struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// JobFileDiscovered is emitted when the output names a destination file.
type JobFileDiscovered struct {
	BaseEvent
	Name string `json:"name"`
	Path string `json:"path"`
}

// JobCompleted is emitted when a job finishes successfully.
type JobCompleted struct {
	BaseEvent
	ResultPath  string `json:"result_path,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// JobFailed is emitted when a job reaches the failed state.
type JobFailed struct {
	BaseEvent
	Reason string `json:"reason"`
}

// JobCancelled is emitted when a job is cancelled or a queued job removed.
type JobCancelled struct {
	BaseEvent
}

func NewJobCreated(id, url string) JobCreated {
	return JobCreated{BaseEvent: NewBaseEvent(EventJobCreated, EntityJob, id), URL: url}
}

func NewJobStarted(id string) JobStarted {
	return JobStarted{BaseEvent: NewBaseEvent(EventJobStarted, EntityJob, id)}
}

func NewJobProgressed(id string, progress float64) JobProgressed {
	return JobProgressed{BaseEvent: NewBaseEvent(EventJobProgressed, EntityJob, id), Progress: progress}
}

func NewJobStatusChanged(id, from, to string) JobStatusChanged {
	return JobStatusChanged{BaseEvent: NewBaseEvent(EventJobStatusChanged, EntityJob, id), From: from, To: to}
}

func NewJobFileDiscovered(id, name, path string) JobFileDiscovered {
	return JobFileDiscovered{BaseEvent: NewBaseEvent(EventJobFileDiscovered, EntityJob, id), Name: name, Path: path}
}

func NewJobCompleted(id, resultPath, displayName string) JobCompleted {
	return JobCompleted{BaseEvent: NewBaseEvent(EventJobCompleted, EntityJob, id), ResultPath: resultPath, DisplayName: displayName}
}

func NewJobFailed(id, reason string) JobFailed {
	return JobFailed{BaseEvent: NewBaseEvent(EventJobFailed, EntityJob, id), Reason: reason}
}

func NewJobCancelled(id string) JobCancelled {
	return JobCancelled{BaseEvent: NewBaseEvent(EventJobCancelled, EntityJob, id)}
}

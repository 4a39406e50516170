package download

import "errors"

// Sentinel errors for the download package.
var (
	// ErrExecutableNotFound is returned before any process is spawned when
	// the external download binary cannot be located.
	ErrExecutableNotFound = errors.New("yt-dlp executable not found")

	// ErrInvalidURL is returned when a submitted URL is empty after trimming.
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotFound is returned when a job id is unknown.
	ErrNotFound = errors.New("job not found")

	// ErrJobActive is returned when removing a job that still has a running
	// process. Callers must cancel first.
	ErrJobActive = errors.New("job is active, cancel it first")

	// ErrInvalidTransition is returned for operations that are not valid in
	// the job's current state, such as retrying a job that has not failed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

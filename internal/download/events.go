package download

// OutputEvent is a discrete semantic fact extracted from one line of
// external-process output. Implementations are the tagged variants below.
type OutputEvent interface {
	outputEvent()
}

// ProgressEvent reports download progress as a fraction in [0, 1].
type ProgressEvent struct {
	Fraction float64
}

// StatusEvent reports a status change observed in the output.
type StatusEvent struct {
	Status Status
}

// FileNameEvent reports a discovered destination or merged output file.
type FileNameEvent struct {
	Name string // base name without extension
	Path string
}

// ErrorEvent reports an error marker in the output. The line is kept so
// the last one seen can serve as the job's failure detail.
type ErrorEvent struct {
	Line string
}

func (ProgressEvent) outputEvent() {}
func (StatusEvent) outputEvent()   {}
func (FileNameEvent) outputEvent() {}
func (ErrorEvent) outputEvent()    {}

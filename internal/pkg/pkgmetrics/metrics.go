package pkgmetrics

// Labels are dimension key/value pairs attached to a sample.
type Labels map[string]string

// Backend records counters and histogram samples.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Close() error
}

// Metric names emitted by the dataset pipeline.
const (
	UploadsTotal          = "chemviz.uploads.total"
	RowsRejectedTotal     = "chemviz.rows.rejected.total"
	DatasetsPrunedTotal   = "chemviz.datasets.pruned.total"
	UploadDurationSeconds = "chemviz.upload.duration_seconds"
)

// Noop discards everything.
type Noop struct{}

func (Noop) IncCounter(string, float64, Labels)       {}
func (Noop) ObserveHistogram(string, float64, Labels) {}
func (Noop) Close() error                             { return nil }

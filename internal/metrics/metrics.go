// Package metrics decouples pipeline instrumentation from any particular
// metrics vendor. The pipeline depends only on Backend; cmd wiring decides
// whether that is Datadog, a Prometheus Pushgateway, or the nop default.
package metrics

import "sync"

// Counter and duration names emitted by the pipeline.
const (
	FilesProcessed  = "files_processed"
	FilesSkipped    = "files_skipped"
	RecordsParsed   = "records_parsed"
	RecordsLoaded   = "records_loaded"
	RecordsRejected = "records_rejected"
	FileLoadSeconds = "file_load_seconds"
)

// Backend receives metric observations. Implementations must be safe for
// concurrent use; Flush submits anything buffered.
type Backend interface {
	IncCounter(name string, delta float64)
	ObserveDuration(name string, seconds float64)
	Flush() error
}

var (
	mu      sync.RWMutex
	current Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. Passing nil restores the
// nop backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		current = nopBackend{}
		return
	}
	current = b
}

func backend() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// IncCounter adds delta to the named counter on the installed backend.
func IncCounter(name string, delta float64) { backend().IncCounter(name, delta) }

// ObserveDuration records one duration sample in seconds.
func ObserveDuration(name string, seconds float64) { backend().ObserveDuration(name, seconds) }

// Flush submits buffered metrics on the installed backend.
func Flush() error { return backend().Flush() }

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64) {}

func (nopBackend) ObserveDuration(string, float64) {}

func (nopBackend) Flush() error { return nil }

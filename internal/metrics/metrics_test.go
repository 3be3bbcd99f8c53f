package metrics

import "testing"

type recordingBackend struct {
	counters  map[string]float64
	durations map[string][]float64
	flushes   int
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		counters:  make(map[string]float64),
		durations: make(map[string][]float64),
	}
}

func (b *recordingBackend) IncCounter(name string, delta float64) {
	b.counters[name] += delta
}

func (b *recordingBackend) ObserveDuration(name string, seconds float64) {
	b.durations[name] = append(b.durations[name], seconds)
}

func (b *recordingBackend) Flush() error {
	b.flushes++
	return nil
}

func TestPackageFunctionsRouteToInstalledBackend(t *testing.T) {
	b := newRecordingBackend()
	SetBackend(b)
	defer SetBackend(nil)

	IncCounter(FilesProcessed, 1)
	IncCounter(FilesProcessed, 2)
	ObserveDuration(FileLoadSeconds, 0.25)
	if err := Flush(); err != nil {
		t.Fatalf("Flush() err=%v", err)
	}

	if got := b.counters[FilesProcessed]; got != 3 {
		t.Fatalf("counter=%v, want 3", got)
	}
	if got := b.durations[FileLoadSeconds]; len(got) != 1 || got[0] != 0.25 {
		t.Fatalf("durations=%v, want one 0.25 sample", got)
	}
	if b.flushes != 1 {
		t.Fatalf("flushes=%d, want 1", b.flushes)
	}
}

func TestSetBackendNilRestoresNop(t *testing.T) {
	b := newRecordingBackend()
	SetBackend(b)
	SetBackend(nil)

	IncCounter(FilesProcessed, 1)
	if err := Flush(); err != nil {
		t.Fatalf("Flush() on nop err=%v", err)
	}
	if got := b.counters[FilesProcessed]; got != 0 {
		t.Fatalf("old backend still receiving metrics: %v", got)
	}
}

package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimerTracksPhases(t *testing.T) {
	timer := NewTimer()
	timer.Track("load")("2 files")
	done := timer.Track("translate")
	done("")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %+v", report.Phases)
	}
	if report.Phases[0].Name != "load" || report.Phases[0].Note != "2 files" {
		t.Fatalf("first phase = %+v", report.Phases[0])
	}
	if !strings.Contains(timer.Summary(), "translate") {
		t.Fatalf("summary misses a phase:\n%s", timer.Summary())
	}
}

func TestTimerConcurrentUse(t *testing.T) {
	timer := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer.Track("struct")("")
		}()
	}
	wg.Wait()
	if got := len(timer.Report().Phases); got != 16 {
		t.Fatalf("phases = %d, want 16", got)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var timer *Timer
	timer.Track("x")("y")
	if got := timer.Report(); len(got.Phases) != 0 {
		t.Fatalf("nil timer reported %+v", got)
	}
}

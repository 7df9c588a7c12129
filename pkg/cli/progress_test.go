package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSimpleProgressBasic(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	time.Sleep(10 * time.Millisecond) // Give it time to render

	progress.Update(50)
	time.Sleep(10 * time.Millisecond)

	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Progress:") {
		t.Error("Expected progress output to contain 'Progress:'")
	}
	if !strings.Contains(output, "records/s") {
		t.Error("Expected progress output to contain a records/s rate")
	}
}

func TestSimpleProgressUnknownTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	// Total zero means the size is unknown; render a count-only line.
	progress.Start(0)
	progress.Update(3)
	progress.Finish()

	output := buf.String()
	if !strings.Contains(output, "Exported 3 records") {
		t.Errorf("Expected count-only output, got %q", output)
	}
	if strings.Contains(output, "Progress: [") {
		t.Errorf("Unknown total should not render a bar, got %q", output)
	}
}

func TestSimpleProgressError(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(100)
	progress.Error(fmt.Errorf("test error"))

	output := buf.String()
	if !strings.Contains(output, "Error:") {
		t.Error("Expected error output to contain 'Error:'")
	}
	if !strings.Contains(output, "test error") {
		t.Error("Expected error output to contain error message")
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf)

	progress.Start(1000)

	// Simulate concurrent updates
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(start int) {
			for j := 0; j < 100; j++ {
				progress.Update(int64(start*100 + j))
				time.Sleep(time.Microsecond)
			}
			done <- true
		}(i)
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	progress.Finish()

	// Should not panic and should produce some output
	if buf.Len() == 0 {
		t.Error("Expected some progress output")
	}
}

func TestNewProgressReporterNilWriter(t *testing.T) {
	// Should default to stderr, not panic
	progress := NewProgressReporter(nil)
	if progress == nil {
		t.Error("NewProgressReporter(nil) should not return nil")
	}

	sp, ok := progress.(*SimpleProgress)
	if !ok {
		t.Fatalf("NewProgressReporter() type = %T, want *SimpleProgress", progress)
	}
	if sp.writer == nil {
		t.Error("nil writer should default to stderr")
	}
}

package rotolog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

// failingWriter fails every write after the first.
type failingWriter struct {
	writes int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	if w.writes > 1 {
		return 0, errors.New("sink gone")
	}
	return len(p), nil
}

func TestDuplicateToStderrAboveThreshold(t *testing.T) {
	dir := t.TempDir()
	logger, err := New("trace",
		LogToFile(),
		WithDirectory(dir),
		WithBasename("app"),
		WithDuplicateToStderr(LevelWarn),
		WithFormatForStderr(DefaultFormat),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	var mirror bytes.Buffer
	logger.stderrDest.sink = &mirror

	logger.Infof("mod", "plain info")
	logger.Warnf("mod", "worth a look")
	logger.Errorf("mod", "it broke")

	out := mirror.String()
	if strings.Contains(out, "plain info") {
		t.Error("info must not be duplicated with a warn threshold")
	}
	if !strings.Contains(out, "worth a look") || !strings.Contains(out, "it broke") {
		t.Errorf("warn and error must be mirrored to stderr, got %q", out)
	}

	data, err := os.ReadFile(logger.CurrentPath())
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range []string{"plain info", "worth a look", "it broke"} {
		if !strings.Contains(string(data), msg) {
			t.Errorf("file is missing %q", msg)
		}
	}
}

func TestDestinationFailureIsIsolated(t *testing.T) {
	var healthy bytes.Buffer
	var reports []*Error
	bad := &failingWriter{}

	logger, err := New("info",
		LogToNothing(),
		WithWriter("healthy", &healthy),
		WithWriter("flaky", bad),
		WithErrorHandler(func(e *Error) { reports = append(reports, e) }),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	for i := 0; i < 5; i++ {
		logger.Infof("mod", "message %d", i)
	}

	lines := strings.Count(healthy.String(), "\n")
	if lines != 5 {
		t.Errorf("healthy writer got %d lines, want 5", lines)
	}

	// the flaky destination degrades to dropping and reports exactly once
	if len(reports) != 1 {
		t.Errorf("expected exactly one failure report, got %d", len(reports))
	}
	if m := logger.Metrics(); m.Dropped == 0 {
		t.Error("dropped counter should move for the degraded destination")
	}
}

func TestWriterFormatsAreIndependent(t *testing.T) {
	var plain, detailed bytes.Buffer
	logger, err := New("info",
		LogToNothing(),
		WithFormattedWriter("plain", &plain, DefaultFormat),
		WithFormattedWriter("detailed", &detailed, DetailedFormat),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	logger.Warnf("srv::conn", "timeout")

	if got := plain.String(); !strings.HasPrefix(got, "WARN [srv::conn] timeout") {
		t.Errorf("plain writer got %q", got)
	}
	// the detailed format leads with the full timestamp
	if got := detailed.String(); !strings.Contains(got, "WARN [srv::conn]") ||
		strings.HasPrefix(got, "WARN") {
		t.Errorf("detailed writer got %q", got)
	}
}

func TestDisabledRecordReachesNoDestination(t *testing.T) {
	var sink bytes.Buffer
	logger, err := New("warn", LogToNothing(), WithWriter("sink", &sink))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	logger.Infof("mod", "filtered out")
	logger.Warnf("mod", "let through")

	if strings.Contains(sink.String(), "filtered out") {
		t.Error("disabled record must not be written")
	}
	if !strings.Contains(sink.String(), "let through") {
		t.Error("enabled record must be written")
	}
}

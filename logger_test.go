package rotolog_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/wayneeseguin/rotolog"
)

func TestConcurrentWritersLoseNothing(t *testing.T) {
	dir := t.TempDir()
	logger, err := rotolog.New("info",
		rotolog.LogToFile(),
		rotolog.WithDirectory(dir),
		rotolog.WithBasename("app"),
		rotolog.WithRotate(
			rotolog.RotateSize(2048),
			rotolog.NamingNumbers,
			rotolog.CleanupNever,
		),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const (
		writers = 8
		records = 200
	)
	var wg sync.WaitGroup
	for g := 0; g < writers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for m := 0; m < records; m++ {
				logger.Infof("worker", "g%02d-m%04d", g, m)
			}
		}(g)
	}
	wg.Wait()

	if err := logger.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	// reconstruct the union of all files: every record present exactly
	// once, every line whole
	seen := make(map[string]bool)
	linePattern := regexp.MustCompile(`^INFO \[worker\] g\d{2}-m\d{4}$`)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line == "" {
				continue
			}
			if !linePattern.MatchString(line) {
				t.Fatalf("interleaved or partial line: %q", line)
			}
			if seen[line] {
				t.Fatalf("duplicated line: %q", line)
			}
			seen[line] = true
		}
	}

	if len(seen) != writers*records {
		t.Errorf("reconstructed %d records, want %d", len(seen), writers*records)
	}
	for g := 0; g < writers; g++ {
		for m := 0; m < records; m++ {
			if !seen[fmt.Sprintf("INFO [worker] g%02d-m%04d", g, m)] {
				t.Fatalf("record g%02d-m%04d lost", g, m)
			}
		}
	}
}

func TestShutdownDrainsBuffers(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	logger, err := rotolog.New("info",
		rotolog.LogToFile(),
		rotolog.WithDirectory(dir),
		rotolog.WithBasename("app"),
		rotolog.WithSuppressTimestamp(),
		rotolog.WithBuffered(64*1024),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	path := logger.CurrentPath()

	for i := 0; i < 10; i++ {
		logger.Infof("mod", "buffered record %d", i)
	}

	// nothing flushed yet: the records fit comfortably in the buffer
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		t.Fatalf("records reached disk before shutdown, %d bytes", info.Size())
	}

	if err := logger.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if !strings.Contains(string(data), fmt.Sprintf("buffered record %d", i)) {
			t.Errorf("record %d missing after shutdown", i)
		}
	}
}

func TestLogAfterShutdownIsNoop(t *testing.T) {
	dir := t.TempDir()
	logger, err := rotolog.New("info",
		rotolog.LogToFile(),
		rotolog.WithDirectory(dir),
		rotolog.WithBasename("app"),
		rotolog.WithSuppressTimestamp(),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	path := logger.CurrentPath()

	logger.Infof("mod", "before shutdown")
	if err := logger.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	logger.Infof("mod", "after shutdown") // must not panic or error
	if err := logger.Shutdown(context.Background()); err != nil {
		t.Errorf("repeated Shutdown should be a no-op, got %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "after shutdown") {
		t.Error("record written after shutdown")
	}
	if !strings.Contains(string(data), "before shutdown") {
		t.Error("record written before shutdown is missing")
	}
	if logger.Metrics().Dropped == 0 {
		t.Error("post-shutdown records should be counted as dropped")
	}
}

func TestPushPopTempSpecOnHandle(t *testing.T) {
	var sink bytes.Buffer
	logger, err := rotolog.New("info", rotolog.LogToNothing(), rotolog.WithWriter("sink", &sink))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	if logger.Enabled(rotolog.LevelTrace, "critical::mod") {
		t.Fatal("trace must start disabled under an info spec")
	}

	if err := logger.PushTempSpec("info, critical::mod = trace"); err != nil {
		t.Fatalf("PushTempSpec failed: %v", err)
	}
	if !logger.Enabled(rotolog.LevelTrace, "critical::mod") {
		t.Error("pushed temp spec should enable trace for the module")
	}
	if logger.Enabled(rotolog.LevelTrace, "other") {
		t.Error("temp spec must not enable trace elsewhere")
	}

	logger.PopTempSpec()
	if logger.Enabled(rotolog.LevelTrace, "critical::mod") {
		t.Error("pop must restore the previous effective spec")
	}

	// malformed temp specs are rejected without disturbing the stack
	if err := logger.PushTempSpec("no such level = nope"); err == nil {
		t.Error("expected an error for a malformed temp spec")
	}
	if logger.Enabled(rotolog.LevelDebug, "m") {
		t.Error("rejected push must leave the effective spec unchanged")
	}
}

func TestWindowsLineEnding(t *testing.T) {
	var sink bytes.Buffer
	logger, err := rotolog.New("info",
		rotolog.LogToNothing(),
		rotolog.WithWriter("sink", &sink),
		rotolog.WithWindowsLineEnding(),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	logger.Infof("mod", "crlf line")
	if !strings.HasSuffix(sink.String(), "\r\n") {
		t.Errorf("expected CRLF terminator, got %q", sink.String())
	}
}

func TestManualFlushSurfacesBufferedRecords(t *testing.T) {
	dir := t.TempDir()
	logger, err := rotolog.New("info",
		rotolog.LogToFile(),
		rotolog.WithDirectory(dir),
		rotolog.WithBasename("app"),
		rotolog.WithSuppressTimestamp(),
		rotolog.WithBuffered(64*1024),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	logger.Infof("mod", "flush me")
	if err := logger.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	data, err := os.ReadFile(logger.CurrentPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "flush me") {
		t.Error("manual flush did not surface the buffered record")
	}
}

func TestFlushTimerSurfacesBufferedRecords(t *testing.T) {
	dir := t.TempDir()
	logger, err := rotolog.New("info",
		rotolog.LogToFile(),
		rotolog.WithDirectory(dir),
		rotolog.WithBasename("app"),
		rotolog.WithSuppressTimestamp(),
		rotolog.WithBuffered(64*1024),
		rotolog.WithFlushInterval(50*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())
	path := logger.CurrentPath()

	logger.Infof("mod", "timer flushed record")

	// no manual Flush: the background timer alone must surface the record
	if !waitFor(t, 5*time.Second, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), "timer flushed record")
	}) {
		t.Fatal("flush timer never surfaced the buffered record")
	}
}

func BenchmarkEnabledHotPath(b *testing.B) {
	logger, err := rotolog.New("info, a::b = trace", rotolog.LogToNothing())
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			logger.Enabled(rotolog.LevelDebug, "a::b::c")
		}
	})
}

func BenchmarkDisabledRecord(b *testing.B) {
	logger, err := rotolog.New("warn", rotolog.LogToNothing())
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	defer logger.Shutdown(context.Background())

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			logger.Debugf("mod", "never rendered %d", 42)
		}
	})
}

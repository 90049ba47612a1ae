package rotolog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

// cleanupLogger builds the minimal logger state a retention pass needs.
func cleanupLogger(dir string, policy Cleanup) *Logger {
	return &Logger{
		fileSpec: FileSpec{Directory: dir, Basename: "app", Suffix: "log"},
		rotate:   &RotateConfig{Cleanup: policy},
		now:      time.Now,
		errorHandler: func(err *Error) {
			fmt.Fprintf(os.Stderr, "cleanup test: %v\n", err)
		},
	}
}

func seedRotated(t *testing.T, dir string, n int) []string {
	t.Helper()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("app_r%05d.log", i)
		if err := os.WriteFile(filepath.Join(dir, name),
			[]byte(fmt.Sprintf("contents of rotation %d\n", i)), 0644); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	return names
}

func survivors(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func TestKeepLogFilesDeletesExcess(t *testing.T) {
	dir := t.TempDir()
	seedRotated(t, dir, 10)

	cleanupLogger(dir, KeepLogFiles(3)).cleanupPass()

	got := survivors(t, dir)
	want := []string{"app_r00007.log", "app_r00008.log", "app_r00009.log"}
	if len(got) != len(want) {
		t.Fatalf("survivors = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("survivors = %v, want %v", got, want)
		}
	}
}

func TestKeepLogFilesBoundHoldsAcrossPasses(t *testing.T) {
	// after any sequence of rotations, at most n rotated files remain
	dir := t.TempDir()
	l := cleanupLogger(dir, KeepLogFiles(2))

	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("app_r%05d.log", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
		l.cleanupPass()

		files, err := l.fileSpec.listRotated()
		if err != nil {
			t.Fatal(err)
		}
		max := i + 1
		if max > 2 {
			max = 2
		}
		if len(files) != max {
			t.Fatalf("pass %d: %d rotated files on disk, want %d", i, len(files), max)
		}
	}
}

func TestKeepLogAndCompressedFiles(t *testing.T) {
	dir := t.TempDir()
	seedRotated(t, dir, 6)

	cleanupLogger(dir, KeepLogAndCompressedFiles(2, 2)).cleanupPass()

	got := survivors(t, dir)
	want := []string{
		"app_r00002.log.gz",
		"app_r00003.log.gz",
		"app_r00004.log",
		"app_r00005.log",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("survivors = %v, want %v", got, want)
	}

	// the compressed copy must round-trip to the original contents
	f, err := os.Open(filepath.Join(dir, "app_r00003.log.gz"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("opening gzip stream: %v", err)
	}
	data, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("decompressing: %v", err)
	}
	if string(data) != "contents of rotation 3\n" {
		t.Errorf("decompressed contents = %q", data)
	}
}

func TestKeepCompressedFiles(t *testing.T) {
	dir := t.TempDir()
	seedRotated(t, dir, 5)

	cleanupLogger(dir, KeepCompressedFiles(3)).cleanupPass()

	got := survivors(t, dir)
	want := []string{"app_r00002.log.gz", "app_r00003.log.gz", "app_r00004.log.gz"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("survivors = %v, want %v", got, want)
	}
}

func TestCleanupSecondPassLeavesCompressedAlone(t *testing.T) {
	dir := t.TempDir()
	seedRotated(t, dir, 4)

	l := cleanupLogger(dir, KeepLogAndCompressedFiles(1, 2))
	l.cleanupPass()
	first := survivors(t, dir)
	l.cleanupPass()
	second := survivors(t, dir)

	if strings.Join(first, ",") != strings.Join(second, ",") {
		t.Errorf("second pass changed the directory: %v -> %v", first, second)
	}
}

func TestCleanupNeverRetainsEverything(t *testing.T) {
	dir := t.TempDir()
	seedRotated(t, dir, 5)

	l := cleanupLogger(dir, CleanupNever)
	l.runCleanup(filepath.Join(dir, "app_r00004.log"))

	if got := survivors(t, dir); len(got) != 5 {
		t.Errorf("CleanupNever must not touch files, %d of 5 remain", len(got))
	}
}

func TestCleanupExcludesCurrentFile(t *testing.T) {
	dir := t.TempDir()
	seedRotated(t, dir, 4)
	current := filepath.Join(dir, "app_rCURRENT.log")
	if err := os.WriteFile(current, []byte("active\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cleanupLogger(dir, KeepLogFiles(0)).cleanupPass()

	if _, err := os.Stat(current); err != nil {
		t.Errorf("cleanup must never touch the current file: %v", err)
	}
	files, err := cleanupLogger(dir, KeepLogFiles(0)).fileSpec.listRotated()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("KeepLogFiles(0) should delete every rotated file, %d remain", len(files))
	}
}

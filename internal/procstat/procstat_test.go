package procstat

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeProc(t *testing.T, root string, pid, stat, status string) {
	t.Helper()
	dir := filepath.Join(root, pid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "stat"), []byte(stat), 0o644); err != nil {
		t.Fatal(err)
	}
	if status != "" {
		if err := os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestReader_Read(t *testing.T) {
	root := t.TempDir()
	stat := "4242 (my (odd) cmd) S 1 4242 4242 0 -1 4194304 120 0 0 0 250 17 0 0 20 0 1 0 100 1000 200\n"
	status := "Name:\tsleep\nVmPeak:\t  9000 kB\nVmRSS:\t  1024 kB\nThreads:\t1\n"
	writeProc(t, root, "4242", stat, status)

	u, ok := NewReader(root).Read(4242)
	if !ok {
		t.Fatal("Read returned unavailable")
	}
	if u.Comm != "my (odd) cmd" {
		t.Errorf("Comm = %q", u.Comm)
	}
	if u.UserTime != 2500*time.Millisecond {
		t.Errorf("UserTime = %v, want 2.5s", u.UserTime)
	}
	if u.SystemTime != 170*time.Millisecond {
		t.Errorf("SystemTime = %v, want 170ms", u.SystemTime)
	}
	if u.RSSBytes != 1024*1024 {
		t.Errorf("RSSBytes = %d, want 1 MiB", u.RSSBytes)
	}
	if s := u.String(); !strings.Contains(s, "rss=1.0 MiB") {
		t.Errorf("String() = %q, want humanized rss", s)
	}
}

func TestReader_ZombieHasNoRSS(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "7", "7 (defunct) Z 1 7 7 0 -1 0 0 0 0 0 3 4 0 0 20 0 1 0 100 0 0\n", "Name:\tdefunct\n")

	u, ok := NewReader(root).Read(7)
	if !ok {
		t.Fatal("Read returned unavailable")
	}
	if u.RSSBytes != 0 {
		t.Errorf("RSSBytes = %d, want 0", u.RSSBytes)
	}
}

func TestReader_Unavailable(t *testing.T) {
	root := t.TempDir()
	writeProc(t, root, "9", "garbage", "")

	r := NewReader(root)
	if _, ok := r.Read(9); ok {
		t.Error("malformed stat should be unavailable")
	}
	if _, ok := r.Read(10); ok {
		t.Error("missing process should be unavailable")
	}
}

func TestRead_Self(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("requires /proc")
	}
	u, ok := Read(os.Getpid())
	if !ok {
		t.Fatal("reading own /proc entry failed")
	}
	if u.RSSBytes == 0 {
		t.Error("own RSS should be non-zero")
	}
}

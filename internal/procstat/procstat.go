// Package procstat reads best-effort CPU and memory counters from /proc.
package procstat

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// clockTick is the duration of one USER_HZ tick as exposed in /proc/<pid>/stat.
// Linux fixes USER_HZ at 100 regardless of the kernel's internal HZ.
const clockTick = 10 * time.Millisecond

// Usage is a point-in-time sample of a process's resource counters.
type Usage struct {
	Comm       string
	UserTime   time.Duration
	SystemTime time.Duration
	RSSBytes   uint64
}

// String formats the sample for a log line.
func (u Usage) String() string {
	return fmt.Sprintf("%s: utime=%s stime=%s rss=%s", u.Comm, u.UserTime, u.SystemTime, humanize.IBytes(u.RSSBytes))
}

// Reader reads process counters from a proc filesystem root.
type Reader struct {
	root string
}

// NewReader returns a Reader rooted at root ("/proc" when empty).
func NewReader(root string) *Reader {
	if root == "" {
		root = "/proc"
	}
	return &Reader{root: root}
}

var defaultReader = NewReader("")

// Read samples pid from /proc. The boolean is false when the process is gone
// or the data cannot be parsed.
func Read(pid int) (Usage, bool) {
	return defaultReader.Read(pid)
}

// Read samples pid. The boolean is false when the data is unavailable.
func (r *Reader) Read(pid int) (Usage, bool) {
	dir := filepath.Join(r.root, strconv.Itoa(pid))

	stat, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return Usage{}, false
	}
	u, ok := parseStat(string(stat))
	if !ok {
		return Usage{}, false
	}

	// VmRSS is absent for zombies and kernel threads; keep the CPU figures.
	if rss, ok := readRSS(filepath.Join(dir, "status")); ok {
		u.RSSBytes = rss
	}
	return u, true
}

// parseStat extracts comm, utime and stime. comm may contain spaces and
// parentheses, so fields are counted from the last ')'.
func parseStat(s string) (Usage, bool) {
	open := strings.IndexByte(s, '(')
	end := strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Usage{}, false
	}
	// Fields after comm start at field 3 (state); utime is 14, stime is 15.
	rest := strings.Fields(s[end+1:])
	if len(rest) < 13 {
		return Usage{}, false
	}
	utime, err := strconv.ParseUint(rest[11], 10, 64)
	if err != nil {
		return Usage{}, false
	}
	stime, err := strconv.ParseUint(rest[12], 10, 64)
	if err != nil {
		return Usage{}, false
	}
	return Usage{
		Comm:       s[open+1 : end],
		UserTime:   time.Duration(utime) * clockTick,
		SystemTime: time.Duration(stime) * clockTick,
	}, true
}

func readRSS(path string) (uint64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "VmRSS:"))
		if len(fields) == 0 {
			return 0, false
		}
		kb, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}

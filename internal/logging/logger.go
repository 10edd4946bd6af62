package logging

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// TimeLayout is the timestamp format shared by access log lines and
// connection start times.
const TimeLayout = "2006-01-02 15:04:05"

// Logger writes access and error log files. Either file is optional; a
// nil file turns the corresponding method into a no-op. Each file is
// guarded by its own mutex held only for the write of one line.
type Logger struct {
	accessMu sync.Mutex
	access   *os.File

	errorMu sync.Mutex
	errFile *os.File
}

// New opens the given log files in append mode. An empty path disables
// that log.
func New(accessPath, errorPath string) (*Logger, error) {
	l := &Logger{}
	var err error
	if accessPath != "" {
		if l.access, err = openAppend(accessPath); err != nil {
			return nil, err
		}
	}
	if errorPath != "" {
		if l.errFile, err = openAppend(errorPath); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log %s: %w", path, err)
	}
	return f, nil
}

// Access writes one pre-formatted access log line.
func (l *Logger) Access(line string) {
	if l.access == nil {
		return
	}
	l.accessMu.Lock()
	fmt.Fprintln(l.access, line)
	l.accessMu.Unlock()
}

// Error writes one timestamped error line.
func (l *Logger) Error(message string) {
	if l.errFile == nil {
		return
	}
	ts := time.Now().Format(TimeLayout)
	l.errorMu.Lock()
	fmt.Fprintf(l.errFile, "[%s][ERROR]: %s\n", ts, message)
	l.errorMu.Unlock()
}

// Close closes whichever log files are open.
func (l *Logger) Close() {
	if l.access != nil {
		l.access.Close()
	}
	if l.errFile != nil {
		l.errFile.Close()
	}
}

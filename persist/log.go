package persist

import (
	"fmt"
	"log"
	"os"
)

// Logger wraps the standard library logger with a consistent startup and
// shutdown line, so that log files can be grepped for clean boundaries
// between runs.
type Logger struct {
	*log.Logger
	w      *os.File
	closed bool
}

// NewLogger is the same as NewFileLogger: it returns a Logger that appends to
// logFilename and writes a STARTUP line immediately.
func NewLogger(logFilename string) (*Logger, error) {
	return NewFileLogger(logFilename)
}

// NewFileLogger creates a Logger that writes to logFilename, appending to
// any existing content, and writes a STARTUP line immediately.
func NewFileLogger(logFilename string) (*Logger, error) {
	logFile, err := os.OpenFile(logFilename, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	l := &Logger{
		Logger: log.New(logFile, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile|log.LUTC),
		w:      logFile,
	}
	l.Println("STARTUP: Logging has started.")
	return l, nil
}

// Critical logs a message at the CRITICAL severity and mirrors it to
// stderr, matching the teacher's convention that critical errors are
// impossible to miss even if nobody is tailing the log file.
func (l *Logger) Critical(v ...interface{}) {
	s := "CRITICAL: " + fmt.Sprintln(v...)
	l.Output(2, s)
	os.Stderr.WriteString(s)
}

// Severe logs a message at the SEVERE severity, for errors that are
// unexpected but recoverable.
func (l *Logger) Severe(v ...interface{}) {
	l.Output(2, "SEVERE: "+fmt.Sprintln(v...))
}

// Close logs a SHUTDOWN line and closes the underlying file. Close is safe
// to call more than once.
func (l *Logger) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	l.Println("SHUTDOWN: Logging has terminated.")
	return l.w.Close()
}

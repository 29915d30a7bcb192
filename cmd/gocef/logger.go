package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zaroxh/gocef/install"
)

// stderrLogger prints structured key=value lines. Debug lines only
// appear with --verbose.
type stderrLogger struct {
	out     io.Writer
	verbose bool
}

func newStderrLogger(verbose bool) install.Logger {
	return &stderrLogger{out: os.Stderr, verbose: verbose}
}

func (l *stderrLogger) Debug(msg string, keysAndValues ...interface{}) {
	if l.verbose {
		l.print("DEBUG", msg, keysAndValues)
	}
}

func (l *stderrLogger) Info(msg string, keysAndValues ...interface{}) {
	l.print("INFO", msg, keysAndValues)
}

func (l *stderrLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.print("WARN", msg, keysAndValues)
}

func (l *stderrLogger) Error(msg string, keysAndValues ...interface{}) {
	l.print("ERROR", msg, keysAndValues)
}

func (l *stderrLogger) print(level, msg string, kvs []interface{}) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", level, msg)
	for i := 0; i+1 < len(kvs); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kvs[i], kvs[i+1])
	}
	fmt.Fprintln(l.out, b.String())
}

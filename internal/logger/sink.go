package logger

import "os"

// newStdoutSink returns the console writer the logger encodes to:
// always os.Stdout.
func newStdoutSink() *os.File {
	return os.Stdout
}

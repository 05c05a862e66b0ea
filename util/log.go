package util

import "github.com/hauke96/sigolo/v2"

// LogFatalBug logs the message and exits. Use it for states that can only be reached by a programming error.
func LogFatalBug(format string, args ...interface{}) {
	sigolo.Fatalb(1, format+" - This is a bug, please report it together with the command and input files", args...)
}

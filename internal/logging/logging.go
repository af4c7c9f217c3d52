// Package logging wires up the structured logger shared by the cmd/
// front ends, plus the section/banner helpers carried over from the
// teacher's colored console logger.
package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger writing to stderr with the given level
// name ("debug", "info", "warn", "error"); an unrecognized name falls
// back to "info".
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Section prints a section header to stdout, unconditionally: a
// human-facing banner, not a log line, so it bypasses the logger.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║ %-61s ║\n", title)
	fmt.Printf("╚%s╝\n\n", border)
}

// Banner prints the startup banner for a cmd/ entrypoint.
func Banner(title, version string) {
	fmt.Printf("%s %s\n", title, version)
}

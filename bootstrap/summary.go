package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/ssogate/logger"
)

type summaryLine struct {
	label string
	value string
}

// Summary collects the lines of the startup banner.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	lines           []summaryLine
}

// NewSummary creates an empty summary for a service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// Add appends a labelled line, typically a config Describe() result.
func (s *Summary) Add(label, value string) {
	s.lines = append(s.lines, summaryLine{label: label, value: value})
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// String renders the banner with aligned labels.
func (s *Summary) String() string {
	width := 0
	for _, l := range s.lines {
		width = max(width, len(l.label))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", s.serviceName, s.version)
	if s.startupDuration > 0 {
		fmt.Fprintf(&b, " started in %s", s.startupDuration.Round(time.Millisecond))
	}
	for _, l := range s.lines {
		fmt.Fprintf(&b, "\n  %-*s  %s", width, l.label, l.value)
	}
	return b.String()
}

// Display logs the banner one line per entry.
func (s *Summary) Display(log *logger.Logger) {
	for _, line := range strings.Split(s.String(), "\n") {
		log.Info(strings.TrimSpace(line))
	}
}

package logger

import (
	"io"
	"regexp"
)

// Scrubber removes participant-identifying data from log output. Recording
// sessions often carry subject names and contact details in free-form user
// info fields, and those must not end up in log files that get shared for
// debugging.
type Scrubber struct {
	patterns []*regexp.Regexp
}

// NewScrubber creates a new scrubber with default patterns
func NewScrubber() *Scrubber {
	return &Scrubber{
		patterns: []*regexp.Regexp{
			// Email addresses
			regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),

			// Phone numbers
			regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`),

			// Participant and subject identity fields
			regexp.MustCompile(`(?i)participant["\s:=]+[^\s",}]+`),
			regexp.MustCompile(`(?i)subject_name["\s:=]+[^\s",}]+`),
			regexp.MustCompile(`(?i)full_name["\s:=]+[^\s",}]+`),
			regexp.MustCompile(`(?i)date_of_birth["\s:=]+[^\s",}]+`),
		},
	}
}

// AddPattern adds a custom scrub pattern for study-specific identifiers
func (s *Scrubber) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}

// Scrub removes participant-identifying data from a string
func (s *Scrubber) Scrub(str string) string {
	result := str
	for _, pattern := range s.patterns {
		result = pattern.ReplaceAllString(result, "[SCRUBBED]")
	}
	return result
}

// Wrap wraps an io.Writer to scrub participant-identifying data
func (s *Scrubber) Wrap(w io.Writer) io.Writer {
	return &scrubbingWriter{
		writer:   w,
		scrubber: s,
	}
}

// scrubbingWriter is an io.Writer that scrubs participant-identifying data
type scrubbingWriter struct {
	writer   io.Writer
	scrubber *Scrubber
}

func (w *scrubbingWriter) Write(p []byte) (n int, err error) {
	scrubbed := w.scrubber.Scrub(string(p))
	return w.writer.Write([]byte(scrubbed))
}

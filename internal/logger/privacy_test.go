package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScrubber(t *testing.T) {
	s := NewScrubber()
	assert.NotNil(t, s)
	assert.NotEmpty(t, s.patterns)
}

func TestScrub(t *testing.T) {
	s := NewScrubber()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "email address",
			input:    "contact: jane.doe@university.edu",
			expected: "contact: [SCRUBBED]",
		},
		{
			name:     "phone number",
			input:    "call +1 (555) 123-4567 to reschedule",
			expected: "call [SCRUBBED] to reschedule",
		},
		{
			name:     "participant field",
			input:    `participant: "P042-Jane"`,
			expected: `[SCRUBBED]"`,
		},
		{
			name:     "subject name field",
			input:    `subject_name="doe_jane"`,
			expected: `[SCRUBBED]"`,
		},
		{
			name:     "no identifying data",
			input:    "recording started in session directory 003",
			expected: "recording started in session directory 003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Scrub(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestScrubberAddPattern(t *testing.T) {
	s := NewScrubber()

	t.Run("valid pattern", func(t *testing.T) {
		err := s.AddPattern(`STUDY-\d{4}`)
		require.NoError(t, err)
		assert.Equal(t, "enrolled as [SCRUBBED]", s.Scrub("enrolled as STUDY-1234"))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		err := s.AddPattern(`[unclosed`)
		assert.Error(t, err)
	})
}

func TestScrubbingWriter(t *testing.T) {
	var buf bytes.Buffer
	s := NewScrubber()
	w := s.Wrap(&buf)

	_, err := w.Write([]byte("email jane@example.org about the recording"))
	require.NoError(t, err)

	assert.Equal(t, "email [SCRUBBED] about the recording", buf.String())
}

package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFiltersByLevel(t *testing.T) {
	for _, tt := range []struct {
		level       string
		wantDebug   bool
		wantWarning bool
	}{
		{"debug", true, true},
		{"DEBUG", true, true},
		{"warn", false, true},
		{"error", false, false},
		{"bogus", false, true},
	} {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.level)

			Debug(logger, "debug message")
			Warn(logger, "warn message")

			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))
			assert.Equal(t, tt.wantWarning, bytes.Contains(buf.Bytes(), []byte("warn message")))
		})
	}
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug")
	cause := errors.New("boom")

	err := Errorf(logger, "Error switching project", cause, "project", "devex-von-dev")

	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "Error switching project: boom")
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "project=devex-von-dev")
}

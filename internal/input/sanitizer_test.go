package input

import (
	"strings"
	"testing"

	"github.com/aretw0/agenda/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_SizeLimit(t *testing.T) {
	limit := DefaultMaxSize

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(strings.Repeat("a", tt.inputSize), 0)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
				assert.ErrorIs(t, err, domain.ErrInvalidTurnInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitize_CustomLimit(t *testing.T) {
	_, err := Sanitize("12345678901", 10)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = Sanitize("12345", 10)
	assert.NoError(t, err)
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "Book Friday at 2pm", "Book Friday at 2pm"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31mRed\x1b[0m", "[31mRed[0m"}, // ESC removed
		{"Null Byte", "Null\x00Byte", "NullByte"},         // NULL removed
		{"Bell", "Ding\x07", "Ding"},                      // BEL removed
		{"Surrounding Space", "  yes \n", "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\x00\x07", "\n\t"} {
		_, err := Sanitize(in, 0)
		assert.ErrorIs(t, err, ErrEmpty, "input %q", in)
		assert.ErrorIs(t, err, domain.ErrInvalidTurnInput)
	}
}

func TestSanitize_InvalidUTF8(t *testing.T) {
	_, err := Sanitize("\xbd\xb2\x3d\xbc\x20\xe2\x8c\x98", 0)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.ErrorIs(t, err, domain.ErrInvalidTurnInput)
}

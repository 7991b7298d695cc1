// Package input validates chat messages before they reach the dialogue.
package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/agenda/pkg/domain"
)

// DefaultMaxSize is 4KB (conservative default).
const DefaultMaxSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
	ErrEmpty         = errors.New("message cannot be empty")
)

// Sanitize cleans a message by enforcing the size limit, validating UTF-8,
// stripping dangerous control characters and trimming surrounding whitespace.
// Every rejection wraps domain.ErrInvalidTurnInput. A non-positive limit
// selects DefaultMaxSize.
func Sanitize(message string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	// Reject rather than truncate so the dialogue never sees half a sentence.
	if len(message) > limit {
		return "", fmt.Errorf("%w: %w: size=%d limit=%d", domain.ErrInvalidTurnInput, ErrInputTooLarge, len(message), limit)
	}

	if !utf8.ValidString(message) {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidTurnInput, ErrInvalidUTF8)
	}

	// Keep newline, tab and carriage return. Drop ESC, NULL, BEL and friends
	// so nothing can poison logs or the terminal.
	clean := message
	if strings.IndexFunc(message, unsafeControl) >= 0 {
		var b strings.Builder
		b.Grow(len(message))
		for _, r := range message {
			if !unsafeControl(r) {
				b.WriteRune(r)
			}
		}
		clean = b.String()
	}

	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidTurnInput, ErrEmpty)
	}
	return clean, nil
}

func unsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}

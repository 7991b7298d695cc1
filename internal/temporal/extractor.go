// Package temporal turns free text into absolute date/time candidates.
package temporal

import (
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var (
	weekdayRe  = regexp.MustCompile(`(?i)\b(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(day|nesday|sday|rsday|urday)?\b`)
	backwardRe = regexp.MustCompile(`(?i)\b(last|past|ago|previous)\b`)
	dateRe     = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|yesterday|week|month|year|jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec|january|february|march|april|june|july|august|september|october|november|december)\b|\d{1,4}[/.-]\d{1,2}|\b\d{1,2}(st|nd|rd|th)\b`)
	monthRe    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\b|\b\d{1,2}[/.-]\d{1,2}\b`)
	yearRe     = regexp.MustCompile(`\b\d{4}\b|'\d{2}\b`)
	timeRe     = regexp.MustCompile(`(?i)\d\s*(a\.?m\.?|p\.?m\.?)|\d{1,2}:\d{2}|\b(noon|midday|midnight|morning|afternoon|evening|tonight|o'?clock)\b`)
)

// Extractor finds date/time phrases using a future-preferring policy.
// Safe for concurrent use.
type Extractor struct {
	parser *when.Parser
	loc    *time.Location
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLocation sets the timezone candidates are expressed in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithLogger sets the logger used for skipped phrases.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Extractor with the English and common rule sets.
func New(opts ...Option) *Extractor {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	e := &Extractor{
		parser: parser,
		loc:    time.UTC,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the timezone candidates are expressed in.
func (e *Extractor) Location() *time.Location {
	return e.loc
}

// Extract lazily yields the candidates found in text, in order of appearance.
// Phrases resolving to a date before now's date are dropped. A parser failure
// ends the sequence early; it is never reported to the caller.
func (e *Extractor) Extract(text string, now time.Time) iter.Seq[domain.Candidate] {
	return func(yield func(domain.Candidate) bool) {
		now := now.In(e.loc)
		offset := 0
		for offset < len(text) {
			res, err := e.parse(text[offset:], now)
			if err != nil {
				e.logger.Debug("Stopped temporal extraction", "offset", offset, "err", err)
				return
			}
			if res == nil {
				return
			}

			end := offset + res.Index + len(res.Text)
			if end <= offset {
				return
			}
			offset = end

			c, ok := e.candidate(strings.TrimSpace(res.Text), res.Time, now)
			if !ok {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// First returns the earliest-mentioned candidate in text.
func (e *Extractor) First(text string, now time.Time) (domain.Candidate, bool) {
	for c := range e.Extract(text, now) {
		return c, true
	}
	return domain.Candidate{}, false
}

// parse shields callers from panics inside rule appliers.
func (e *Extractor) parse(text string, now time.Time) (res *when.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: parser panic: %v", domain.ErrParseFailure, r)
		}
	}()

	res, err = e.parser.Parse(text, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParseFailure, err)
	}
	return res, nil
}

func (e *Extractor) candidate(phrase string, at time.Time, now time.Time) (domain.Candidate, bool) {
	at = at.In(e.loc).Truncate(time.Minute)

	today := startOfDay(now)
	if at.Before(today) && weekdayRe.MatchString(phrase) && !backwardRe.MatchString(phrase) {
		for at.Before(today) {
			at = at.AddDate(0, 0, 7)
		}
	}
	// A month and day without a year means the next occurrence.
	if at.Before(today) && monthRe.MatchString(phrase) && !yearRe.MatchString(phrase) && !backwardRe.MatchString(phrase) {
		for at.Before(today) {
			at = at.AddDate(1, 0, 0)
		}
	}
	if at.Before(today) {
		return domain.Candidate{}, false
	}

	c := domain.Candidate{
		Instant: at,
		Phrase:  phrase,
		HasDate: weekdayRe.MatchString(phrase) || dateRe.MatchString(phrase),
		HasTime: timeRe.MatchString(phrase),
	}
	if !c.HasDate && !c.HasTime {
		// Relative expressions such as "in 2 hours" name a full instant.
		c.HasDate, c.HasTime = true, true
	}
	return c, true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

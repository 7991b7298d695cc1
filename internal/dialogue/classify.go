package dialogue

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	greetingRe = regexp.MustCompile(`(?i)\b(hi|hello|hey|hiya|greetings|good\s+(morning|afternoon|evening))\b`)

	// Booking keywords match on a word start so inflections count ("booking", "scheduled").
	bookingRe = regexp.MustCompile(`(?i)\b(book|schedul|meet|appointment|call|set\s*up)`)

	timeMarkerRe = regexp.MustCompile(`(?i)\b(at|around|by|before|after|am|pm|noon|midnight)\b|\d\s*(am|pm)\b|\d:\d{2}`)
	dateMarkerRe = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|tomorrow|next\s+week|this\s+week)\b` +
		`|\b(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|june?|july?|aug(ust)?|sept?(ember)?|oct(ober)?|nov(ember)?|dec(ember)?)\b|\bmay\s+\d|\b\d{1,2}(st|nd|rd|th)\b`)
)

var (
	acceptWords = wordSet("yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "confirm", "confirmed", "book")
	rejectWords = wordSet("no", "n", "nope", "nah", "cancel")
)

// Reply classifies an answer to a yes/no question.
type Reply int

const (
	ReplyUnclear Reply = iota
	ReplyAccept
	ReplyReject
)

func (r Reply) String() string {
	switch r {
	case ReplyAccept:
		return "accept"
	case ReplyReject:
		return "reject"
	}
	return "unclear"
}

// ClassifyReply maps a confirmation answer to accept, reject or unclear.
// Reject wins when both kinds of word appear.
func ClassifyReply(message string) Reply {
	accept := false
	for _, w := range words(message) {
		if _, ok := rejectWords[w]; ok {
			return ReplyReject
		}
		if _, ok := acceptWords[w]; ok {
			accept = true
		}
	}
	if accept {
		return ReplyAccept
	}
	return ReplyUnclear
}

// IsGreeting reports whether the message opens with pleasantries.
func IsGreeting(message string) bool {
	return greetingRe.MatchString(message)
}

// IsBookingRequest reports whether the message asks to schedule something.
// When inProgress is set, a bare date or time also counts as a follow-up.
func IsBookingRequest(message string, inProgress bool) bool {
	if bookingRe.MatchString(message) {
		return true
	}
	hasTime := timeMarkerRe.MatchString(message)
	hasDate := dateMarkerRe.MatchString(message)
	if hasTime && hasDate {
		return true
	}
	return inProgress && (hasTime || hasDate)
}

func words(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func wordSet(ws ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ws))
	for _, w := range ws {
		set[w] = struct{}{}
	}
	return set
}

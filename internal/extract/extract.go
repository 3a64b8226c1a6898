// Package extract pulls candidate field values out of raw utterances.
// Every function is a pure heuristic: a miss returns the zero value and the
// caller falls back to asking an open question.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const isoLayout = "2006-01-02"

var (
	leadingVerbRe = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:(?:can|could|would)\s+you\s+)?(?:remind\s+me\s+(?:to\s+)?|don'?t\s+(?:let\s+me\s+)?forget\s+(?:to\s+)?|i\s+(?:need|have)\s+to\s+|jot\s+down\s+|note\s+to\s+self\s*:?\s*|add|create|make|new|capture|put|save|remember\s+to)\b\s*`)
	leadingKindRe = regexp.MustCompile(`(?i)^\s*(?:an?\s+)?(?:new\s+)?(?:quick\s+task|job\s+task|task|to-?do|reminder|list\s+item|item|note)\b\s*(?:to\s+|for\s+)?[:\-]?\s*`)
	articleRe     = regexp.MustCompile(`(?i)^(?:a|an|the)\s+`)
	listSuffixRe  = regexp.MustCompile(`(?i)\s+(?:to|on|in)\s+(?:my|the)\s+(?:to-?do\s+)?list\s*$`)
	dueClauseRe   = regexp.MustCompile(`(?i)\s*,?\s*\b(?:due|by|on)\s+(?:today|tomorrow|yesterday|\d{4}-\d{2}-\d{2})\b.*$`)
	dateWordRe    = regexp.MustCompile(`(?i)\s*\b(?:today|tomorrow|yesterday|\d{4}-\d{2}-\d{2})\b\s*$`)
	durationRe    = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:h|hrs?|hours?|m|mins?|minutes?)\b`)
	notesMarkerRe = regexp.MustCompile(`(?is)\b(?:notes?|details?|description)\s*:\s*(.+)$`)
	notesCutRe    = regexp.MustCompile(`(?is)\b(?:notes?|details?|description)\s*:.*$`)

	hourMinuteRe = regexp.MustCompile(`(?i)\b(\d+)\s?h(?:rs?|ours?)?\s*(\d+)\s?m(?:in(?:ute)?s?)?\b`)
	minutesRe    = regexp.MustCompile(`(?i)\b(\d+)\s?m(?:in(?:ute)?s?)?\b`)
	hoursRe      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s?(?:h|hrs?|hours?)\b`)
	bareNumberRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?h?`)

	relativeDayRe = regexp.MustCompile(`(?i)\b(today|tomorrow|yesterday)\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

	hintLeadRe = regexp.MustCompile(`(?i)\b(?:for|to|with|at|on|under|from|about)\s+`)
	hintStopRe = regexp.MustCompile(`[,;\n]`)
)

// longRemainder is the length past which a single-line utterance is split
// into a title sentence and a notes remainder.
const longRemainder = 140

// Title strips a leading verb phrase, record-kind words and articles, then
// trims trailing scheduling metadata.
func Title(text string) string {
	line := firstLine(text)
	line = notesCutRe.ReplaceAllString(line, "")
	line = leadingVerbRe.ReplaceAllString(line, "")
	line = leadingKindRe.ReplaceAllString(line, "")
	line = articleRe.ReplaceAllString(strings.TrimSpace(line), "")
	if idx := strings.IndexAny(line, ",;"); idx >= 0 {
		line = line[:idx]
	}
	if len(line) > longRemainder {
		if idx := strings.Index(line, ". "); idx > 0 {
			line = line[:idx]
		}
	}
	line = dueClauseRe.ReplaceAllString(line, "")
	line = durationRe.ReplaceAllString(line, "")
	line = dateWordRe.ReplaceAllString(line, "")
	line = listSuffixRe.ReplaceAllString(line, "")
	line = strings.Join(strings.Fields(line), " ")
	line = strings.Trim(line, " .:-")
	return capitalize(line)
}

// Notes returns an explicit notes:/details: section, else the lines after
// the first, else the remainder of an over-long single line.
func Notes(text string) string {
	if m := notesMarkerRe.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 1 {
		return strings.TrimSpace(strings.Join(lines[1:], "\n"))
	}
	if len(text) > longRemainder {
		if idx := strings.Index(text, ". "); idx > 0 {
			return strings.TrimSpace(text[idx+2:])
		}
	}
	return ""
}

// Hours finds an explicit duration with a unit. Minutes are checked before
// hours and converted at two decimal places.
func Hours(text string) (float64, bool) {
	if m := hourMinuteRe.FindStringSubmatch(text); len(m) == 3 {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return round2(float64(h) + float64(mins)/60), true
	}
	if m := minutesRe.FindStringSubmatch(text); len(m) == 2 {
		mins, err := strconv.Atoi(m[1])
		if err == nil {
			return MinutesToHours(mins), true
		}
	}
	if m := hoursRe.FindStringSubmatch(text); len(m) == 2 {
		h, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			return round2(h), true
		}
	}
	return 0, false
}

// HoursReply is Hours for a direct answer to "how many hours", where a bare
// number means hours.
func HoursReply(text string) (float64, bool) {
	if h, ok := Hours(text); ok {
		return h, true
	}
	m := bareNumberRe.FindStringSubmatch(text)
	if len(m) != 2 {
		return 0, false
	}
	h, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return round2(h), true
}

func MinutesToHours(minutes int) float64 {
	return round2(float64(minutes) / 60)
}

// Date resolves today/tomorrow/yesterday against local midnight of now, else
// an ISO date substring. Weekday names are never guessed.
func Date(text string, now time.Time) (string, bool) {
	if m := relativeDayRe.FindStringSubmatch(text); len(m) == 2 {
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		switch strings.ToLower(m[1]) {
		case "tomorrow":
			midnight = midnight.AddDate(0, 0, 1)
		case "yesterday":
			midnight = midnight.AddDate(0, 0, -1)
		}
		return midnight.Format(isoLayout), true
	}
	for _, m := range isoDateRe.FindAllStringSubmatch(text, -1) {
		if _, err := time.Parse(isoLayout, m[1]); err == nil {
			return m[1], true
		}
	}
	return "", false
}

// LocalDate formats now as the local calendar date.
func LocalDate(now time.Time) string {
	return now.Format(isoLayout)
}

func ValidDate(s string) bool {
	_, err := time.Parse(isoLayout, strings.TrimSpace(s))
	return err == nil
}

// Hints returns the phrases following prepositions ("to Acme", "on Design
// review"), cut at punctuation and stripped of scheduling metadata. They are
// the text entity resolvers try in order.
func Hints(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, loc := range hintLeadRe.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if stop := hintStopRe.FindStringIndex(rest); stop != nil {
			rest = rest[:stop[0]]
		}
		rest = dueClauseRe.ReplaceAllString(rest, "")
		rest = durationRe.ReplaceAllString(rest, "")
		rest = dateWordRe.ReplaceAllString(rest, "")
		rest = articleRe.ReplaceAllString(strings.TrimSpace(rest), "")
		rest = strings.Trim(strings.Join(strings.Fields(rest), " "), " .!?:-")
		if utf8.RuneCountInString(rest) < 2 {
			continue
		}
		key := strings.ToLower(rest)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rest)
	}
	return out
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package highlight

import (
	"regexp"
	"strings"
)

var ansiCSI = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

type Result struct {
	Text      string
	Count     int
	LineIndex []int
}

// ApplyANSI wraps every match of the query's terms in input, leaving ANSI
// escape sequences untouched. Matches never span an escape sequence.
func ApplyANSI(input, query string, wrap func(string) string) Result {
	terms := Terms(query)
	if len(terms) == 0 {
		return Result{Text: input}
	}
	if wrap == nil {
		wrap = func(s string) string { return s }
	}

	lines := strings.SplitAfter(input, "\n")
	if len(lines) == 0 {
		lines = []string{input}
	}

	var out strings.Builder
	lineMatches := make([]int, 0, 64)
	total := 0

	for lineNo, line := range lines {
		hasNewline := strings.HasSuffix(line, "\n")
		core := line
		if hasNewline {
			core = strings.TrimSuffix(line, "\n")
		}

		rendered, count := applyToANSIText(core, terms, wrap)
		out.WriteString(rendered)
		if hasNewline {
			out.WriteByte('\n')
		}
		if count > 0 {
			lineMatches = append(lineMatches, lineNo)
			total += count
		}
	}

	return Result{
		Text:      out.String(),
		Count:     total,
		LineIndex: lineMatches,
	}
}

func applyToANSIText(s string, terms []string, wrap func(string) string) (string, int) {
	indices := ansiCSI.FindAllStringIndex(s, -1)
	if len(indices) == 0 {
		return applyToPlain(s, terms, wrap)
	}

	var out strings.Builder
	total := 0
	pos := 0
	for _, idx := range indices {
		if idx[0] > pos {
			plain, count := applyToPlain(s[pos:idx[0]], terms, wrap)
			out.WriteString(plain)
			total += count
		}
		out.WriteString(s[idx[0]:idx[1]])
		pos = idx[1]
	}
	if pos < len(s) {
		plain, count := applyToPlain(s[pos:], terms, wrap)
		out.WriteString(plain)
		total += count
	}
	return out.String(), total
}

// Terms splits a search query into lower-cased words. Repeats are dropped.
func Terms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// applyToPlain wraps every occurrence of any term. Where terms overlap at the
// same offset the longest one wins.
func applyToPlain(s string, terms []string, wrap func(string) string) (string, int) {
	if s == "" || len(terms) == 0 {
		return s, 0
	}

	lower := strings.ToLower(s)
	if len(lower) != len(s) {
		// Case folding changed byte offsets; match on the original text.
		lower = s
	}

	var out strings.Builder
	count := 0
	start := 0
	for start < len(s) {
		idx, end := -1, -1
		for _, term := range terms {
			rel := strings.Index(lower[start:], term)
			if rel < 0 {
				continue
			}
			at := start + rel
			if idx < 0 || at < idx || (at == idx && at+len(term) > end) {
				idx, end = at, at+len(term)
			}
		}
		if idx < 0 {
			break
		}
		out.WriteString(s[start:idx])
		out.WriteString(wrap(s[idx:end]))
		count++
		start = end
	}
	out.WriteString(s[start:])
	return out.String(), count
}

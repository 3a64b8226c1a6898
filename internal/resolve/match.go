// Package resolve matches free text against record collections.
//
// The policy is the same for every entity family: both sides are trimmed and
// case-folded, and a candidate matches when the text contains its name or its
// name contains the text. Exactly one match resolves; more than one asks the
// user to pick; none asks them to try again.
package resolve

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

type Outcome int

const (
	NoMatch Outcome = iota
	Unique
	Ambiguous
)

func (o Outcome) String() string {
	switch o {
	case Unique:
		return "unique"
	case Ambiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

type Result[T any] struct {
	Outcome Outcome
	Match   T
	Options []T
}

// minTextLen keeps one-letter fragments from matching every name.
const minTextLen = 2

func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Match applies the containment policy to a single piece of text.
func Match[T any](candidates []T, nameOf func(T) string, text string) Result[T] {
	needle := Normalize(text)
	if len(needle) < minTextLen {
		return Result[T]{}
	}
	var hits []T
	for _, c := range candidates {
		name := Normalize(nameOf(c))
		if name == "" {
			continue
		}
		if strings.Contains(needle, name) || strings.Contains(name, needle) {
			hits = append(hits, c)
		}
	}
	switch len(hits) {
	case 0:
		return Result[T]{}
	case 1:
		return Result[T]{Outcome: Unique, Match: hits[0], Options: hits}
	default:
		return Result[T]{Outcome: Ambiguous, Options: hits}
	}
}

// First tries each text in order. A unique match wins immediately; otherwise
// the first ambiguous result is returned.
func First[T any](candidates []T, nameOf func(T) string, texts ...string) Result[T] {
	var ambiguous *Result[T]
	for _, text := range texts {
		res := Match(candidates, nameOf, text)
		switch res.Outcome {
		case Unique:
			return res
		case Ambiguous:
			if ambiguous == nil {
				ambiguous = &res
			}
		}
	}
	if ambiguous != nil {
		return *ambiguous
	}
	return Result[T]{}
}

type nameSource[T any] struct {
	items  []T
	nameOf func(T) string
}

func (s nameSource[T]) String(i int) string { return s.nameOf(s.items[i]) }
func (s nameSource[T]) Len() int            { return len(s.items) }

// Suggest ranks near misses by subsequence score for "did you mean" prompts.
func Suggest[T any](candidates []T, nameOf func(T) string, text string, n int) []T {
	text = strings.TrimSpace(text)
	if text == "" || n <= 0 {
		return nil
	}
	matches := fuzzy.FindFrom(text, nameSource[T]{items: candidates, nameOf: nameOf})
	out := make([]T, 0, n)
	for _, m := range matches {
		if len(out) == n {
			break
		}
		out = append(out, candidates[m.Index])
	}
	return out
}

package extract

import "strings"

type Answer int

const (
	Unknown Answer = iota
	Yes
	No
)

var yesWords = map[string]struct{}{
	"yes": {}, "y": {}, "yeah": {}, "yep": {}, "yup": {}, "sure": {}, "ok": {}, "okay": {},
	"correct": {}, "right": {}, "confirm": {}, "affirmative": {}, "sounds good": {}, "do it": {},
	"go ahead": {}, "looks good": {}, "that's right": {}, "thats right": {},
}

var noWords = map[string]struct{}{
	"no": {}, "n": {}, "nope": {}, "nah": {}, "negative": {}, "wrong": {}, "incorrect": {},
	"not that": {}, "not that one": {}, "no thanks": {},
}

// refusals are answers that decline to provide a value at all. They trigger
// the capture-in-list escape hatch instead of a validation error.
var refusals = map[string]struct{}{
	"no": {}, "nope": {}, "skip": {}, "later": {}, "idk": {}, "i don't know": {}, "i dont know": {},
	"dunno": {}, "not sure": {}, "no idea": {}, "pass": {}, "none": {}, "n/a": {}, "na": {},
	"whatever": {}, "not now": {}, "no thanks": {}, "skip it": {}, "don't know": {}, "dont know": {},
}

var cancels = map[string]struct{}{
	"cancel": {}, "never mind": {}, "nevermind": {}, "forget it": {}, "abort": {}, "cancel that": {},
}

// YesNo classifies a reply. Unrecognized input is Unknown and the caller must
// ask again rather than assume.
func YesNo(text string) Answer {
	n := normalize(text)
	if _, ok := yesWords[n]; ok {
		return Yes
	}
	if _, ok := noWords[n]; ok {
		return No
	}
	first, _, found := strings.Cut(n, " ")
	if !found {
		return Unknown
	}
	switch first {
	case "yes", "yeah", "yep", "sure", "ok", "okay":
		return Yes
	case "no", "nope", "nah":
		return No
	}
	return Unknown
}

func IsRefusal(text string) bool {
	_, ok := refusals[normalize(text)]
	return ok
}

func IsCancel(text string) bool {
	_, ok := cancels[normalize(text)]
	return ok
}

func normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Trim(text, ".!?, ")
	return strings.Join(strings.Fields(text), " ")
}

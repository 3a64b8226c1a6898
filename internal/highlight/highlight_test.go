package highlight

import (
	"strings"
	"testing"
)

func TestApplyANSI_CaseInsensitive(t *testing.T) {
	in := "Hello there\nsecond hello\n"
	res := ApplyANSI(in, "hello", func(s string) string { return "[[" + s + "]]" })

	if res.Count != 2 {
		t.Fatalf("expected 2 matches, got %d", res.Count)
	}
	if len(res.LineIndex) != 2 || res.LineIndex[0] != 0 || res.LineIndex[1] != 1 {
		t.Fatalf("unexpected line indexes: %#v", res.LineIndex)
	}
	if !strings.Contains(res.Text, "[[Hello]]") || !strings.Contains(res.Text, "[[hello]]") {
		t.Fatalf("highlight wrapper not applied: %q", res.Text)
	}
}

func TestApplyANSI_PreservesEscapeSequences(t *testing.T) {
	in := "a \x1b[31mhello\x1b[0m b"
	res := ApplyANSI(in, "hello", func(s string) string { return "<" + s + ">" })

	if res.Count != 1 {
		t.Fatalf("expected 1 match, got %d", res.Count)
	}
	if !strings.Contains(res.Text, "\x1b[31m<hello>\x1b[0m") {
		t.Fatalf("expected escaped segment to stay intact, got %q", res.Text)
	}
}

func TestApplyANSI_DoesNotMatchAcrossANSIBoundaries(t *testing.T) {
	in := "he\x1b[31mll\x1b[0mo"
	res := ApplyANSI(in, "hello", func(s string) string { return "<" + s + ">" })
	if res.Count != 0 {
		t.Fatalf("expected 0 matches across ansi boundaries, got %d", res.Count)
	}
}

func TestApplyANSI_MultipleTerms(t *testing.T) {
	in := "Log 2h to Design review\nStart timer on design\n"
	res := ApplyANSI(in, "design  LOG", func(s string) string { return "[" + s + "]" })

	if res.Count != 3 {
		t.Fatalf("expected 3 matches, got %d: %q", res.Count, res.Text)
	}
	if !strings.HasPrefix(res.Text, "[Log] 2h to [Design] review") {
		t.Fatalf("unexpected highlight: %q", res.Text)
	}
	if len(res.LineIndex) != 2 {
		t.Fatalf("expected matches on both lines, got %#v", res.LineIndex)
	}
}

func TestApplyANSI_PrefersLongestOverlap(t *testing.T) {
	res := ApplyANSI("timer timers", "timer timers", func(s string) string { return "<" + s + ">" })
	if res.Text != "<timer> <timers>" {
		t.Fatalf("unexpected highlight: %q", res.Text)
	}
}

func TestTerms(t *testing.T) {
	got := Terms("  Acme acme  Corp ")
	if len(got) != 2 || got[0] != "acme" || got[1] != "corp" {
		t.Fatalf("unexpected terms: %#v", got)
	}
}

package extract

import (
	"fmt"
	"math"
	"testing"
	"time"
)

func TestTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"add task: email proposal to Acme, 1.5h, due tomorrow", "Email proposal to Acme"},
		{"remind me to call the dentist", "Call the dentist"},
		{"create a quick task to review the contract", "Review the contract"},
		{"add buy milk to my list", "Buy milk"},
		{"the quarterly report due 2026-11-02", "Quarterly report"},
		{"Renew passport\nnotes: check photo size", "Renew passport"},
		{"please add a reminder: water plants tomorrow", "Water plants"},
	}
	for _, tc := range cases {
		if got := Title(tc.in); got != tc.want {
			t.Fatalf("Title(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNotes(t *testing.T) {
	if got := Notes("renew passport notes: bring two photos"); got != "bring two photos" {
		t.Fatalf("expected marker notes, got %q", got)
	}
	if got := Notes("renew passport\nbring two photos\nand the old one"); got != "bring two photos\nand the old one" {
		t.Fatalf("expected multi-line remainder, got %q", got)
	}
	if got := Notes("renew passport"); got != "" {
		t.Fatalf("expected no notes, got %q", got)
	}
}

func TestHoursMinutesConvertToHours(t *testing.T) {
	for n := 1; n <= 600; n += 7 {
		for _, form := range []string{"%d min", "%d minutes", "%dm", "%d mins"} {
			in := fmt.Sprintf("log "+form+" to review", n)
			got, ok := Hours(in)
			if !ok {
				t.Fatalf("expected hours from %q", in)
			}
			want := math.Round(float64(n)/60*100) / 100
			if got != want {
				t.Fatalf("Hours(%q) = %v, want %v", in, got, want)
			}
		}
	}
	if got, _ := Hours("90m"); got != 1.5 {
		t.Fatalf("expected 90m -> 1.5, got %v", got)
	}
}

func TestHours(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5h", 1.5, true},
		{"spent 2 hours", 2, true},
		{"3 hrs on it", 3, true},
		{"1h30m", 1.5, true},
		{"45m then 2h", 0.75, true},
		{"due 2026-10-20", 0, false},
		{"2 months", 0, false},
	}
	for _, tc := range cases {
		got, ok := Hours(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Hours(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestHoursReplyAcceptsBareNumbers(t *testing.T) {
	if got, ok := HoursReply("2.25"); !ok || got != 2.25 {
		t.Fatalf("expected 2.25, got %v %v", got, ok)
	}
	if got, ok := HoursReply("30 min"); !ok || got != 0.5 {
		t.Fatalf("expected 0.5, got %v %v", got, ok)
	}
	if _, ok := HoursReply("a while"); ok {
		t.Fatalf("expected no hours")
	}
}

func TestDateRelativeToLocalMidnight(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	for _, clock := range []time.Time{
		time.Date(2026, 10, 18, 0, 0, 1, 0, loc),
		time.Date(2026, 10, 18, 12, 30, 0, 0, loc),
		time.Date(2026, 10, 18, 23, 59, 59, 0, loc),
	} {
		cases := map[string]string{
			"today":          "2026-10-18",
			"due tomorrow":   "2026-10-19",
			"yesterday pls":  "2026-10-17",
			"on 2026-12-01.": "2026-12-01",
		}
		for in, want := range cases {
			got, ok := Date(in, clock)
			if !ok || got != want {
				t.Fatalf("Date(%q) at %v = %q,%v want %q", in, clock, got, ok, want)
			}
		}
	}
	if _, ok := Date("next friday", time.Now()); ok {
		t.Fatalf("weekday names must not be guessed")
	}
	if _, ok := Date("2026-13-45", time.Now()); ok {
		t.Fatalf("invalid iso date must not parse")
	}
}

func TestYesNo(t *testing.T) {
	cases := map[string]Answer{
		"Yes":         Yes,
		"yep!":        Yes,
		"sure thing":  Yes,
		"no":          No,
		"Nope.":       No,
		"no thanks":   No,
		"maybe":       Unknown,
		"blue":        Unknown,
		"":            Unknown,
		"sounds good": Yes,
	}
	for in, want := range cases {
		if got := YesNo(in); got != want {
			t.Fatalf("YesNo(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRefusalAndCancel(t *testing.T) {
	for _, in := range []string{"skip", "IDK", "later", "not sure"} {
		if !IsRefusal(in) {
			t.Fatalf("expected refusal: %q", in)
		}
	}
	if IsRefusal("2h") {
		t.Fatalf("2h is not a refusal")
	}
	if !IsCancel("Cancel") || !IsCancel("never mind") {
		t.Fatalf("expected cancel words")
	}
	if IsCancel("stop timer") {
		t.Fatalf("stop timer is not a cancel")
	}
}

func TestHints(t *testing.T) {
	got := Hints("email proposal to Acme, 1.5h, due tomorrow")
	if len(got) != 1 || got[0] != "Acme" {
		t.Fatalf("unexpected hints: %#v", got)
	}
	got = Hints("log 2h to Website redesign for Acme")
	if len(got) != 2 || got[0] != "Website redesign for Acme" || got[1] != "Acme" {
		t.Fatalf("unexpected nested hints: %#v", got)
	}
	got = Hints("start timer on Design review")
	if len(got) != 1 || got[0] != "Design review" {
		t.Fatalf("unexpected timer hints: %#v", got)
	}
}

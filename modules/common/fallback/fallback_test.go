package fallback

import (
	"testing"
	"unicode/utf8"
)

func TestSafeString(t *testing.T) {
	s := "  hello "
	var nilPtr *string
	cases := []struct {
		in   interface{}
		want string
	}{
		{"value", "value"},
		{"   ", DefaultHeadline},
		{nil, DefaultHeadline},
		{42, DefaultHeadline},
		{&s, "hello"},
		{nilPtr, DefaultHeadline},
	}
	for _, tc := range cases {
		if got := SafeString(tc.in, DefaultHeadline); got != tc.want {
			t.Fatalf("SafeString(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSafeStrings(t *testing.T) {
	got := SafeStrings([]string{" a ", "", "b", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected result %v", got)
	}
	if out := SafeStrings(nil); out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestHashtag(t *testing.T) {
	for in, want := range map[string]string{"#launch": "launch", " q4 ": "q4", "##ai": "ai"} {
		if got := Hashtag(in); got != want {
			t.Fatalf("Hashtag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"launching now", 9, "launching..."},
		{"신제품 출시 소식", 3, "신제품..."},
		{"신제품", 3, "신제품"},
		{"🚀🚀🚀", 1, "🚀..."},
		{"abc", 0, "..."},
	}
	for _, tc := range cases {
		got := Truncate(tc.in, tc.max)
		if got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("Truncate(%q, %d) split a rune: %q", tc.in, tc.max, got)
		}
	}
}

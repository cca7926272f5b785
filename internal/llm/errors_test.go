package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateBody(t *testing.T) {
	short := "  upstream unavailable \n"
	if got := truncateBody(short); got != "upstream unavailable" {
		t.Fatalf("expected trimmed body, got %q", got)
	}

	ascii := strings.Repeat("a", 300)
	if got := truncateBody(ascii); got != strings.Repeat("a", maxErrorBody)+"..." {
		t.Fatalf("unexpected ascii truncation %q", got)
	}

	// "é" is two bytes; byte 200 falls inside a rune.
	multi := "x" + strings.Repeat("é", 150)
	got := truncateBody(multi)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if !strings.HasSuffix(got, "...") || len(got)-len("...") != maxErrorBody-1 {
		t.Fatalf("expected cut at the preceding rune boundary, got %d bytes", len(got))
	}
}

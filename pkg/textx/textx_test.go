// Package textx contains tests for the text utilities.
package textx

import "testing"

func TestSanitizeText(t *testing.T) {
	in := "he\x00llo\nwo\x7frld\t!"
	got := SanitizeText(in)
	if got != "hello\nworld\t!" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("  one two\tthree\nfour "); n != 4 {
		t.Fatalf("unexpected count: %d", n)
	}
	if n := WordCount(""); n != 0 {
		t.Fatalf("empty string should count 0, got %d", n)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces(" a  b\t c \n"); got != "a b c" {
		t.Fatalf("unexpected: %q", got)
	}
}

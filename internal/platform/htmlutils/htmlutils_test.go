package htmlutils

import (
	"strings"
	"testing"
)

func TestUTF16Len(t *testing.T) {
	if got := utf16Len("abc"); got != 3 {
		t.Errorf("utf16Len(abc) = %d, want 3", got)
	}

	if got := utf16Len("🎭"); got != 2 {
		t.Errorf("utf16Len(emoji) = %d, want 2", got)
	}

	if got := utf16Slice("a🎭b", 2); got != "a" {
		t.Errorf("utf16Slice = %q, want %q", got, "a")
	}
}

func TestSplitHTML(t *testing.T) {
	t.Run("short text is returned as is", func(t *testing.T) {
		parts := SplitHTML("<b>hi</b>", 100)
		if len(parts) != 1 || parts[0] != "<b>hi</b>" {
			t.Fatalf("unexpected parts: %q", parts)
		}
	})

	t.Run("splits on blank lines", func(t *testing.T) {
		block := "1. <b>Event</b>\n📍 Barby\n"
		text := strings.Repeat(block+"\n", 10)

		parts := SplitHTML(text, 60)
		if len(parts) < 2 {
			t.Fatalf("expected several parts, got %d", len(parts))
		}

		for _, p := range parts {
			if utf16Len(p) > 60 {
				t.Errorf("part exceeds limit: %d", utf16Len(p))
			}

			if strings.Count(p, "<b>") != strings.Count(p, "</b>") {
				t.Errorf("unbalanced part: %q", p)
			}
		}
	})

	t.Run("hard split reopens tags", func(t *testing.T) {
		text := "<i>" + strings.Repeat("x", 50) + "</i>"

		parts := SplitHTML(text, 20)
		if len(parts) < 3 {
			t.Fatalf("expected at least 3 parts, got %d", len(parts))
		}

		for _, p := range parts {
			if !strings.HasPrefix(p, "<i>") || !strings.HasSuffix(p, "</i>") {
				t.Errorf("part not wrapped in <i>: %q", p)
			}
		}

		joined := StripHTMLTags(strings.Join(parts, ""))
		if joined != strings.Repeat("x", 50) {
			t.Errorf("content lost: %q", joined)
		}
	})
}

func TestStripHTMLTags(t *testing.T) {
	got := StripHTMLTags(`<b>Rock &amp; Roll</b> <a href="https://x.example">link</a>`)
	if got != "Rock & Roll link" {
		t.Errorf("StripHTMLTags = %q", got)
	}
}

func TestStripHTMLTagsDocument(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>Your upcoming events</title>" +
		"<style>p { color: red; }</style></head>\n<!-- digest -->\n<body><p>Jazz Night</p></body>\n</html>\n"

	got := StripHTMLTags(doc)
	if got != "Jazz Night" {
		t.Errorf("StripHTMLTags = %q, want %q", got, "Jazz Night")
	}
}

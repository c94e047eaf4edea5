// Package htmlutils provides HTML helpers for Telegram messages and email bodies.
//
// Telegram counts message length in UTF-16 code units, so all limits here use
// that unit rather than bytes or runes.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
)

var (
	tagRegex = regexp.MustCompile(`<(/?)([a-zA-Z0-9-]+)([^>]*)>`)
	// declRegex matches comments and declarations such as <!DOCTYPE html>.
	declRegex = regexp.MustCompile(`(?s)<!--.*?-->|<![^>]*>`)
	// nonTextRegex matches elements whose content is never shown as text.
	nonTextRegex = regexp.MustCompile(`(?is)<head(\s[^>]*)?>.*?</head>|<style(\s[^>]*)?>.*?</style>|<script(\s[^>]*)?>.*?</script>`)
)

// utf16Len returns the number of UTF-16 code units needed to encode the string.
// Characters outside the BMP (emoji, etc.) require surrogate pairs (2 code units).
func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// utf16Slice returns the longest prefix of s that fits in maxUnits UTF-16 code units.
func utf16Slice(s string, maxUnits int) string {
	runes := []rune(s)
	units := 0

	for i, r := range runes {
		runeUnits := 1
		if r > 0xFFFF {
			runeUnits = 2 // Surrogate pair needed
		}

		if units+runeUnits > maxUnits {
			return string(runes[:i])
		}

		units += runeUnits
	}

	return s
}

// StripHTMLTags removes all HTML tags from text, keeping only the content.
// Declarations, comments and the head, style and script elements are dropped
// together with their content.
func StripHTMLTags(text string) string {
	result := declRegex.ReplaceAllString(text, "")
	result = nonTextRegex.ReplaceAllString(result, "")
	result = tagRegex.ReplaceAllString(result, "")
	result = html.UnescapeString(result)

	return strings.TrimSpace(result)
}

// SplitHTML splits text into parts of at most limit UTF-16 units. It prefers
// blank-line boundaries, then line boundaries, and only cuts inside a line
// that alone exceeds the limit. Tags left open at a cut are closed and
// reopened in the next part; those closing tags are not counted, so callers
// keep headroom below the hard limit.
func SplitHTML(text string, limit int) []string {
	if limit <= 0 || utf16Len(text) <= limit {
		return []string{text}
	}

	s := &splitter{limit: limit}

	for _, block := range splitKeep(text, "\n\n") {
		if utf16Len(block) <= limit {
			s.add(block)
			continue
		}

		for _, line := range splitKeep(block, "\n") {
			s.addLine(line)
		}
	}

	s.flush()

	return s.parts
}

type splitter struct {
	parts    []string
	current  strings.Builder
	curLen   int
	openTags []string
	limit    int
}

func (s *splitter) add(chunk string) {
	if s.curLen > 0 && s.curLen+utf16Len(chunk) > s.limit {
		s.flush()
	}

	s.write(chunk)
}

func (s *splitter) addLine(line string) {
	if utf16Len(line) <= s.limit {
		s.add(line)
		return
	}

	if s.curLen > 0 {
		s.flush()
	}

	for utf16Len(line) > s.limit {
		head := utf16Slice(line, s.limit-s.curLen)
		if head == "" {
			break
		}

		s.write(head)
		s.flush()

		line = line[len(head):]
	}

	s.write(line)
}

func (s *splitter) write(chunk string) {
	s.current.WriteString(chunk)
	s.curLen += utf16Len(chunk)
	s.openTags = updateOpenTags(chunk, s.openTags)
}

func (s *splitter) flush() {
	if s.curLen == 0 {
		return
	}

	for i := len(s.openTags) - 1; i >= 0; i-- {
		s.current.WriteString("</" + GetTagName(s.openTags[i]) + ">")
	}

	part := strings.TrimRight(s.current.String(), "\n")
	if strings.TrimSpace(part) != "" {
		s.parts = append(s.parts, part)
	}

	s.current.Reset()
	s.curLen = 0

	for _, tag := range s.openTags {
		s.current.WriteString(tag)
		s.curLen += utf16Len(tag)
	}
}

// splitKeep splits after each separator, keeping the separator on the left part.
func splitKeep(text, sep string) []string {
	var out []string

	for {
		idx := strings.Index(text, sep)
		if idx < 0 {
			break
		}

		out = append(out, text[:idx+len(sep)])
		text = text[idx+len(sep):]
	}

	if text != "" {
		out = append(out, text)
	}

	return out
}

// GetTagName returns the element name of a full opening or closing tag.
func GetTagName(fullTag string) string {
	tag := strings.Trim(fullTag, "<>")

	parts := strings.Fields(tag)
	if len(parts) > 0 {
		return strings.TrimPrefix(parts[0], "/")
	}

	return ""
}

func updateOpenTags(chunk string, openTags []string) []string {
	for _, match := range tagRegex.FindAllStringSubmatch(chunk, -1) {
		tagName := strings.ToLower(match[2])

		if match[1] != "/" {
			openTags = append(openTags, match[0])
			continue
		}

		for i := len(openTags) - 1; i >= 0; i-- {
			if strings.ToLower(GetTagName(openTags[i])) == tagName {
				openTags = openTags[:i]
				break
			}
		}
	}

	return openTags
}

package gather

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// PageContent is the readable text of one fetched page.
type PageContent struct {
	Title string
	Text  string
}

// ExtractText turns a fetched document into plain text. RSS/Atom feeds are
// flattened item by item; HTML goes through readability and falls back to
// the raw visible text when readability finds no article.
func ExtractText(body []byte, rawURL string, maxLen int) PageContent {
	if gofeed.DetectFeedType(bytes.NewReader(body)) != gofeed.FeedTypeUnknown {
		if content, ok := extractFeed(body); ok {
			return truncateContent(content, maxLen)
		}
	}

	u, _ := url.Parse(rawURL)

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return truncateContent(PageContent{
			Title: strings.TrimSpace(article.Title),
			Text:  normalizeWhitespace(article.TextContent),
		}, maxLen)
	}

	return truncateContent(extractVisibleText(body), maxLen)
}

func extractFeed(body []byte) (PageContent, bool) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil || feed == nil {
		return PageContent{}, false
	}

	var sb strings.Builder

	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		sb.WriteString(strings.TrimSpace(item.Title))
		sb.WriteString("\n")

		if item.Link != "" {
			sb.WriteString(item.Link)
			sb.WriteString("\n")
		}

		desc := coalesce(item.Content, item.Description)
		if desc != "" {
			sb.WriteString(normalizeWhitespace(stripTags(desc)))
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return PageContent{}, false
	}

	return PageContent{Title: strings.TrimSpace(feed.Title), Text: text}, true
}

func extractVisibleText(body []byte) PageContent {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return PageContent{}
	}

	var (
		title string
		sb    strings.Builder
		walk  func(*html.Node)
	)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "svg":
				return
			case "title":
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}

				return
			case "a":
				for _, attr := range n.Attr {
					if attr.Key == "href" && strings.HasPrefix(attr.Val, "http") {
						sb.WriteString(" ")
						sb.WriteString(attr.Val)
						sb.WriteString(" ")
					}
				}
			}
		}

		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return PageContent{Title: title, Text: normalizeWhitespace(sb.String())}
}

func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	return extractVisibleText([]byte(s)).Text
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

func truncateContent(c PageContent, maxLen int) PageContent {
	c.Text = truncateRunes(c.Text, maxLen)
	return c
}

func coalesce(strs ...string) string {
	for _, s := range strs {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}

	return ""
}

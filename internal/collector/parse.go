package collector

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"tradeops/internal/models"
)

const snippetClass = "result__snippet"

// ParseResults extracts up to limit snippets from a results page. Each
// element carrying the result__snippet class yields one snippet: its text,
// its link, and a title made of the first 120 characters of the text.
func ParseResults(r io.Reader, limit int) ([]models.Snippet, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	snippets := []models.Snippet{}
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if len(snippets) >= limit {
			return false
		}
		if n.Type == html.ElementNode && hasClass(n, snippetClass) {
			text := collapseSpaces(textContent(n))
			snippets = append(snippets, models.Snippet{
				Title:   truncateRunes(text, maxTitleLength),
				Link:    resolveLink(attr(n, "href")),
				Snippet: text,
			})
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	return snippets, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// resolveLink unwraps the search engine's redirect links
// (//duckduckgo.com/l/?uddg=<target>) to the target URL.
func resolveLink(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

package rss

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSummaryRunes = 200

// plainText strips markup from a feed description. Inputs that fail to
// parse as HTML are returned with whitespace collapsed.
func plainText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return collapse(html)
	}
	doc.Find("script, style").Remove()
	return collapse(doc.Text())
}

// inline makes s safe to embed in a single bold-marked digest line.
func inline(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "•", "")
	return collapse(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := strings.TrimSpace(string(r[:limit]))
	if i := strings.LastIndex(cut, " "); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, ".,;:") + "..."
}

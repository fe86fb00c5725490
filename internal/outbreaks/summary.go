package outbreaks

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const summaryMaxRunes = 280

// plainTextExcerpt strips markup from an HTML fragment and truncates by rune.
func plainTextExcerpt(fragment string, n int) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return ""
	}

	text := fragment
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	return truncate(text, n)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

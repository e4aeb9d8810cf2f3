// Package links extracts outbound links and plain text from article HTML.
package links

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// excludedHosts are never reported as outbound links: local addresses and
// the documentation domain used in placeholder content.
var excludedHosts = map[string]bool{
	"localhost":   true,
	"127.0.0.1":   true,
	"example.com": true,
}

// Extract returns the article's outbound links: the source URL first when
// present, then every absolute http(s) anchor in the HTML body, in document
// order, deduplicated. Local and placeholder hosts are skipped.
func Extract(sourceURL, htmlContent string) []string {
	links := []string{}
	seen := map[string]bool{}

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || seen[raw] || !acceptable(raw) {
			return
		}
		seen[raw] = true
		links = append(links, raw)
	}

	add(sourceURL)

	if strings.TrimSpace(htmlContent) == "" {
		return links
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return links
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		add(href)
	})
	return links
}

// Text strips markup from an HTML fragment, returning its visible text.
func Text(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return strings.TrimSpace(htmlContent)
	}
	return strings.TrimSpace(doc.Text())
}

func acceptable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" {
		return false
	}
	return !excludedHosts[strings.ToLower(host)]
}

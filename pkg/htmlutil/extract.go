// Package htmlutil provides HTML processing utilities for profile scraping.
package htmlutil

import (
	"bytes"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CleanText collapses runs of whitespace in already-decoded text. Anything
// that looks like markup is kept as written.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Meta scans the document head for <meta> tags and returns their content
// keyed by the lowercased property or name attribute. Values come back
// entity-decoded. The first occurrence of a key wins. Scanning stops at
// <body> since link-preview tags live in the head; malformed markup yields
// whatever was collected so far.
func Meta(doc []byte) map[string]string {
	tags := make(map[string]string)
	z := xhtml.NewTokenizer(bytes.NewReader(doc))
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return tags
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Body:
				return tags
			case atom.Meta:
				key, content, ok := metaPair(tok)
				if !ok {
					continue
				}
				if _, seen := tags[key]; !seen {
					tags[key] = content
				}
			default:
			}
		default:
		}
	}
}

func metaPair(tok xhtml.Token) (key, content string, ok bool) {
	hasContent := false
	for _, a := range tok.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name", "itemprop":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = strings.TrimSpace(a.Val)
			hasContent = true
		default:
		}
	}
	return key, content, key != "" && hasContent
}

// Preview holds the link-preview fields of a page.
type Preview struct {
	Title       string
	Description string
	Image       string
}

// LinkPreview extracts og:title, og:description and og:image, falling back
// to the twitter:* and plain description tags when the og:* ones are missing.
func LinkPreview(doc []byte) Preview {
	tags := Meta(doc)
	first := func(keys ...string) string {
		for _, k := range keys {
			if v := tags[k]; v != "" {
				return v
			}
		}
		return ""
	}
	return Preview{
		Title:       first("og:title", "twitter:title"),
		Description: first("og:description", "twitter:description", "description"),
		Image:       first("og:image", "og:image:secure_url", "twitter:image"),
	}
}

// Package presenter renders a previewed index.html inside an isolated
// terminal surface and keeps the surface height matched to its content.
package presenter

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockedElements never reach the surface: they load external resources or
// change how the document resolves references.
const blockedElements = "script[src], iframe, frame, frameset, object, embed, link, base, meta[http-equiv]"

// urlAttrs are the attributes whose values are resolved as references.
var urlAttrs = map[string]bool{
	"src":        true,
	"href":       true,
	"srcset":     true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"background": true,
	"data":       true,
}

// allowedSchemes may appear in references that survive sanitizing.
var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"data":   true,
}

// Document is previewed markup after isolation.
type Document struct {
	// HTML is the sanitized markup.
	HTML  string
	Title string
	// InlineScripts counts inline <script> elements. They are kept in HTML
	// but the surface never runs them.
	InlineScripts int
	// Removed counts elements dropped because they pull in external content.
	Removed int
	// BlockedRefs are reference values stripped because they would resolve
	// against the host rather than the previewed directory.
	BlockedRefs []string
}

// Sanitize isolates raw markup so nothing in it can reach outside the preview.
func Sanitize(raw string) Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return Document{HTML: html.EscapeString(raw)}
	}

	var d Document
	d.Title = strings.TrimSpace(doc.Find("title").First().Text())

	removed := doc.Find(blockedElements)
	d.Removed = removed.Length()
	removed.Remove()

	d.InlineScripts = doc.Find("script").Length()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if len(node.Attr) == 0 {
			return
		}
		kept := make([]html.Attribute, 0, len(node.Attr))
		for _, attr := range node.Attr {
			key := strings.ToLower(attr.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if urlAttrs[key] && blockedRef(key, attr.Val) {
				d.BlockedRefs = append(d.BlockedRefs, attr.Val)
				continue
			}
			kept = append(kept, attr)
		}
		node.Attr = kept
	})

	out, err := doc.Html()
	if err != nil {
		return Document{HTML: html.EscapeString(raw), Title: d.Title}
	}
	d.HTML = out
	return d
}

// blockedRef reports whether a reference value must not survive. Fragments
// are fine; relative paths and script URLs are not.
func blockedRef(key, val string) bool {
	val = strings.TrimSpace(val)
	if val == "" || strings.HasPrefix(val, "#") {
		return false
	}
	if key == "srcset" {
		for _, candidate := range strings.Split(val, ",") {
			fields := strings.Fields(candidate)
			if len(fields) > 0 && blockedRef("src", fields[0]) {
				return true
			}
		}
		return false
	}

	u, err := url.Parse(val)
	if err != nil {
		return true
	}
	if u.Scheme == "" {
		return true
	}
	return !allowedSchemes[strings.ToLower(u.Scheme)]
}

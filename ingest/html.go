package ingest

import (
	"strings"

	"golang.org/x/net/html"
)

// firstElement returns the first element named tag in a depth-first walk
// from n, n included.
func firstElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// allElements returns the outermost descendants of n named tag. Table
// headers are skipped.
func allElements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data == "thead" {
			continue
		}
		if c.Data == tag {
			out = append(out, c)
			continue
		}
		out = append(out, allElements(c, tag)...)
	}
	return out
}

// elementWithClass returns the first outermost descendant named tag whose
// class attribute is exactly class.
func elementWithClass(n *html.Node, tag, class string) *html.Node {
	for _, e := range allElements(n, tag) {
		if v, ok := attr(e, "class"); ok && v == class {
			return e
		}
	}
	return nil
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// firstText returns the first non-blank text under n, trimmed.
func firstText(n *html.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if s := strings.TrimSpace(c.Data); s != "" {
				return s, true
			}
		case html.ElementNode:
			if s, ok := firstText(c); ok {
				return s, true
			}
		}
	}
	return "", false
}

// anchorHref returns the href of the first anchor under n.
func anchorHref(n *html.Node) (string, bool) {
	a := firstElement(n, "a")
	if a == nil {
		return "", false
	}
	return attr(a, "href")
}

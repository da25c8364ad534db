package page

import (
	"strings"

	"golang.org/x/net/html"
)

// findAll returns every element under root matching pred, in document order.
func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// findFirst returns the first descendant of root matching pred, excluding root.
func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// setStyleProperty replaces one declaration in the inline style attribute,
// keeping the others.
func setStyleProperty(n *html.Node, prop, value string) {
	decls, _ := styleWithout(n, prop, nil)
	writeStyle(n, append(decls, prop+": "+value))
}

// removeStyleProperty drops the declarations of prop whose value satisfies
// match and reports whether any were removed. An emptied style attribute is
// deleted.
func removeStyleProperty(n *html.Node, prop string, match func(value string) bool) bool {
	decls, removed := styleWithout(n, prop, match)
	if removed {
		writeStyle(n, decls)
	}
	return removed
}

// styleWithout splits the inline style into declarations, leaving out those
// for prop. A nil match drops every declaration of prop.
func styleWithout(n *html.Node, prop string, match func(value string) bool) ([]string, bool) {
	var decls []string
	removed := false
	for _, decl := range strings.Split(getAttr(n, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		name, value, _ := strings.Cut(decl, ":")
		if strings.EqualFold(strings.TrimSpace(name), prop) && (match == nil || match(strings.TrimSpace(value))) {
			removed = true
			continue
		}
		decls = append(decls, decl)
	}
	return decls, removed
}

func writeStyle(n *html.Node, decls []string) {
	if len(decls) == 0 {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			if a.Key != "style" {
				attrs = append(attrs, a)
			}
		}
		n.Attr = attrs
		return
	}

	style := strings.Join(decls, "; ") + ";"
	for i := range n.Attr {
		if n.Attr[i].Key == "style" {
			n.Attr[i].Val = style
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: style})
}

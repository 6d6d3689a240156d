// Package layers derives the Layers panel tree from the live document and
// provides the pure rewrites the panel applies to it.
package layers

import (
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"golang.org/x/net/html"
)

var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"meta":     true,
	"link":     true,
	"template": true,
	"noscript": true,
	"head":     true,
	"title":    true,
	"br":       true,
}

var labelAttrs = []string{"data-layer-name", "data-name", "name", "aria-label"}

// Options carries editor state that is not stored in the markup.
type Options struct {
	Locked map[string]bool
}

// Build mirrors the element children of root, depth-first. The root itself
// is not represented. A nil or detached root yields an empty tree.
func Build(doc dom.Live, root *html.Node, opts Options) []editor.LayerNode {
	if doc == nil || root == nil || !doc.Attached(root) {
		return []editor.LayerNode{}
	}
	return buildChildren(doc, root, 0, opts)
}

func buildChildren(doc dom.Live, parent *html.Node, depth int, opts Options) []editor.LayerNode {
	nodes := []editor.LayerNode{}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skippedTags[c.Data] {
			continue
		}
		id := doc.EnsureID(c)
		children := buildChildren(doc, c, depth+1, opts)
		nodes = append(nodes, editor.LayerNode{
			ID:          id,
			TagName:     c.Data,
			DisplayName: displayName(doc, c),
			Depth:       depth,
			HasChildren: len(children) > 0,
			Children:    children,
			IsVisible:   doc.ComputedStyle(c, "display") != "none",
			IsLocked:    opts.Locked[id],
		})
	}
	return nodes
}

func displayName(doc dom.Live, n *html.Node) string {
	attrs := doc.Attributes(n)
	for _, key := range labelAttrs {
		if label := strings.TrimSpace(attrs[key]); label != "" {
			return label
		}
	}
	if id := strings.TrimSpace(attrs["id"]); id != "" {
		return n.Data + "#" + id
	}
	if classes := doc.Classes(n); len(classes) > 0 {
		return n.Data + "." + classes[0]
	}
	return n.Data
}

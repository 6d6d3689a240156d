package dom

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var ErrUnsafeFragment = errors.New("fragment contains markup that is not allowed")

// PagePolicy keeps structural and styling markup and drops scripts, event
// handlers and unsafe URLs. Generated pages and pasted fragments share it.
func PagePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	// <style> blocks carry the page's design; scripts stay in the skip-content
	// set regardless.
	p.AllowUnsafe(true)
	p.AllowElements(
		"html", "head", "body", "title", "style", "meta",
		"section", "header", "footer", "nav", "main", "article", "aside",
		"figure", "figcaption", "div", "span", "button", "svg", "path",
		"picture", "video", "source",
	)
	p.AllowAttrs("class", "id", "style", "role", "aria-label", "aria-hidden").Globally()
	p.AllowDataAttributes()
	p.AllowAttrs("charset", "name", "content").OnElements("meta")
	p.AllowAttrs("type").OnElements("button", "source")
	p.AllowAttrs("rel", "target").OnElements("a")
	p.AllowAttrs("src", "srcset", "poster").OnElements("video", "source")
	p.AllowAttrs("autoplay", "loop", "muted", "controls", "playsinline").OnElements("video")
	p.AllowAttrs("viewBox", "fill", "stroke", "stroke-width", "xmlns", "width", "height").OnElements("svg")
	p.AllowAttrs("d", "fill", "stroke").OnElements("path")
	return p
}

var fragmentPolicy = PagePolicy()

// parseSafeFragment parses fragment in the context of n. Editor attributes
// and comments are dropped; anything else the page policy would remove
// rejects the whole fragment.
func parseSafeFragment(n *html.Node, fragment string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), n)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	nodes = scrubFragment(nodes)

	var buf bytes.Buffer
	for _, c := range nodes {
		if err := html.Render(&buf, c); err != nil {
			return nil, fmt.Errorf("failed to render fragment: %w", err)
		}
	}
	sanitized, err := html.ParseFragment(strings.NewReader(fragmentPolicy.Sanitize(buf.String())), n)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sanitized fragment: %w", err)
	}
	if !sameNodes(nodes, scrubFragment(sanitized)) {
		return nil, ErrUnsafeFragment
	}
	return nodes, nil
}

func scrubFragment(nodes []*html.Node) []*html.Node {
	kept := nodes[:0]
	for _, c := range nodes {
		if c.Type == html.CommentNode {
			continue
		}
		scrubNode(c)
		kept = append(kept, c)
	}
	return kept
}

func scrubNode(n *html.Node) {
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if !isSystemAttr(a.Key) {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			scrubNode(c)
		}
		c = next
	}
}

// sameNodes reports whether every node and attribute of want survived in
// got. Attributes the policy adds are ignored, and rel may gain "nofollow".
func sameNodes(want, got []*html.Node) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if !sameNode(want[i], got[i]) {
			return false
		}
	}
	return true
}

func sameNode(want, got *html.Node) bool {
	if want.Type != got.Type || want.Data != got.Data {
		return false
	}
	for _, a := range want.Attr {
		if !hasAttr(got, a.Key) {
			return false
		}
		if a.Key != "rel" && getAttr(got, a.Key) != a.Val {
			return false
		}
	}
	w, g := want.FirstChild, got.FirstChild
	for ; w != nil && g != nil; w, g = w.NextSibling, g.NextSibling {
		if !sameNode(w, g) {
			return false
		}
	}
	return w == nil && g == nil
}

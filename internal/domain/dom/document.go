// Package dom provides the headless live document the editor mutates: an
// addressable HTML tree with stable element ids, inline style editing and
// computed style resolution.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

const (
	// IDAttr correlates live nodes with layer and selection ids.
	IDAttr = "data-pc-id"

	systemAttrPrefix = "data-pc-"
	prevDisplayAttr  = "data-pc-prev-display"
)

var (
	ErrNilNode           = errors.New("node is nil")
	ErrNotElement        = errors.New("node is not an element")
	ErrDetached          = errors.New("node is not attached to the document")
	ErrReservedAttribute = errors.New("attribute name is reserved")
	ErrInvalidAttribute  = errors.New("invalid attribute name")
)

// RenderMode selects whether editor bookkeeping survives serialization.
type RenderMode int

const (
	// Clean strips system attributes.
	Clean RenderMode = iota
	// Raw keeps the markup exactly as held in memory.
	Raw
)

// Document is a mutable HTML tree. It is not safe for concurrent use; the
// sandbox Frame serializes access.
type Document struct {
	root     *html.Node
	fragment bool
	seq      int
	// ids holds every stable id handed out or found in the tree; nil until
	// the first EnsureID.
	ids map[string]bool
}

// Parse builds a document from a full page or a body fragment. Fragments
// render back as fragments.
func Parse(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{root: root, fragment: !isFullDocument(src)}, nil
}

func isFullDocument(src string) bool {
	lower := strings.ToLower(src)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") || strings.Contains(lower, "<!doctype")
}

// Replace swaps the whole tree for freshly parsed content. Nodes of the
// previous tree become detached.
func (d *Document) Replace(src string) error {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("failed to parse replacement document: %w", err)
	}
	d.root = root
	d.fragment = !isFullDocument(src)
	d.ids = nil
	return nil
}

func (d *Document) Root() *html.Node { return d.root }

func (d *Document) IsFragment() bool { return d.fragment }

func (d *Document) Body() *html.Node {
	return htmlquery.FindOne(d.root, "//body")
}

func (d *Document) Head() *html.Node {
	return htmlquery.FindOne(d.root, "//head")
}

// Attached reports whether n still belongs to this document's tree.
func (d *Document) Attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// QueryAll evaluates an XPath expression against the document.
func (d *Document) QueryAll(expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidQuery, expr, err)
	}
	return nodes, nil
}

// NodeByID resolves a stable id to its element, or nil.
func (d *Document) NodeByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	var found *html.Node
	walkElements(d.root, func(n *html.Node) bool {
		if getAttr(n, IDAttr) == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// EnsureID returns the node's stable id, assigning and persisting one on
// first use.
func (d *Document) EnsureID(n *html.Node) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	if id := getAttr(n, IDAttr); id != "" {
		return id
	}
	if d.ids == nil {
		d.ids = make(map[string]bool)
		walkElements(d.root, func(e *html.Node) bool {
			if id := getAttr(e, IDAttr); id != "" {
				d.ids[id] = true
			}
			return true
		})
	}
	for {
		d.seq++
		candidate := "pc-" + strconv.Itoa(d.seq)
		if !d.ids[candidate] {
			d.ids[candidate] = true
			setAttr(n, IDAttr, candidate)
			return candidate
		}
	}
}

// Render serializes the document.
func (d *Document) Render(mode RenderMode) (string, error) {
	var buf bytes.Buffer
	if d.fragment {
		// The parser hoists leading <style>, <link> and <meta> into head.
		for _, parent := range []*html.Node{d.Head(), d.Body()} {
			if parent == nil {
				continue
			}
			for c := parent.FirstChild; c != nil; c = c.NextSibling {
				if err := html.Render(&buf, cloneNode(c, mode)); err != nil {
					return "", fmt.Errorf("failed to render fragment: %w", err)
				}
			}
		}
		return buf.String(), nil
	}
	if err := html.Render(&buf, cloneNode(d.root, mode)); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return buf.String(), nil
}

func (d *Document) OuterHTML(n *html.Node, mode RenderMode) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, cloneNode(n, mode)); err != nil {
		return ""
	}
	return buf.String()
}

func (d *Document) InnerHTML(n *html.Node, mode RenderMode) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, cloneNode(c, mode)); err != nil {
			return ""
		}
	}
	return buf.String()
}

func (d *Document) TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	return htmlquery.InnerText(n)
}

// SetTextContent replaces all children with a single text node.
func (d *Document) SetTextContent(n *html.Node, text string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return nil
}

// SetInnerHTML parses the fragment in the context of n before touching the
// tree, so a failed parse leaves n unchanged. Fragments carrying scripts,
// event handlers or unsafe URLs fail with ErrUnsafeFragment; pasted editor
// attributes are dropped.
func (d *Document) SetInnerHTML(n *html.Node, fragment string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	nodes, err := parseSafeFragment(n, fragment)
	if err != nil {
		return err
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// Attributes returns the non-system attributes of n.
func (d *Document) Attributes(n *html.Node) map[string]string {
	attrs := make(map[string]string)
	if n == nil {
		return attrs
	}
	for _, a := range n.Attr {
		if isSystemAttr(a.Key) {
			continue
		}
		attrs[a.Key] = a.Val
	}
	return attrs
}

func (d *Document) Attribute(n *html.Node, name string) string {
	return getAttr(n, name)
}

func (d *Document) SetAttribute(n *html.Node, name, value string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	name, err := checkAttrName(name)
	if err != nil {
		return err
	}
	if name == "class" {
		return d.SetClasses(n, strings.Fields(value))
	}
	setAttr(n, name, value)
	return nil
}

func (d *Document) RemoveAttribute(n *html.Node, name string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	name, err := checkAttrName(name)
	if err != nil {
		return err
	}
	if name == "class" {
		return d.SetClasses(n, nil)
	}
	removeAttr(n, name)
	return nil
}

func (d *Document) Classes(n *html.Node) []string {
	return strings.Fields(getAttr(n, "class"))
}

// SetClasses replaces the class list, dropping blanks and duplicates.
func (d *Document) SetClasses(n *html.Node, classes []string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	var kept []string
	seen := make(map[string]bool, len(classes))
	for _, c := range classes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		removeAttr(n, "class")
		return nil
	}
	setAttr(n, "class", strings.Join(kept, " "))
	return nil
}

// SetHidden writes display:none, remembering an inline display value so that
// showing the node again restores it.
func (d *Document) SetHidden(n *html.Node, hidden bool) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	current := d.InlineStyles(n)["display"]
	if hidden {
		if current == "none" {
			return nil
		}
		if current != "" {
			setAttr(n, prevDisplayAttr, current)
		}
		return d.SetStyle(n, "display", "none")
	}
	prev := getAttr(n, prevDisplayAttr)
	removeAttr(n, prevDisplayAttr)
	if prev != "" {
		return d.SetStyle(n, "display", prev)
	}
	if current == "none" {
		return d.RemoveStyle(n, "display")
	}
	return nil
}

func (d *Document) checkElement(n *html.Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.Type != html.ElementNode {
		return ErrNotElement
	}
	if !d.Attached(n) {
		return ErrDetached
	}
	return nil
}

func checkAttrName(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || strings.ContainsAny(name, " \t\n\"'<>/=") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAttribute, name)
	}
	if isSystemAttr(name) {
		return "", fmt.Errorf("%w: %s", ErrReservedAttribute, name)
	}
	return name, nil
}

func isSystemAttr(key string) bool {
	return strings.HasPrefix(key, systemAttrPrefix)
}

func getAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// walkElements visits element nodes depth-first until fn returns false.
func walkElements(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walkElements(c, fn) {
			return false
		}
	}
	return true
}

func cloneNode(n *html.Node, mode RenderMode) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	for _, a := range n.Attr {
		if mode == Clean && isSystemAttr(a.Key) {
			continue
		}
		clone.Attr = append(clone.Attr, a)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(cloneNode(c, mode))
	}
	return clone
}

package dom

import (
	"errors"
	"fmt"

	"github.com/antchfx/htmlquery"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
)

// Live is the narrow surface the selection and layer packages are written
// against, so the rendering backend stays swappable.
type Live interface {
	NodeByID(id string) *html.Node
	EnsureID(n *html.Node) string
	Attached(n *html.Node) bool
	QueryAll(expr string) ([]*html.Node, error)

	TextContent(n *html.Node) string
	InnerHTML(n *html.Node, mode RenderMode) string
	OuterHTML(n *html.Node, mode RenderMode) string
	Attributes(n *html.Node) map[string]string
	Classes(n *html.Node) []string
	InlineStyles(n *html.Node) map[string]string
	ComputedStyle(n *html.Node, property string) string
	ComputedStyles(n *html.Node, properties []string) map[string]string

	SetStyle(n *html.Node, property, value string) error
	RemoveStyle(n *html.Node, property string) error
	SetAttribute(n *html.Node, name, value string) error
	RemoveAttribute(n *html.Node, name string) error
	SetClasses(n *html.Node, classes []string) error
	SetTextContent(n *html.Node, text string) error
	SetInnerHTML(n *html.Node, fragment string) error
	SetHidden(n *html.Node, hidden bool) error
}

var _ Live = (*Document)(nil)

var ErrInvalidQuery = errors.New("invalid query")

// QueryOne returns the first match of an XPath expression, or nil.
func (d *Document) QueryOne(expr string) (*html.Node, error) {
	n, err := htmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidQuery, expr, err)
	}
	return n, nil
}

// Export renders the clean document, indented when pretty is set.
func (d *Document) Export(pretty bool) (string, error) {
	out, err := d.Render(Clean)
	if err != nil {
		return "", err
	}
	if !pretty {
		return out, nil
	}
	return gohtml.Format(out), nil
}

package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

var ErrInvalidStyle = errors.New("invalid style declaration")

// Declaration is one inline style entry.
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// ParseInline parses the contents of a style attribute, keeping source
// order. The parser drops a final declaration lacking its semicolon, so
// one is appended. Unparseable input falls back to a plain split.
func ParseInline(style string) []Declaration {
	style = strings.TrimSpace(style)
	if style == "" {
		return nil
	}
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	parsed, err := parser.ParseDeclarations(style)
	if err != nil {
		return splitDeclarations(style)
	}
	decls := make([]Declaration, 0, len(parsed))
	for _, p := range parsed {
		property := strings.ToLower(strings.TrimSpace(p.Property))
		if property == "" || strings.TrimSpace(p.Value) == "" {
			continue
		}
		decls = append(decls, Declaration{
			Property:  property,
			Value:     strings.TrimSpace(p.Value),
			Important: p.Important,
		})
	}
	return decls
}

func splitDeclarations(style string) []Declaration {
	var decls []Declaration
	for _, part := range strings.Split(style, ";") {
		property, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" || value == "" {
			continue
		}
		important := false
		if v, found := strings.CutSuffix(value, "!important"); found {
			value = strings.TrimSpace(v)
			important = true
		}
		decls = append(decls, Declaration{Property: property, Value: value, Important: important})
	}
	return decls
}

// SerializeInline renders declarations back into a style attribute value.
func SerializeInline(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		entry := d.Property + ": " + d.Value
		if d.Important {
			entry += " !important"
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, "; ")
}

// InlineStyles returns the node's inline declarations; a property declared
// twice reports its last value.
func (d *Document) InlineStyles(n *html.Node) map[string]string {
	styles := make(map[string]string)
	if n == nil {
		return styles
	}
	for _, decl := range ParseInline(getAttr(n, "style")) {
		styles[decl.Property] = decl.Value
	}
	return styles
}

// SetStyle writes one inline declaration. An empty value removes it. Setting
// a shorthand drops the longhands it covers.
func (d *Document) SetStyle(n *html.Node, property, value string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	property = strings.ToLower(strings.TrimSpace(property))
	value = strings.TrimSpace(value)
	if value == "" {
		return d.RemoveStyle(n, property)
	}
	if property == "" || strings.ContainsAny(property, ":;{} \t\n") {
		return fmt.Errorf("%w: property %q", ErrInvalidStyle, property)
	}
	if strings.ContainsAny(value, ";{}<>") {
		return fmt.Errorf("%w: value %q", ErrInvalidStyle, value)
	}

	important := false
	if v, found := strings.CutSuffix(value, "!important"); found {
		value = strings.TrimSpace(v)
		important = true
	}

	covered := make(map[string]bool)
	for _, longhand := range shorthandLonghands[property] {
		covered[longhand] = true
	}

	decls := ParseInline(getAttr(n, "style"))
	updated := make([]Declaration, 0, len(decls)+1)
	replaced := false
	for _, decl := range decls {
		if covered[decl.Property] {
			continue
		}
		if decl.Property == property {
			if replaced {
				continue
			}
			decl.Value = value
			decl.Important = important
			replaced = true
		}
		updated = append(updated, decl)
	}
	if !replaced {
		updated = append(updated, Declaration{Property: property, Value: value, Important: important})
	}
	setAttr(n, "style", SerializeInline(updated))
	return nil
}

// RemoveStyle deletes an inline declaration, dropping the style attribute
// once it is empty.
func (d *Document) RemoveStyle(n *html.Node, property string) error {
	if err := d.checkElement(n); err != nil {
		return err
	}
	property = strings.ToLower(strings.TrimSpace(property))
	decls := ParseInline(getAttr(n, "style"))
	kept := decls[:0]
	for _, decl := range decls {
		if decl.Property != property {
			kept = append(kept, decl)
		}
	}
	if len(kept) == 0 {
		removeAttr(n, "style")
		return nil
	}
	setAttr(n, "style", SerializeInline(kept))
	return nil
}

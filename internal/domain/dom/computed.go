package dom

import (
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/styles"
	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
)

// shorthandLonghands lists the longhands a shorthand expands into, in
// top/right/bottom/left order for box shorthands.
var shorthandLonghands = map[string][]string{
	"margin":  {"margin-top", "margin-right", "margin-bottom", "margin-left"},
	"padding": {"padding-top", "padding-right", "padding-bottom", "padding-left"},
	"gap":     {"row-gap", "column-gap"},
}

var longhandShorthand = func() map[string]string {
	m := make(map[string]string)
	for shorthand, longhands := range shorthandLonghands {
		for _, l := range longhands {
			m[l] = shorthand
		}
	}
	return m
}()

var inheritedProperties = map[string]bool{
	"color":           true,
	"cursor":          true,
	"font-family":     true,
	"font-size":       true,
	"font-style":      true,
	"font-weight":     true,
	"letter-spacing":  true,
	"line-height":     true,
	"text-align":      true,
	"text-indent":     true,
	"text-transform":  true,
	"visibility":      true,
	"white-space":     true,
	"word-spacing":    true,
	"pointer-events":  true,
	"text-shadow":     true,
	"list-style-type": true,
}

var uaDisplay = map[string]string{
	"html": "block", "body": "block", "div": "block", "p": "block", "section": "block",
	"header": "block", "footer": "block", "main": "block", "nav": "block", "article": "block",
	"aside": "block", "h1": "block", "h2": "block", "h3": "block", "h4": "block", "h5": "block",
	"h6": "block", "ul": "block", "ol": "block", "form": "block", "figure": "block",
	"figcaption": "block", "blockquote": "block", "pre": "block", "hr": "block",
	"address": "block", "fieldset": "block", "details": "block", "dl": "block", "dd": "block",
	"dt": "block", "summary": "block",
	"li":    "list-item",
	"table": "table", "tr": "table-row", "td": "table-cell", "th": "table-cell",
	"thead": "table-header-group", "tbody": "table-row-group", "tfoot": "table-footer-group",
	"button": "inline-block", "input": "inline-block", "select": "inline-block",
	"textarea": "inline-block",
	"head": "none", "script": "none", "style": "none", "meta": "none", "link": "none",
	"title": "none", "template": "none", "noscript": "none",
}

// cascade weights: sheet < inline < sheet !important < inline !important
const (
	weightInline          = 1_000_000
	weightSheetImportant  = 2_000_000
	weightInlineImportant = 3_000_000
)

type sheetRule struct {
	selectors    []cascadia.Sel
	declarations []*css.Declaration
	order        int
}

type candidate struct {
	value  string
	weight int
	order  int
}

// ComputedStyle resolves a single property for n.
func (d *Document) ComputedStyle(n *html.Node, property string) string {
	return d.computed(n, property, d.styleRules())
}

// ComputedStyles resolves a set of properties, parsing the document's style
// sheets once.
func (d *Document) ComputedStyles(n *html.Node, properties []string) map[string]string {
	rules := d.styleRules()
	out := make(map[string]string, len(properties))
	for _, p := range properties {
		out[p] = d.computed(n, p, rules)
	}
	return out
}

func (d *Document) computed(n *html.Node, property string, rules []sheetRule) string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	value, ok := declaredValue(n, property, rules)
	if ok && value != "inherit" {
		return value
	}
	if ok || inheritedProperties[property] {
		for a := n.Parent; a != nil && a.Type == html.ElementNode; a = a.Parent {
			if v, found := declaredValue(a, property, rules); found && v != "inherit" {
				return v
			}
		}
	}
	if property == "display" {
		if hasAttr(n, "hidden") {
			return "none"
		}
		if display, found := uaDisplay[n.Data]; found {
			return display
		}
		return "inline"
	}
	return styles.DefaultValue(property)
}

// declaredValue runs the cascade for one element and property.
func declaredValue(n *html.Node, property string, rules []sheetRule) (string, bool) {
	var best *candidate
	consider := func(c candidate) {
		if best == nil || c.weight > best.weight || (c.weight == best.weight && c.order >= best.order) {
			cc := c
			best = &cc
		}
	}

	order := 0
	for _, rule := range rules {
		score, matched := bestSpecificity(n, rule.selectors)
		if !matched {
			continue
		}
		for _, decl := range rule.declarations {
			order++
			if v, ok := valueFor(strings.ToLower(decl.Property), decl.Value, property); ok {
				weight := score
				if decl.Important {
					weight += weightSheetImportant
				}
				consider(candidate{value: v, weight: weight, order: order})
			}
		}
	}

	for _, decl := range ParseInline(getAttr(n, "style")) {
		order++
		if v, ok := valueFor(decl.Property, decl.Value, property); ok {
			weight := weightInline
			if decl.Important {
				weight = weightInlineImportant
			}
			consider(candidate{value: v, weight: weight, order: order})
		}
	}

	if best == nil {
		return "", false
	}
	return best.value, true
}

// valueFor extracts the value a declaration contributes to property,
// expanding shorthands.
func valueFor(declProperty, declValue, property string) (string, bool) {
	declValue = strings.TrimSpace(declValue)
	if declProperty == property {
		return declValue, true
	}
	if longhandShorthand[property] != declProperty {
		return "", false
	}
	expanded := expandShorthand(declProperty, declValue)
	v, ok := expanded[property]
	return v, ok
}

func expandShorthand(shorthand, value string) map[string]string {
	longhands := shorthandLonghands[shorthand]
	parts := strings.Fields(value)
	out := make(map[string]string, len(longhands))
	if len(parts) == 0 {
		return out
	}
	if len(longhands) == 2 {
		out[longhands[0]] = parts[0]
		out[longhands[1]] = parts[len(parts)-1]
		return out
	}
	var top, right, bottom, left string
	switch len(parts) {
	case 1:
		top, right, bottom, left = parts[0], parts[0], parts[0], parts[0]
	case 2:
		top, right, bottom, left = parts[0], parts[1], parts[0], parts[1]
	case 3:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[1]
	default:
		top, right, bottom, left = parts[0], parts[1], parts[2], parts[3]
	}
	out[longhands[0]] = top
	out[longhands[1]] = right
	out[longhands[2]] = bottom
	out[longhands[3]] = left
	return out
}

// styleRules parses every <style> element of the document. Rules inside
// at-rules and selectors cascadia cannot compile are ignored.
func (d *Document) styleRules() []sheetRule {
	var rules []sheetRule
	order := 0
	walkElements(d.root, func(n *html.Node) bool {
		if n.Data != "style" {
			return true
		}
		var text strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				text.WriteString(c.Data)
			}
		}
		sheet, err := parser.Parse(text.String())
		if err != nil {
			return true
		}
		for _, rule := range sheet.Rules {
			if rule.Kind != css.QualifiedRule {
				continue
			}
			selectors := parseSelectors(rule.Selectors)
			if len(selectors) == 0 {
				continue
			}
			order++
			rules = append(rules, sheetRule{selectors: selectors, declarations: rule.Declarations, order: order})
		}
		return true
	})
	return rules
}

// Package styles classifies CSS properties as user-set or default and groups
// them into the property editor's sections.
package styles

// defaultValues maps a property to the values a browser reports when nothing
// was set on the element. Entries are normalized at init.
var defaultValues = map[string][]string{
	// layout
	"display":    {"inline", "block"},
	"position":   {"static"},
	"float":      {"none"},
	"clear":      {"none"},
	"visibility": {"visible"},
	"overflow":   {"visible"},
	"overflow-x": {"visible"},
	"overflow-y": {"visible"},
	"z-index":    {"auto"},
	"box-sizing": {"content-box", "border-box"},

	// position offsets
	"top":    {"auto"},
	"right":  {"auto"},
	"bottom": {"auto"},
	"left":   {"auto"},

	// size
	"width":      {"auto"},
	"height":     {"auto"},
	"min-width":  {"0px", "0", "auto"},
	"min-height": {"0px", "0", "auto"},
	"max-width":  {"none"},
	"max-height": {"none"},

	// spacing
	"margin":         {"0px", "0"},
	"margin-top":     {"0px", "0"},
	"margin-right":   {"0px", "0"},
	"margin-bottom":  {"0px", "0"},
	"margin-left":    {"0px", "0"},
	"padding":        {"0px", "0"},
	"padding-top":    {"0px", "0"},
	"padding-right":  {"0px", "0"},
	"padding-bottom": {"0px", "0"},
	"padding-left":   {"0px", "0"},
	"gap":            {"normal", "0px"},
	"row-gap":        {"normal", "0px"},
	"column-gap":     {"normal", "0px"},

	// flex
	"flex-direction":  {"row"},
	"flex-wrap":       {"nowrap"},
	"justify-content": {"normal", "flex-start"},
	"align-items":     {"normal", "stretch"},
	"align-content":   {"normal"},
	"align-self":      {"auto"},
	"flex-grow":       {"0"},
	"flex-shrink":     {"1"},
	"flex-basis":      {"auto"},
	"order":           {"0"},

	// typography
	"color":           {"rgb(0, 0, 0)", "#000000", "#000", "black"},
	"font-family":     {"times new roman", "\"times new roman\"", "serif"},
	"font-size":       {"16px", "medium"},
	"font-weight":     {"400", "normal"},
	"font-style":      {"normal"},
	"line-height":     {"normal"},
	"letter-spacing":  {"normal", "0px"},
	"word-spacing":    {"0px", "normal"},
	"text-align":      {"start", "left"},
	"text-decoration": {"none", "none solid rgb(0, 0, 0)"},
	"text-transform":  {"none"},
	"text-indent":     {"0px"},
	"white-space":     {"normal"},
	"vertical-align":  {"baseline"},

	// background
	"background-color":    {"rgba(0, 0, 0, 0)", "transparent"},
	"background-image":    {"none"},
	"background-size":     {"auto", "auto auto"},
	"background-position": {"0% 0%"},
	"background-repeat":   {"repeat"},

	// border
	"border-width":  {"0px", "medium"},
	"border-style":  {"none"},
	"border-color":  {"rgb(0, 0, 0)", "currentcolor"},
	"border-radius": {"0px", "0"},
	"border":        {"0px none rgb(0, 0, 0)", "none"},

	// effects
	"opacity":        {"1"},
	"box-shadow":     {"none"},
	"text-shadow":    {"none"},
	"transform":      {"none"},
	"transition":     {"all 0s ease 0s", "none"},
	"filter":         {"none"},
	"mix-blend-mode": {"normal"},
	"cursor":         {"auto"},
	"pointer-events": {"auto"},
	"object-fit":     {"fill"},
}

var normalizedDefaults map[string]map[string]struct{}

func init() {
	normalizedDefaults = make(map[string]map[string]struct{}, len(defaultValues))
	for property, values := range defaultValues {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[normalize(v)] = struct{}{}
		}
		normalizedDefaults[property] = set
	}
}

// DefaultValue returns the canonical browser default for a property, or ""
// when the property is not in the table.
func DefaultValue(property string) string {
	values, ok := defaultValues[property]
	if !ok || len(values) == 0 {
		return ""
	}
	return values[0]
}

// KnownProperty reports whether the defaults table covers a property.
func KnownProperty(property string) bool {
	_, ok := defaultValues[property]
	return ok
}

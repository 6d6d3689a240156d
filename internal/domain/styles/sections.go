package styles

type Section string

const (
	SectionLayout     Section = "layout"
	SectionPosition   Section = "position"
	SectionSize       Section = "size"
	SectionSpacing    Section = "spacing"
	SectionFlex       Section = "flex"
	SectionTypography Section = "typography"
	SectionBackground Section = "background"
	SectionBorder     Section = "border"
	SectionEffects    Section = "effects"
)

// Sections groups the inspected properties the way the property editor
// lays them out.
var Sections = map[Section][]string{
	SectionLayout:   {"display", "visibility", "overflow", "box-sizing", "float"},
	SectionPosition: {"position", "top", "right", "bottom", "left", "z-index"},
	SectionSize:     {"width", "height", "min-width", "min-height", "max-width", "max-height"},
	SectionSpacing: {
		"margin-top", "margin-right", "margin-bottom", "margin-left",
		"padding-top", "padding-right", "padding-bottom", "padding-left",
	},
	SectionFlex: {"flex-direction", "flex-wrap", "justify-content", "align-items", "gap", "flex-grow", "flex-shrink"},
	SectionTypography: {
		"color", "font-family", "font-size", "font-weight", "font-style", "line-height",
		"letter-spacing", "text-align", "text-decoration", "text-transform",
	},
	SectionBackground: {"background-color", "background-image", "background-size", "background-position", "background-repeat"},
	SectionBorder:     {"border-width", "border-style", "border-color", "border-radius"},
	SectionEffects:    {"opacity", "box-shadow", "transform", "transition", "filter", "mix-blend-mode", "cursor"},
}

// sectionOrder fixes the iteration order of Sections.
var sectionOrder = []Section{
	SectionLayout, SectionPosition, SectionSize, SectionSpacing, SectionFlex,
	SectionTypography, SectionBackground, SectionBorder, SectionEffects,
}

// InspectedProperties is the allow-list of computed properties captured in a
// selection snapshot.
var InspectedProperties = func() []string {
	var props []string
	for _, section := range sectionOrder {
		props = append(props, Sections[section]...)
	}
	return props
}()

// ActiveSections returns, per section, whether any of its properties is
// active.
func ActiveSections(active map[string]bool) map[Section]bool {
	result := make(map[Section]bool, len(Sections))
	for _, section := range sectionOrder {
		result[section] = HasSectionActiveProperties(Sections[section], active)
	}
	return result
}

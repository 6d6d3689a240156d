package dom

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// parseSelectors compiles the selectors of one rule. Pseudo-elements and
// other selectors cascadia rejects are dropped; dynamic states like :hover
// compile but never match.
func parseSelectors(selectors []string) []cascadia.Sel {
	var compiled []cascadia.Sel
	for _, sel := range selectors {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		parsed, err := cascadia.Parse(sel)
		if err != nil {
			continue
		}
		compiled = append(compiled, parsed)
	}
	return compiled
}

// specificityWeight folds an (id, class, type) triple into one comparable
// number, kept below the inline cascade weights.
func specificityWeight(s cascadia.Specificity) int {
	return min(s[0], 99)*10000 + min(s[1], 99)*100 + min(s[2], 99)
}

// bestSpecificity returns the highest specificity among the selectors of a
// rule that match n.
func bestSpecificity(n *html.Node, selectors []cascadia.Sel) (int, bool) {
	best, matched := 0, false
	for _, sel := range selectors {
		if !sel.Match(n) {
			continue
		}
		score := specificityWeight(sel.Specificity())
		if !matched || score > best {
			best, matched = score, true
		}
	}
	return best, matched
}

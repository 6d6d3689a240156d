package ai

import (
	"regexp"
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/microcosm-cc/bluemonday"
)

var (
	openFenceRe  = regexp.MustCompile("^\\s*```[a-zA-Z]*[ \\t]*\\n?")
	closeFenceRe = regexp.MustCompile("\\n?```\\s*$")
)

// Sanitizer turns raw model output into markup safe to load into the live
// document.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: dom.PagePolicy()}
}

// Clean strips markdown code fences and sanitizes the remaining markup.
// Partial output is accepted; an unterminated fence is only trimmed at the
// start.
func (s *Sanitizer) Clean(output string) string {
	output = StripFences(output)
	if output == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(output))
}

// StripFences removes a leading ```lang fence and a trailing ``` fence.
func StripFences(output string) string {
	output = openFenceRe.ReplaceAllString(output, "")
	output = closeFenceRe.ReplaceAllString(output, "")
	return strings.TrimSpace(output)
}

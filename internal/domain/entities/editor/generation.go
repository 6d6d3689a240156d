package editor

// GenerationRequest asks the AI collaborator for a new version of a page.
type GenerationRequest struct {
	Prompt string `json:"prompt"`
	HTML   string `json:"html,omitempty"`
	Stream bool   `json:"stream"`
}

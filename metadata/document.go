package metadata

// Resource is a named link attached to a proposal.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Document is the proposal metadata document pinned to content addressed storage.
type Document struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Resources   []Resource `json:"resources"`
}

// Input is what a proposal kind provides to the composer.
type Input struct {
	Title       string
	Summary     string
	Description string
	Resources   []Resource
}

// CombinedDescription joins title, summary and the detailed description separated by blank lines.
// Title and summary are repeated in the description for clients that only render that field.
func CombinedDescription(title, summary, description string) string {
	return title + "\n\n" + summary + "\n\n" + description
}

// NewDocument builds the canonical document for in.
func NewDocument(in Input) Document {
	resources := in.Resources
	if resources == nil {
		resources = []Resource{}
	}

	return Document{
		Title:       in.Title,
		Summary:     in.Summary,
		Description: CombinedDescription(in.Title, in.Summary, in.Description),
		Resources:   resources,
	}
}

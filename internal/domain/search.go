package domain

// Search result types.
const (
	SearchTypeTask     = "task"
	SearchTypeDocument = "document"
	SearchTypeFAQ      = "faq"
	SearchTypeUser     = "user"
	SearchTypeSection  = "section"
)

// SearchResult is one row of the global search response.
type SearchResult struct {
	Type        string            `json:"type"`
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	URL         string            `json:"url"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

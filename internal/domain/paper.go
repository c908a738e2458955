package domain

// Placeholders used when the index omits paper fields.
const (
	UnknownPaperTitle   = "Unknown Title"
	UnknownAuthorName   = "Unknown Author"
	NoAbstractAvailable = "No abstract available"
)

// PaperAuthor is an author stub attached to an index paper record.
type PaperAuthor struct {
	Name     string `json:"name"`
	AuthorID string `json:"author_id,omitempty"`
}

// PaperRecord is a paper returned by a venue search, normalized to defaults.
type PaperRecord struct {
	Title         string        `json:"title"`
	Year          *int          `json:"year"`
	Venue         string        `json:"venue,omitempty"`
	Authors       []PaperAuthor `json:"authors"`
	CitationCount int           `json:"citation_count"`
	Abstract      string        `json:"abstract"`
	PaperID       string        `json:"paper_id,omitempty"`
}

// ConferenceInfo aggregates the venue-search papers of one conference name.
type ConferenceInfo struct {
	Name                 string        `json:"name"`
	PapersFound          int           `json:"papers_found"`
	TopPapers            []PaperRecord `json:"top_papers"`
	UniqueAuthors        int           `json:"unique_authors"`
	TotalCitations       int           `json:"total_citations"`
	YearsActive          []int         `json:"years_active"`
	AvgCitationsPerPaper float64       `json:"avg_citations_per_paper"`
}

package doctree

// Point is a position on a page in layout-provider coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BBox is an axis-aligned bounding box (x0,y0)-(x1,y1).
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// TextSpan is one contiguous run of text sharing a single font and size.
type TextSpan struct {
	Text   string  // Cleaned text (whitespace collapsed, trimmed)
	Size   float64 // Font size in points
	Font   string  // Font name as reported by the layout provider
	Bold   bool
	Origin Point
	BBox   BBox
	Page   int // 1-indexed
}

// HeadingLevel is one of H1, H2 or H3.
type HeadingLevel string

const (
	H1 HeadingLevel = "H1"
	H2 HeadingLevel = "H2"
	H3 HeadingLevel = "H3"
)

// HeadingEntry is a leveled heading in a document outline.
type HeadingEntry struct {
	Level HeadingLevel  `json:"level"`
	Text  LocalizedText `json:"text"`
	Page  int           `json:"page"`
}

// Table is a table extracted from one page. Headers are tagged with the
// language detected for the header row.
type Table struct {
	Page    int           `json:"page"`
	Headers LocalizedList `json:"headers"`
	Data    [][]string    `json:"data"`
}

// Outline is the structural result for one document.
type Outline struct {
	Title   LocalizedText  `json:"title"`
	Outline []HeadingEntry `json:"outline"`
	Tables  []Table        `json:"tables"`
}

// EmptyOutline returns the degraded result used for unreadable documents.
// It serializes as {"title":{},"outline":[],"tables":[]}.
func EmptyOutline() Outline {
	return Outline{
		Outline: []HeadingEntry{},
		Tables:  []Table{},
	}
}

// Section is a candidate produced by the ranker for one heading.
type Section struct {
	Document       string
	PageNumber     int
	SectionTitle   LocalizedText
	RefinedText    LocalizedText
	RelevanceScore float64
}

// Metadata describes one ranking run.
type Metadata struct {
	InputDocuments      []string `json:"input_documents"`
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

// ExtractedSection is one ranked entry of a RankedResult.
type ExtractedSection struct {
	Document       string        `json:"document"`
	PageNumber     int           `json:"page_number"`
	SectionTitle   LocalizedText `json:"section_title"`
	ImportanceRank int           `json:"importance_rank"`
}

// SubSection carries the excerpt for the ExtractedSection at the same index.
type SubSection struct {
	Document    string        `json:"document"`
	RefinedText LocalizedText `json:"refined_text"`
	PageNumber  int           `json:"page_number"`
}

// RankedResult is the output of a ranking run. ExtractedSections and
// SubSectionAnalysis correspond index for index.
type RankedResult struct {
	Metadata           Metadata           `json:"metadata"`
	ExtractedSections  []ExtractedSection `json:"extracted_sections"`
	SubSectionAnalysis []SubSection       `json:"sub_section_analysis"`
}

package index

// Entry records one document field's occurrences of a term.
type Entry struct {
	DocID string
	Field string
	// Positions are token positions within the field, ascending.
	Positions []int
	// TermFrequency is occurrences divided by the field's token count, in (0, 1].
	TermFrequency float64
}

// EntryList is the bucket of entries stored for one term, in build order.
type EntryList []Entry

// Stats summarises an index build.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
	NGrams    int `json:"ngrams"`
	Entries   int `json:"entries"`
}

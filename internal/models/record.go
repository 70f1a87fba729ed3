package models

// RawRow is one data row of the source dataset, exactly as read.
type RawRow struct {
	Line   int      // Line is the 1-based line number in the source file.
	Fields []string // Fields are the raw field values, delimiter-split.
}

// Record is one normalized measurement expanded from a raw row.
// A row whose weight and height fields hold several delimited components
// expands into several records; they share the same Row and RiskFactors.
type Record struct {
	Row         *RawRow // Row is the originating raw row.
	Seq         int     // Seq is the record's position in the normalized sequence.
	Location    string  // Location is the free-text address to geocode.
	Weight      int     // Weight is the parsed measurement component.
	Height      int     // Height is the parsed measurement component.
	WeightPart  string  // WeightPart is the original weight component text.
	HeightPart  string  // HeightPart is the original height component text.
	RiskFactors []bool  // RiskFactors holds the presence flags of the trailing fields.
}

// EnrichedRecord is a normalized record together with its geocoding outcome.
type EnrichedRecord struct {
	Record
	Resolution
}

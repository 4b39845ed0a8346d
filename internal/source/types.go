package source

// Columns names the header cells each table is read by.
type Columns struct {
	Date           string
	Category       string
	Margin         string
	GrowthRate     string
	MostLikelyRate string
	FutureDate     string
	FutureValue    string
}

// ParseResult holds the rows parsed from one table.
// Rows that fail to parse are skipped and counted in ParseErrors.
type ParseResult[T any] struct {
	Rows        []T
	ParseErrors int
}

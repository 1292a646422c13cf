package domain

// ExtractionRequest is the input of the extraction collaborator.
type ExtractionRequest struct {
	// DocumentID is the monitored file ID.
	DocumentID string

	// Filename is the base name of the file.
	Filename string

	// ContentPreview is the leading part of the extracted text.
	ContentPreview string

	// SuggestedDescription summarises the file for the extractor.
	SuggestedDescription string

	// MaxRecords caps how many records the extractor should produce.
	MaxRecords int
}

// RefreshRequest asks the downstream corpus to refresh after a scan.
type RefreshRequest struct {
	DirectoryID   string
	DirectoryName string

	// ProcessedFiles are the paths processed in the triggering scan.
	ProcessedFiles []string
}

// RefreshResult is the outcome reported by the refresh collaborator.
type RefreshResult struct {
	Success bool
	Items   int
	Message string
}

// ExtractedContent is the text a normaliser extracted from a file.
type ExtractedContent struct {
	// Title is a human-readable title, possibly derived from the filename.
	Title string

	// Text is the plain text content.
	Text string

	// Format names the source format (e.g. "pdf", "markdown").
	Format string
}

// RawFile is a file's bytes as handed to a normaliser.
type RawFile struct {
	// Path is the absolute path of the file.
	Path string

	// Extension is the lower-cased extension including the dot.
	Extension string

	// Content is the raw bytes.
	Content []byte
}

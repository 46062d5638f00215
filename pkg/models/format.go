package models

// Format is the content kind of a library file.
type Format string

const (
	FormatEPUB    Format = "epub"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// NoCoverFingerprint is stored as a book's cover fingerprint when neither
// cover bytes nor a cover URL could be resolved.
const NoCoverFingerprint = "no_cover"

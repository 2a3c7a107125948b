package constants

// Stage is the position of one import in its pipeline.
type Stage string

const (
	StageReceived     Stage = "RECEIVED"
	StageDeduplicated Stage = "DEDUPLICATED" // digest/URL checked, not a duplicate
	StageRejected     Stage = "REJECTED"     // terminal: duplicate or too large
	StageExtracted    Stage = "EXTRACTED"
	StageClassified   Stage = "CLASSIFIED"
	StageFinalized    Stage = "FINALIZED"
	StageFailed       Stage = "FAILED"
)

// ContentType distinguishes the origin of a stored item.
type ContentType string

const (
	ContentTypeFile ContentType = "file"
	ContentTypeURL  ContentType = "url"
	ContentTypeNote ContentType = "note"
)

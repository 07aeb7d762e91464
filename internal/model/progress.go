package model

import "time"

// Stage names one step of the processing pipeline.
type Stage string

// Pipeline stages.
const (
	StageUpload      Stage = "upload"
	StageExtraction  Stage = "extraction"
	StageValidation  Stage = "validation"
	StageConversion  Stage = "conversion"
	StageApproval    Stage = "approval"
	StageExport      Stage = "export"
	StagePersistence Stage = "persistence"
	StageCompleted   Stage = "completed"
	StageFailed      Stage = "failed"
)

// ProgressEvent is one checkpoint emitted by the orchestrator. Percent
// values are fixed per stage so UIs render deterministically.
type ProgressEvent struct {
	Timestamp time.Time
	Details   map[string]any
	Stage     Stage
	Message   string
	Percent   int
}

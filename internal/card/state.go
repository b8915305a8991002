package card

import "github.com/factchecker/realitycheck/internal/models"

// Phase is the card's position in the select, upload, analyze, result cycle.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAwaitingUpload Phase = "awaiting_upload"
	PhaseUploadComplete Phase = "upload_complete"
	PhaseInputReady     Phase = "input_ready"
	PhaseAnalyzing      Phase = "analyzing"
	PhaseResulted       Phase = "resulted"
	PhaseFailed         Phase = "failed"
)

type UploadStatus string

const (
	UploadIdle      UploadStatus = "idle"
	UploadUploading UploadStatus = "uploading"
	UploadComplete  UploadStatus = "complete"
)

// UploadState tracks the simulated transfer.
type UploadState struct {
	Status   UploadStatus `json:"status"`
	Progress int          `json:"progress_percent"`
}

type AnalysisStatus string

const (
	AnalysisIdle    AnalysisStatus = "idle"
	AnalysisRunning AnalysisStatus = "running"
	AnalysisDone    AnalysisStatus = "done"
	AnalysisFailed  AnalysisStatus = "failed"
)

// AnalysisState tracks the current analysis. Result is set only when done,
// Reason only when failed.
type AnalysisState struct {
	Status AnalysisStatus         `json:"status"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Reason string                 `json:"reason,omitempty"`
}

// Snapshot is a copy of a card's state at one instant.
type Snapshot struct {
	Kind     models.InputKind    `json:"kind"`
	Phase    Phase               `json:"phase"`
	Input    models.PendingInput `json:"input"`
	Upload   UploadState         `json:"upload"`
	Analysis AnalysisState       `json:"analysis"`
}

func phaseOf(input models.PendingInput, up UploadState, an AnalysisState) Phase {
	switch an.Status {
	case AnalysisRunning:
		return PhaseAnalyzing
	case AnalysisDone:
		return PhaseResulted
	case AnalysisFailed:
		return PhaseFailed
	}
	switch up.Status {
	case UploadUploading:
		return PhaseAwaitingUpload
	case UploadComplete:
		return PhaseUploadComplete
	}
	if input.Variant == models.InputText && !input.IsEmpty() {
		return PhaseInputReady
	}
	return PhaseIdle
}

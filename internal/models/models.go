// Package models defines the core data structures used throughout the application.
package models

import (
	"fmt"
	"strings"
	"time"
)

// InputKind is the media kind a detector card accepts.
type InputKind string

const (
	KindVideo InputKind = "video"
	KindImage InputKind = "image"
	KindAudio InputKind = "audio"
	KindText  InputKind = "text"
)

// Kinds lists every input kind in dashboard order.
var Kinds = []InputKind{KindVideo, KindImage, KindAudio, KindText}

// ParseInputKind converts a string into an InputKind.
func ParseInputKind(s string) (InputKind, error) {
	switch k := InputKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindVideo, KindImage, KindAudio, KindText:
		return k, nil
	}
	return "", fmt.Errorf("unknown input kind: %q", s)
}

// AcceptsFiles reports whether the kind takes a file rather than raw text.
func (k InputKind) AcceptsFiles() bool {
	return k == KindVideo || k == KindImage || k == KindAudio
}

// Verdict is the binary classification of analyzed content.
type Verdict string

const (
	VerdictAuthentic Verdict = "authentic"
	VerdictSynthetic Verdict = "synthetic"
)

// Wire values used by detection services.
const (
	wireReal = "real"
	wireFake = "fake"
)

// ParseWireVerdict maps the "real"/"fake" values returned by detection
// services onto a Verdict.
func ParseWireVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case wireReal, string(VerdictAuthentic):
		return VerdictAuthentic, nil
	case wireFake, string(VerdictSynthetic):
		return VerdictSynthetic, nil
	}
	return "", fmt.Errorf("unknown verdict: %q", s)
}

// Wire returns the "real"/"fake" form of the verdict.
func (v Verdict) Wire() string {
	if v == VerdictSynthetic {
		return wireFake
	}
	return wireReal
}

// Label is the headline shown on a result box.
func (v Verdict) Label() string {
	if v == VerdictSynthetic {
		return "Deepfake Detected"
	}
	return "Likely Authentic"
}

// AnalysisResult is the outcome of one analysis.
type AnalysisResult struct {
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"` // always within [0, 1]
}

// Validate checks the verdict and confidence range.
func (r AnalysisResult) Validate() error {
	if r.Verdict != VerdictAuthentic && r.Verdict != VerdictSynthetic {
		return fmt.Errorf("invalid verdict: %q", r.Verdict)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence out of range: %v", r.Confidence)
	}
	return nil
}

// Percent formats the confidence as a percentage with the given precision.
func (r AnalysisResult) Percent(decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, r.Confidence*100)
}

// FileInput describes a file picked or dropped onto a card.
type FileInput struct {
	Name     string `json:"name"`
	Size     int64  `json:"size_bytes"`
	MIMEHint string `json:"mime_hint,omitempty"`
	Data     []byte `json:"-"` // optional; forwarded to remote detectors
}

// InputVariant tags which PendingInput alternative is active.
type InputVariant string

const (
	InputNone InputVariant = "none"
	InputFile InputVariant = "file"
	InputText InputVariant = "text"
)

// PendingInput holds at most one of a selected file or raw text.
type PendingInput struct {
	Variant InputVariant `json:"variant"`
	File    *FileInput   `json:"file,omitempty"`
	Text    string       `json:"text,omitempty"`
}

// NoInput is the empty PendingInput.
func NoInput() PendingInput { return PendingInput{Variant: InputNone} }

// SelectedFile wraps a file as PendingInput.
func SelectedFile(f FileInput) PendingInput {
	return PendingInput{Variant: InputFile, File: &f}
}

// RawText wraps text as PendingInput.
func RawText(content string) PendingInput {
	return PendingInput{Variant: InputText, Text: content}
}

// IsEmpty reports whether no usable input is present. Whitespace-only text
// counts as empty.
func (p PendingInput) IsEmpty() bool {
	switch p.Variant {
	case InputFile:
		return p.File == nil
	case InputText:
		return strings.TrimSpace(p.Text) == ""
	}
	return true
}

// Detector describes one card on the detection dashboard.
type Detector struct {
	Kind          InputKind `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	AcceptedTypes string    `json:"accepted_types"`
	Endpoint      string    `json:"endpoint"`
}

// NoticeVariant distinguishes informational notices from errors.
type NoticeVariant string

const (
	NoticeDefault     NoticeVariant = "default"
	NoticeDestructive NoticeVariant = "destructive"
)

// Notice is a user-facing toast raised by a card.
type Notice struct {
	Kind        InputKind     `json:"kind"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Variant     NoticeVariant `json:"variant"`
	CreatedAt   time.Time     `json:"created_at"`
}

// AuditLog represents an API request audit entry.
type AuditLog struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id,omitempty"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	RequestSize  int64     `json:"request_size"`
	ResponseCode int       `json:"response_code"`
	DurationMs   int64     `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// TextRequest is the request body for the text card.
type TextRequest struct {
	Text string `json:"text"`
}

// Package dashboard hosts the detection dashboard: the detector catalog and
// per-visitor sessions holding one card controller per detector.
package dashboard

import "github.com/factchecker/realitycheck/internal/models"

var catalog = []models.Detector{
	{
		Kind:          models.KindVideo,
		Title:         "Video Deepfake Detector",
		Description:   "Analyze videos for AI-generated faces and synthetic content",
		AcceptedTypes: ".mp4,.avi,.mov,.mkv",
		Endpoint:      "/api/video-detect",
	},
	{
		Kind:          models.KindImage,
		Title:         "Image Forensics",
		Description:   "Detect manipulated photos and AI-generated images",
		AcceptedTypes: ".jpg,.jpeg,.png,.webp",
		Endpoint:      "/api/image-detect",
	},
	{
		Kind:          models.KindAudio,
		Title:         "Audio Clone Detector",
		Description:   "Identify synthetic voices and audio deepfakes",
		AcceptedTypes: ".mp3,.wav,.m4a,.aac",
		Endpoint:      "/api/audio-detect",
	},
	{
		Kind:          models.KindText,
		Title:         "Fake News Verifier",
		Description:   "Analyze text content for AI-generated misinformation",
		AcceptedTypes: "text/plain",
		Endpoint:      "/api/news-detect",
	},
}

// Catalog returns the dashboard's detectors in display order.
func Catalog() []models.Detector {
	out := make([]models.Detector, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the detector for kind.
func Lookup(kind models.InputKind) (models.Detector, bool) {
	for _, d := range catalog {
		if d.Kind == kind {
			return d, true
		}
	}
	return models.Detector{}, false
}

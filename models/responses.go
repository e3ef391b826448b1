package models

import (
	"encoding/json"

	"go-docverify-gateway/face"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type DetectFaceResponse struct {
	Details map[string]any  `json:"details"`
	Raw     json.RawMessage `json:"raw"`
}

type ICAOResponse struct {
	face.ICAOSummary
	Raw json.RawMessage `json:"raw"`
}

type FaceMatchResponse struct {
	face.MatchSummary
	Raw json.RawMessage `json:"raw"`
}

type LivenessResponse struct {
	face.LivenessSummary
	Raw json.RawMessage `json:"raw"`
}

// IssuanceHandoff lets the browser start an IRMA issuance session for the
// verified identity.
type IssuanceHandoff struct {
	Jwt           string `json:"jwt"`
	IrmaServerURL string `json:"irmaServerUrl"`
}

type VerifyIdentityResponse struct {
	SimilarityPercent      *float64         `json:"similarityPercent"`
	DocumentPortraitBase64 string           `json:"documentPortraitBase64"`
	Issuance               *IssuanceHandoff `json:"issuance,omitempty"`
}

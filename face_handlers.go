package main

import (
	"log/slog"
	"net/http"
	"strings"

	"go-docverify-gateway/face"
	"go-docverify-gateway/images"
	"go-docverify-gateway/models"
)

const (
	ErrNoImage          = "No image provided. Send multipart/form-data with 'image' or JSON with 'imageBase64'."
	ErrNoImagePair      = "Provide two images. Send multipart/form-data with 'image1' and 'image2' or JSON with 'imageBase64_1' and 'imageBase64_2'."
	ErrNoLivenessInput  = "Provide 'transactionId' or an array of 'frames' (base64 images)."
	ErrInvalidImageData = "Image is not valid base64 data."
)

const ERR_FACE_DETECT = "face detect failed"
const ERR_FACE_LIVENESS = "liveness check failed"

// readValidatedImage reads the single image of a face request and checks
// that it decodes. The caller has already answered when ok is false.
func readValidatedImage(w http.ResponseWriter, r *http.Request) (string, bool) {
	image, err := readSingleImage(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoImage, ERR_READ_REQUEST, err)
		return "", false
	}
	if strings.TrimSpace(image) == "" {
		respondWithErr(w, http.StatusBadRequest, ErrNoImage, "no image in request", nil)
		return "", false
	}
	cleaned, err := images.ValidateBase64(image)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrInvalidImageData, "invalid image data", err)
		return "", false
	}
	return cleaned, true
}

func handleDetectFace(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	image, ok := readValidatedImage(w, r)
	if !ok {
		return
	}

	body, err := state.faceClient.DetectFaces(r.Context(), image)
	if err != nil {
		respondWithVendorErr(w, ERR_FACE_DETECT, err)
		return
	}

	response := models.DetectFaceResponse{
		Details: face.DetectDetails(body),
		Raw:     rawMessage(body),
	}
	slog.Debug("Face detected", "attributes", len(response.Details))
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

func handleICAODetect(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	image, ok := readValidatedImage(w, r)
	if !ok {
		return
	}

	body, err := state.faceClient.DetectICAO(r.Context(), image)
	if err != nil {
		respondWithVendorErr(w, ERR_FACE_DETECT, err)
		return
	}

	response := models.ICAOResponse{ICAOSummary: face.ICAO(body), Raw: rawMessage(body)}
	slog.Info("ICAO compliance checked",
		"sections", len(response.Sections),
		"compliant", response.TotalCompliantCount,
		"total", response.TotalCount,
		"request_id", requestIDFromContext(r.Context()))
	storeReport(state, w, r, response.ICAOSummary)
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

func handleFaceMatch(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	first, second, err := readFacePair(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoImagePair, ERR_READ_REQUEST, err)
		return
	}
	if strings.TrimSpace(first) == "" || strings.TrimSpace(second) == "" {
		respondWithErr(w, http.StatusBadRequest, ErrNoImagePair, "missing face match image", nil)
		return
	}

	pair := make([]string, 0, 2)
	for _, image := range []string{first, second} {
		cleaned, err := images.ValidateBase64(image)
		if err != nil {
			respondWithErr(w, http.StatusBadRequest, ErrInvalidImageData, "invalid image data", err)
			return
		}
		pair = append(pair, cleaned)
	}

	body, err := state.faceClient.MatchFaces(r.Context(), pair[0], pair[1])
	if err != nil {
		respondWithVendorErr(w, ERR_FACE_MATCH, err)
		return
	}

	response := models.FaceMatchResponse{MatchSummary: face.Match(body), Raw: rawMessage(body)}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

// handleLiveness looks up a finished liveness transaction, or submits frames
// when no transaction id is given.
func handleLiveness(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	request, err := readLivenessRequest(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoLivenessInput, ERR_READ_REQUEST, err)
		return
	}

	var body []byte
	switch {
	case strings.TrimSpace(request.TransactionID) != "":
		body, err = state.faceClient.CheckLiveness(r.Context(), request.TransactionID)
	case len(request.Frames) > 0:
		frames := make([]string, 0, len(request.Frames))
		for _, frame := range request.Frames {
			frames = append(frames, images.CleanBase64(frame))
		}
		body, err = state.faceClient.CheckLivenessFrames(r.Context(), frames)
	default:
		respondWithErr(w, http.StatusBadRequest, ErrNoLivenessInput, "no liveness input", nil)
		return
	}
	if err != nil {
		respondWithVendorErr(w, ERR_FACE_LIVENESS, err)
		return
	}

	response := models.LivenessResponse{LivenessSummary: face.Liveness(body), Raw: rawMessage(body)}
	if response.LivenessStatus != nil {
		slog.Info("Liveness checked", "status", *response.LivenessStatus, "request_id", requestIDFromContext(r.Context()))
	}
	storeReport(state, w, r, response.LivenessSummary)
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

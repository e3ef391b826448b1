package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-docverify-gateway/document"
	"go-docverify-gateway/face"
	"go-docverify-gateway/fraud"
	"go-docverify-gateway/images"
	"go-docverify-gateway/models"
	"go-docverify-gateway/portrait"
)

const DefaultScenario = "FullAuth"

const (
	ErrNoDocumentImages     = "Provide document images. Send multipart/form-data with 'images' or JSON with 'images' [{ base64, format }]."
	ErrNoDocumentUploads    = "Provide document images. Send multipart/form-data with 'images'."
	ErrNoLivePortrait       = "Provide a live portrait. Send form field 'livePortrait' with base64 or JSON 'livePortraitBase64'."
	ErrNoDocumentPortrait   = "Unable to extract document portrait from DocR response."
	ErrNoCompareBody        = "Provide JSON body with firstDocumentImageBase64 and secondDocumentImageBase64."
	ErrCompareImagesMissing = "Both document images are required."
	ErrCompareUnparseable   = "Unable to parse document data from DocR responses."
	ErrComparePortraits     = "Unable to extract document portrait(s) for face matching."
	ErrDocRUnparseable      = "Unable to parse DocR response."
)

const ERR_READ_REQUEST = "failed to read request body"
const ERR_DOCR_PROCESS = "document reader process failed"
const ERR_FACE_MATCH = "face match failed"

// validateDocumentImages replaces every document image, and the live
// portrait when present, with its cleaned form. The caller has already
// answered when ok is false.
func validateDocumentImages(w http.ResponseWriter, request *models.DocumentProcessRequest) bool {
	for i, image := range request.Images {
		cleaned, err := images.ValidateBase64(image.Base64)
		if err != nil {
			respondWithErr(w, http.StatusBadRequest, ErrInvalidImageData, fmt.Sprintf("invalid document image %d", i+1), err)
			return false
		}
		request.Images[i].Base64 = cleaned
	}
	if strings.TrimSpace(request.LivePortraitBase64) == "" {
		return true
	}
	cleaned, err := images.ValidateBase64(request.LivePortraitBase64)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrInvalidImageData, "invalid live portrait", err)
		return false
	}
	request.LivePortraitBase64 = cleaned
	return true
}

// handleProcessDocument answers process and fraud-detection with the document
// summary. Both send authenticity parameters.
func handleProcessDocument(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	request, err := readDocumentRequest(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoDocumentImages, ERR_READ_REQUEST, err)
		return
	}
	if len(request.Images) == 0 {
		respondWithErr(w, http.StatusBadRequest, ErrNoDocumentImages, "no document images in request", nil)
		return
	}
	if !validateDocumentImages(w, &request) {
		return
	}

	payload := buildProcessRequest(state.docReaderConfig, request.Images, processOptions{
		scenario:     request.Scenario,
		tag:          request.Tag,
		livePortrait: request.LivePortraitBase64,
		forceAuth:    true,
	})
	body, status, err := state.docReader.Process(r.Context(), payload)
	if err != nil {
		respondWithVendorErr(w, ERR_DOCR_PROCESS, err)
		return
	}

	summary, err := document.BuildSummary(body)
	if err != nil {
		slog.Warn("Document reader response could not be summarized", "error", err, "status_code", status)
		if err := writeJSON(w, status, models.ErrorResponse{Error: ErrDocRUnparseable}); err != nil {
			slog.Error(ERR_MARSHAL, "error", err)
		}
		return
	}

	slog.Info("Document processed",
		"transaction_id", summary.TransactionID,
		"overall_status", summary.OverallStatus,
		"request_id", requestIDFromContext(r.Context()))
	storeReport(state, w, r, summary)
	if err := writeJSON(w, status, summary); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

func handleDetectDocumentFraud(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	request, err := readDocumentRequest(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoDocumentImages, ERR_READ_REQUEST, err)
		return
	}
	if len(request.Images) == 0 {
		respondWithErr(w, http.StatusBadRequest, ErrNoDocumentImages, "no document images in request", nil)
		return
	}
	if !validateDocumentImages(w, &request) {
		return
	}

	payload := buildProcessRequest(state.docReaderConfig, request.Images, processOptions{
		scenario:  request.Scenario,
		tag:       request.Tag,
		forceAuth: true,
	})
	body, status, err := state.docReader.Process(r.Context(), payload)
	if err != nil {
		respondWithVendorErr(w, ERR_DOCR_PROCESS, err)
		return
	}

	summary := fraud.BuildSummary(body)
	slog.Info("Fraud summary built",
		"transaction_id", summary.TransactionID,
		"overall_status", summary.OverallStatus,
		"checks", len(summary.Checks),
		"request_id", requestIDFromContext(r.Context()))
	storeReport(state, w, r, summary)
	if err := writeJSON(w, status, summary); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

// handleVerifyIdentity matches the portrait printed on the document with a
// live portrait. When issuance is configured and the match passes the
// threshold, a signed issuance request is returned as well.
func handleVerifyIdentity(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	request, err := readDocumentRequest(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoDocumentUploads, ERR_READ_REQUEST, err)
		return
	}
	if len(request.Images) == 0 {
		respondWithErr(w, http.StatusBadRequest, ErrNoDocumentUploads, "no document images in request", nil)
		return
	}
	if strings.TrimSpace(request.LivePortraitBase64) == "" {
		respondWithErr(w, http.StatusBadRequest, ErrNoLivePortrait, "no live portrait in request", nil)
		return
	}
	if !validateDocumentImages(w, &request) {
		return
	}

	payload := buildProcessRequest(state.docReaderConfig, request.Images, processOptions{
		scenario: request.Scenario,
		tag:      request.Tag,
	})
	body, _, err := state.docReader.Process(r.Context(), payload)
	if err != nil {
		respondWithVendorErr(w, ERR_DOCR_PROCESS, err)
		return
	}

	documentPortrait, ok := portrait.ExtractFromJSON(body)
	if !ok {
		respondWithErr(w, http.StatusUnprocessableEntity, ErrNoDocumentPortrait, "no portrait in document reader response", nil)
		return
	}
	documentPortrait = images.CleanBase64(document.BrowserSafePortrait(documentPortrait))

	matchBody, err := state.faceClient.MatchFaces(r.Context(), documentPortrait, images.CleanBase64(request.LivePortraitBase64))
	if err != nil {
		respondWithVendorErr(w, ERR_FACE_MATCH, err)
		return
	}

	match := face.Match(matchBody)
	response := models.VerifyIdentityResponse{
		SimilarityPercent:      face.NormalizeSimilarityPercent(match.Similarity),
		DocumentPortraitBase64: documentPortrait,
	}

	score := face.NormalizeSimilarityScore(match.Similarity)
	matched := score != nil && *score >= state.faceMatchThreshold
	slog.Info("Identity verified against document",
		"face_matched", matched,
		"request_id", requestIDFromContext(r.Context()))

	if state.jwtCreator != nil && matched {
		handoff, err := createIssuanceHandoff(state, body, *response.SimilarityPercent)
		if err != nil {
			respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_JWT_CREATION, err)
			return
		}
		response.Issuance = handoff
	}

	storeReport(state, w, r, response)
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

func createIssuanceHandoff(state *ServerState, docrBody []byte, similarityPercent float64) (*models.IssuanceHandoff, error) {
	identity, err := document.ExtractIdentity(docrBody)
	if err != nil {
		return nil, err
	}

	jwt, err := state.jwtCreator.CreateIdentityJwt(VerifiedIdentity{
		FirstName:         identity.Name,
		LastName:          identity.Surname,
		DocumentNumber:    identity.DocumentNumber,
		DateOfBirth:       identity.DateOfBirth,
		Gender:            identity.Gender,
		FaceMatched:       true,
		SimilarityPercent: similarityPercent,
		VerifiedAt:        time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &models.IssuanceHandoff{Jwt: jwt, IrmaServerURL: state.irmaServerURL}, nil
}

// handleCompareDocuments processes two documents one after the other, then
// compares their portraits and identity fields.
func handleCompareDocuments(state *ServerState, w http.ResponseWriter, r *http.Request) {
	defer closeRequestBody(r)
	if !requirePOST(w, r) {
		return
	}

	first, second, err := readComparePair(r)
	if errors.Is(err, errEmptyBody) {
		respondWithErr(w, http.StatusBadRequest, ErrNoCompareBody, "empty compare request", err)
		return
	}
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, ErrNoCompareBody, ERR_READ_REQUEST, err)
		return
	}
	first, second = images.CleanBase64(first), images.CleanBase64(second)
	if strings.TrimSpace(first) == "" || strings.TrimSpace(second) == "" {
		respondWithErr(w, http.StatusBadRequest, ErrCompareImagesMissing, "missing compare image", nil)
		return
	}
	for i, image := range []*string{&first, &second} {
		cleaned, err := images.ValidateBase64(*image)
		if err != nil {
			respondWithErr(w, http.StatusBadRequest, ErrInvalidImageData, fmt.Sprintf("invalid compare image %d", i+1), err)
			return
		}
		*image = cleaned
	}

	identities := make([]*document.IdentityInfo, 0, 2)
	for i, image := range []string{first, second} {
		payload := buildProcessRequest(state.docReaderConfig, []models.DocumentImage{{Base64: image}}, processOptions{forceAuth: true})
		body, _, err := state.docReader.Process(r.Context(), payload)
		if err != nil {
			respondWithVendorErr(w, ERR_DOCR_PROCESS, err)
			return
		}
		identity, err := document.ExtractIdentity(body)
		if err != nil {
			slog.Warn("Document reader response could not be parsed", "document", i+1, "error", err)
			respondWithErr(w, http.StatusUnprocessableEntity, ErrCompareUnparseable, "unparseable document reader response", err)
			return
		}
		identities = append(identities, identity)
	}

	firstDocument, secondDocument := identities[0], identities[1]
	if firstDocument.PortraitImageBase64 == "" || secondDocument.PortraitImageBase64 == "" {
		respondWithErr(w, http.StatusUnprocessableEntity, ErrComparePortraits, "missing document portrait", nil)
		return
	}

	matchBody, err := state.faceClient.MatchFaces(r.Context(),
		images.CleanBase64(firstDocument.PortraitImageBase64),
		images.CleanBase64(secondDocument.PortraitImageBase64))
	if err != nil {
		respondWithVendorErr(w, ERR_FACE_MATCH, err)
		return
	}

	threshold := document.DefaultFaceMatchThreshold
	if state.docReaderConfig.FaceApiThreshold != nil {
		threshold = *state.docReaderConfig.FaceApiThreshold
	}
	result := document.Compare(firstDocument, secondDocument, face.Match(matchBody).Similarity, threshold)

	slog.Info("Documents compared",
		"face_match", result.IsFaceMatch,
		"document_number_match", result.IsDocumentNumberMatch,
		"name_match", result.IsNameMatch,
		"dob_match", result.IsDobMatch,
		"request_id", requestIDFromContext(r.Context()))
	storeReport(state, w, r, result)
	if err := writeJSON(w, http.StatusOK, result); err != nil {
		slog.Error(ERR_MARSHAL, "error", err)
	}
}

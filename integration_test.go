package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"go-docverify-gateway/document"
	"go-docverify-gateway/fraud"
	"go-docverify-gateway/models"

	"github.com/stretchr/testify/require"
)

type processResponse struct {
	TransactionID  string         `json:"transactionId"`
	OverallStatus  string         `json:"overallStatus"`
	FullName       string         `json:"fullName"`
	DocumentNumber string         `json:"documentNumber"`
	Validity       fraud.Validity `json:"validity"`
	Error          string         `json:"error"`
	Details        string         `json:"details"`
}

type verifyResponse struct {
	SimilarityPercent      *float64                `json:"similarityPercent"`
	DocumentPortraitBase64 string                  `json:"documentPortraitBase64"`
	Issuance               *models.IssuanceHandoff `json:"issuance"`
	Error                  string                  `json:"error"`
}

type summaryResponse struct {
	Details        map[string]any  `json:"details"`
	Similarity     *float64        `json:"similarity"`
	Score          *float64        `json:"score"`
	LivenessStatus *string         `json:"livenessStatus"`
	Raw            json.RawMessage `json:"raw"`
	Error          string          `json:"error"`
}

var documentImagesJSON = map[string]any{
	"images": []map[string]string{{"base64": "data:image/jpeg;base64,QUJD", "format": "jpg"}},
}

func TestHealth(t *testing.T) {
	docr, faceAPI := newFakeVendor(t), newFakeVendor(t)
	url := startTestServer(t, newTestState(docr, faceAPI))

	t.Run("shallow", func(t *testing.T) {
		resp, err := http.Get(url + "/api/health")
		require.NoError(t, err)
		resp, body, health := readResponse[HealthResponse](t, resp)
		mustStatus(t, resp, http.StatusOK, body)
		require.True(t, health.Ok)
		require.Empty(t, faceAPI.received(), "shallow health does not call the face service")
	})

	t.Run("deep and unhealthy", func(t *testing.T) {
		faceAPI.respond("/api/healthz", http.StatusInternalServerError, "down")
		resp, err := http.Get(url + "/api/health?deep=true")
		require.NoError(t, err)
		resp, body, health := readResponse[HealthResponse](t, resp)
		mustStatus(t, resp, http.StatusServiceUnavailable, body)
		require.False(t, health.Ok)
		require.Contains(t, health.FaceAPI, "health check failed")
	})
}

func TestProcessDocument(t *testing.T) {
	t.Run("summary with report", func(t *testing.T) {
		docr, faceAPI := newFakeVendor(t), newFakeVendor(t)
		docr.respond("/api/process", http.StatusOK, docrResponse("DOE", "JANE", "NX123", "1990-02-03"))
		state := newTestState(docr, faceAPI)
		state.reportStorage = NewInMemoryReportStorage(DefaultReportTTL)
		url := startTestServer(t, state)

		resp, body, summary := postJSON[processResponse](t, url+"/api/documents/process", documentImagesJSON)
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, "tx-NX123", summary.TransactionID)
		require.Equal(t, "DOE JANE", summary.FullName)
		require.Equal(t, "NX123", summary.DocumentNumber)
		require.Equal(t, "valid", summary.OverallStatus)
		require.Equal(t, []string{"AuthenticityCheck (Type 1, Element 2)"}, summary.Validity.Valid)

		payload := docr.last(t).decode(t)
		param := payload["processParam"].(map[string]any)
		require.Equal(t, "FullAuth", param["scenario"])
		require.Equal(t, map[string]any{"checkLiveness": false}, param["authParams"])
		require.Equal(t, "QUJD", payload["List"].([]any)[0].(map[string]any)["ImageData"].(map[string]any)["image"])

		reportID := resp.Header.Get(ReportIDHeader)
		require.NotEmpty(t, reportID)
		reportResp, err := http.Get(url + "/api/reports/" + reportID)
		require.NoError(t, err)
		reportResp, reportBody, _ := readResponse[processResponse](t, reportResp)
		mustStatus(t, reportResp, http.StatusOK, reportBody)
		require.JSONEq(t, string(body), string(reportBody))
	})

	t.Run("unknown report", func(t *testing.T) {
		state := newTestState(newFakeVendor(t), newFakeVendor(t))
		state.reportStorage = NewInMemoryReportStorage(DefaultReportTTL)
		url := startTestServer(t, state)

		resp, err := http.Get(url + "/api/reports/nope")
		require.NoError(t, err)
		resp, body, _ := readResponse[models.ErrorResponse](t, resp)
		mustStatus(t, resp, http.StatusNotFound, body)
	})

	t.Run("reports route only with storage", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))
		resp, err := http.Get(url + "/api/reports/abc")
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Empty(t, resp.Header.Get(ReportIDHeader))
	})

	t.Run("fraud detection alias", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, `{"transactionId":"abc","status":"done"}`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, summary := postJSON[processResponse](t, url+"/api/documents/fraud-detection", documentImagesJSON)
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, "abc", summary.TransactionID)
		require.Equal(t, "done", summary.OverallStatus)
	})

	t.Run("no images", func(t *testing.T) {
		docr := newFakeVendor(t)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/process", map[string]any{"images": []any{}})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoDocumentImages, errResp.Error)
		require.Empty(t, docr.received())
	})

	t.Run("invalid image data", func(t *testing.T) {
		tests := []struct {
			name    string
			route   string
			payload map[string]any
		}{
			{"empty image", "/api/documents/process", map[string]any{"images": []map[string]string{{"base64": ""}}}},
			{"not base64", "/api/documents/process", map[string]any{"images": []map[string]string{{"base64": "!!!not base64!!!"}}}},
			{"second image bad", "/api/documents/fraud-detection", map[string]any{"images": []map[string]string{{"base64": "QUJD"}, {"base64": "data:image/png;base64,%%%"}}}},
			{"bad live portrait", "/api/documents/process", map[string]any{"images": []map[string]string{{"base64": "QUJD"}}, "livePortraitBase64": "not base64!"}},
			{"fraud detect", "/api/document-fraud/detect", map[string]any{"images": []map[string]string{{"base64": "!!!"}}}},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				docr := newFakeVendor(t)
				url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

				resp, body, errResp := postJSON[models.ErrorResponse](t, url+tc.route, tc.payload)
				mustStatus(t, resp, http.StatusBadRequest, body)
				require.Equal(t, ErrInvalidImageData, errResp.Error)
				require.Empty(t, docr.received())
			})
		}
	})

	t.Run("vendor status is relayed", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusInternalServerError, `{"message":"boom"}`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, errResp := postJSON[processResponse](t, url+"/api/documents/process", documentImagesJSON)
		mustStatus(t, resp, http.StatusInternalServerError, body)
		require.Equal(t, "DocR process request failed.", errResp.Error)
		require.Equal(t, `{"message":"boom"}`, errResp.Details)
	})

	t.Run("unparseable response", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusAccepted, `not json`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, errResp := postJSON[processResponse](t, url+"/api/documents/process", documentImagesJSON)
		mustStatus(t, resp, http.StatusAccepted, body)
		require.Equal(t, ErrDocRUnparseable, errResp.Error)
	})

	t.Run("unreachable reader", func(t *testing.T) {
		docr := newFakeVendor(t)
		state := newTestState(docr, newFakeVendor(t))
		docr.Close()
		url := startTestServer(t, state)

		resp, body, errResp := postJSON[processResponse](t, url+"/api/documents/process", documentImagesJSON)
		mustStatus(t, resp, http.StatusBadGateway, body)
		require.Equal(t, "DocR process request failed.", errResp.Error)
		require.NotEmpty(t, errResp.Details)
	})

	t.Run("multipart with live portrait", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, `{}`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		contentType, form := multipartForm(t, []formFile{
			{field: "images", fileName: "front.jpg", contentType: "image/jpeg", data: jpegBytes},
		}, map[string]string{"scenario": "Mrz", livePortraitField: "TElWRQ=="})
		resp, body, _ := postRaw[processResponse](t, url+"/api/documents/process", contentType, form)
		mustStatus(t, resp, http.StatusOK, body)

		payload := docr.last(t).decode(t)
		require.Equal(t, "TElWRQ==", payload["livePortrait"])
		param := payload["processParam"].(map[string]any)
		require.Equal(t, "Mrz", param["scenario"])
		require.Equal(t, true, param["useFaceApi"])
	})

	t.Run("wrong method", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))
		resp, err := http.Get(url + "/api/documents/process")
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		require.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
	})
}

func TestDetectDocumentFraud(t *testing.T) {
	t.Run("checks", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("DOE", "JANE", "NX123", "1990-02-03"))
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, summary := postJSON[fraud.Summary](t, url+"/api/document-fraud/detect", documentImagesJSON)
		mustStatus(t, resp, http.StatusOK, body)
		require.Len(t, summary.Checks, len(fraud.Rules))
		require.Equal(t, "valid", summary.OverallStatus)
		require.NotNil(t, docr.last(t).decode(t)["processParam"].(map[string]any)["authParams"])
	})

	t.Run("unparseable response", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, `<html>`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, summary := postJSON[fraud.Summary](t, url+"/api/document-fraud/detect", documentImagesJSON)
		mustStatus(t, resp, http.StatusOK, body)
		require.Len(t, summary.Checks, 1)
		require.Equal(t, fraud.CheckParsing, summary.Checks[0].Name)
		require.Equal(t, fraud.StatusUnknown, summary.Checks[0].Status)
	})
}

func TestVerifyIdentity(t *testing.T) {
	livePortrait := "data:image/jpeg;base64,TElWRQ=="

	verifyForm := func(t *testing.T, fields map[string]string) (string, io.Reader) {
		return multipartForm(t, []formFile{
			{field: "images", fileName: "front.jpg", contentType: "image/jpeg", data: jpegBytes},
		}, fields)
	}

	t.Run("match without issuance", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("ERIKSSON", "ANNA MARIA", "L898902C3", "1974-08-12"))
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.9312}]}`)
		url := startTestServer(t, newTestState(docr, faceAPI))

		contentType, form := verifyForm(t, map[string]string{livePortraitField: livePortrait})
		resp, body, verified := postRaw[verifyResponse](t, url+"/api/documents/verify-identity", contentType, form)
		mustStatus(t, resp, http.StatusOK, body)
		require.NotNil(t, verified.SimilarityPercent)
		require.Equal(t, 93.12, *verified.SimilarityPercent)
		require.Equal(t, testPortrait, verified.DocumentPortraitBase64)
		require.Nil(t, verified.Issuance)

		payload := docr.last(t).decode(t)
		require.NotContains(t, payload, "livePortrait")
		require.NotContains(t, payload["processParam"].(map[string]any), "authParams")

		match := faceAPI.last(t).decode(t)
		images := match["images"].([]any)
		require.Equal(t, testPortrait, images[0].(map[string]any)["data"])
		require.Equal(t, "TElWRQ==", images[1].(map[string]any)["data"])
	})

	t.Run("match with issuance", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("ERIKSSON", "ANNA MARIA", "L898902C3", "1974-08-12"))
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.8}]}`)
		jwtCreator := &fakeJwtCreator{jwt: "test-jwt"}
		state := newTestState(docr, faceAPI)
		state.jwtCreator = jwtCreator
		state.irmaServerURL = "https://irma.example"
		url := startTestServer(t, state)

		resp, body, verified := postJSON[verifyResponse](t, url+"/api/documents/verify-identity", map[string]any{
			"images":             documentImagesJSON["images"],
			"livePortraitBase64": livePortrait,
		})
		mustStatus(t, resp, http.StatusOK, body)
		require.NotNil(t, verified.Issuance)
		require.Equal(t, "test-jwt", verified.Issuance.Jwt)
		require.Equal(t, "https://irma.example", verified.Issuance.IrmaServerURL)

		require.Len(t, jwtCreator.received, 1)
		identity := jwtCreator.received[0]
		require.Equal(t, "ANNA MARIA", identity.FirstName)
		require.Equal(t, "ERIKSSON", identity.LastName)
		require.Equal(t, "L898902C3", identity.DocumentNumber)
		require.Equal(t, 80.0, identity.SimilarityPercent)
	})

	t.Run("below threshold is not issued", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("ERIKSSON", "ANNA", "L898902C3", "1974-08-12"))
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.2}]}`)
		jwtCreator := &fakeJwtCreator{jwt: "test-jwt"}
		state := newTestState(docr, faceAPI)
		state.jwtCreator = jwtCreator
		url := startTestServer(t, state)

		resp, body, verified := postJSON[verifyResponse](t, url+"/api/documents/verify-identity", map[string]any{
			"images":             documentImagesJSON["images"],
			"livePortraitBase64": livePortrait,
		})
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, 20.0, *verified.SimilarityPercent)
		require.Nil(t, verified.Issuance)
		require.Empty(t, jwtCreator.received)
	})

	t.Run("jwt failure", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("ERIKSSON", "ANNA", "L898902C3", "1974-08-12"))
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.99}]}`)
		state := newTestState(docr, faceAPI)
		state.jwtCreator = &fakeJwtCreator{err: errors.New("signing failed")}
		url := startTestServer(t, state)

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/verify-identity", map[string]any{
			"images":             documentImagesJSON["images"],
			"livePortraitBase64": livePortrait,
		})
		mustStatus(t, resp, http.StatusInternalServerError, body)
		require.Equal(t, ErrorInternal, errResp.Error)
	})

	t.Run("missing live portrait", func(t *testing.T) {
		docr := newFakeVendor(t)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		contentType, form := verifyForm(t, map[string]string{livePortraitField: "   "})
		resp, body, errResp := postRaw[models.ErrorResponse](t, url+"/api/documents/verify-identity", contentType, form)
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoLivePortrait, errResp.Error)
		require.Empty(t, docr.received())
	})

	t.Run("invalid live portrait", func(t *testing.T) {
		docr, faceAPI := newFakeVendor(t), newFakeVendor(t)
		url := startTestServer(t, newTestState(docr, faceAPI))

		contentType, form := verifyForm(t, map[string]string{livePortraitField: "data:image/jpeg;base64,@@@"})
		resp, body, errResp := postRaw[models.ErrorResponse](t, url+"/api/documents/verify-identity", contentType, form)
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrInvalidImageData, errResp.Error)
		require.Empty(t, docr.received())
		require.Empty(t, faceAPI.received())
	})

	t.Run("missing images", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/verify-identity", map[string]any{"livePortraitBase64": livePortrait})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoDocumentUploads, errResp.Error)
	})

	t.Run("no document portrait", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, `{"ContainerList":{"List":[]}}`)
		faceAPI := newFakeVendor(t)
		url := startTestServer(t, newTestState(docr, faceAPI))

		contentType, form := verifyForm(t, map[string]string{livePortraitField: livePortrait})
		resp, body, errResp := postRaw[models.ErrorResponse](t, url+"/api/documents/verify-identity", contentType, form)
		mustStatus(t, resp, http.StatusUnprocessableEntity, body)
		require.Equal(t, ErrNoDocumentPortrait, errResp.Error)
		require.Empty(t, faceAPI.received())
	})

	t.Run("face service failure", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("ERIKSSON", "ANNA", "L898902C3", "1974-08-12"))
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusBadRequest, `{"code":"no face"}`)
		url := startTestServer(t, newTestState(docr, faceAPI))

		contentType, form := verifyForm(t, map[string]string{livePortraitField: livePortrait})
		resp, body, errResp := postRaw[models.ErrorResponse](t, url+"/api/documents/verify-identity", contentType, form)
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, "Regula match request failed.", errResp.Error)
		require.Equal(t, `{"code":"no face"}`, errResp.Details)
	})
}

func TestCompareDocuments(t *testing.T) {
	comparePayload := map[string]string{
		"firstDocumentImageBase64":  "data:image/jpeg;base64,Rmlyc3Q=",
		"secondDocumentImageBase64": "U2Vjb25k",
	}

	t.Run("both routes compare", func(t *testing.T) {
		for _, route := range []string{"/api/documents/compare-documents", "/api/documents/compare-passports"} {
			t.Run(route, func(t *testing.T) {
				docr := newFakeVendor(t).
					respond("/api/process", http.StatusOK, docrResponse("Müller", "Jürgen", "X-123", "1980-01-02")).
					respond("/api/process", http.StatusOK, docrResponse("MULLER", "JURGEN", "X123", "02.01.1980"))
				faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.9}]}`)
				url := startTestServer(t, newTestState(docr, faceAPI))

				resp, body, result := postJSON[document.ComparisonResult](t, url+route, comparePayload)
				mustStatus(t, resp, http.StatusOK, body)
				require.True(t, result.IsFaceMatch)
				require.True(t, result.IsDocumentNumberMatch)
				require.True(t, result.IsNameMatch)
				require.False(t, result.IsDobMatch, "dates are compared digit by digit")
				require.Equal(t, 0.85, result.FaceMatchThreshold)
				require.NotNil(t, result.FaceMatchScorePercent)
				require.Equal(t, 90.0, *result.FaceMatchScorePercent)
				require.Equal(t, "X-123", result.FirstDocument.DocumentNumber)

				requests := docr.received()
				require.Len(t, requests, 2)
				first := requests[0].decode(t)
				require.Equal(t, "Rmlyc3Q=", first["List"].([]any)[0].(map[string]any)["ImageData"].(map[string]any)["image"])
				require.NotNil(t, first["processParam"].(map[string]any)["authParams"])
			})
		}
	})

	t.Run("configured threshold", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, docrResponse("DOE", "JANE", "1", "1990-01-01"))
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.9}]}`)
		state := newTestState(docr, faceAPI)
		threshold := 0.95
		state.docReaderConfig.FaceApiThreshold = &threshold
		url := startTestServer(t, state)

		resp, body, result := postJSON[document.ComparisonResult](t, url+"/api/documents/compare-documents", comparePayload)
		mustStatus(t, resp, http.StatusOK, body)
		require.False(t, result.IsFaceMatch)
		require.Equal(t, 0.95, result.FaceMatchThreshold)
	})

	t.Run("null body", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))
		resp, body, errResp := postRaw[models.ErrorResponse](t, url+"/api/documents/compare-documents", "application/json", strings.NewReader("null"))
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoCompareBody, errResp.Error)
	})

	t.Run("one image", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))
		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/compare-documents", map[string]string{
			"firstDocumentImageBase64":  "Rmlyc3Q=",
			"secondDocumentImageBase64": "data:image/png;base64,",
		})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrCompareImagesMissing, errResp.Error)
	})

	t.Run("invalid image data", func(t *testing.T) {
		docr := newFakeVendor(t)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))
		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/compare-documents", map[string]string{
			"firstDocumentImageBase64":  "Rmlyc3Q=",
			"secondDocumentImageBase64": "not base64!",
		})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrInvalidImageData, errResp.Error)
		require.Empty(t, docr.received())
	})

	t.Run("second document fails", func(t *testing.T) {
		docr := newFakeVendor(t).
			respond("/api/process", http.StatusOK, docrResponse("DOE", "JANE", "1", "1990-01-01")).
			respond("/api/process", http.StatusForbidden, `denied`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/compare-documents", comparePayload)
		mustStatus(t, resp, http.StatusForbidden, body)
		require.Equal(t, "DocR process request failed.", errResp.Error)
		require.Equal(t, "denied", errResp.Details)
	})

	t.Run("unparseable document", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, `{`)
		url := startTestServer(t, newTestState(docr, newFakeVendor(t)))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/compare-documents", comparePayload)
		mustStatus(t, resp, http.StatusUnprocessableEntity, body)
		require.Equal(t, ErrCompareUnparseable, errResp.Error)
	})

	t.Run("missing portrait", func(t *testing.T) {
		docr := newFakeVendor(t).respond("/api/process", http.StatusOK, `{"ContainerList":{"List":[]}}`)
		faceAPI := newFakeVendor(t)
		url := startTestServer(t, newTestState(docr, faceAPI))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/documents/compare-documents", comparePayload)
		mustStatus(t, resp, http.StatusUnprocessableEntity, body)
		require.Equal(t, ErrComparePortraits, errResp.Error)
		require.Empty(t, faceAPI.received())
	})
}

func TestFaceEndpoints(t *testing.T) {
	t.Run("detect face", func(t *testing.T) {
		raw := `{"results":{"detections":[{"attributes":{"details":[{"name":"Age","value":{"low":30,"high":35}},{"name":"Smile","value":true}]}}]}}`
		faceAPI := newFakeVendor(t).respond("/api/detect", http.StatusOK, raw)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, detected := postJSON[summaryResponse](t, url+"/api/detect-face", map[string]string{"imageBase64": "data:image/png;base64,QUJD"})
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, map[string]any{"Age": map[string]any{"low": 30.0, "high": 35.0}, "Smile": true}, detected.Details)
		require.JSONEq(t, raw, string(detected.Raw))
		require.Equal(t, "QUJD", faceAPI.last(t).decode(t)["image"])
	})

	t.Run("detect face multipart", func(t *testing.T) {
		faceAPI := newFakeVendor(t).respond("/api/detect", http.StatusOK, `{}`)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		contentType, form := multipartForm(t, []formFile{{field: "image", fileName: "me.png", contentType: "image/png", data: pngBytes}}, nil)
		resp, body, detected := postRaw[summaryResponse](t, url+"/api/detect-face", contentType, form)
		mustStatus(t, resp, http.StatusOK, body)
		require.Empty(t, detected.Details)
	})

	t.Run("detect face without image", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))
		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/detect-face", map[string]string{})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoImage, errResp.Error)
	})

	t.Run("invalid base64", func(t *testing.T) {
		faceAPI := newFakeVendor(t)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))
		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/detect-face", map[string]string{"imageBase64": "not base64!"})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrInvalidImageData, errResp.Error)
		require.Empty(t, faceAPI.received())
	})

	t.Run("icao detect", func(t *testing.T) {
		raw := `{"results":{"detections":[{"quality":{"details":[
			{"groupId":1,"name":"ImageWidth","status":1,"value":600},
			{"groupId":1,"name":"ImageHeight","status":0,"value":100},
			{"groupId":8,"name":"OtherFaces","status":1}
		]}}]}}`
		faceAPI := newFakeVendor(t).respond("/api/detect", http.StatusOK, raw)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, icao := postJSON[models.ICAOResponse](t, url+"/api/icao-detect", map[string]string{"imageBase64": "QUJD"})
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, 3, icao.TotalCount)
		require.Equal(t, 2, icao.TotalCompliantCount)
		require.Len(t, icao.Sections, 2)
		require.Equal(t, "Image characteristics", icao.Sections[0].Name)
		require.Equal(t, "Background", icao.Sections[1].Name)
		require.Equal(t, "icao-detect", faceAPI.last(t).decode(t)["tag"])
	})

	t.Run("face match", func(t *testing.T) {
		faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[{"similarity":0.61,"score":0.7}]}`)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, match := postJSON[summaryResponse](t, url+"/api/face-match", map[string]string{
			"imageBase64_1": "QUJD",
			"imageBase64_2": "data:image/jpeg;base64,REVG",
		})
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, 0.61, *match.Similarity)
		require.Equal(t, 0.7, *match.Score)

		images := faceAPI.last(t).decode(t)["images"].([]any)
		require.Equal(t, "REVG", images[1].(map[string]any)["data"])
	})

	t.Run("face match needs two images", func(t *testing.T) {
		url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))
		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/face-match", map[string]string{"imageBase64_1": "QUJD"})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoImagePair, errResp.Error)
	})
}

func TestLivenessEndpoint(t *testing.T) {
	t.Run("transaction id wins over frames", func(t *testing.T) {
		faceAPI := newFakeVendor(t).respond("/api/v2/liveness", http.StatusOK, `{"status":"passed","score":0.98}`)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, liveness := postJSON[summaryResponse](t, url+"/api/liveness-detection", map[string]any{
			"transactionId": "tx-9",
			"frames":        []string{"QUJD"},
		})
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, "passed", *liveness.LivenessStatus)
		require.Equal(t, 0.98, *liveness.Score)

		request := faceAPI.last(t)
		require.Equal(t, http.MethodGet, request.Method)
		require.Equal(t, "transactionId=tx-9", request.Query)
	})

	t.Run("frames", func(t *testing.T) {
		faceAPI := newFakeVendor(t).respond("/api/v2/liveness", http.StatusOK, `{"liveness":"real"}`)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, liveness := postJSON[summaryResponse](t, url+"/api/liveness-detection", map[string]any{
			"frames": []string{"data:image/jpeg;base64,QUJD", "REVG"},
		})
		mustStatus(t, resp, http.StatusOK, body)
		require.Equal(t, "real", *liveness.LivenessStatus)
		require.JSONEq(t, `{"tag":"liveness","frames":["QUJD","REVG"]}`, string(faceAPI.last(t).Body))
	})

	t.Run("neither", func(t *testing.T) {
		faceAPI := newFakeVendor(t)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/liveness-detection", map[string]any{"frames": []string{}})
		mustStatus(t, resp, http.StatusBadRequest, body)
		require.Equal(t, ErrNoLivenessInput, errResp.Error)
		require.Empty(t, faceAPI.received())
	})

	t.Run("vendor error", func(t *testing.T) {
		faceAPI := newFakeVendor(t).respond("/api/v2/liveness", http.StatusNotFound, `unknown transaction`)
		url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

		resp, body, errResp := postJSON[models.ErrorResponse](t, url+"/api/liveness-detection", map[string]any{"transactionId": "nope"})
		mustStatus(t, resp, http.StatusNotFound, body)
		require.Equal(t, "Regula liveness request failed.", errResp.Error)
		require.Equal(t, "unknown transaction", errResp.Details)
	})
}

func TestRequestIDPropagation(t *testing.T) {
	faceAPI := newFakeVendor(t).respond("/api/match", http.StatusOK, `{"results":[]}`)
	url := startTestServer(t, newTestState(newFakeVendor(t), faceAPI))

	payload, err := json.Marshal(map[string]string{"imageBase64_1": "QUJD", "imageBase64_2": "REVG"})
	require.NoError(t, err)

	t.Run("caller id is forwarded", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, url+"/api/face-match", bytes.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "caller-id")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, "caller-id", resp.Header.Get(RequestIDHeader))
		require.Equal(t, "caller-id", faceAPI.last(t).Headers.Get(RequestIDHeader))
	})

	t.Run("id is generated", func(t *testing.T) {
		resp, body, _ := postRaw[summaryResponse](t, url+"/api/face-match", "application/json", bytes.NewReader(payload))
		mustStatus(t, resp, http.StatusOK, body)
		generated := resp.Header.Get(RequestIDHeader)
		require.Len(t, generated, 36)
		require.Equal(t, generated, faceAPI.last(t).Headers.Get(RequestIDHeader))
	})
}

func TestUploadLimit(t *testing.T) {
	state := newTestState(newFakeVendor(t), newFakeVendor(t))
	srvURL := startTestServerWithConfig(t, state, ServerConfig{MaxUploadBytes: 64})

	resp, body, errResp := postJSON[models.ErrorResponse](t, srvURL+"/api/detect-face", map[string]string{"imageBase64": strings.Repeat("QUJD", 100)})
	mustStatus(t, resp, http.StatusBadRequest, body)
	require.Equal(t, ErrNoImage, errResp.Error)
}

func TestSwaggerDoc(t *testing.T) {
	url := startTestServer(t, newTestState(newFakeVendor(t), newFakeVendor(t)))

	resp, err := http.Get(url + "/swagger/doc.json")
	require.NoError(t, err)
	resp, body, doc := readResponse[map[string]any](t, resp)
	mustStatus(t, resp, http.StatusOK, body)
	require.Equal(t, "2.0", (*doc)["swagger"])
	require.Contains(t, (*doc)["paths"], "/api/documents/verify-identity")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writeFile(dir, "index.html", "<html>index</html>"))
	require.NoError(t, writeFile(dir, "app.js", "console.log(1)"))

	state := newTestState(newFakeVendor(t), newFakeVendor(t))
	state.staticPath = dir
	url := startTestServer(t, state)

	for path, expected := range map[string]string{
		"/app.js":         "console.log(1)",
		"/verify/session": "<html>index</html>",
	} {
		resp, err := http.Get(url + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, expected, string(body), path)
	}
}

func TestNewServerRequiresClients(t *testing.T) {
	_, err := NewServer(&ServerState{}, testConfig)
	require.Error(t, err)

	srv, err := NewServer(newTestState(newFakeVendor(t), newFakeVendor(t)), testConfig)
	require.NoError(t, err)
	require.Equal(t, "localhost:8081", srv.server.Addr)
}

package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go-docverify-gateway/images"
	"go-docverify-gateway/models"
)

type DocReaderConfig struct {
	BaseURL               string   `json:"base_url" yaml:"base_url"`
	ProcessEndpoint       string   `json:"process_endpoint" yaml:"process_endpoint"`
	FaceApiUrl            string   `json:"face_api_url" yaml:"face_api_url"`
	FaceApiMode           string   `json:"face_api_mode" yaml:"face_api_mode"`
	FaceApiThreshold      *float64 `json:"face_api_threshold" yaml:"face_api_threshold"`
	ApiKey                string   `json:"api_key" yaml:"api_key"`
	ApiKeyHeader          string   `json:"api_key_header" yaml:"api_key_header"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// DocumentReader submits document images to the document reader. Process
// returns the raw response body and the vendor's 2xx status.
type DocumentReader interface {
	Process(ctx context.Context, request models.DocRProcessRequest) ([]byte, int, error)
}

type RegulaDocReaderClient struct {
	vendorClient
	config DocReaderConfig
}

func NewRegulaDocReaderClient(config DocReaderConfig) *RegulaDocReaderClient {
	timeout := time.Duration(config.RequestTimeoutSeconds) * time.Second
	return &RegulaDocReaderClient{
		vendorClient: newVendorClient(config.BaseURL, config.ApiKey, config.ApiKeyHeader, timeout),
		config:       config,
	}
}

func (c *RegulaDocReaderClient) Process(ctx context.Context, request models.DocRProcessRequest) ([]byte, int, error) {
	slog.Debug("Submitting document to reader",
		"scenario", request.ProcessParam.Scenario,
		"images", len(request.List),
		"auth_params", request.ProcessParam.AuthParams != nil,
		"request_id", requestIDFromContext(ctx))
	return c.postJSON(ctx, "DocR process", c.endpointURL(c.config.ProcessEndpoint), request)
}

// processOptions controls the optional parts of a process payload.
type processOptions struct {
	scenario     string
	tag          string
	livePortrait string
	forceAuth    bool
}

// buildProcessRequest assembles the document reader payload. Authenticity
// parameters are sent when forceAuth is set. A live portrait turns on the
// reader's own face service comparison.
func buildProcessRequest(config DocReaderConfig, documentImages []models.DocumentImage, opts processOptions) models.DocRProcessRequest {
	request := models.DocRProcessRequest{
		ProcessParam: models.DocRProcessParam{Scenario: strings.TrimSpace(opts.scenario)},
		List:         make([]models.DocRImageEntry, 0, len(documentImages)),
		Tag:          opts.tag,
	}
	if request.ProcessParam.Scenario == "" {
		request.ProcessParam.Scenario = DefaultScenario
	}
	for _, image := range documentImages {
		request.List = append(request.List, models.DocRImageEntry{ImageData: models.DocRImageData{Image: images.CleanBase64(image.Base64)}})
	}

	if opts.forceAuth {
		request.ProcessParam.AuthParams = &models.DocRAuthParams{CheckLiveness: false}
	}

	if opts.livePortrait != "" {
		enabled, disabled := true, false
		request.LivePortrait = images.CleanBase64(opts.livePortrait)
		request.ProcessParam.UseFaceAPI = &enabled
		request.ProcessParam.CheckLiveness = &disabled
		request.ProcessParam.OneShotIdentification = &enabled
		if config.FaceApiUrl != "" {
			request.ProcessParam.FaceAPI = &models.DocRFaceAPI{
				URL:       config.FaceApiUrl,
				Mode:      config.FaceApiMode,
				Threshold: config.FaceApiThreshold,
			}
		}
	}
	return request
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go-docverify-gateway/face"
	"go-docverify-gateway/models"
)

type FaceAPIConfig struct {
	BaseURL               string  `json:"base_url" yaml:"base_url"`
	DetectEndpoint        string  `json:"detect_endpoint" yaml:"detect_endpoint"`
	MatchEndpoint         string  `json:"match_endpoint" yaml:"match_endpoint"`
	LivenessEndpoint      string  `json:"liveness_endpoint" yaml:"liveness_endpoint"`
	HealthEndpoint        string  `json:"health_endpoint" yaml:"health_endpoint"`
	ApiKey                string  `json:"api_key" yaml:"api_key"`
	ApiKeyHeader          string  `json:"api_key_header" yaml:"api_key_header"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	MatchThreshold        float64 `json:"match_threshold" yaml:"match_threshold"`
}

// FaceClient defines the face service operations. Every call returns the raw
// vendor body so handlers can pass it through next to their summary.
type FaceClient interface {
	DetectFaces(ctx context.Context, image string) ([]byte, error)
	DetectICAO(ctx context.Context, image string) ([]byte, error)
	MatchFaces(ctx context.Context, image1, image2 string) ([]byte, error)
	CheckLiveness(ctx context.Context, transactionID string) ([]byte, error)
	CheckLivenessFrames(ctx context.Context, frames []string) ([]byte, error)

	// HealthCheck verifies the Regula Face API service is available
	HealthCheck(ctx context.Context) error
}

// RegulaFaceClient implements FaceClient against the Regula Face API.
type RegulaFaceClient struct {
	vendorClient
	config FaceAPIConfig
}

func NewRegulaFaceClient(config FaceAPIConfig) *RegulaFaceClient {
	timeout := time.Duration(config.RequestTimeoutSeconds) * time.Second
	return &RegulaFaceClient{
		vendorClient: newVendorClient(config.BaseURL, config.ApiKey, config.ApiKeyHeader, timeout),
		config:       config,
	}
}

func (c *RegulaFaceClient) DetectFaces(ctx context.Context, image string) ([]byte, error) {
	payload := models.FaceDetectPayload{
		Tag: "detect-face",
		ProcessParam: models.FaceProcessParam{
			Attributes: models.ConfigNames(face.DetectAttributes),
		},
		Image: image,
	}
	body, _, err := c.postJSON(ctx, "Regula detect", c.endpointURL(c.config.DetectEndpoint), payload)
	return body, err
}

// DetectICAO runs the detect endpoint with the ICAO quality checks for the
// central face only.
func (c *RegulaFaceClient) DetectICAO(ctx context.Context, image string) ([]byte, error) {
	payload := models.FaceDetectPayload{
		Tag: "icao-detect",
		ProcessParam: models.FaceProcessParam{
			Quality:         models.ConfigNames(face.ICAOChecks),
			OnlyCentralFace: true,
		},
		Image: image,
	}
	body, _, err := c.postJSON(ctx, "Regula ICAO detect", c.endpointURL(c.config.DetectEndpoint), payload)
	return body, err
}

func (c *RegulaFaceClient) MatchFaces(ctx context.Context, image1, image2 string) ([]byte, error) {
	payload := models.FaceMatchPayload{
		Tag: "face-match",
		Images: []models.FaceMatchImage{
			{Index: 0, Type: 1, Data: image1},
			{Index: 1, Type: 1, Data: image2},
		},
	}
	body, _, err := c.postJSON(ctx, "Regula match", c.endpointURL(c.config.MatchEndpoint), payload)
	if err != nil {
		return nil, err
	}
	slog.Info("Face match completed", "request_id", requestIDFromContext(ctx))
	return body, nil
}

// CheckLiveness looks up the result of a liveness transaction.
func (c *RegulaFaceClient) CheckLiveness(ctx context.Context, transactionID string) ([]byte, error) {
	endpoint := c.endpointURL(c.config.LivenessEndpoint)
	separator := "?"
	if strings.Contains(endpoint, "?") {
		separator = "&"
	}
	target := endpoint + separator + "transactionId=" + url.QueryEscape(transactionID)
	body, _, err := c.get(ctx, "Regula liveness", target)
	return body, err
}

func (c *RegulaFaceClient) CheckLivenessFrames(ctx context.Context, frames []string) ([]byte, error) {
	payload := models.LivenessFramesPayload{Tag: "liveness", Frames: frames}
	body, _, err := c.postJSON(ctx, "Regula liveness frames", c.endpointURL(c.config.LivenessEndpoint), payload)
	return body, err
}

func (c *RegulaFaceClient) HealthCheck(ctx context.Context) error {
	if _, _, err := c.get(ctx, "Regula health", c.endpointURL(c.config.HealthEndpoint)); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	slog.Info("Regula Face API health check passed")
	return nil
}

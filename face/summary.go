// Package face reduces face service responses (detect, ICAO quality, match and
// liveness) to the few values the browser client shows.
package face

import (
	"log/slog"
	"strconv"

	"go-docverify-gateway/jsontree"
)

// DetectAttributes are requested from the detect endpoint.
var DetectAttributes = []string{"Age", "Sex", "Emotion", "Smile", "Mouth"}

// DetectDetails returns the attribute details of the first detection that
// has any, keyed by attribute name. Unparseable input gives an empty map.
func DetectDetails(data []byte) map[string]any {
	details := map[string]any{}
	root, err := jsontree.Parse(data)
	if err != nil {
		slog.Debug("Failed to parse detect response", "error", err)
		return details
	}

	detections, _ := root.Lookup("results", "detections")
	for _, detection := range detections.Items() {
		list, ok := detection.Lookup("attributes", "details")
		if !ok || !list.IsArray() {
			continue
		}
		for _, detail := range list.Items() {
			name, ok := detail.ReadString("name")
			if !ok || name == "" {
				continue
			}
			if value, ok := detail.Get("value"); ok {
				details[name] = value.Interface()
			}
		}
		return details
	}
	return details
}

type MatchSummary struct {
	Similarity *float64 `json:"similarity"`
	Score      *float64 `json:"score"`
}

// Match reads similarity and score from the first entry of results.
func Match(data []byte) MatchSummary {
	root, err := jsontree.Parse(data)
	if err != nil {
		slog.Debug("Failed to parse match response", "error", err)
		return MatchSummary{}
	}
	first, ok := root.Lookup("results", "0")
	if !ok {
		return MatchSummary{}
	}
	return MatchSummary{
		Similarity: findNumber(first, "similarity"),
		Score:      findNumber(first, "score"),
	}
}

type LivenessSummary struct {
	LivenessStatus *string  `json:"livenessStatus"`
	Score          *float64 `json:"score"`
}

// Liveness takes the first string under status, liveness or result, in that
// order of preference, and the first score. A numeric status code is used
// when no string status exists.
func Liveness(data []byte) LivenessSummary {
	root, err := jsontree.Parse(data)
	if err != nil {
		slog.Debug("Failed to parse liveness response", "error", err)
		return LivenessSummary{}
	}

	var summary LivenessSummary
	for _, key := range []string{"status", "liveness", "result"} {
		if s, ok := jsontree.FindString(root, key); ok {
			summary.LivenessStatus = &s
			break
		}
	}
	if summary.LivenessStatus == nil {
		if code := findNumber(root, "status"); code != nil {
			s := strconv.FormatFloat(*code, 'f', -1, 64)
			summary.LivenessStatus = &s
		}
	}
	summary.Score = findNumber(root, "score")
	return summary
}

func findNumber(root *jsontree.Value, key string) *float64 {
	if f, ok := jsontree.FindNumber(root, key); ok {
		return &f
	}
	return nil
}

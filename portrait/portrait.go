// Package portrait picks the most likely face image out of the base64 blobs
// embedded in a document reader response.
package portrait

import (
	"math"
	"strings"

	"go-docverify-gateway/jsontree"
)

const minBase64Length = 200

// PreferredKeys are member names that usually hold the portrait when the
// path score is inconclusive.
var PreferredKeys = []string{
	"portrait",
	"portraitimage",
	"portraitimagedata",
	"portraitimagebase64",
	"faceimage",
	"face",
	"image",
	"imagedata",
	"imagebase64",
}

// Candidate is a base64-shaped string found in the tree.
type Candidate struct {
	Path  string
	Value string
	Score float64
}

// IsProbablyBase64 reports whether s, once trimmed, is at least 200
// characters, a multiple of 4 long and only uses the standard base64
// alphabet.
func IsProbablyBase64(s string) bool {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < minBase64Length || len(trimmed)%4 != 0 {
		return false
	}
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '+' || c == '/' || c == '=':
		default:
			return false
		}
	}
	return true
}

// Score rates a candidate by its path and size.
func Score(path, value string) float64 {
	score := 0.0
	p := strings.ToLower(path)

	if strings.Contains(p, "portrait") || strings.Contains(p, "face") {
		score += 50
	}
	if strings.Contains(p, "mrz") || strings.Contains(p, "signature") {
		score -= 20
	}
	if strings.Contains(p, "logo") || strings.Contains(p, "emblem") || strings.Contains(p, "flag") {
		score -= 30
	}

	return score + math.Min(float64(len(value))/1000.0, 50)
}

// Candidates lists every base64-shaped member value in traversal order.
func Candidates(root *jsontree.Value) []Candidate {
	entries := jsontree.FindStrings(root, func(_, value string) bool {
		return IsProbablyBase64(value)
	})
	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		s, _ := e.Value.Str()
		out = append(out, Candidate{Path: e.Path, Value: s, Score: Score(e.Path, s)})
	}
	return out
}

// Best returns the highest scoring candidate. The first one seen wins a tie.
func Best(root *jsontree.Value) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, c := range Candidates(root) {
		if !found || c.Score > best.Score {
			best, found = c, true
		}
	}
	return best, found
}

// ByKey returns the first base64-shaped value stored under one of keys.
func ByKey(root *jsontree.Value, keys ...string) (string, bool) {
	var found string
	jsontree.Walk(root, func(e jsontree.Entry) bool {
		if !e.IsMember() {
			return true
		}
		match := false
		for _, k := range keys {
			if strings.EqualFold(e.Key, k) {
				match = true
				break
			}
		}
		if !match {
			return true
		}
		if s, ok := e.Value.Str(); ok && IsProbablyBase64(s) {
			found = s
			return false
		}
		return true
	})
	return found, found != ""
}

// First returns the first base64-shaped member value anywhere in the tree.
func First(root *jsontree.Value) (string, bool) {
	var found string
	jsontree.Walk(root, func(e jsontree.Entry) bool {
		if !e.IsMember() {
			return true
		}
		if s, ok := e.Value.Str(); ok && IsProbablyBase64(s) {
			found = s
			return false
		}
		return true
	})
	return found, found != ""
}

// Extract returns the portrait for root. A scored candidate is used when it
// rates above zero; otherwise the preferred keys are tried, then any
// base64-shaped string.
func Extract(root *jsontree.Value) (string, bool) {
	if best, ok := Best(root); ok && best.Score > 0 {
		return best.Value, true
	}
	if s, ok := ByKey(root, PreferredKeys...); ok {
		return s, true
	}
	return First(root)
}

// ExtractFromJSON parses data and calls Extract. Invalid JSON yields no
// portrait.
func ExtractFromJSON(data []byte) (string, bool) {
	root, err := jsontree.Parse(data)
	if err != nil {
		return "", false
	}
	return Extract(root)
}

// Package fraud evaluates a document reader response against a fixed list of
// authenticity checks. Every check is a pure function of the response tree.
package fraud

import (
	"log/slog"
	"strconv"
	"strings"

	"go-docverify-gateway/jsontree"
)

type Status string

const (
	StatusPass          Status = "pass"
	StatusFail          Status = "fail"
	StatusUnknown       Status = "unknown"
	StatusNotApplicable Status = "not_applicable"
)

type CheckResult struct {
	Name          string   `json:"name"`
	Status        Status   `json:"status"`
	Details       string   `json:"details"`
	EvidencePaths []string `json:"evidencePaths"`
}

type Summary struct {
	TransactionID string        `json:"transactionId,omitempty"`
	OverallStatus string        `json:"overallStatus,omitempty"`
	Checks        []CheckResult `json:"checks"`
	NotApplicable []string      `json:"notApplicable"`
}

// Rule is one named check.
type Rule struct {
	Name     string
	Evaluate func(root *jsontree.Value) CheckResult
}

// Rules run in this order and never depend on each other.
var Rules = []Rule{
	{CheckDocumentType, evaluateDocumentType},
	{CheckImageQuality, evaluateImageQuality},
	{CheckDocumentLiveness, evaluateDocumentLiveness},
	{CheckHologram, evaluateHologram},
	{CheckMRZ, evaluateMRZ},
	{CheckBarcode, evaluateBarcode},
	{CheckVisualOCR, evaluateVisualOCR},
	{CheckPhotoEmbedding, evaluatePhotoEmbedding},
	{CheckPortraitCrossCheck, evaluatePortraitCrossCheck},
	{CheckSecurityPattern, evaluateSecurityPattern},
	{CheckIPI, evaluateIPI},
	{CheckEncryptedIPI, evaluateEncryptedIPI},
	{CheckUVIR, evaluateUVIR},
	{CheckExtendedMRZOCR, evaluateExtendedMRZOCR},
	{CheckAxialProtection, evaluateAxialProtection},
	{CheckGeometry, evaluateGeometry},
	{CheckDataCrossValidation, evaluateDataCrossValidation},
}

const CheckParsing = "Parsing"

var transactionIDKeys = []string{"transactionId", "transactionID", "id"}

var genericStatusKeys = []string{"status", "overallStatus", "result", "ResultStatus"}

// BuildSummary parses a raw response and evaluates every rule. A response that
// cannot be parsed yields a single Parsing check with unknown status.
func BuildSummary(data []byte) Summary {
	root, err := jsontree.Parse(data)
	if err != nil {
		slog.Warn("Failed to parse document reader response for fraud summary", "error", err, "size", len(data))
		return Summary{
			Checks: []CheckResult{{
				Name:          CheckParsing,
				Status:        StatusUnknown,
				Details:       "Unable to parse DocR response.",
				EvidencePaths: []string{},
			}},
			NotApplicable: []string{},
		}
	}
	return Evaluate(root)
}

// Evaluate runs every rule over an already parsed response.
func Evaluate(root *jsontree.Value) Summary {
	summary := Summary{
		Checks:        make([]CheckResult, 0, len(Rules)),
		NotApplicable: []string{},
	}
	summary.TransactionID, _ = jsontree.FindString(root, transactionIDKeys...)
	summary.OverallStatus = OverallStatus(root)

	for _, rule := range Rules {
		result := rule.Evaluate(root)
		summary.Checks = append(summary.Checks, result)
		if result.Status == StatusNotApplicable {
			summary.NotApplicable = append(summary.NotApplicable, result.Name)
		}
	}

	slog.Debug("Fraud summary built",
		"transaction_id", summary.TransactionID,
		"overall_status", summary.OverallStatus,
		"not_applicable", len(summary.NotApplicable))
	return summary
}

// OverallStatus prefers the authenticity validity verdict. Without any
// authenticity element it falls back to Status.overallStatus and then to the
// first generic status string in the response.
func OverallStatus(root *jsontree.Value) string {
	if v := CollectValidity(root); v.Found() {
		return v.OverallStatus()
	}
	if status, ok := jsontree.FindObject(root, "Status"); ok {
		if overall, ok := status.ReadInt("overallStatus"); ok {
			return strconv.Itoa(overall)
		}
	}
	s, _ := jsontree.FindString(root, genericStatusKeys...)
	return s
}

func notApplicable(name, details string) CheckResult {
	return CheckResult{
		Name:          name,
		Status:        StatusNotApplicable,
		Details:       details,
		EvidencePaths: []string{},
	}
}

// triState maps the vendor's 1/0/other flags.
func triState(v int) Status {
	switch v {
	case 1:
		return StatusPass
	case 0:
		return StatusFail
	default:
		return StatusUnknown
	}
}

func optInt(v int, ok bool, missing string) string {
	if !ok {
		return missing
	}
	return strconv.Itoa(v)
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func fieldName(field *jsontree.Value, key string) string {
	if name, ok := field.ReadString(key); ok {
		return name
	}
	return "Field"
}

func hasNamedField(section *jsontree.Value, listKey, nameKey, want string) bool {
	list, ok := section.Get(listKey)
	if !ok {
		return false
	}
	for _, field := range list.Items() {
		if name, ok := field.ReadString(nameKey); ok && strings.EqualFold(name, want) {
			return true
		}
	}
	return false
}

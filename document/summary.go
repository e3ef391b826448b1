package document

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go-docverify-gateway/fraud"
	"go-docverify-gateway/jsontree"
	"go-docverify-gateway/position"
)

var ErrUnparseableResponse = errors.New("unable to parse document reader response")

var (
	transactionIDKeys = []string{"transactionId", "transactionID", "id"}
	genericStatusKeys = []string{"status", "overallStatus", "result", "ResultStatus"}
)

// Summary is the simplified view of one document reader process response.
type Summary struct {
	TransactionID    string         `json:"transactionId,omitempty"`
	OverallStatus    string         `json:"overallStatus,omitempty"`
	DocumentType     string         `json:"documentType,omitempty"`
	DocumentNumber   string         `json:"documentNumber,omitempty"`
	FullName         string         `json:"fullName,omitempty"`
	DateOfBirth      string         `json:"dateOfBirth,omitempty"`
	ExpiryDate       string         `json:"expiryDate,omitempty"`
	Validity         fraud.Validity `json:"validity"`
	DocumentPosition *position.Info `json:"documentPosition"`
}

// BuildSummary parses a raw process response. The only error it returns wraps
// ErrUnparseableResponse.
func BuildSummary(data []byte) (*Summary, error) {
	root, err := jsontree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableResponse, err)
	}
	return Summarize(root), nil
}

// Summarize builds a Summary from an already parsed response.
func Summarize(root *jsontree.Value) *Summary {
	fields := VisualFields(root)

	summary := &Summary{
		DocumentType:     fields.Get(DocumentTypeAliases...),
		DocumentNumber:   fields.Get(DocumentNumberAliases...),
		FullName:         fields.FullName(),
		DateOfBirth:      fields.Get(DateOfBirthAliases...),
		ExpiryDate:       fields.Get(ExpiryDateAliases...),
		Validity:         fraud.CollectValidity(root),
		DocumentPosition: position.FromTree(root),
	}
	summary.TransactionID, _ = jsontree.FindString(root, transactionIDKeys...)

	if summary.missingFields() {
		if mrzText := MRZText(root, fields); mrzText != "" {
			if err := summary.backfillFromMRZ(mrzText); err != nil {
				slog.Debug("MRZ backfill skipped", "error", err)
			}
		}
	}

	if summary.Validity.Found() {
		summary.OverallStatus = summary.Validity.OverallStatus()
	} else {
		summary.OverallStatus, _ = jsontree.FindString(root, genericStatusKeys...)
	}

	slog.Debug("Document summary built",
		"transaction_id", summary.TransactionID,
		"overall_status", summary.OverallStatus,
		"visual_fields", len(fields),
		"has_position", summary.DocumentPosition != nil)
	return summary
}

func (s *Summary) missingFields() bool {
	return s.DocumentType == "" || s.DocumentNumber == "" || s.FullName == "" || s.DateOfBirth == "" || s.ExpiryDate == ""
}

func (s *Summary) backfillFromMRZ(text string) error {
	m, err := DecodeMRZ(text)
	if err != nil {
		return err
	}

	if s.DocumentType == "" {
		s.DocumentType = m.DocumentCode
	}
	if s.DocumentNumber == "" {
		s.DocumentNumber = strings.TrimRight(m.DocumentNumber, "<")
	}
	if s.FullName == "" && m.NameOfHolder != nil {
		s.FullName = strings.TrimSpace(m.NameOfHolder.Primary + " " + m.NameOfHolder.Secondary)
	}
	if s.DateOfBirth == "" {
		if dob, err := ParseDateOfBirth(m.DateOfBirth); err == nil {
			s.DateOfBirth = dob.Format(DateLayout)
		}
	}
	if s.ExpiryDate == "" {
		if doe, err := ParseExpiryDate(m.DateOfExpiry); err == nil {
			s.ExpiryDate = doe.Format(DateLayout)
		}
	}
	return nil
}

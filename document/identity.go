package document

import (
	"fmt"
	"log/slog"
	"strings"

	"go-docverify-gateway/images"
	"go-docverify-gateway/jsontree"
	"go-docverify-gateway/portrait"
)

// IdentityInfo is the identity record extracted from one processed document.
type IdentityInfo struct {
	Name                string `json:"name,omitempty"`
	Surname             string `json:"surname,omitempty"`
	DocumentNumber      string `json:"documentNumber,omitempty"`
	DateOfBirth         string `json:"dateOfBirth,omitempty"`
	Gender              string `json:"gender,omitempty"`
	MRZText             string `json:"mrzText,omitempty"`
	PortraitImageBase64 string `json:"portraitImageBase64,omitempty"`
	RawResponseJSON     string `json:"rawResponseJson,omitempty"`
}

var mrzTextKeys = []string{"mrz", "mrzText", "mrzString", "rawMRZ", "mrzRaw", "mrzTextRaw"}

// ExtractIdentity parses a process response into an IdentityInfo. Fields the
// visual zone does not provide are taken from the decoded MRZ when possible.
func ExtractIdentity(data []byte) (*IdentityInfo, error) {
	root, err := jsontree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableResponse, err)
	}

	fields := VisualFields(root)
	info := &IdentityInfo{
		Name:            fields.Get(IdentityNameAliases...),
		Surname:         fields.Get(SurnameAliases...),
		DocumentNumber:  fields.Get(IdentityDocumentNumberAliases...),
		DateOfBirth:     fields.Get(DateOfBirthAliases...),
		Gender:          fields.Get(SexAliases...),
		MRZText:         MRZText(root, fields),
		RawResponseJSON: string(data),
	}

	if info.MRZText != "" && info.missingFields() {
		if err := info.backfillFromMRZ(); err != nil {
			slog.Debug("MRZ backfill skipped", "error", err)
		}
	}

	if p, ok := portrait.Extract(root); ok {
		info.PortraitImageBase64 = BrowserSafePortrait(p)
	}

	slog.Debug("Identity extracted",
		"has_name", info.Name != "",
		"has_document_number", info.DocumentNumber != "",
		"has_mrz", info.MRZText != "",
		"has_portrait", info.PortraitImageBase64 != "")
	return info, nil
}

// MRZText returns the raw MRZ string. Direct MRZ keys are tried first, then
// the text of an MRZ object, then the visual "MRZ Strings" field.
func MRZText(root *jsontree.Value, fields Fields) string {
	if s, ok := jsontree.FindString(root, mrzTextKeys...); ok {
		return s
	}
	if node, ok := jsontree.FindObject(root, "MRZ"); ok {
		if s, ok := jsontree.FindString(node, "Text", "Raw", "Value"); ok {
			return s
		}
	}
	return fields.Get("MRZ Strings")
}

func (i *IdentityInfo) missingFields() bool {
	return i.Name == "" || i.Surname == "" || i.DocumentNumber == "" || i.DateOfBirth == "" || i.Gender == ""
}

func (i *IdentityInfo) backfillFromMRZ() error {
	m, err := DecodeMRZ(i.MRZText)
	if err != nil {
		return err
	}

	if m.NameOfHolder != nil {
		if i.Surname == "" {
			i.Surname = m.NameOfHolder.Primary
		}
		if i.Name == "" {
			i.Name = m.NameOfHolder.Secondary
		}
	}
	if i.DocumentNumber == "" {
		i.DocumentNumber = strings.TrimRight(m.DocumentNumber, "<")
	}
	if i.DateOfBirth == "" {
		if dob, err := ParseDateOfBirth(m.DateOfBirth); err == nil {
			i.DateOfBirth = dob.Format(DateLayout)
		}
	}
	if i.Gender == "" {
		i.Gender = normalizeSex(m.Sex)
	}
	return nil
}

// BrowserSafePortrait re-encodes JPEG2000 portraits. Anything that cannot be
// decoded is returned cleaned as it was found.
func BrowserSafePortrait(value string) string {
	converted, err := images.ToBrowserSafe(value)
	if err != nil {
		slog.Debug("Portrait kept as found", "error", err)
		return images.CleanBase64(value)
	}
	return converted
}

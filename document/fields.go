// Package document extracts identity data from document reader responses and
// compares two extracted documents.
package document

import (
	"strings"

	"go-docverify-gateway/jsontree"
)

// Field name aliases, tried in order. The first alias holding a non-blank
// value wins.
var (
	SurnameAliases        = []string{"Surname", "Last Name", "Family Name"}
	GivenNamesAliases     = []string{"Given Names", "Given Name", "First Name"}
	FullNameAliases       = []string{"Name", "Full Name"}
	DocumentNumberAliases = []string{"Document Number", "Document No.", "Doc Number", "DocumentNo", "Document ID"}
	DocumentTypeAliases   = []string{"Document Class Code", "Document Type", "Document Type Code", "Document Class"}
	DateOfBirthAliases    = []string{"Date of Birth", "Birth Date", "DOB"}
	ExpiryDateAliases     = []string{"Date of Expiry", "Date of Expiration", "Expiry Date", "Expiration Date"}
	SexAliases            = []string{"Sex", "Gender"}

	// Identity extraction accepts passport and national ID specific labels
	// for the document number, and falls back to the full name for the
	// given name.
	IdentityNameAliases           = []string{"Given Names", "Given Name", "First Name", "Name", "Full Name"}
	IdentityDocumentNumberAliases = []string{"Document Number", "Document No.", "Doc Number", "Passport Number", "Passport No.", "ID Number", "Identity Number"}
)

// Fields maps visual field names, compared case-insensitively, to their
// trimmed text.
type Fields map[string]string

// VisualFields collects ContainerList.List[].DocVisualExtendedInfo.pArrayFields
// into a Fields map. Later containers overwrite earlier ones.
func VisualFields(root *jsontree.Value) Fields {
	fields := Fields{}
	containers, _ := root.Lookup("ContainerList", "List")
	for _, container := range containers.Items() {
		list, ok := container.Lookup("DocVisualExtendedInfo", "pArrayFields")
		if !ok {
			continue
		}
		for _, field := range list.Items() {
			name, ok := field.ReadString("FieldName")
			if !ok || strings.TrimSpace(name) == "" {
				continue
			}
			value, _ := field.ReadString("Buf_Text")
			if strings.TrimSpace(value) == "" {
				continue
			}
			fields[strings.ToLower(name)] = strings.TrimSpace(value)
		}
	}
	return fields
}

// Get returns the value of the first alias that is present and not blank.
func (f Fields) Get(aliases ...string) string {
	for _, alias := range aliases {
		if v := f[strings.ToLower(alias)]; strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FullName joins surname and given names when both resolve.
func (f Fields) FullName() string {
	surname, given := f.Get(SurnameAliases...), f.Get(GivenNamesAliases...)
	if surname != "" && given != "" {
		return strings.TrimSpace(surname + " " + given)
	}
	return f.Get(FullNameAliases...)
}

package document

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"go-docverify-gateway/face"
)

// DefaultFaceMatchThreshold applies when the document reader configuration
// does not set one.
const DefaultFaceMatchThreshold = 0.85

// ComparisonResult describes two documents checked against each other.
type ComparisonResult struct {
	FirstDocument         *IdentityInfo `json:"firstDocument"`
	SecondDocument        *IdentityInfo `json:"secondDocument"`
	FaceMatchScore        *float64      `json:"faceMatchScore"`
	FaceMatchScorePercent *float64      `json:"faceMatchScorePercent"`
	IsFaceMatch           bool          `json:"isFaceMatch"`
	IsDocumentNumberMatch bool          `json:"isDocumentNumberMatch"`
	IsNameMatch           bool          `json:"isNameMatch"`
	IsDobMatch            bool          `json:"isDobMatch"`
	FaceMatchThreshold    float64       `json:"faceMatchThreshold"`
}

// Compare combines the face similarity reported for the two portraits with
// the field comparisons. Each flag is computed on its own.
func Compare(first, second *IdentityInfo, similarity *float64, threshold float64) ComparisonResult {
	if threshold <= 0 {
		threshold = DefaultFaceMatchThreshold
	}
	score := face.NormalizeSimilarityScore(similarity)
	return ComparisonResult{
		FirstDocument:         first,
		SecondDocument:        second,
		FaceMatchScore:        score,
		FaceMatchScorePercent: face.NormalizeSimilarityPercent(similarity),
		IsFaceMatch:           score != nil && *score >= threshold,
		IsDocumentNumberMatch: CompareNormalized(first.DocumentNumber, second.DocumentNumber),
		IsNameMatch:           CompareNames(first, second),
		IsDobMatch:            CompareDates(first.DateOfBirth, second.DateOfBirth),
		FaceMatchThreshold:    threshold,
	}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeValue upper-cases value, folds diacritics and keeps only letters
// and digits, so "Müller-Lüdenscheidt" and "MULLER LUDENSCHEIDT" compare equal.
func NormalizeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, value)
	if err != nil {
		folded = value
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(folded)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeDate keeps only the digits of a date.
func NormalizeDate(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CompareNormalized is false when either side is blank.
func CompareNormalized(left, right string) bool {
	l, r := NormalizeValue(left), NormalizeValue(right)
	return l != "" && r != "" && l == r
}

// CompareNames compares given name and surname separately when all four are
// known, otherwise the concatenated names.
func CompareNames(first, second *IdentityInfo) bool {
	leftName, rightName := NormalizeValue(first.Name), NormalizeValue(second.Name)
	leftSurname, rightSurname := NormalizeValue(first.Surname), NormalizeValue(second.Surname)

	if leftName != "" && rightName != "" && leftSurname != "" && rightSurname != "" {
		return leftName == rightName && leftSurname == rightSurname
	}

	fullLeft := NormalizeValue(first.Name + " " + first.Surname)
	fullRight := NormalizeValue(second.Name + " " + second.Surname)
	return fullLeft != "" && fullRight != "" && fullLeft == fullRight
}

func CompareDates(left, right string) bool {
	l, r := NormalizeDate(left), NormalizeDate(right)
	return l != "" && r != "" && l == r
}

package fraud

import (
	"fmt"
	"strconv"
	"strings"

	"go-docverify-gateway/jsontree"
)

const (
	CheckDocumentType        = "Document Type Identification"
	CheckImageQuality        = "Image Quality Assessment"
	CheckDocumentLiveness    = "Document Liveness Check"
	CheckHologram            = "Hologram / OVI / MLI / Dynaprint Check"
	CheckMRZ                 = "MRZ (Machine Readable Zone) Check"
	CheckBarcode             = "Barcode & QR Code Check"
	CheckVisualOCR           = "Visual Zone OCR Validation"
	CheckPhotoEmbedding      = "Photo Embedding Check"
	CheckPortraitCrossCheck  = "Portrait / Face Cross-Check"
	CheckSecurityPattern     = "Security Pattern / Image Pattern Check"
	CheckIPI                 = "IPI (Invisible Personal Information) Check"
	CheckEncryptedIPI        = "Encrypted IPI Check"
	CheckUVIR                = "UV / IR Security Checks"
	CheckExtendedMRZOCR      = "Extended MRZ & Extended OCR"
	CheckAxialProtection     = "Axial Protection Check"
	CheckGeometry            = "Geometry Check"
	CheckDataCrossValidation = "Data Cross-Validation"
)

const (
	pathOneCandidate     = "ContainerList.List[].OneCandidate"
	pathQualityList      = "ContainerList.List[].ImageQualityCheckList"
	pathQualityItems     = "ContainerList.List[].ImageQualityCheckList.List"
	pathIntegrity        = "ContainerList.List[].Status.captureProcessIntegrity"
	pathAuthenticity     = "ContainerList.List[].AuthenticityCheckList"
	pathAuthElements     = "ContainerList.List[].AuthenticityCheckList.List[].List[]"
	pathMRZQuality       = "ContainerList.List[].MRZTestQuality"
	pathMRZStrings       = "ContainerList.List[].Text.fieldList[MRZ Strings]"
	pathBarcode          = "ContainerList.List[].DocBarCodeInfo"
	pathTextFields       = "ContainerList.List[].Text.fieldList"
	pathTextComparison   = "ContainerList.List[].Text.comparisonStatus"
	pathImageFields      = "ContainerList.List[].Images.fieldList"
	pathGraphicsFields   = "ContainerList.List[].DocGraphicsInfo.pArrayFields"
	pathFaceAPI          = "ContainerList.List[].faceApi"
	pathRFID             = "ContainerList.List[].RFID"
	pathOpticalSecurity  = "ContainerList.List[].Status.detailsOptical.security"
	pathIPI              = "ContainerList.List[].IPI"
	pathEncryptedIPI     = "ContainerList.List[].EncryptedIpi"
	pathUV               = "ContainerList.List[].UV"
	pathIR               = "ContainerList.List[].IR"
	pathAxialProtection  = "ContainerList.List[].AxialProtection"
	pathDocumentPosition = "ContainerList.List[].DocumentPosition"
)

func evaluateDocumentType(root *jsontree.Value) CheckResult {
	node, ok := jsontree.FindObject(root, "OneCandidate")
	if !ok {
		return notApplicable(CheckDocumentType, "No OneCandidate section in response.")
	}

	name, hasName := node.ReadString("DocumentName")
	count, hasCount := node.ReadInt("FDSIDList", "Count")
	icao, hasICAO := node.ReadString("FDSIDList", "ICAOCode")

	result := CheckResult{
		Name:          CheckDocumentType,
		Status:        StatusFail,
		Details:       "No document template match in the response.",
		EvidencePaths: []string{pathOneCandidate},
	}
	if (hasName && strings.TrimSpace(name) != "") || (hasCount && count > 0) {
		if !hasName {
			name = "unknown"
		}
		if !hasICAO {
			icao = "n/a"
		}
		result.Status = StatusPass
		result.Details = fmt.Sprintf("Matched template: %s (ICAO %s).", name, icao)
	}
	return result
}

func evaluateImageQuality(root *jsontree.Value) CheckResult {
	node, ok := jsontree.FindObject(root, "ImageQualityCheckList")
	if !ok {
		return notApplicable(CheckImageQuality, "No ImageQualityCheckList section in response.")
	}

	var failed []string
	passed := 0
	list, _ := node.Get("List")
	for _, item := range list.Items() {
		result, hasResult := item.ReadInt("result")
		if !hasResult {
			continue
		}
		switch result {
		case 0:
			typ, hasType := item.ReadInt("type")
			probability, hasProbability := item.ReadInt("probability")
			failed = append(failed, fmt.Sprintf("type=%s, probability=%s",
				optInt(typ, hasType, "?"), optInt(probability, hasProbability, "?")))
		case 1:
			passed++
		}
	}

	if len(failed) > 0 {
		return CheckResult{
			Name:          CheckImageQuality,
			Status:        StatusFail,
			Details:       fmt.Sprintf("Quality checks failed (%d). Examples: %s.", len(failed), strings.Join(firstN(failed, 3), "; ")),
			EvidencePaths: []string{pathQualityItems},
		}
	}
	if passed > 0 {
		return CheckResult{
			Name:          CheckImageQuality,
			Status:        StatusPass,
			Details:       "All reported quality checks passed.",
			EvidencePaths: []string{pathQualityList},
		}
	}
	return CheckResult{
		Name:          CheckImageQuality,
		Status:        StatusUnknown,
		Details:       "Quality checks present but status could not be confirmed.",
		EvidencePaths: []string{pathQualityList},
	}
}

func evaluateDocumentLiveness(root *jsontree.Value) CheckResult {
	status, ok := jsontree.FindObject(root, "Status")
	if !ok {
		return notApplicable(CheckDocumentLiveness, "No Status section in response.")
	}
	integrity, ok := status.ReadInt("captureProcessIntegrity")
	if !ok {
		return notApplicable(CheckDocumentLiveness, "captureProcessIntegrity not provided.")
	}
	return CheckResult{
		Name:          CheckDocumentLiveness,
		Status:        triState(integrity),
		Details:       fmt.Sprintf("captureProcessIntegrity=%d.", integrity),
		EvidencePaths: []string{pathIntegrity},
	}
}

// AuthenticityElement is one entry of AuthenticityCheckList.List[].List[].
type AuthenticityElement struct {
	Type, ElementType, Diagnose, Result *int
}

func (e AuthenticityElement) String() string {
	return fmt.Sprintf("Type=%s, Element=%s, Diagnose=%s, Result=%s",
		ptrInt(e.Type), ptrInt(e.ElementType), ptrInt(e.Diagnose), ptrInt(e.Result))
}

func ptrInt(p *int) string {
	if p == nil {
		return "?"
	}
	return strconv.Itoa(*p)
}

func readIntPtr(v *jsontree.Value, key string) *int {
	if n, ok := v.ReadInt(key); ok {
		return &n
	}
	return nil
}

// AuthenticityElements flattens the two-level element lists of an
// AuthenticityCheckList section.
func AuthenticityElements(section *jsontree.Value) []AuthenticityElement {
	var out []AuthenticityElement
	groups, _ := section.Get("List")
	for _, group := range groups.Items() {
		elements, _ := group.Get("List")
		for _, element := range elements.Items() {
			out = append(out, AuthenticityElement{
				Type:        readIntPtr(element, "Type"),
				ElementType: readIntPtr(element, "ElementType"),
				Diagnose:    readIntPtr(element, "ElementDiagnose"),
				Result:      readIntPtr(element, "ElementResult"),
			})
		}
	}
	return out
}

func evaluateHologram(root *jsontree.Value) CheckResult {
	node, ok := jsontree.FindObject(root, "AuthenticityCheckList")
	if !ok {
		return notApplicable(CheckHologram, "No AuthenticityCheckList section in response.")
	}

	elements := AuthenticityElements(node)
	if len(elements) == 0 {
		return CheckResult{
			Name:          CheckHologram,
			Status:        StatusUnknown,
			Details:       "Authenticity check list present but no elements found.",
			EvidencePaths: []string{pathAuthenticity},
		}
	}

	var failed []string
	passed := 0
	for _, e := range elements {
		if e.Result == nil {
			continue
		}
		switch *e.Result {
		case 0:
			failed = append(failed, e.String())
		case 1:
			passed++
		}
	}

	result := CheckResult{Name: CheckHologram, EvidencePaths: []string{pathAuthElements}}
	switch {
	case len(failed) > 0:
		result.Status = StatusFail
		result.Details = fmt.Sprintf("Authenticity elements failed: %s.", strings.Join(firstN(failed, 3), "; "))
	case passed > 0:
		result.Status = StatusPass
		result.Details = fmt.Sprintf("Authenticity elements passed (%d).", passed)
	default:
		result.Status = StatusUnknown
		result.Details = "Authenticity elements present but status could not be determined."
	}
	return result
}

// textFieldList returns Text.fieldList, or the not-applicable explanation
// when either level is missing.
func textFieldList(root *jsontree.Value) (*jsontree.Value, []*jsontree.Value, string) {
	text, ok := jsontree.FindObject(root, "Text")
	if !ok {
		return nil, nil, "No Text section in response."
	}
	list, ok := text.Get("fieldList")
	if !ok || !list.IsArray() {
		return text, nil, "No fieldList in Text section."
	}
	return text, list.Items(), ""
}

func evaluateMRZ(root *jsontree.Value) CheckResult {
	quality, hasQuality := jsontree.FindObject(root, "MRZTestQuality")

	var mrzField *jsontree.Value
	if _, fields, missing := textFieldList(root); missing == "" {
		for _, field := range fields {
			if name, ok := field.ReadString("fieldName"); ok && strings.EqualFold(name, "MRZ Strings") {
				mrzField = field
				break
			}
		}
	}

	if !hasQuality && mrzField == nil {
		return notApplicable(CheckMRZ, "No MRZTestQuality or MRZ Strings data.")
	}

	var reasons []string
	if checksum, ok := quality.ReadInt("CHECK_SUMS"); ok && checksum == 0 {
		reasons = append(reasons, "MRZ checksum failed")
	}
	if validity, ok := mrzField.ReadInt("validityStatus"); ok && validity == 0 {
		reasons = append(reasons, "MRZ text validity failed")
	}

	result := CheckResult{
		Name:          CheckMRZ,
		Status:        StatusPass,
		Details:       "MRZ checksum and MRZ text validity passed.",
		EvidencePaths: []string{pathMRZQuality, pathMRZStrings},
	}
	if len(reasons) > 0 {
		result.Status = StatusFail
		result.Details = strings.Join(reasons, "; ")
	}
	return result
}

func evaluateBarcode(root *jsontree.Value) CheckResult {
	node, ok := jsontree.FindObject(root, "DocBarCodeInfo")
	if !ok {
		return notApplicable(CheckBarcode, "No DocBarCodeInfo section in response.")
	}

	code, hasCode := node.ReadInt("pArrayFields", "0", "bcCodeResult")
	decodeType, hasType := node.ReadInt("pArrayFields", "0", "bcType_DECODE")

	if hasCode && code > 0 {
		return CheckResult{
			Name:          CheckBarcode,
			Status:        StatusPass,
			Details:       fmt.Sprintf("Barcode decoded (bcCodeResult=%d, type=%s).", code, optInt(decodeType, hasType, "?")),
			EvidencePaths: []string{pathBarcode},
		}
	}
	return CheckResult{
		Name:          CheckBarcode,
		Status:        StatusFail,
		Details:       "Barcode present but decoding failed or returned no data.",
		EvidencePaths: []string{pathBarcode},
	}
}

func hasSource(field *jsontree.Value, source string) bool {
	values, _ := field.Get("valueList")
	for _, item := range values.Items() {
		if s, ok := item.ReadString("source"); ok && strings.EqualFold(s, source) {
			return true
		}
	}
	return false
}

func evaluateVisualOCR(root *jsontree.Value) CheckResult {
	_, fields, missing := textFieldList(root)
	if missing != "" {
		return notApplicable(CheckVisualOCR, missing)
	}

	visual := 0
	var failed []string
	for _, field := range fields {
		if !hasSource(field, "VISUAL") {
			continue
		}
		visual++
		if validity, ok := field.ReadInt("validityStatus"); ok && validity == 0 {
			failed = append(failed, fieldName(field, "fieldName"))
		}
	}

	if visual == 0 {
		return notApplicable(CheckVisualOCR, "No visual OCR fields found.")
	}
	if len(failed) > 0 {
		return CheckResult{
			Name:   CheckVisualOCR,
			Status: StatusFail,
			Details: fmt.Sprintf("Visual OCR validity failed for %d field(s): %s.",
				len(failed), strings.Join(firstN(failed, 5), ", ")),
			EvidencePaths: []string{pathTextFields},
		}
	}
	return CheckResult{
		Name:          CheckVisualOCR,
		Status:        StatusPass,
		Details:       "Visual OCR fields validated successfully.",
		EvidencePaths: []string{pathTextFields},
	}
}

func evaluatePhotoEmbedding(root *jsontree.Value) CheckResult {
	imagesNode, hasImages := jsontree.FindObject(root, "Images")
	graphics, hasGraphics := jsontree.FindObject(root, "DocGraphicsInfo")
	if !hasImages && !hasGraphics {
		return notApplicable(CheckPhotoEmbedding, "No Images or DocGraphicsInfo sections in response.")
	}

	hasPortrait := hasNamedField(imagesNode, "fieldList", "fieldName", "Portrait") ||
		hasNamedField(graphics, "pArrayFields", "FieldName", "Portrait")
	hasGhost := hasNamedField(imagesNode, "fieldList", "fieldName", "Ghost portrait")

	result := CheckResult{
		Name:          CheckPhotoEmbedding,
		Status:        StatusFail,
		Details:       "No portrait image found in visual graphics.",
		EvidencePaths: []string{pathImageFields, pathGraphicsFields},
	}
	if hasPortrait {
		result.Status = StatusPass
		result.Details = fmt.Sprintf("Portrait image present. Ghost portrait present: %t.", hasGhost)
	}
	return result
}

func evaluatePortraitCrossCheck(root *jsontree.Value) CheckResult {
	_, hasFaceAPI := jsontree.FindObject(root, "faceApi")
	_, hasRFID := jsontree.FindObject(root, "RFID")
	if !hasFaceAPI && !hasRFID {
		return notApplicable(CheckPortraitCrossCheck, "No face API or RFID portrait data in response.")
	}
	return CheckResult{
		Name:          CheckPortraitCrossCheck,
		Status:        StatusUnknown,
		Details:       "Face comparison data present but mapping is not implemented yet.",
		EvidencePaths: []string{pathFaceAPI, pathRFID},
	}
}

func evaluateSecurityPattern(root *jsontree.Value) CheckResult {
	status, ok := jsontree.FindObject(root, "Status")
	if !ok {
		return notApplicable(CheckSecurityPattern, "No Status section in response.")
	}
	security, ok := status.ReadInt("detailsOptical", "security")
	if !ok {
		return notApplicable(CheckSecurityPattern, "No security status in detailsOptical.")
	}
	return CheckResult{
		Name:          CheckSecurityPattern,
		Status:        triState(security),
		Details:       fmt.Sprintf("detailsOptical.security=%d.", security),
		EvidencePaths: []string{pathOpticalSecurity},
	}
}

// The following checks only report whether the vendor sent the section.
// Their contents are not interpreted yet.

func evaluateIPI(root *jsontree.Value) CheckResult {
	if _, ok := jsontree.FindObject(root, "IPI"); !ok {
		return notApplicable(CheckIPI, "No IPI data in response.")
	}
	return CheckResult{
		Name:          CheckIPI,
		Status:        StatusUnknown,
		Details:       "IPI data present but parsing is not implemented.",
		EvidencePaths: []string{pathIPI},
	}
}

func evaluateEncryptedIPI(root *jsontree.Value) CheckResult {
	if _, ok := jsontree.FindObject(root, "EncryptedIpi"); !ok {
		return notApplicable(CheckEncryptedIPI, "No Encrypted IPI data in response.")
	}
	return CheckResult{
		Name:          CheckEncryptedIPI,
		Status:        StatusUnknown,
		Details:       "Encrypted IPI data present but parsing is not implemented.",
		EvidencePaths: []string{pathEncryptedIPI},
	}
}

func evaluateUVIR(root *jsontree.Value) CheckResult {
	_, hasUV := jsontree.FindObject(root, "UV")
	_, hasIR := jsontree.FindObject(root, "IR")
	if !hasUV && !hasIR {
		return notApplicable(CheckUVIR, "No UV/IR data in response.")
	}
	return CheckResult{
		Name:          CheckUVIR,
		Status:        StatusUnknown,
		Details:       "UV/IR data present but parsing is not implemented.",
		EvidencePaths: []string{pathUV, pathIR},
	}
}

func evaluateAxialProtection(root *jsontree.Value) CheckResult {
	if _, ok := jsontree.FindObject(root, "AxialProtection"); !ok {
		return notApplicable(CheckAxialProtection, "No axial protection data in response.")
	}
	return CheckResult{
		Name:          CheckAxialProtection,
		Status:        StatusUnknown,
		Details:       "Axial protection data present but parsing is not implemented.",
		EvidencePaths: []string{pathAxialProtection},
	}
}

// comparisonMismatches lists the fields whose comparisonStatus is set and
// not 1, and reports whether Text.comparisonStatus confirms the comparison.
func comparisonMismatches(text *jsontree.Value, fields []*jsontree.Value) ([]string, bool) {
	var mismatches []string
	for _, field := range fields {
		if status, ok := field.ReadInt("comparisonStatus"); ok && status != 1 {
			mismatches = append(mismatches, fieldName(field, "fieldName"))
		}
	}
	overall, ok := text.ReadInt("comparisonStatus")
	return mismatches, ok && overall == 1
}

func evaluateExtendedMRZOCR(root *jsontree.Value) CheckResult {
	text, fields, missing := textFieldList(root)
	if missing != "" {
		return notApplicable(CheckExtendedMRZOCR, missing)
	}

	mismatches, confirmed := comparisonMismatches(text, fields)
	switch {
	case len(mismatches) > 0:
		return CheckResult{
			Name:          CheckExtendedMRZOCR,
			Status:        StatusFail,
			Details:       fmt.Sprintf("Field comparison mismatches detected: %s.", strings.Join(firstN(mismatches, 5), ", ")),
			EvidencePaths: []string{pathTextFields},
		}
	case confirmed:
		return CheckResult{
			Name:          CheckExtendedMRZOCR,
			Status:        StatusPass,
			Details:       "MRZ/OCR extended field comparisons passed.",
			EvidencePaths: []string{pathTextComparison},
		}
	default:
		return CheckResult{
			Name:          CheckExtendedMRZOCR,
			Status:        StatusUnknown,
			Details:       "No mismatches found, but comparison status is not confirmed.",
			EvidencePaths: []string{pathTextComparison},
		}
	}
}

func evaluateGeometry(root *jsontree.Value) CheckResult {
	node, ok := jsontree.FindObject(root, "DocumentPosition")
	if !ok {
		return notApplicable(CheckGeometry, "No DocumentPosition section in response.")
	}

	resultStatus, hasStatus := node.ReadInt("ResultStatus")
	angle, hasAngle := node.ReadInt("Angle")
	perspective, hasPerspective := node.ReadInt("PerspectiveTr")

	status := StatusUnknown
	if hasStatus {
		status = triState(resultStatus)
	}
	return CheckResult{
		Name:   CheckGeometry,
		Status: status,
		Details: fmt.Sprintf("DocumentPosition.ResultStatus=%s, Angle=%s, PerspectiveTr=%s.",
			optInt(resultStatus, hasStatus, "n/a"),
			optInt(angle, hasAngle, "n/a"),
			optInt(perspective, hasPerspective, "n/a")),
		EvidencePaths: []string{pathDocumentPosition},
	}
}

func evaluateDataCrossValidation(root *jsontree.Value) CheckResult {
	text, fields, missing := textFieldList(root)
	if missing != "" {
		return notApplicable(CheckDataCrossValidation, missing)
	}

	mismatches, confirmed := comparisonMismatches(text, fields)
	switch {
	case len(mismatches) > 0:
		return CheckResult{
			Name:          CheckDataCrossValidation,
			Status:        StatusFail,
			Details:       fmt.Sprintf("Data mismatches detected across sources: %s.", strings.Join(firstN(mismatches, 5), ", ")),
			EvidencePaths: []string{pathTextFields},
		}
	case confirmed:
		return CheckResult{
			Name:          CheckDataCrossValidation,
			Status:        StatusPass,
			Details:       "MRZ/visual comparisons are consistent.",
			EvidencePaths: []string{pathTextComparison},
		}
	default:
		return CheckResult{
			Name:          CheckDataCrossValidation,
			Status:        StatusUnknown,
			Details:       "No mismatches found, but comparison status is not confirmed.",
			EvidencePaths: []string{pathTextComparison},
		}
	}
}

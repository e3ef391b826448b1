package models

// DocumentImage is one uploaded page or side of a document.
type DocumentImage struct {
	Base64 string `json:"base64"`
	Format string `json:"format,omitempty"`
}

// DocumentProcessRequest is the JSON form of the document endpoints. The
// multipart form carries the same values as files and form fields.
type DocumentProcessRequest struct {
	Images             []DocumentImage `json:"images"`
	Scenario           string          `json:"scenario,omitempty"`
	Tag                string          `json:"tag,omitempty"`
	LivePortraitBase64 string          `json:"livePortraitBase64,omitempty"`
}

type CompareDocumentsRequest struct {
	FirstDocumentImageBase64  string `json:"firstDocumentImageBase64"`
	SecondDocumentImageBase64 string `json:"secondDocumentImageBase64"`
}

// The types below are the document reader's process payload.

type DocRProcessRequest struct {
	ProcessParam DocRProcessParam `json:"processParam"`
	List         []DocRImageEntry `json:"List"`
	LivePortrait string           `json:"livePortrait,omitempty"`
	Tag          string           `json:"tag,omitempty"`
}

type DocRProcessParam struct {
	Scenario              string          `json:"scenario"`
	AuthParams            *DocRAuthParams `json:"authParams,omitempty"`
	UseFaceAPI            *bool           `json:"useFaceApi,omitempty"`
	FaceAPI               *DocRFaceAPI    `json:"faceApi,omitempty"`
	CheckLiveness         *bool           `json:"checkLiveness,omitempty"`
	OneShotIdentification *bool           `json:"oneShotIdentification,omitempty"`
}

type DocRAuthParams struct {
	CheckLiveness bool `json:"checkLiveness"`
}

type DocRFaceAPI struct {
	URL       string   `json:"url"`
	Mode      string   `json:"mode"`
	Threshold *float64 `json:"threshold,omitempty"`
}

type DocRImageEntry struct {
	ImageData DocRImageData `json:"ImageData"`
}

type DocRImageData struct {
	Image string `json:"image"`
}

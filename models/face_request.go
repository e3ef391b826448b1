package models

type FaceImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
}

type FacePairRequest struct {
	ImageBase64First  string `json:"imageBase64_1"`
	ImageBase64Second string `json:"imageBase64_2"`
}

type LivenessRequest struct {
	TransactionID string   `json:"transactionId,omitempty"`
	Frames        []string `json:"frames,omitempty"`
}

// Face service payloads.

type FaceDetectPayload struct {
	Tag          string           `json:"tag"`
	ProcessParam FaceProcessParam `json:"processParam"`
	Image        string           `json:"image"`
}

type FaceProcessParam struct {
	Attributes      *FaceConfigList `json:"attributes,omitempty"`
	Quality         *FaceConfigList `json:"quality,omitempty"`
	OnlyCentralFace bool            `json:"onlyCentralFace,omitempty"`
}

type FaceConfigList struct {
	Config []FaceConfigName `json:"config"`
}

type FaceConfigName struct {
	Name string `json:"name"`
}

type FaceMatchPayload struct {
	Tag    string           `json:"tag"`
	Images []FaceMatchImage `json:"images"`
}

type FaceMatchImage struct {
	Index int    `json:"index"`
	Type  int    `json:"type"`
	Data  string `json:"data"`
}

type LivenessFramesPayload struct {
	Tag    string   `json:"tag"`
	Frames []string `json:"frames"`
}

// ConfigNames wraps names in the {name} objects the face service expects.
func ConfigNames(names []string) *FaceConfigList {
	list := &FaceConfigList{Config: make([]FaceConfigName, 0, len(names))}
	for _, name := range names {
		list.Config = append(list.Config, FaceConfigName{Name: name})
	}
	return list
}

package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"go-docverify-gateway/images"
	"go-docverify-gateway/models"
)

const livePortraitField = "livePortrait"

var errEmptyBody = errors.New("request body is empty")

type uploadedFile struct {
	field       string
	fileName    string
	contentType string
	data        []byte
}

func (f uploadedFile) base64() string {
	return base64.StdEncoding.EncodeToString(f.data)
}

// multipartBody keeps uploaded files in the order they were sent.
type multipartBody struct {
	files  []uploadedFile
	fields map[string]string
}

func (b *multipartBody) file(field string) (uploadedFile, bool) {
	for _, f := range b.files {
		if f.field == field {
			return f, true
		}
	}
	return uploadedFile{}, false
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func readMultipart(r *http.Request) (*multipartBody, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	body := &multipartBody{fields: map[string]string{}}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read multipart part: %w", err)
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read multipart part %q: %w", part.FormName(), err)
		}

		if part.FileName() == "" {
			body.fields[part.FormName()] = string(data)
			continue
		}
		if len(data) == 0 {
			slog.Debug("Skipping empty upload", "field", part.FormName(), "file_name", part.FileName())
			continue
		}
		body.files = append(body.files, uploadedFile{
			field:       part.FormName(),
			fileName:    part.FileName(),
			contentType: part.Header.Get("Content-Type"),
			data:        data,
		})
	}
	slog.Debug("Multipart body read", "files", len(body.files), "fields", len(body.fields))
	return body, nil
}

// decodeJSONBody decodes r.Body into v. An empty body leaves v untouched.
func decodeJSONBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// readDocumentRequest reads the document endpoints' input. In a multipart
// body every file except the live portrait is a document image.
func readDocumentRequest(r *http.Request) (models.DocumentProcessRequest, error) {
	var request models.DocumentProcessRequest
	if !isMultipart(r) {
		if err := decodeJSONBody(r, &request); err != nil {
			return request, err
		}
		return request, nil
	}

	body, err := readMultipart(r)
	if err != nil {
		return request, err
	}
	for _, f := range body.files {
		if f.field == livePortraitField {
			request.LivePortraitBase64 = f.base64()
			continue
		}
		format := images.FormatFromUpload(f.contentType, f.fileName)
		if format == "" {
			format = images.SniffFormat(f.data)
		}
		request.Images = append(request.Images, models.DocumentImage{Base64: f.base64(), Format: format})
	}
	request.Scenario = body.fields["scenario"]
	request.Tag = body.fields["tag"]
	if portrait := strings.TrimSpace(body.fields[livePortraitField]); portrait != "" {
		request.LivePortraitBase64 = portrait
	}
	return request, nil
}

// readSingleImage returns the "image" upload, else the first upload, else
// JSON imageBase64.
func readSingleImage(r *http.Request) (string, error) {
	if !isMultipart(r) {
		var request models.FaceImageRequest
		if err := decodeJSONBody(r, &request); err != nil {
			return "", err
		}
		return request.ImageBase64, nil
	}

	body, err := readMultipart(r)
	if err != nil {
		return "", err
	}
	if f, ok := body.file("image"); ok {
		return f.base64(), nil
	}
	if len(body.files) > 0 {
		return body.files[0].base64(), nil
	}
	return "", nil
}

// readImagePair returns uploads named first and second, else the first two
// uploads. JSON bodies are decoded with decodeJSON.
func readImagePair(r *http.Request, first, second string, decodeJSON func(*http.Request) (string, string, error)) (string, string, error) {
	if !isMultipart(r) {
		return decodeJSON(r)
	}

	body, err := readMultipart(r)
	if err != nil {
		return "", "", err
	}
	a, okA := body.file(first)
	b, okB := body.file(second)
	if okA && okB {
		return a.base64(), b.base64(), nil
	}
	if len(body.files) >= 2 {
		return body.files[0].base64(), body.files[1].base64(), nil
	}
	return "", "", nil
}

func readFacePair(r *http.Request) (string, string, error) {
	return readImagePair(r, "image1", "image2", func(r *http.Request) (string, string, error) {
		var request models.FacePairRequest
		err := decodeJSONBody(r, &request)
		return request.ImageBase64First, request.ImageBase64Second, err
	})
}

func readComparePair(r *http.Request) (string, string, error) {
	return readImagePair(r, "firstDocument", "secondDocument", func(r *http.Request) (string, string, error) {
		var request *models.CompareDocumentsRequest
		if err := decodeJSONBody(r, &request); err != nil {
			return "", "", err
		}
		if request == nil {
			return "", "", errEmptyBody
		}
		return request.FirstDocumentImageBase64, request.SecondDocumentImageBase64, nil
	})
}

func readLivenessRequest(r *http.Request) (models.LivenessRequest, error) {
	var request models.LivenessRequest
	err := decodeJSONBody(r, &request)
	return request, err
}

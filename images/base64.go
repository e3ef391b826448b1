package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Format tags understood by the document reader.
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
	FormatJPG = "jpg"
)

var ErrEmptyImage = errors.New("image payload is empty")

var dataURIPrefixes = []string{
	"data:image/jpeg;base64,",
	"data:image/png;base64,",
}

// CleanBase64 strips a data URI header from value. The two common image
// prefixes are removed outright; any other header whose part before the first
// comma mentions base64 is cut at that comma. Cleaning is idempotent.
func CleanBase64(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	for _, prefix := range dataURIPrefixes {
		value = strings.ReplaceAll(value, prefix, "")
	}
	if i := strings.IndexByte(value, ','); i >= 0 && strings.Contains(strings.ToLower(value[:i]), "base64") {
		return value[i+1:]
	}
	return value
}

// DecodeBase64 cleans value and decodes it with the standard alphabet.
// Unpadded input is accepted.
func DecodeBase64(value string) ([]byte, error) {
	cleaned := strings.TrimSpace(CleanBase64(value))
	if cleaned == "" {
		return nil, ErrEmptyImage
	}
	cleaned = strings.NewReplacer("\n", "", "\r", "").Replace(cleaned)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid base64 image: %w", err)
		}
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// ValidateBase64 returns the cleaned payload when it decodes.
func ValidateBase64(value string) (string, error) {
	if _, err := DecodeBase64(value); err != nil {
		return "", err
	}
	return strings.TrimSpace(CleanBase64(value)), nil
}

// FormatFromUpload derives a format tag from a multipart part's content type
// and, failing that, its file name extension. Empty when unknown.
func FormatFromUpload(contentType, fileName string) string {
	ct := strings.ToLower(contentType)
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	switch {
	case strings.Contains(ct, "pdf"):
		return FormatPDF
	case strings.Contains(ct, "png"):
		return FormatPNG
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return FormatJPG
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FormatPDF
	case ".png":
		return FormatPNG
	case ".jpg", ".jpeg":
		return FormatJPG
	}
	return ""
}

var (
	magicPDF  = []byte("%PDF-")
	magicPNG  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	magicJPEG = []byte{0xff, 0xd8, 0xff}
	magicJP2  = []byte{0x00, 0x00, 0x00, 0x0c, 'j', 'P', ' ', ' '}
	magicJ2K  = []byte{0xff, 0x4f, 0xff, 0x51}
)

// SniffFormat guesses a format tag from the leading bytes of data.
func SniffFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, magicPDF):
		return FormatPDF
	case bytes.HasPrefix(data, magicPNG):
		return FormatPNG
	case bytes.HasPrefix(data, magicJPEG):
		return FormatJPG
	}
	return ""
}

// IsJPEG2000 reports whether data starts with a JP2 box or a raw J2K
// codestream marker.
func IsJPEG2000(data []byte) bool {
	return bytes.HasPrefix(data, magicJP2) || bytes.HasPrefix(data, magicJ2K)
}

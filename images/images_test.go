package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCleanBase64(t *testing.T) {
	bare := base64.StdEncoding.EncodeToString([]byte("hello world"))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", bare, bare},
		{"png data uri", "data:image/png;base64," + bare, bare},
		{"jpeg data uri", "data:image/jpeg;base64," + bare, bare},
		{"other media type", "data:application/pdf;base64," + bare, bare},
		{"uppercase marker", "data:image/gif;BASE64," + bare, bare},
		{"comma without marker is kept", "abc,def", "abc,def"},
		{"blank", "   ", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CleanBase64(tt.input))
		})
	}
}

func TestCleanBase64IsIdempotent(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(testPNG(t, 4, 4))

	once := CleanBase64("data:image/png;base64," + payload)
	require.Equal(t, CleanBase64(payload), once)
	require.Equal(t, once, CleanBase64(once))

	a, err := DecodeBase64("data:image/png;base64," + payload)
	require.NoError(t, err)
	b, err := DecodeBase64(payload)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestDecodeBase64(t *testing.T) {
	_, err := DecodeBase64("")
	require.ErrorIs(t, err, ErrEmptyImage)

	_, err = DecodeBase64("data:image/png;base64,")
	require.ErrorIs(t, err, ErrEmptyImage)

	_, err = DecodeBase64("not*base64!")
	require.Error(t, err)

	got, err := DecodeBase64("aGVsbG8")
	require.NoError(t, err, "missing padding is tolerated")
	require.Equal(t, []byte("hello"), got)
}

func TestValidateBase64(t *testing.T) {
	bare := base64.StdEncoding.EncodeToString([]byte("abc"))
	got, err := ValidateBase64(" data:image/png;base64," + bare + " ")
	require.NoError(t, err)
	require.Equal(t, bare, got)
}

func TestFormatFromUpload(t *testing.T) {
	require.Equal(t, FormatPDF, FormatFromUpload("application/pdf", "scan.bin"))
	require.Equal(t, FormatPNG, FormatFromUpload("image/png", ""))
	require.Equal(t, FormatJPG, FormatFromUpload("image/jpeg", ""))
	require.Equal(t, FormatJPG, FormatFromUpload("application/octet-stream", "front.JPEG"))
	require.Equal(t, FormatPNG, FormatFromUpload("", "back.png"))
	require.Equal(t, "", FormatFromUpload("application/octet-stream", "notes.txt"))
}

func TestSniffFormat(t *testing.T) {
	require.Equal(t, FormatPNG, SniffFormat(testPNG(t, 2, 2)))
	require.Equal(t, FormatPDF, SniffFormat([]byte("%PDF-1.7\n")))
	require.Equal(t, FormatJPG, SniffFormat([]byte{0xff, 0xd8, 0xff, 0xe0}))
	require.Equal(t, "", SniffFormat([]byte("plain")))
	require.True(t, IsJPEG2000([]byte{0xff, 0x4f, 0xff, 0x51, 0x00}))
	require.False(t, IsJPEG2000(testPNG(t, 2, 2)))
}

func TestToBrowserSafePassesThroughPNG(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(testPNG(t, 8, 8))

	got, err := ToBrowserSafe("data:image/png;base64," + payload)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	_, err = ToBrowserSafe("")
	require.Error(t, err)
}

func TestShrinkToBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1000, 500))

	out := shrinkToBox(src, 400, 400)
	require.Equal(t, 400, out.Bounds().Dx())
	require.Equal(t, 200, out.Bounds().Dy())

	tall := shrinkToBox(image.NewRGBA(image.Rect(0, 0, 300, 900)), 400, 400)
	require.Equal(t, 133, tall.Bounds().Dx())
	require.Equal(t, 400, tall.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	require.Equal(t, small, shrinkToBox(small, 400, 400))
}

func TestEncodePNG(t *testing.T) {
	img, _, err := image.Decode(bytes.NewReader(testPNG(t, 64, 32)))
	require.NoError(t, err)

	encoded, err := encodePNG(shrinkToBox(img, 32, 32))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 32, decoded.Bounds().Dx())
	require.Equal(t, 16, decoded.Bounds().Dy())
}

func TestDecodePortraitRejectsGarbage(t *testing.T) {
	_, err := decodePortrait([]byte("not an image"))
	require.ErrorIs(t, err, ErrUnsupportedImage)
}

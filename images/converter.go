package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"

	xdraw "golang.org/x/image/draw"
	"pault.ag/go/cbeff/jpeg2000"
)

// Portraits larger than this are scaled down when they have to be re-encoded.
const (
	PortraitMaxWidth  = 800
	PortraitMaxHeight = 800
)

var ErrUnsupportedImage = errors.New("unsupported or invalid image format")

// ToBrowserSafe returns a base64 image that browsers and the face service can
// both read. JPEG2000 portraits, as stored on some document chips and
// returned by the document reader, are re-encoded as PNG. Anything else is
// returned cleaned but otherwise untouched.
func ToBrowserSafe(value string) (string, error) {
	data, err := DecodeBase64(value)
	if err != nil {
		return "", err
	}

	if !IsJPEG2000(data) {
		return CleanBase64(value), nil
	}

	slog.Debug("re-encoding JPEG2000 portrait", "data_size", len(data))
	img, err := decodePortrait(data)
	if err != nil {
		slog.Warn("portrait could not be decoded", "error", err)
		return "", fmt.Errorf("failed to decode portrait: %w", err)
	}

	out, err := encodePNG(shrinkToBox(img, PortraitMaxWidth, PortraitMaxHeight))
	if err != nil {
		return "", fmt.Errorf("failed to convert portrait to PNG: %w", err)
	}
	slog.Debug("portrait re-encoded", "base64_length", len(out))
	return out, nil
}

func decodePortrait(data []byte) (image.Image, error) {
	if IsJPEG2000(data) {
		if img, err := jpeg2000.Parse(data); err == nil {
			return img, nil
		}
	}
	if img, err := jpeg.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, ErrUnsupportedImage
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// shrinkToBox scales img down to fit within maxW x maxH, keeping its aspect
// ratio. Images that already fit are returned as is.
func shrinkToBox(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH || w == 0 || h == 0 {
		return img
	}

	// integer arithmetic: w*maxH vs h*maxW picks the binding side
	var dw, dh int
	if w*maxH >= h*maxW {
		dw, dh = maxW, max(1, h*maxW/w)
	} else {
		dw, dh = max(1, w*maxH/h), maxH
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

package document

import (
	"fmt"
	"strings"

	"github.com/gmrtd/gmrtd/mrz"
)

// DecodeMRZ decodes MRZ text as printed on the document. Line breaks, spaces
// and the reader's "^" line separator are removed before decoding.
func DecodeMRZ(text string) (*mrz.MRZ, error) {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t', '^':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(text)))

	if compact == "" {
		return nil, fmt.Errorf("MRZ text is empty")
	}

	decoded, err := mrz.MrzDecode(compact)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MRZ: %w", err)
	}
	return decoded, nil
}

// normalizeSex maps the MRZ sex field to M, F or X. The ICAO filler and
// anything unrecognised become X.
func normalizeSex(sex string) string {
	switch strings.ToUpper(sex) {
	case "M":
		return "M"
	case "F":
		return "F"
	default:
		return "X"
	}
}

package position

import (
	"fmt"
	"math"
	"strconv"
)

const notProvided = "Not provided by server."

// Entry pairs a raw value with a human description of it.
type Entry[T any] struct {
	Value       T      `json:"value"`
	Description string `json:"description"`
}

type WidthHeight struct {
	Width  *int `json:"width"`
	Height *int `json:"height"`
}

type Interpretation struct {
	ResultStatus  Entry[*int]         `json:"resultStatus"`
	ObjArea       Entry[*float64]     `json:"objArea"`
	PerspectiveTr Entry[*int]         `json:"perspectiveTr"`
	Angle         Entry[*float64]     `json:"angle"`
	Inverse       Entry[*int]         `json:"inverse"`
	DocFormat     Entry[*int]         `json:"docFormat"`
	Center        Entry[*Point]       `json:"center"`
	WidthHeight   Entry[*WidthHeight] `json:"widthHeight"`
}

// BuildInterpretation describes every field independently of the verdict.
func BuildInterpretation(raw *Raw) Interpretation {
	if raw == nil {
		raw = &Raw{}
	}
	return Interpretation{
		ResultStatus:  describeResultStatus(raw.ResultStatus),
		ObjArea:       DescribeObjArea(raw.ObjArea),
		PerspectiveTr: describePerspective(raw.PerspectiveTr),
		Angle:         DescribeAngle(raw.Angle),
		Inverse:       describeInverse(raw.Inverse),
		DocFormat:     describeDocFormat(raw.DocFormat),
		Center:        describeCenter(raw.Center),
		WidthHeight:   describeWidthHeight(raw.Width, raw.Height),
	}
}

func describeResultStatus(v *int) Entry[*int] {
	if v == nil {
		return Entry[*int]{Description: notProvided}
	}
	var d string
	switch *v {
	case 1:
		d = "OK"
	case 0:
		d = "Failed"
	case 2:
		d = "Borderline / not ideal framing. Not fully OK."
	default:
		d = "Unknown result status."
	}
	return Entry[*int]{Value: v, Description: d}
}

// DescribeObjArea buckets coverage at 70 and 50 percent.
func DescribeObjArea(v *float64) Entry[*float64] {
	if v == nil {
		return Entry[*float64]{Description: notProvided}
	}
	pct := formatPercent(*v)
	var d string
	switch {
	case *v >= AreaGood:
		d = fmt.Sprintf("Document covers %s%% of the image. Good full-frame coverage.", pct)
	case *v >= AreaBorderline:
		d = fmt.Sprintf("Document covers %s%% of the image. Borderline coverage; recommended >= 70%%.", pct)
	default:
		d = fmt.Sprintf("Document covers %s%% of the image. Too much background; recommended >= 70%%.", pct)
	}
	return Entry[*float64]{Value: v, Description: d}
}

func describePerspective(v *int) Entry[*int] {
	if v == nil {
		return Entry[*int]{Description: notProvided}
	}
	var d string
	switch *v {
	case 1:
		d = "Perspective is acceptable (no strong distortion)."
	case 0:
		d = "Perspective is not acceptable (strong distortion)."
	case 2:
		d = "Perspective check not performed."
	default:
		d = "Unknown perspective status."
	}
	return Entry[*int]{Value: v, Description: d}
}

// DescribeAngle buckets |angle| at 2 and 10 degrees, both inclusive.
func DescribeAngle(v *float64) Entry[*float64] {
	if v == nil {
		return Entry[*float64]{Description: notProvided}
	}
	a := math.Abs(*v)
	var d string
	switch {
	case a <= AngleSmall:
		d = "Small rotation angle (acceptable)."
	case a <= AngleNoticeable:
		d = "Noticeable rotation; try to align the document."
	default:
		d = "Large rotation angle; please rotate the document."
	}
	return Entry[*float64]{Value: v, Description: d}
}

func describeInverse(v *int) Entry[*int] {
	if v == nil {
		return Entry[*int]{Description: notProvided}
	}
	var d string
	switch *v {
	case 0:
		d = "Image is not inverted."
	case 1:
		d = "Image appears inverted."
	default:
		d = "Unknown inversion status."
	}
	return Entry[*int]{Value: v, Description: d}
}

func describeDocFormat(v *int) Entry[*int] {
	if v == nil {
		return Entry[*int]{Description: notProvided}
	}
	return Entry[*int]{Value: v, Description: "Detected document format code."}
}

func describeCenter(p *Point) Entry[*Point] {
	if p == nil {
		return Entry[*Point]{Description: notProvided}
	}
	return Entry[*Point]{Value: p, Description: "Document center point in image coordinates."}
}

func describeWidthHeight(w, h *int) Entry[*WidthHeight] {
	if w == nil && h == nil {
		return Entry[*WidthHeight]{Description: notProvided}
	}
	return Entry[*WidthHeight]{
		Value:       &WidthHeight{Width: w, Height: h},
		Description: "Detected document size in pixels (in the input image coordinate space).",
	}
}

// formatPercent rounds half to even at two decimals and drops trailing zeros.
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.RoundToEven(v*100)/100, 'f', -1, 64)
}

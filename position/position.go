// Package position turns the document reader's DocumentPosition geometry
// into per-field explanations, a framing verdict and one coaching message.
package position

import (
	"math"
	"strconv"
	"strings"

	"go-docverify-gateway/jsontree"
)

const SectionName = "DocumentPosition"

// Verdict reason codes, in the order they are accumulated.
const (
	ReasonResultStatusMissing = "ResultStatusMissing"
	ReasonResultStatusNotOK   = "ResultStatusNotOK"
	ReasonObjAreaMissing      = "ObjAreaMissing"
	ReasonObjAreaTooSmall     = "ObjAreaTooSmall"
	ReasonObjAreaBorderline   = "ObjAreaBorderline"
	ReasonPerspectiveNotOK    = "PerspectiveNotOK"
	ReasonImageInverted       = "ImageInverted"
	ReasonRotationTooLarge    = "RotationTooLarge"
)

// Coverage and rotation thresholds. Boundaries are exact.
const (
	AreaGood        = 70.0
	AreaBorderline  = 50.0
	AngleSmall      = 2.0
	AngleNoticeable = 10.0
)

type Point struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type Raw struct {
	Angle          *float64 `json:"angle"`
	Center         *Point   `json:"center"`
	Dpi            *int     `json:"dpi"`
	Height         *int     `json:"height"`
	Width          *int     `json:"width"`
	Inverse        *int     `json:"inverse"`
	ObjArea        *float64 `json:"objArea"`
	ObjIntAngleDev *float64 `json:"objIntAngleDev"`
	PerspectiveTr  *int     `json:"perspectiveTr"`
	ResultStatus   *int     `json:"resultStatus"`
	DocFormat      *int     `json:"docFormat"`
	LeftTop        *Point   `json:"leftTop"`
	RightTop       *Point   `json:"rightTop"`
	RightBottom    *Point   `json:"rightBottom"`
	LeftBottom     *Point   `json:"leftBottom"`
}

// Region is the document quadrilateral. Points lists the corners that were
// reported, clockwise from the top left.
type Region struct {
	LeftTop     *Point  `json:"leftTop"`
	RightTop    *Point  `json:"rightTop"`
	RightBottom *Point  `json:"rightBottom"`
	LeftBottom  *Point  `json:"leftBottom"`
	Points      []Point `json:"points"`
}

type Verdict struct {
	IsCorrectFraming bool     `json:"isCorrectFraming"`
	Reasons          []string `json:"reasons"`
}

type Info struct {
	Raw            *Raw           `json:"raw"`
	Region         *Region        `json:"region"`
	Interpretation Interpretation `json:"interpretation"`
	Verdict        Verdict        `json:"verdict"`
	UserMessage    string         `json:"userMessage"`
}

// FromTree locates the DocumentPosition section anywhere in root and
// interprets it. Nil when the section is absent.
func FromTree(root *jsontree.Value) *Info {
	node, ok := findSection(root)
	if !ok {
		return nil
	}
	return Interpret(ParseRaw(node))
}

// Interpret derives region, interpretation, verdict and message from raw.
func Interpret(raw *Raw) *Info {
	info := &Info{
		Raw:            raw,
		Region:         BuildRegion(raw),
		Interpretation: BuildInterpretation(raw),
		Verdict:        BuildVerdict(raw),
	}
	info.UserMessage = UserMessage(info.Verdict)
	return info
}

// The exact-case key is preferred over a case-insensitive match.
func findSection(root *jsontree.Value) (*jsontree.Value, bool) {
	var found *jsontree.Value
	jsontree.Walk(root, func(e jsontree.Entry) bool {
		if e.IsMember() && e.Key == SectionName && e.Value.IsObject() {
			found = e.Value
			return false
		}
		return true
	})
	if found != nil {
		return found, true
	}
	return jsontree.FindObject(root, SectionName)
}

func ParseRaw(node *jsontree.Value) *Raw {
	return &Raw{
		Angle:          readFloat(node, "Angle"),
		Center:         readPoint(node, "Center"),
		Dpi:            readInt(node, "Dpi"),
		Height:         readInt(node, "Height"),
		Width:          readInt(node, "Width"),
		Inverse:        readInt(node, "Inverse"),
		ObjArea:        readFloat(node, "ObjArea"),
		ObjIntAngleDev: readFloat(node, "ObjIntAngleDev"),
		PerspectiveTr:  readInt(node, "PerspectiveTr"),
		ResultStatus:   readInt(node, "ResultStatus"),
		DocFormat:      readInt(node, "docFormat"),
		LeftTop:        readPoint(node, "LeftTop"),
		RightTop:       readPoint(node, "RightTop"),
		RightBottom:    readPoint(node, "RightBottom"),
		LeftBottom:     readPoint(node, "LeftBottom"),
	}
}

// BuildRegion returns nil when no corner was reported.
func BuildRegion(raw *Raw) *Region {
	if raw == nil {
		return nil
	}
	corners := []*Point{raw.LeftTop, raw.RightTop, raw.RightBottom, raw.LeftBottom}
	region := &Region{
		LeftTop:     raw.LeftTop,
		RightTop:    raw.RightTop,
		RightBottom: raw.RightBottom,
		LeftBottom:  raw.LeftBottom,
		Points:      []Point{},
	}
	for _, c := range corners {
		if c != nil {
			region.Points = append(region.Points, *c)
		}
	}
	if len(region.Points) == 0 {
		return nil
	}
	return region
}

// BuildVerdict accumulates reason codes in a fixed order. Framing is correct
// only when no reason applies.
func BuildVerdict(raw *Raw) Verdict {
	if raw == nil {
		raw = &Raw{}
	}
	reasons := []string{}

	switch {
	case raw.ResultStatus == nil:
		reasons = append(reasons, ReasonResultStatusMissing)
	case *raw.ResultStatus != 1:
		reasons = append(reasons, ReasonResultStatusNotOK)
	}

	switch {
	case raw.ObjArea == nil:
		reasons = append(reasons, ReasonObjAreaMissing)
	case *raw.ObjArea < AreaBorderline:
		reasons = append(reasons, ReasonObjAreaTooSmall)
	case *raw.ObjArea < AreaGood:
		reasons = append(reasons, ReasonObjAreaBorderline)
	}

	if raw.PerspectiveTr != nil && *raw.PerspectiveTr == 0 {
		reasons = append(reasons, ReasonPerspectiveNotOK)
	}
	if raw.Inverse != nil && *raw.Inverse == 1 {
		reasons = append(reasons, ReasonImageInverted)
	}
	if raw.Angle != nil && math.Abs(*raw.Angle) > AngleNoticeable {
		reasons = append(reasons, ReasonRotationTooLarge)
	}

	return Verdict{IsCorrectFraming: len(reasons) == 0, Reasons: reasons}
}

const (
	MessageGoodFraming   = "Great framing. Keep the document centered and fully inside the frame."
	MessageMoveCloser    = "Please move the document closer to fill more of the frame."
	MessageSlightlyClose = "Please move the document slightly closer and minimize background."
	MessageHoldFlat      = "Please hold the document flat to the camera."
	MessageRotate        = "Please rotate the document to be level."
	MessageFlip          = "Please flip the document to the correct orientation."
	MessageMakeVisible   = "Please make sure the entire document is visible, well lit, and centered."
	MessageFallback      = "Unable to evaluate framing; please try again."
)

var messagePriority = []struct {
	reason  string
	message string
}{
	{ReasonObjAreaTooSmall, MessageMoveCloser},
	{ReasonObjAreaBorderline, MessageSlightlyClose},
	{ReasonPerspectiveNotOK, MessageHoldFlat},
	{ReasonRotationTooLarge, MessageRotate},
	{ReasonImageInverted, MessageFlip},
	{ReasonResultStatusNotOK, MessageMakeVisible},
}

// UserMessage picks exactly one message: the first reason in priority order
// that is present.
func UserMessage(v Verdict) string {
	if v.IsCorrectFraming {
		return MessageGoodFraming
	}
	for _, p := range messagePriority {
		for _, r := range v.Reasons {
			if r == p.reason {
				return p.message
			}
		}
	}
	return MessageFallback
}

func readFloat(node *jsontree.Value, name string) *float64 {
	v, ok := node.Get(name)
	if !ok {
		return nil
	}
	if f, ok := v.Float(); ok {
		return &f
	}
	if s, ok := v.Str(); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return nil
}

// readInt rounds fractional numbers half to even. Values outside the int32
// range are treated as missing.
func readInt(node *jsontree.Value, name string) *int {
	v, ok := node.Get(name)
	if !ok {
		return nil
	}
	if f, ok := v.Float(); ok {
		f = math.RoundToEven(f)
		if f > math.MaxInt32 || f < math.MinInt32 {
			return nil
		}
		n := int(f)
		return &n
	}
	if s, ok := v.Str(); ok {
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32); err == nil {
			out := int(n)
			return &out
		}
	}
	return nil
}

func readPoint(node *jsontree.Value, name string) *Point {
	v, ok := node.Get(name)
	if !ok || !v.IsObject() {
		return nil
	}
	x, y := readFloat(v, "x"), readFloat(v, "y")
	if x == nil && y == nil {
		return nil
	}
	return &Point{X: x, Y: y}
}

package face

import (
	"log/slog"
	"math"
	"strconv"

	"go-docverify-gateway/jsontree"
)

// ICAOChecks are the quality characteristics requested for an ICAO
// compliance detect.
var ICAOChecks = []string{
	"ImageWidth", "ImageHeight", "ImageWidthToHeight", "ImageChannelsNumber",
	"PaddingRatio", "FaceMidPointHorizontalPosition", "FaceMidPointVerticalPosition",
	"HeadWidthRatio", "HeadHeightRatio", "EyesDistance", "Yaw", "Pitch", "Roll",
	"BlurLevel", "NoiseLevel", "UnnaturalSkinTone", "FaceDynamicRange",
	"EyeRightClosed", "EyeLeftClosed", "EyeRightOccluded", "EyeLeftOccluded",
	"EyesRed", "EyeRightCoveredWithHair", "EyeLeftCoveredWithHair", "OffGaze",
	"TooDark", "TooLight", "FaceGlare", "ShadowsOnFace",
	"ShouldersPose", "ExpressionLevel", "MouthOpen", "Smile",
	"DarkGlasses", "ReflectionOnGlasses", "FramesTooHeavy", "FaceOccluded",
	"HeadCovering", "ForeheadCovering", "StrongMakeup", "Headphones", "MedicalMask",
	"BackgroundUniformity", "ShadowsOnBackground", "OtherFaces", "BackgroundColorMatch",
}

var icaoGroups = map[int]string{
	1: "Image characteristics",
	2: "Head size and position",
	3: "Face quality",
	4: "Eyes characteristics",
	5: "Shadows and lighting",
	6: "Pose and expression",
	7: "Head occlusion",
	8: "Background",
}

const (
	ICAOCompliant    = "compliant"
	ICAONonCompliant = "non_compliant"
	ICAOUnknown      = "unknown"
)

type ICAOCheck struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Value  *float64 `json:"value"`
}

type ICAOSection struct {
	Name           string      `json:"name"`
	CompliantCount int         `json:"compliantCount"`
	TotalCount     int         `json:"totalCount"`
	Checks         []ICAOCheck `json:"checks"`
}

type ICAOSummary struct {
	Sections            []ICAOSection `json:"sections"`
	TotalCount          int           `json:"totalCount"`
	TotalCompliantCount int           `json:"totalCompliantCount"`
	CompliancePercent   *float64      `json:"compliancePercent"`
}

// ICAO groups the quality details of the first detection by groupId, in the
// order the groups first appear. Status 1 counts as compliant, 0 as not
// compliant; anything else is unknown.
func ICAO(data []byte) ICAOSummary {
	summary := ICAOSummary{Sections: []ICAOSection{}}
	root, err := jsontree.Parse(data)
	if err != nil {
		slog.Debug("Failed to parse ICAO response", "error", err)
		return summary
	}

	details, ok := jsontree.FindObject(root, "quality")
	if !ok {
		return summary
	}
	list, _ := details.Get("details")

	index := map[int]int{}
	for _, detail := range list.Items() {
		group, _ := detail.ReadInt("groupId")
		pos, seen := index[group]
		if !seen {
			pos = len(summary.Sections)
			index[group] = pos
			summary.Sections = append(summary.Sections, ICAOSection{Name: groupName(group), Checks: []ICAOCheck{}})
		}

		name, _ := detail.ReadString("name")
		check := ICAOCheck{Name: name, Status: ICAOUnknown}
		if v, ok := detail.ReadFloat("value"); ok {
			check.Value = &v
		}
		if status, ok := detail.ReadInt("status"); ok {
			switch status {
			case 1:
				check.Status = ICAOCompliant
			case 0:
				check.Status = ICAONonCompliant
			}
		}

		section := &summary.Sections[pos]
		section.Checks = append(section.Checks, check)
		section.TotalCount++
		summary.TotalCount++
		if check.Status == ICAOCompliant {
			section.CompliantCount++
			summary.TotalCompliantCount++
		}
	}

	if summary.TotalCount > 0 {
		pct := math.RoundToEven(float64(summary.TotalCompliantCount)*10000/float64(summary.TotalCount)) / 100
		summary.CompliancePercent = &pct
	}
	return summary
}

func groupName(id int) string {
	if name, ok := icaoGroups[id]; ok {
		return name
	}
	return "Group " + strconv.Itoa(id)
}

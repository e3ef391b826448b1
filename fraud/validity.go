package fraud

import (
	"fmt"
	"strings"

	"go-docverify-gateway/jsontree"
)

const (
	ValidityValid   = "valid"
	ValidityInvalid = "invalid"
)

// Validity lists authenticity element labels by outcome. Both lists are
// de-duplicated case-insensitively, keeping the first spelling seen.
type Validity struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid"`
}

// Found reports whether any authenticity element carried a usable result.
func (v Validity) Found() bool {
	return len(v.Valid) > 0 || len(v.Invalid) > 0
}

// OverallStatus is "invalid" as soon as one element failed. It is only
// meaningful when Found is true.
func (v Validity) OverallStatus() string {
	if len(v.Invalid) > 0 {
		return ValidityInvalid
	}
	return ValidityValid
}

// CollectValidity reads every element under
// ContainerList.List[].AuthenticityCheckList.List[].List[].
func CollectValidity(root *jsontree.Value) Validity {
	v := Validity{Valid: []string{}, Invalid: []string{}}

	containers, _ := root.Lookup("ContainerList", "List")
	for _, container := range containers.Items() {
		groups, _ := container.Lookup("AuthenticityCheckList", "List")
		for _, group := range groups.Items() {
			checks, _ := group.Get("List")
			for _, check := range checks.Items() {
				ok, found := firstBool(check, "ElementResult", "Result", "ElementDiagnose")
				if !found {
					continue
				}
				label := authenticityLabel(check)
				if ok {
					v.Valid = appendUnique(v.Valid, label)
				} else {
					v.Invalid = appendUnique(v.Invalid, label)
				}
			}
		}
	}
	return v
}

// firstBool accepts JSON booleans and integers; any non-zero integer is true.
func firstBool(v *jsontree.Value, names ...string) (bool, bool) {
	for _, name := range names {
		field, ok := v.Get(name)
		if !ok {
			continue
		}
		if b, ok := field.Boolean(); ok {
			return b, true
		}
		if n, ok := field.Int(); ok {
			return n != 0, true
		}
	}
	return false, false
}

func authenticityLabel(check *jsontree.Value) string {
	var parts []string
	if n, ok := check.ReadInt("Type"); ok {
		parts = append(parts, fmt.Sprintf("Type %d", n))
	}
	if n, ok := check.ReadInt("ElementType"); ok {
		parts = append(parts, fmt.Sprintf("Element %d", n))
	}
	if n, ok := check.ReadInt("ElementDiagnose"); ok {
		parts = append(parts, fmt.Sprintf("Diagnose %d", n))
	}
	if len(parts) == 0 {
		return "AuthenticityCheck"
	}
	return "AuthenticityCheck (" + strings.Join(parts, ", ") + ")"
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, s) {
			return list
		}
	}
	return append(list, s)
}

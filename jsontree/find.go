package jsontree

import "strings"

// FindObject returns the first object-valued member anywhere below root whose
// key equals name, ignoring case.
func FindObject(root *Value, name string) (*Value, bool) {
	var found *Value
	Walk(root, func(e Entry) bool {
		if e.IsMember() && e.Value.IsObject() && strings.EqualFold(e.Key, name) {
			found = e.Value
			return false
		}
		return true
	})
	return found, found != nil
}

// FindAnyObject is FindObject over several candidate names. The earliest
// match in traversal order wins, not the earliest name.
func FindAnyObject(root *Value, names ...string) (*Value, bool) {
	var found *Value
	Walk(root, func(e Entry) bool {
		if e.IsMember() && e.Value.IsObject() && keyMatches(e.Key, names) {
			found = e.Value
			return false
		}
		return true
	})
	return found, found != nil
}

// FindString returns the first non-blank string stored under any of names.
func FindString(root *Value, names ...string) (string, bool) {
	var found string
	Walk(root, func(e Entry) bool {
		if !e.IsMember() || !keyMatches(e.Key, names) {
			return true
		}
		if s, ok := e.Value.Str(); ok && strings.TrimSpace(s) != "" {
			found = s
			return false
		}
		return true
	})
	return found, found != ""
}

// FindNumber returns the first number stored under any of names.
func FindNumber(root *Value, names ...string) (float64, bool) {
	var (
		found float64
		ok    bool
	)
	Walk(root, func(e Entry) bool {
		if !e.IsMember() || !keyMatches(e.Key, names) {
			return true
		}
		if f, isNum := e.Value.Float(); isNum {
			found, ok = f, true
			return false
		}
		return true
	})
	return found, ok
}

// FindScalar returns the first non-blank string or number stored under any
// of names, as a Value.
func FindScalar(root *Value, names ...string) (*Value, bool) {
	var found *Value
	Walk(root, func(e Entry) bool {
		if !e.IsMember() || !keyMatches(e.Key, names) {
			return true
		}
		if s, ok := e.Value.Str(); ok && strings.TrimSpace(s) != "" {
			found = e.Value
			return false
		}
		if e.Value.IsNumber() {
			found = e.Value
			return false
		}
		return true
	})
	return found, found != nil
}

// FindStrings collects every string value for which match returns true,
// together with its path, in traversal order. Only object members are
// considered.
func FindStrings(root *Value, match func(path, value string) bool) []Entry {
	var out []Entry
	Walk(root, func(e Entry) bool {
		if !e.IsMember() {
			return true
		}
		if s, ok := e.Value.Str(); ok && match(e.Path, s) {
			out = append(out, e)
		}
		return true
	})
	return out
}

package jsontree

import (
	"strconv"
	"strings"
)

// MaxDepth bounds how deep Walk descends. Subtrees below it are skipped.
const MaxDepth = 512

// RootPath is the path prefix given to the top-level value.
const RootPath = "root"

// Entry is one visited node: an object member or an array element.
type Entry struct {
	// Key is the member key; empty for array elements.
	Key string
	// Index is the element index; -1 for object members.
	Index int
	// Path looks like "root.ContainerList.List[0].Text".
	Path  string
	Depth int
	Value *Value
}

// IsMember reports whether the entry is an object member.
func (e Entry) IsMember() bool { return e.Index < 0 }

// WalkFunc is called for every entry. Returning false stops the walk.
type WalkFunc func(e Entry) bool

// Walk visits every member and element below root in pre-order: an entry is
// reported before its subtree, object members in document order, array
// elements by index. It uses an explicit stack so hostile nesting cannot
// exhaust the goroutine stack.
func Walk(root *Value, fn WalkFunc) {
	WalkFrom(root, RootPath, fn)
}

// WalkFrom is Walk with a custom path prefix for root.
func WalkFrom(root *Value, rootPath string, fn WalkFunc) {
	if root == nil {
		return
	}
	stack := children(root, rootPath, 0, nil)
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(e) {
			return
		}
		if e.Depth < MaxDepth {
			stack = children(e.Value, e.Path, e.Depth+1, stack)
		}
	}
}

// children pushes the children of v onto stack in reverse so they pop in
// document order.
func children(v *Value, path string, depth int, stack []Entry) []Entry {
	switch v.Kind() {
	case Object:
		members := v.members
		for i := len(members) - 1; i >= 0; i-- {
			stack = append(stack, Entry{
				Key:   members[i].Key,
				Index: -1,
				Path:  path + "." + members[i].Key,
				Depth: depth,
				Value: members[i].Value,
			})
		}
	case Array:
		items := v.items
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, Entry{
				Index: i,
				Path:  path + "[" + strconv.Itoa(i) + "]",
				Depth: depth,
				Value: items[i],
			})
		}
	}
	return stack
}

func keyMatches(key string, names []string) bool {
	for _, name := range names {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}

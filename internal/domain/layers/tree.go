package layers

import (
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

// Patch is a shallow update of a node's view state. Nil fields are left
// untouched.
type Patch struct {
	DisplayName *string
	IsExpanded  *bool
	IsVisible   *bool
	IsLocked    *bool
}

func (p Patch) apply(n editor.LayerNode) editor.LayerNode {
	if p.DisplayName != nil {
		n.DisplayName = *p.DisplayName
	}
	if p.IsExpanded != nil {
		n.IsExpanded = *p.IsExpanded
	}
	if p.IsVisible != nil {
		n.IsVisible = *p.IsVisible
	}
	if p.IsLocked != nil {
		n.IsLocked = *p.IsLocked
	}
	return n
}

// UpdateNodeInTree returns a copy of tree with the patch applied to the node
// with the given id. The second result is false when no node matched.
func UpdateNodeInTree(tree []editor.LayerNode, id string, patch Patch) ([]editor.LayerNode, bool) {
	return rewrite(tree, id, patch.apply)
}

// ToggleNodeExpanded flips the expand state of one node.
func ToggleNodeExpanded(tree []editor.LayerNode, id string) []editor.LayerNode {
	out, _ := rewrite(tree, id, func(n editor.LayerNode) editor.LayerNode {
		n.IsExpanded = !n.IsExpanded
		return n
	})
	return out
}

func rewrite(tree []editor.LayerNode, id string, fn func(editor.LayerNode) editor.LayerNode) ([]editor.LayerNode, bool) {
	out := make([]editor.LayerNode, len(tree))
	found := false
	for i, n := range tree {
		if !found && n.ID == id {
			n = fn(n)
			n.Children = Clone(n.Children)
			found = true
		} else if !found {
			var hit bool
			n.Children, hit = rewrite(n.Children, id, fn)
			found = hit
		} else {
			n.Children = Clone(n.Children)
		}
		out[i] = n
	}
	return out, found
}

// ExpandPathToNode expands every ancestor of id. Siblings keep their state.
func ExpandPathToNode(tree []editor.LayerNode, id string) []editor.LayerNode {
	out, _ := expandPath(tree, id)
	return out
}

func expandPath(tree []editor.LayerNode, id string) ([]editor.LayerNode, bool) {
	out := make([]editor.LayerNode, len(tree))
	found := false
	for i, n := range tree {
		if found {
			n.Children = Clone(n.Children)
			out[i] = n
			continue
		}
		if n.ID == id {
			n.Children = Clone(n.Children)
			found = true
			out[i] = n
			continue
		}
		var inside bool
		n.Children, inside = expandPath(n.Children, id)
		if inside {
			n.IsExpanded = true
			found = true
		}
		out[i] = n
	}
	return out, found
}

// Filter keeps nodes whose display name or tag contains query, plus the
// ancestors of any match, which are expanded. An empty query returns a copy
// of the tree.
func Filter(tree []editor.LayerNode, query string) []editor.LayerNode {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return Clone(tree)
	}
	out := []editor.LayerNode{}
	for _, n := range tree {
		children := Filter(n.Children, query)
		selfMatch := strings.Contains(strings.ToLower(n.DisplayName), query) ||
			strings.Contains(strings.ToLower(n.TagName), query)
		if !selfMatch && len(children) == 0 {
			continue
		}
		n.Children = children
		if len(children) > 0 {
			n.IsExpanded = true
		}
		out = append(out, n)
	}
	return out
}

// Find returns a copy of the node with the given id.
func Find(tree []editor.LayerNode, id string) (editor.LayerNode, bool) {
	for _, n := range tree {
		if n.ID == id {
			return n, true
		}
		if found, ok := Find(n.Children, id); ok {
			return found, true
		}
	}
	return editor.LayerNode{}, false
}

// Flatten lists the tree in depth-first order.
func Flatten(tree []editor.LayerNode) []editor.LayerNode {
	var out []editor.LayerNode
	for _, n := range tree {
		children := n.Children
		n.Children = nil
		out = append(out, n)
		out = append(out, Flatten(children)...)
	}
	return out
}

// MergeState carries expand state from previous into a rebuilt tree by id.
// Only meaningful for refreshes; a structural replacement starts fresh.
func MergeState(previous, rebuilt []editor.LayerNode) []editor.LayerNode {
	expanded := make(map[string]bool)
	for _, n := range Flatten(previous) {
		if n.IsExpanded {
			expanded[n.ID] = true
		}
	}
	return applyExpanded(rebuilt, expanded)
}

func applyExpanded(tree []editor.LayerNode, expanded map[string]bool) []editor.LayerNode {
	out := make([]editor.LayerNode, len(tree))
	for i, n := range tree {
		n.IsExpanded = expanded[n.ID]
		n.Children = applyExpanded(n.Children, expanded)
		out[i] = n
	}
	return out
}

// Clone deep-copies a tree.
func Clone(tree []editor.LayerNode) []editor.LayerNode {
	if tree == nil {
		return nil
	}
	out := make([]editor.LayerNode, len(tree))
	for i, n := range tree {
		n.Children = Clone(n.Children)
		out[i] = n
	}
	return out
}

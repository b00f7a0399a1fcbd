package folder

import (
	"context"

	"github.com/dalemusser/stratadmin/internal/domain/models"
)

// Node is one folder of the assembled tree.
type Node struct {
	Summary
	Children []*Node       `json:"children"`
	Files    []models.File `json:"files,omitempty"`
}

// BuildTree nests a flat folder list (already in rank order) under its roots.
// files, when non-nil, is attached by folder id. Folders whose parent is not
// in the list are treated as roots so nothing is lost.
func BuildTree(flat []Summary, files map[int][]models.File) []*Node {
	nodes := make(map[int]*Node, len(flat))
	for _, s := range flat {
		n := &Node{Summary: s, Children: []*Node{}}
		if files != nil {
			n.Files = files[s.ID]
			if n.Files == nil {
				n.Files = []models.File{}
			}
		}
		nodes[s.ID] = n
	}

	roots := []*Node{}
	for _, s := range flat {
		n := nodes[s.ID]
		if s.ParentID != nil {
			if parent, ok := nodes[*s.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// parentLookup returns a folder's parent and whether the folder exists.
type parentLookup func(ctx context.Context, id int) (parent *int, exists bool, err error)

// wouldCreateCycle walks up from newParentID. Reaching folderID means the
// move would make the folder its own ancestor; reaching a root or a missing
// folder means it is safe.
func wouldCreateCycle(ctx context.Context, folderID int, newParentID *int, parentOf parentLookup) (bool, error) {
	if newParentID == nil {
		return false, nil
	}
	if *newParentID == folderID {
		return true, nil
	}

	seen := make(map[int]bool)
	current := *newParentID
	for {
		if current == folderID {
			return true, nil
		}
		if seen[current] {
			// pre-existing loop that does not pass through folderID
			return false, nil
		}
		seen[current] = true

		parent, exists, err := parentOf(ctx, current)
		if err != nil {
			return false, err
		}
		if !exists || parent == nil {
			return false, nil
		}
		current = *parent
	}
}

package folder

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratadmin/internal/domain/models"
)

func ptr(i int) *int { return &i }

func summary(id int, parent *int, order int) Summary {
	return Summary{Folder: models.Folder{ID: id, Name: "f", ParentID: parent, Order: order}}
}

func TestBuildTree(t *testing.T) {
	flat := []Summary{
		summary(1, nil, 0),
		summary(2, ptr(1), 0),
		summary(4, nil, 1),
		summary(3, ptr(1), 1),
		summary(5, ptr(2), 0),
		summary(6, ptr(99), 0), // orphan
	}
	files := map[int][]models.File{2: {{ID: 10}}}

	roots := BuildTree(flat, files)
	if len(roots) != 3 {
		t.Fatalf("len(roots) = %d, want 3", len(roots))
	}
	if roots[0].ID != 1 || roots[1].ID != 4 || roots[2].ID != 6 {
		t.Errorf("roots = %d,%d,%d; want 1,4,6", roots[0].ID, roots[1].ID, roots[2].ID)
	}

	one := roots[0]
	if len(one.Children) != 2 || one.Children[0].ID != 2 || one.Children[1].ID != 3 {
		t.Fatalf("children of 1 = %+v", one.Children)
	}
	two := one.Children[0]
	if len(two.Children) != 1 || two.Children[0].ID != 5 {
		t.Errorf("children of 2 = %+v", two.Children)
	}
	if len(two.Files) != 1 || two.Files[0].ID != 10 {
		t.Errorf("files of 2 = %+v", two.Files)
	}
	if roots[1].Files == nil {
		t.Error("files should be an empty list, not nil, when files are requested")
	}
}

func TestBuildTreeWithoutFiles(t *testing.T) {
	roots := BuildTree([]Summary{summary(1, nil, 0)}, nil)
	if roots[0].Files != nil {
		t.Errorf("Files = %v, want nil when not requested", roots[0].Files)
	}
	if roots[0].Children == nil {
		t.Error("Children should be an empty list")
	}
}

// chain maps folder id -> parent id (nil = root).
func lookupFrom(chain map[int]*int) parentLookup {
	return func(_ context.Context, id int) (*int, bool, error) {
		p, ok := chain[id]
		return p, ok, nil
	}
}

func TestWouldCreateCycle(t *testing.T) {
	// 1 -> 2 -> 3 -> 4, and 5 at root
	chain := map[int]*int{1: nil, 2: ptr(1), 3: ptr(2), 4: ptr(3), 5: nil}
	lookup := lookupFrom(chain)
	ctx := context.Background()

	tests := []struct {
		name      string
		folder    int
		newParent *int
		want      bool
	}{
		{"move to root", 2, nil, false},
		{"self parent", 2, ptr(2), true},
		{"under descendant", 1, ptr(4), true},
		{"under direct child", 2, ptr(3), true},
		{"under unrelated", 2, ptr(5), false},
		{"under ancestor", 4, ptr(1), false},
		{"under missing", 2, ptr(42), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := wouldCreateCycle(ctx, tt.folder, tt.newParent, lookup)
			if err != nil {
				t.Fatalf("wouldCreateCycle() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("wouldCreateCycle(%d, %v) = %v, want %v", tt.folder, tt.newParent, got, tt.want)
			}
		})
	}
}

func TestWouldCreateCycleTerminatesOnExistingLoop(t *testing.T) {
	// 7 and 8 point at each other; 1 is unrelated
	chain := map[int]*int{7: ptr(8), 8: ptr(7), 1: nil}
	got, err := wouldCreateCycle(context.Background(), 1, ptr(7), lookupFrom(chain))
	if err != nil || got {
		t.Errorf("wouldCreateCycle() = %v, %v; want false, nil", got, err)
	}
}

func TestWouldCreateCyclePropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	lookup := func(context.Context, int) (*int, bool, error) { return nil, false, boom }
	if _, err := wouldCreateCycle(context.Background(), 1, ptr(2), lookup); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

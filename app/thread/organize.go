// Package thread orders the comments of a post for linear display.
package thread

import (
	"sort"

	"communityboard/app/models"
)

// Organize returns the comments of one post in display order. Root comments
// come oldest first, and each root is followed by every transitive reply it
// has, flattened into one block and sorted oldest first. Equal timestamps keep
// their input order.
//
// A comment whose parent is not in the input is treated as a root. Comments
// that no root reaches (a comment replying to itself, or a parent cycle) are
// appended after the root blocks, each unvisited one anchoring a block of its
// own. Nil entries are skipped. Organize never modifies its input.
func Organize(comments []*models.Comment) []*models.Comment {
	items := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if c != nil {
			items = append(items, c)
		}
	}

	out := make([]*models.Comment, 0, len(items))
	if len(items) == 0 {
		return out
	}

	known := make(map[int]struct{}, len(items))
	for _, c := range items {
		known[c.ID] = struct{}{}
	}

	children := make(map[int][]int, len(items))
	var roots []int
	for i, c := range items {
		if c.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		if _, ok := known[*c.ParentID]; !ok {
			roots = append(roots, i)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], i)
	}

	chronological := func(idx []int) {
		sort.SliceStable(idx, func(a, b int) bool {
			ca, cb := items[idx[a]], items[idx[b]]
			if !ca.CreatedAt.Equal(cb.CreatedAt) {
				return ca.CreatedAt.Before(cb.CreatedAt)
			}
			return idx[a] < idx[b]
		})
	}

	visited := make([]bool, len(items))
	emit := func(anchor int) {
		visited[anchor] = true
		out = append(out, items[anchor])

		var block []int
		queue := []int{anchor}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, child := range children[items[current].ID] {
				if visited[child] {
					continue
				}
				visited[child] = true
				block = append(block, child)
				queue = append(queue, child)
			}
		}

		chronological(block)
		for _, i := range block {
			out = append(out, items[i])
		}
	}

	chronological(roots)
	for _, r := range roots {
		if !visited[r] {
			emit(r)
		}
	}

	var unreached []int
	for i := range items {
		if !visited[i] {
			unreached = append(unreached, i)
		}
	}
	chronological(unreached)
	for _, i := range unreached {
		if !visited[i] {
			emit(i)
		}
	}

	return out
}

// Package menutree assembles the flat menu list into a navigation forest and
// trims that forest down to what a given user may see.
package menutree

import (
	"sort"

	"github.com/iliyamo/admin-console/internal/model"
)

// Build turns a flat, order-ascending list of menus into a forest.  Each
// menu is attached to the entry its ParentID names; a menu without a parent,
// with a parent id that is not in the list, or that names itself as parent
// becomes a root.  Sibling order follows the input order.  An entry whose
// Children is non-nil stays a group even when nothing attaches to it.  The
// input is left untouched: every node in the result is a copy.
func Build(flat []model.Menu) []*model.Menu {
	nodes := make([]*model.Menu, len(flat))
	index := make(map[string]*model.Menu, len(flat))
	for i := range flat {
		m := flat[i]
		m.Children = groupMarker(m.Children)
		nodes[i] = &m
		if _, dup := index[m.ID]; !dup {
			index[m.ID] = nodes[i]
		}
	}

	roots := make([]*model.Menu, 0, len(flat))
	for _, n := range nodes {
		if n.ParentID != nil && *n.ParentID != n.ID {
			if parent, ok := index[*n.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// Flatten walks the forest depth-first and returns every node with its
// Children cleared.  A group node keeps an empty, non-nil Children so an
// emptied group survives the trip: Build(Flatten(f)) reproduces f.
func Flatten(forest []*model.Menu) []model.Menu {
	var out []model.Menu
	var walk func([]*model.Menu)
	walk = func(level []*model.Menu) {
		for _, n := range level {
			m := *n
			m.Children = groupMarker(n.Children)
			out = append(out, m)
			walk(n.Children)
		}
	}
	walk(forest)
	return out
}

func groupMarker(children []*model.Menu) []*model.Menu {
	if children == nil {
		return nil
	}
	return []*model.Menu{}
}

// SortByOrder orders menus by Order ascending, keeping the relative order of
// equal keys.  It sorts in place.
func SortByOrder(menus []model.Menu) {
	sort.SliceStable(menus, func(i, j int) bool { return menus[i].Order < menus[j].Order })
}

// WouldCycle reports whether giving id the parent parentID closes a loop in
// the parent relation described by parents (child id -> parent id).
func WouldCycle(parents map[string]string, id, parentID string) bool {
	seen := map[string]bool{id: true}
	for cur := parentID; cur != ""; cur = parents[cur] {
		if seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

// Clone returns a deep copy of the forest.
func Clone(forest []*model.Menu) []*model.Menu {
	if forest == nil {
		return nil
	}
	out := make([]*model.Menu, len(forest))
	for i, n := range forest {
		m := *n
		m.Children = Clone(n.Children)
		out[i] = &m
	}
	return out
}

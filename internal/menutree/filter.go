package menutree

import "github.com/iliyamo/admin-console/internal/model"

// DefaultPublicLevel is the access level every user may see ("Basic Access"
// in the seed data).
const DefaultPublicLevel = "2"

// Filter returns the part of forest that user may see.  Admins get a copy of
// the whole forest.  Anyone else keeps a node when its access level is
// unset, equals the user's level, or equals public; the children of a kept
// node are judged the same way, independently of their parent.  A kept group
// whose children are all hidden stays in the result with an empty, non-nil
// Children slice.
//
// Filter never mutates forest and only ever receives active menus.
func Filter(forest []*model.Menu, user model.User, public string) []*model.Menu {
	if user.IsAdmin() {
		return Clone(forest)
	}
	return filterLevel(forest, user.AccessLevelID, public)
}

func filterLevel(level []*model.Menu, userLevel, public string) []*model.Menu {
	out := make([]*model.Menu, 0, len(level))
	for _, n := range level {
		if !Visible(n, userLevel, public) {
			continue
		}
		m := *n
		if n.Children != nil {
			m.Children = filterLevel(n.Children, userLevel, public)
		}
		out = append(out, &m)
	}
	return out
}

// Visible applies the per-node rule used by Filter for a non-admin viewer.
func Visible(m *model.Menu, userLevel, public string) bool {
	if m.AccessLevelID == nil {
		return true
	}
	return *m.AccessLevelID == userLevel || *m.AccessLevelID == public
}

package menutree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/admin-console/internal/model"
)

func strPtr(s string) *string { return &s }

func menu(id, parent, level string, order int) model.Menu {
	m := model.Menu{ID: id, Name: "menu " + id, Order: order, IsActive: true}
	if parent != "" {
		m.ParentID = strPtr(parent)
	}
	if level != "" {
		m.AccessLevelID = strPtr(level)
	}
	return m
}

func ids(level []*model.Menu) []string {
	out := make([]string, 0, len(level))
	for _, m := range level {
		out = append(out, m.ID)
	}
	return out
}

func TestBuild_AttachesChildrenInInputOrder(t *testing.T) {
	flat := []model.Menu{
		menu("1", "", "2", 1),
		menu("2", "", "1", 2),
		menu("3", "2", "1", 1),
		menu("4", "2", "1", 2),
		menu("5", "4", "1", 1),
	}

	forest := Build(flat)

	require.Equal(t, []string{"1", "2"}, ids(forest))
	assert.Nil(t, forest[0].Children)
	require.Equal(t, []string{"3", "4"}, ids(forest[1].Children))
	assert.Equal(t, []string{"5"}, ids(forest[1].Children[1].Children))
}

func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	forest := Build([]model.Menu{
		menu("1", "", "", 1),
		menu("2", "missing", "", 2),
		menu("3", "3", "", 3),
	})

	assert.Equal(t, []string{"1", "2", "3"}, ids(forest))
}

func TestBuild_ChildListedBeforeParent(t *testing.T) {
	forest := Build([]model.Menu{
		menu("c", "p", "", 1),
		menu("p", "", "", 2),
	})

	require.Equal(t, []string{"p"}, ids(forest))
	assert.Equal(t, []string{"c"}, ids(forest[0].Children))
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	flat := []model.Menu{menu("1", "", "", 1), menu("2", "1", "", 1)}
	_ = Build(flat)
	assert.Nil(t, flat[0].Children)
}

func TestBuild_EveryMenuPlacedExactlyOnce(t *testing.T) {
	flat := []model.Menu{
		menu("a", "", "", 1),
		menu("b", "a", "", 1),
		menu("c", "zzz", "", 2),
		menu("d", "b", "", 1),
		menu("e", "a", "", 2),
	}

	seen := map[string]int{}
	var walk func(parent *string, level []*model.Menu)
	walk = func(parent *string, level []*model.Menu) {
		for _, m := range level {
			seen[m.ID]++
			if parent != nil {
				require.NotNil(t, m.ParentID)
				assert.Equal(t, *parent, *m.ParentID)
			}
			walk(&m.ID, m.Children)
		}
	}
	walk(nil, Build(flat))

	for _, m := range flat {
		assert.Equal(t, 1, seen[m.ID], "menu %s", m.ID)
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	forest := Build([]model.Menu{
		menu("1", "", "", 1),
		menu("2", "", "", 2),
		menu("3", "2", "", 1),
		menu("4", "3", "", 1),
	})

	assert.Equal(t, forest, Build(Flatten(forest)))
}

func TestFlatten_RoundTripKeepsEmptiedGroup(t *testing.T) {
	forest := Build([]model.Menu{
		menu("g", "", "2", 1),
		menu("c", "g", "1", 1),
		menu("leaf", "", "", 2),
	})
	filtered := Filter(forest, model.User{Role: model.RoleUser, AccessLevelID: "2"}, DefaultPublicLevel)
	require.Len(t, filtered, 2)
	require.NotNil(t, filtered[0].Children)

	rebuilt := Build(Flatten(filtered))

	assert.Equal(t, filtered, rebuilt)
	assert.NotNil(t, rebuilt[0].Children, "group stays a group")
	assert.Empty(t, rebuilt[0].Children)
	assert.Nil(t, rebuilt[1].Children, "leaf stays a leaf")
}

func TestSortByOrder_IsStable(t *testing.T) {
	menus := []model.Menu{
		menu("x", "", "", 2),
		menu("a", "", "", 1),
		menu("y", "", "", 2),
		menu("b", "", "", 1),
	}
	SortByOrder(menus)

	got := make([]string, 0, len(menus))
	for _, m := range menus {
		got = append(got, m.ID)
	}
	assert.Equal(t, []string{"a", "b", "x", "y"}, got)
}

func TestWouldCycle(t *testing.T) {
	parents := map[string]string{"b": "a", "c": "b"}

	assert.True(t, WouldCycle(parents, "a", "c"))
	assert.True(t, WouldCycle(parents, "a", "a"))
	assert.False(t, WouldCycle(parents, "d", "c"))
	assert.False(t, WouldCycle(parents, "c", "a"))
	assert.False(t, WouldCycle(parents, "a", ""))
}

func TestLookupIcon(t *testing.T) {
	i, ok := LookupIcon("Settings")
	assert.True(t, ok)
	assert.Equal(t, IconSettings, i)

	_, ok = LookupIcon("constructor")
	assert.False(t, ok)
	assert.Equal(t, "", SanitizeIcon("__proto__"))
	assert.Equal(t, "Users", SanitizeIcon("Users"))
}

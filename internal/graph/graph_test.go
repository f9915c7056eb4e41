package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/nodedocs/internal/model"
)

func sampleStore() model.EntryStore {
	s := model.EntryStore{}
	for _, e := range []model.DocEntry{
		{ID: "shapes.Circle", Name: "Circle", Kind: model.Class},
		{ID: "Circle#shapes.area", Name: "area", Kind: model.Function, MemberOf: "Circle", Instance: true},
		{ID: "Circle#shapes.radius", Name: "radius", Kind: model.Member, MemberOf: "Circle", Instance: true},
		{ID: "Circle.shapes.create", Name: "create", Kind: model.Function, MemberOf: "Circle"},
		{ID: "math.add", Name: "add", Kind: model.Function},
		{ID: "math.secret", Name: "secret", Kind: model.Function, Access: "private"},
		{ID: "vjs.player.Player", Name: "Player", Kind: model.Class, MemberOf: "vjs"},
		{ID: "vjs.Player#player.event:ready", Name: "ready", Kind: model.Event, MemberOf: "vjs.Player", Instance: true},
	} {
		s.Put(e)
	}
	return s
}

func TestGroupByOwner(t *testing.T) {
	t.Parallel()

	groups := GroupByOwner(sampleStore())
	require.Len(t, groups, 4)

	owners := make([]string, len(groups))
	for i, g := range groups {
		owners[i] = g.Owner
	}
	assert.Equal(t, []string{"", "Circle", "vjs", "vjs.Player"}, owners)

	globals := groups[0]
	assert.Nil(t, globals.Entry)
	require.Len(t, globals.Members, 3)
	assert.Equal(t, "math.add", globals.Members[0].ID)

	circle := groups[1]
	require.NotNil(t, circle.Entry)
	assert.Equal(t, "shapes.Circle", circle.Entry.ID)
	require.Len(t, circle.Members, 3)
	assert.Equal(t, "Circle#shapes.area", circle.Members[0].ID)
	assert.Equal(t, "Circle.shapes.create", circle.Members[2].ID)

	player := groups[3]
	require.NotNil(t, player.Entry)
	assert.Equal(t, "vjs.player.Player", player.Entry.ID)

	assert.Nil(t, groups[2].Entry)
}

func TestGroupByOwnerEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, GroupByOwner(model.EntryStore{}))
}

func TestOwners(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"Circle", "vjs", "vjs.Player"}, Owners(sampleStore()))
}

func TestSelectDropsPrivateByDefault(t *testing.T) {
	t.Parallel()

	store := sampleStore()
	got := Select(store, Filter{})
	assert.Equal(t, store.Len()-1, got.Len())
	_, ok := got.Get("math.secret")
	assert.False(t, ok)

	got = Select(store, Filter{IncludePrivate: true})
	assert.Equal(t, store.Len(), got.Len())
}

func TestSelectKindsAndLimit(t *testing.T) {
	t.Parallel()

	store := sampleStore()
	got := Select(store, Filter{Kinds: []model.Kind{model.Class}})
	assert.Equal(t, []string{"shapes.Circle", "vjs.player.Player"}, got.IDs())

	got = Select(store, Filter{Limit: 2, IncludePrivate: true})
	assert.Equal(t, []string{"Circle#shapes.area", "Circle#shapes.radius"}, got.IDs())
}

func TestFilterBySymbol(t *testing.T) {
	t.Parallel()

	store := sampleStore()

	got := FilterBySymbol(store, "circle", false)
	assert.Equal(t, []string{"Circle#shapes.area", "Circle#shapes.radius", "Circle.shapes.create", "shapes.Circle"}, got.IDs())

	got = FilterBySymbol(store, "player", false)
	assert.Equal(t, []string{"vjs.Player#player.event:ready", "vjs.player.Player"}, got.IDs())

	got = FilterBySymbol(store, "add", true)
	assert.Equal(t, []string{"math.add"}, got.IDs())
}

func TestFilterBySymbolWithMembers(t *testing.T) {
	t.Parallel()

	store := model.EntryStore{}
	store.Put(model.DocEntry{ID: "shapes.Square", Name: "Square", Kind: model.Class})
	store.Put(model.DocEntry{ID: "Square#shapes.side", Name: "side", MemberOf: "Square", Instance: true})
	store.Put(model.DocEntry{ID: "math.add", Name: "add"})

	got := FilterBySymbol(store, "shapes.squ", false)
	assert.Equal(t, []string{"shapes.Square"}, got.IDs())

	got = FilterBySymbol(store, "shapes.squ", true)
	assert.Equal(t, []string{"Square#shapes.side", "shapes.Square"}, got.IDs())
}

package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/clouddrive/internal/nodetypes"
)

func newDrive(path string) *Node {
	return &Node{
		Path: path,
		Type: nodetypes.CloudDrive,
		Properties: map[string]any{
			nodetypes.PropTitle:         "CMIS john",
			nodetypes.PropConnected:     false,
			nodetypes.PropLocalUserName: "root",
			nodetypes.PropInitDate:      time.Now(),
			nodetypes.PropProvider:      "cmis",
			nodetypes.PropURL:           "http://cmis.example.com/atom",
			nodetypes.PropID:            "repo-1",
			"ecd:tags":                  []string{"a"},
		},
	}
}

func TestMemory_SaveGetIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	n := newDrive("/Users/root/CMIS john/")
	require.NoError(t, s.Save(ctx, n))
	require.NotEmpty(t, n.ID)
	require.Equal(t, "/Users/root/CMIS john", n.Path)

	got, err := s.Get(ctx, "Users/root/CMIS john")
	require.NoError(t, err)
	require.Equal(t, n.ID, got.ID)

	// mutar la copia no afecta lo guardado
	got.Properties["ecd:tags"].([]string)[0] = "z"
	got.Set(nodetypes.PropTitle, "other")
	again, _ := s.Get(ctx, n.Path)
	require.Equal(t, "CMIS john", again.String(nodetypes.PropTitle))
	require.Equal(t, []string{"a"}, again.Properties["ecd:tags"])
}

func TestMemory_SaveValidates(t *testing.T) {
	n := newDrive("/d")
	delete(n.Properties, nodetypes.PropProvider)
	require.Error(t, NewMemory().Save(context.Background(), n))
}

func TestMemory_UpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	n := newDrive("/d")
	require.NoError(t, s.Save(ctx, n))
	created := n.CreatedAt

	upd := newDrive("/d")
	upd.Set(nodetypes.PropConnected, true)
	require.NoError(t, s.Save(ctx, upd))
	require.Equal(t, n.ID, upd.ID)
	require.Equal(t, created, upd.CreatedAt)

	other := newDrive("/d")
	other.ID = "another"
	require.Error(t, s.Save(ctx, other))
}

func TestMemory_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Save(ctx, newDrive("/b")))
	require.NoError(t, s.Save(ctx, newDrive("/a")))

	list, err := s.List(ctx, nodetypes.CloudDrive)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "/a", list[0].Path)

	require.NoError(t, s.Delete(ctx, "/a"))
	_, err = s.Get(ctx, "/a")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCleanPath(t *testing.T) {
	require.Equal(t, "/", CleanPath("/"))
	require.Equal(t, "/a/b", CleanPath("a/b//"))
}

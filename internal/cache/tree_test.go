package cache

import (
	"context"
	"testing"
	"time"

	"github.com/emrgen/manual/internal/compress"
	"github.com/emrgen/manual/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleForest() []*model.ManualNode {
	content := "body"
	root := model.NewManualNode(model.Manual{ID: 1, Name: "guide", GroupCode: "G"}, true)
	parentID := uint64(1)
	root.AddChild(model.NewManualNode(model.Manual{ID: 2, Name: "a.md", GroupCode: "G", Level: 1, ParentID: &parentID, Content: &content}, true))
	return []*model.ManualNode{root}
}

func TestTreeCache_GetSet(t *testing.T) {
	ctx := context.TODO()
	c := NewTreeCache(NewMemoryKV(), compress.NewLZ4(), time.Minute)

	got, err := c.GetTree(ctx, "G", true)
	require.NoError(t, err)
	assert.Nil(t, got)

	stored, err := c.SetTree(ctx, "G", true, c.Generation("G"), sampleForest())
	require.NoError(t, err)
	assert.True(t, stored)

	got, err = c.GetTree(ctx, "G", true)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "guide", got[0].Name)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "body", *got[0].Children[0].Content)

	missing, err := c.GetTree(ctx, "G", false)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTreeCache_Invalidate(t *testing.T) {
	ctx := context.TODO()
	c := NewTreeCache(NewMemoryKV(), compress.NewNop(), 0)

	for _, group := range []string{"G", "H", ""} {
		_, err := c.SetTree(ctx, group, group != "", c.Generation(group), sampleForest())
		require.NoError(t, err)
	}

	require.NoError(t, c.Invalidate(ctx, "G"))

	g, _ := c.GetTree(ctx, "G", true)
	all, _ := c.GetTree(ctx, "", false)
	h, _ := c.GetTree(ctx, "H", true)
	assert.Nil(t, g)
	assert.Nil(t, all)
	assert.NotNil(t, h)
}

func TestMemoryKV_Expiry(t *testing.T) {
	ctx := context.TODO()
	kv := NewMemoryKV()
	now := time.Now()
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", []byte("v"), time.Second))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	now = now.Add(2 * time.Second)
	v, err = kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTreeCache_SetTreeAfterInvalidate(t *testing.T) {
	ctx := context.TODO()
	c := NewTreeCache(NewMemoryKV(), compress.NewNop(), time.Minute)

	generation := c.Generation("G")
	allGeneration := c.Generation("")
	otherGeneration := c.Generation("H")

	// a commit lands between the store read and the cache write
	require.NoError(t, c.Invalidate(ctx, "G"))

	stored, err := c.SetTree(ctx, "G", true, generation, sampleForest())
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = c.SetTree(ctx, "", true, allGeneration, sampleForest())
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = c.SetTree(ctx, "H", true, otherGeneration, sampleForest())
	require.NoError(t, err)
	assert.True(t, stored)

	got, err := c.GetTree(ctx, "G", true)
	require.NoError(t, err)
	assert.Nil(t, got)

	stored, err = c.SetTree(ctx, "G", true, c.Generation("G"), sampleForest())
	require.NoError(t, err)
	assert.True(t, stored)
}

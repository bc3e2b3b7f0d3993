package discovery

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aleister1102/jssecretscanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceSet_OrderAndDedupe(t *testing.T) {
	set := NewResourceSet(10)

	first, ok := set.Add(models.ResourceRef{URL: "https://a.io/1.js"})
	require.True(t, ok)
	assert.Equal(t, 1, first.Order)

	_, ok = set.Add(models.ResourceRef{URL: "https://a.io/1.js"})
	assert.False(t, ok)

	second, ok := set.Add(models.ResourceRef{URL: "https://a.io/2.js"})
	require.True(t, ok)
	assert.Equal(t, 2, second.Order)
	assert.True(t, set.Contains("https://a.io/2.js"))
	assert.Equal(t, 2, set.Len())
}

func TestResourceSet_CapUnderConcurrency(t *testing.T) {
	set := NewResourceSet(25)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				set.Add(models.ResourceRef{URL: fmt.Sprintf("https://a.io/%d-%d.js", w, i)})
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 25, set.Len())
	assert.True(t, set.Full())
	for i, ref := range set.Refs() {
		assert.Equal(t, i+1, ref.Order)
	}
}

func TestFrontier_Depth(t *testing.T) {
	set := NewResourceSet(100)
	frontier := NewFrontier(set, 2)

	added := frontier.Expand(0, []models.ResourceRef{{URL: "https://a.io/main.js"}})
	assert.Equal(t, 1, added)
	level := frontier.Next()
	require.Len(t, level, 1)
	assert.Equal(t, 1, level[0].Depth)
	assert.Empty(t, frontier.Next())

	assert.Equal(t, 1, frontier.Expand(1, []models.ResourceRef{{URL: "https://a.io/chunk.js"}}))
	level = frontier.Next()
	require.Len(t, level, 1)
	assert.Equal(t, 2, level[0].Depth)

	assert.True(t, frontier.WantsChildren(1))
	assert.False(t, frontier.WantsChildren(2))
	assert.Zero(t, frontier.Expand(2, []models.ResourceRef{{URL: "https://a.io/deep.js"}}))
	assert.False(t, set.Contains("https://a.io/deep.js"))
}

func TestFrontier_StopsAtCap(t *testing.T) {
	set := NewResourceSet(2)
	frontier := NewFrontier(set, 3)

	added := frontier.Expand(0, []models.ResourceRef{
		{URL: "https://a.io/1.js"},
		{URL: "https://a.io/1.js"},
		{URL: "https://a.io/2.js"},
		{URL: "https://a.io/3.js"},
	})
	assert.Equal(t, 2, added)
	assert.Len(t, frontier.Next(), 2)
	assert.Equal(t, 2, set.Len())
}

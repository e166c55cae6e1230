package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunGraph(t *testing.T) {
	t.Run("sync and deferred settle on the same leaves", func(t *testing.T) {
		cfg := graphConfig{
			name:           "tiny",
			width:          4,
			totalLayers:    3,
			staticFraction: 0.5,
			nSources:       2,
			readFraction:   1,
			iterations:     20,
		}

		syncRes := runGraph(cfg, false)
		deferredRes := runGraph(cfg, true)
		assert.Equal(t, syncRes.fingerprint, deferredRes.fingerprint)
		assert.Equal(t, syncRes.sum, deferredRes.sum)
		assert.Positive(t, deferredRes.evaluations)
	})

	t.Run("single source layer mirrors the sources", func(t *testing.T) {
		cfg := graphConfig{width: 10, totalLayers: 2, staticFraction: 1, nSources: 1, readFraction: 1, iterations: 1}
		res := runGraph(cfg, false)
		assert.Equal(t, 45, res.sum)
	})
}

func TestRemoveElems(t *testing.T) {
	src := []int{1, 2, 3, 4, 5}
	out := removeElems(src, 2, rand.New(rand.NewSource(0)))
	assert.Len(t, out, 3)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, src)
	for _, v := range out {
		assert.Contains(t, src, v)
	}
}

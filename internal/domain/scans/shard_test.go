package scans

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShard_KnownValues(t *testing.T) {
	// djb2 values: example.com=3653638078, cloudflare.com=2226115699
	tests := []struct {
		target   string
		poolSize int
		want     int
	}{
		{"example.com", 5, 3},
		{"example.com", 8, 6},
		{"cloudflare.com", 5, 4},
		{"cloudflare.com", 8, 3},
		{"a", 5, 0},
		{"", 5, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Shard(tt.target, tt.poolSize), "target=%q pool=%d", tt.target, tt.poolSize)
	}
}

func TestShard_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		target := fmt.Sprintf("host-%d.example.com", i)
		first := Shard(target, 5)
		for j := 0; j < 10; j++ {
			assert.Equal(t, first, Shard(target, 5))
		}
	}
}

func TestShard_Range(t *testing.T) {
	for _, poolSize := range []int{1, 2, 5, 7, 16} {
		for i := 0; i < 500; i++ {
			idx := Shard(fmt.Sprintf("target-%d.io", i), poolSize)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, poolSize)
		}
	}
}

func TestShard_Distribution(t *testing.T) {
	const poolSize = 5
	const n = 2000
	counts := make([]int, poolSize)
	for i := 0; i < n; i++ {
		counts[Shard(fmt.Sprintf("sub%d.company%d.com", i, i%37), poolSize)]++
	}
	// Every slot should see a reasonable share; allow wide slack since
	// this is a smoke check, not a chi-square test.
	for slot, c := range counts {
		assert.Greater(t, c, n/poolSize/2, "slot %d starved: %d", slot, c)
		assert.Less(t, c, n/poolSize*2, "slot %d hot: %d", slot, c)
	}
}

func TestShard_DegeneratePool(t *testing.T) {
	assert.Equal(t, 0, Shard("example.com", 0))
	assert.Equal(t, 0, Shard("example.com", -3))
	assert.Equal(t, 0, Shard("example.com", 1))
}

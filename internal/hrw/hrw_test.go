package hrw

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPick_empty(t *testing.T) {
	_, ok := Pick("key", nil, "")
	require.False(t, ok)
}

func TestPick_single_member(t *testing.T) {
	idx, ok := Pick("key", []string{"only"}, "")
	require.True(t, ok)
	require.Equal(t, 0, idx)
}

func TestPick_is_deterministic(t *testing.T) {
	members := []string{"w-0", "w-1", "w-2", "w-3"}

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("key-%d", i)
		first, ok := Pick(key, members, "seed")
		require.True(t, ok)
		for j := 0; j < 5; j++ {
			again, _ := Pick(key, members, "seed")
			require.Equal(t, first, again)
		}
	}
}

func TestPick_spreads_keys(t *testing.T) {
	members := []string{"w-0", "w-1", "w-2", "w-3"}

	used := map[int]int{}
	for i := 0; i < 1000; i++ {
		idx, ok := Pick(fmt.Sprintf("key-%d", i), members, "seed")
		require.True(t, ok)
		used[idx]++
	}

	// Every member owns some share of 1000 uniformly hashed keys.
	require.Len(t, used, len(members))
}

func TestPick_removal_only_moves_owned_keys(t *testing.T) {
	members := []string{"w-0", "w-1", "w-2", "w-3"}
	reduced := []string{"w-0", "w-1", "w-2"}

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		before, _ := Pick(key, members, "seed")
		after, _ := Pick(key, reduced, "seed")
		if members[before] != "w-3" {
			// Keys not owned by the removed member stay put.
			require.Equal(t, members[before], reduced[after])
		}
	}
}

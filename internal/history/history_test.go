package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqs(entries []*Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Seq
	}
	return out
}

func TestPush_BoundedNewestFirst(t *testing.T) {
	var entries []*Entry
	for i := 1; i <= 8; i++ {
		next := Push(entries, &Entry{Seq: i}, 3)
		assert.LessOrEqual(t, len(next), 3)
		assert.Equal(t, i, next[0].Seq, "newest is always first")
		entries = next
	}
	assert.Equal(t, []int{8, 7, 6}, seqs(entries))
}

func TestPush_DoesNotModifyInput(t *testing.T) {
	orig := []*Entry{{Seq: 2}, {Seq: 1}}
	next := Push(orig, &Entry{Seq: 3}, 2)

	assert.Equal(t, []int{2, 1}, seqs(orig))
	assert.Equal(t, []int{3, 2}, seqs(next))
}

func TestPush_DropsExactlyTheOldest(t *testing.T) {
	full := []*Entry{{Seq: 5}, {Seq: 4}, {Seq: 3}, {Seq: 2}, {Seq: 1}}
	assert.Equal(t, []int{6, 5, 4}, seqs(Push(full, &Entry{Seq: 6}, 3)), "shrinking max trims several")
	assert.Equal(t, []int{6, 5, 4, 3, 2, 1}, seqs(Push(full, &Entry{Seq: 6}, 10)))
}

func TestHistory(t *testing.T) {
	h := New(0)
	assert.Equal(t, DefaultSize, h.Max())

	for i := 0; i < DefaultSize+2; i++ {
		h.Add(&Entry{Seq: h.NextSeq(), Success: i%2 == 0})
	}
	assert.Equal(t, DefaultSize, h.Len())
	assert.Equal(t, []int{8, 7, 6, 5, 4, 3}, seqs(h.Entries()))

	e, ok := h.Find(5)
	require.True(t, ok)
	assert.Equal(t, 5, e.Seq)
	_, ok = h.Find(1)
	assert.False(t, ok, "evicted")

	snapshot := h.Entries()
	h.Add(&Entry{Seq: h.NextSeq()})
	assert.Equal(t, 8, snapshot[0].Seq, "returned slices are copies")
}

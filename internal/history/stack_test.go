package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cloneInts(v []int) []int { return append([]int(nil), v...) }

func TestUndoOnFreshHistory(t *testing.T) {
	s := New[int](5, nil)
	_, err := s.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo)
	_, err = s.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, -1, s.Cursor())

	s.Checkpoint(1)
	_, err = s.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo, "a single entry has nothing before it")
	assert.Equal(t, 0, s.Cursor())
}

func TestUndoRedo(t *testing.T) {
	s := New[int](5, nil)
	for i := 0; i < 3; i++ {
		s.Checkpoint(i)
	}
	require.True(t, s.CanUndo())
	require.False(t, s.CanRedo())

	v, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = s.Undo()
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	_, err = s.Undo()
	require.ErrorIs(t, err, ErrNothingToUndo)
	assert.Equal(t, 0, s.Cursor())

	v, err = s.Redo()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	v, err = s.Redo()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	_, err = s.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)
	assert.Equal(t, 2, s.Cursor())
}

func TestCheckpointAfterUndoDiscardsRedo(t *testing.T) {
	s := New[string](10, nil)
	s.Checkpoint("a")
	s.Checkpoint("b")
	s.Checkpoint("c")
	_, err := s.Undo()
	require.NoError(t, err)
	_, err = s.Undo()
	require.NoError(t, err)

	s.Checkpoint("d")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, s.Len()-1, s.Cursor())
	assert.False(t, s.CanRedo())
	_, err = s.Redo()
	require.ErrorIs(t, err, ErrNothingToRedo)

	v, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestMaxDepthEvictsOldest(t *testing.T) {
	s := New[int](3, nil)
	for i := 0; i < 5; i++ {
		s.Checkpoint(i)
		assert.LessOrEqual(t, s.Len(), 3)
		assert.Equal(t, s.Len()-1, s.Cursor())
	}
	cur, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 4, cur)

	var got []int
	for s.CanUndo() {
		v, err := s.Undo()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{3, 2}, got)
}

func TestEntriesAreCloned(t *testing.T) {
	s := New(5, cloneInts)
	state := []int{1, 2}
	s.Checkpoint(state)
	state[0] = 99
	s.Checkpoint([]int{3})

	v, err := s.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, v)
	v[1] = 42
	again, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, again)
}

func TestReset(t *testing.T) {
	s := New[int](0, nil)
	assert.Equal(t, DefaultMaxDepth, s.MaxDepth())
	s.Checkpoint(1)
	s.Checkpoint(2)
	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, -1, s.Cursor())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.False(t, s.CanUndo())
	assert.False(t, s.CanRedo())
}

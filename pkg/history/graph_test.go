package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/history"
	"github.com/yaklabco/srcbuf/pkg/text"
)

func step(start, end int, newText, oldText string) history.Replacement {
	return history.Replacement{
		Range:   text.MustRange(text.Location(start), text.Location(end)),
		NewText: newText,
		OldText: oldText,
	}
}

func TestReplacement_Invert(t *testing.T) {
	t.Parallel()

	r := step(4, 5, "yy", "x")
	inv := r.Invert()

	assert.Equal(t, text.MustRange(4, 6), inv.Range)
	assert.Equal(t, "x", inv.NewText)
	assert.Equal(t, "yy", inv.OldText)
	assert.Equal(t, r, inv.Invert())
}

func TestInvertAll_ReversesOrder(t *testing.T) {
	t.Parallel()

	steps := []history.Replacement{step(0, 0, "a", ""), step(5, 6, "", "b")}
	inv := history.InvertAll(steps)

	require.Len(t, inv, 2)
	assert.Equal(t, text.MustRange(5, 5), inv[0].Range)
	assert.Equal(t, "b", inv[0].NewText)
	assert.Equal(t, text.MustRange(0, 1), inv[1].Range)
	assert.Empty(t, inv[1].NewText)
}

func TestGraph_UndoRedo(t *testing.T) {
	t.Parallel()

	g := history.New(1, 0)
	assert.False(t, g.CanUndo())
	assert.False(t, g.CanRedo())

	_, _, ok := g.Undo()
	assert.False(t, ok, "undo on a fresh graph must fail")

	g.Record(2, []history.Replacement{step(4, 5, "y", "x")})
	assert.Equal(t, uint64(2), g.Version())
	assert.Equal(t, 2, g.Len())

	steps, version, ok := g.Undo()
	require.True(t, ok)
	assert.Equal(t, uint64(1), version)
	require.Len(t, steps, 1)
	assert.Equal(t, "x", steps[0].NewText)
	assert.Equal(t, text.MustRange(4, 5), steps[0].Range)

	steps, version, ok = g.Redo()
	require.True(t, ok)
	assert.Equal(t, uint64(2), version)
	require.Len(t, steps, 1)
	assert.Equal(t, "y", steps[0].NewText)

	_, _, ok = g.Redo()
	assert.False(t, ok)
}

func TestGraph_NewEditTruncatesRedo(t *testing.T) {
	t.Parallel()

	g := history.New(1, 0)
	g.Record(2, []history.Replacement{step(0, 0, "a", "")})
	g.Record(3, []history.Replacement{step(1, 1, "b", "")})

	_, _, _ = g.Undo()
	_, _, _ = g.Undo()
	assert.Equal(t, uint64(1), g.Version())
	assert.True(t, g.CanRedo())

	g.Record(4, []history.Replacement{step(0, 0, "z", "")})

	assert.False(t, g.CanRedo())
	assert.Equal(t, []uint64{1, 4}, g.Versions())
	assert.Equal(t, 2, g.Len())
}

func TestGraph_Limit(t *testing.T) {
	t.Parallel()

	g := history.New(1, 2)
	for v := uint64(2); v <= 5; v++ {
		g.Record(v, []history.Replacement{step(0, 0, "a", "")})
	}

	assert.Equal(t, []uint64{3, 4, 5}, g.Versions())

	undone := 0
	for g.CanUndo() {
		_, _, _ = g.Undo()
		undone++
	}
	assert.Equal(t, 2, undone)
	assert.Equal(t, uint64(3), g.Version())
}

func TestGraph_Reset(t *testing.T) {
	t.Parallel()

	g := history.New(1, 0)
	g.Record(2, []history.Replacement{step(0, 0, "a", "")})
	g.Reset(9)

	assert.Equal(t, uint64(9), g.Version())
	assert.Equal(t, 1, g.Len())
	assert.False(t, g.CanUndo())
}

package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/fix"
)

const keywordStyle buffer.StyleID = 5

func TestHighlight_AlnumInsertionInheritsLeftStyle(t *testing.T) {
	t.Parallel()

	buf := buffer.New("foo bar", buffer.Options{})
	buf.AddHighlightRange(rng(0, 3), false, keywordStyle, buffer.LayerSyntax)

	require.NoError(t, buf.Insert(1, "x"))
	assert.Equal(t, keywordStyle, buf.StyleAt(1, buffer.LayerSyntax).ID)
	assert.Equal(t, keywordStyle, buf.StyleAt(3, buffer.LayerSyntax).ID)
	assert.Equal(t, buffer.NoStyle, buf.StyleAt(4, buffer.LayerSyntax))

	require.NoError(t, buf.Insert(4, "d"))
	assert.Equal(t, "fxood bar", buf.Text())
	assert.Equal(t, keywordStyle, buf.StyleAt(4, buffer.LayerSyntax).ID)
	require.NoError(t, buf.Validate())
}

func TestHighlight_PunctuationInsertionIsUnstyled(t *testing.T) {
	t.Parallel()

	buf := buffer.New("foo bar", buffer.Options{})
	buf.AddHighlightRange(rng(0, 3), false, keywordStyle, buffer.LayerSyntax)

	require.NoError(t, buf.Insert(1, "+"))
	assert.Equal(t, buffer.NoStyle, buf.StyleAt(1, buffer.LayerSyntax))
	assert.Equal(t, keywordStyle, buf.StyleAt(0, buffer.LayerSyntax).ID)
	assert.Equal(t, keywordStyle, buf.StyleAt(2, buffer.LayerSyntax).ID)
	require.NoError(t, buf.Validate())
}

func TestHighlight_DeletionKeepsPartition(t *testing.T) {
	t.Parallel()

	buf := buffer.New("aaaa bbbb cccc", buffer.Options{BlockSize: 4})
	buf.AddHighlightRange(rng(0, 4), false, 1, buffer.LayerSyntax)
	buf.AddHighlightRange(rng(5, 9), true, 2, buffer.LayerSyntax)
	buf.AddHighlightRange(rng(10, 14), false, 3, buffer.LayerSyntax)

	require.NoError(t, buf.Delete(rng(2, 12)))
	assert.Equal(t, "aacc", buf.Text())
	assert.Equal(t, buffer.StyleID(1), buf.StyleAt(1, buffer.LayerSyntax).ID)
	assert.Equal(t, buffer.StyleID(3), buf.StyleAt(2, buffer.LayerSyntax).ID)
	require.NoError(t, buf.Validate())
}

func TestHighlight_SpansAcrossBlocks(t *testing.T) {
	t.Parallel()

	buf := buffer.New("aaaaaaaaaaaa", buffer.Options{BlockSize: 4})
	require.Equal(t, 3, buf.BlockCount())

	buf.AddHighlightRange(rng(2, 10), true, 3, buffer.LayerSyntax)

	assert.Equal(t, []buffer.StyleSpan{
		{Range: rng(0, 2), Style: buffer.NoStyle},
		{Range: rng(2, 10), Style: buffer.Style{ID: 3, NonCode: true}},
		{Range: rng(10, 12), Style: buffer.NoStyle},
	}, buf.StyleSpans(buffer.LayerSyntax))
	assert.True(t, buf.IsNonCodeAt(5))
	assert.False(t, buf.IsNonCodeAt(11))
	assert.Equal(t, buffer.NoStyle, buf.StyleAt(5, buffer.LayerOverlay))

	buf.ClearHighlightRanges(buffer.LayerSyntax)
	assert.Equal(t, []buffer.StyleSpan{{Range: rng(0, 12), Style: buffer.NoStyle}}, buf.StyleSpans(buffer.LayerSyntax))
}

func TestProblems_ShiftWithEdits(t *testing.T) {
	t.Parallel()

	buf := buffer.New("line one\nline two\nline three", buffer.Options{})
	id := buf.AddProblem(buffer.Problem{
		Severity: buffer.SeverityError,
		Message:  "bad word",
		Range:    rng(14, 17),
	})
	require.NoError(t, buf.AddProblemRange(id, rng(5, 8), "first use"))

	assert.Equal(t, buffer.LineAttr(0), buf.LineAttributes(0))
	assert.NotZero(t, buf.LineAttributes(1)&buffer.LineHasError)
	assert.Zero(t, buf.LineAttributes(2)&buffer.LineHasError)

	require.NoError(t, buf.Insert(0, "xx"))

	problem, ok := buf.Problem(id)
	require.True(t, ok)
	assert.Equal(t, rng(16, 19), problem.Range)
	assert.Equal(t, rng(7, 10), problem.Ranges[0].Range)
	assert.Equal(t, "two", buf.TextRange(problem.Range))
	assert.Len(t, buf.ProblemsAt(17), 1)
	assert.Empty(t, buf.ProblemsAt(3))

	buf.ClearProblems()
	assert.Empty(t, buf.Problems())
	assert.Zero(t, buf.LineAttributes(1)&buffer.LineHasError)
}

func TestProblems_UnknownID(t *testing.T) {
	t.Parallel()

	buf := buffer.New("text", buffer.Options{})
	assert.ErrorIs(t, buf.AddProblemRange(42, rng(0, 1), ""), buffer.ErrNoProblem)
	assert.ErrorIs(t, buf.ApplyFixits(42), buffer.ErrNoProblem)

	id := buf.AddProblem(buffer.Problem{Severity: buffer.SeverityInfo, Range: rng(0, 4)})
	assert.ErrorIs(t, buf.ApplyFixits(id), buffer.ErrNoFixits)
}

func TestApplyFixits(t *testing.T) {
	t.Parallel()

	buf := buffer.New("hello  \nworld\t!", buffer.Options{})
	id := buf.AddProblem(buffer.Problem{
		Severity: buffer.SeverityWarning,
		Message:  "whitespace",
		Range:    rng(5, 7),
		Fixits: fix.NewEditBuilder().
			Delete(5, 7).
			ReplaceRange(13, 14, " ").
			Build(),
	})

	require.NoError(t, buf.ApplyFixits(id))
	assert.Equal(t, "hello\nworld !", buf.Text())

	require.True(t, buf.Undo())
	assert.Equal(t, "hello  \nworld\t!", buf.Text())
}

func TestApplyAllFixits(t *testing.T) {
	t.Parallel()

	buf := buffer.New("a  b  c", buffer.Options{})
	buf.AddProblem(buffer.Problem{Range: rng(1, 3), Fixits: []fix.TextEdit{{StartOffset: 1, EndOffset: 3, NewText: " "}}})
	buf.AddProblem(buffer.Problem{Range: rng(4, 6), Fixits: []fix.TextEdit{{StartOffset: 4, EndOffset: 6, NewText: " "}}})
	buf.AddProblem(buffer.Problem{Range: rng(2, 5), Fixits: []fix.TextEdit{{StartOffset: 2, EndOffset: 5, NewText: "?"}}})

	summary, err := buf.ApplyAllFixits()
	require.NoError(t, err)
	assert.Equal(t, buffer.FixitSummary{Applied: 2, Skipped: 1}, summary)
	assert.Equal(t, "a b c", buf.Text())

	require.True(t, buf.Undo())
	assert.Equal(t, "a  b  c", buf.Text())
}

func TestContexts(t *testing.T) {
	t.Parallel()

	buf := buffer.New("0123456789abcdefghij", buffer.Options{BlockSize: 8})
	buf.AddContext(buffer.Context{Name: "inner", Range: rng(5, 10)})
	buf.AddContext(buffer.Context{Name: "outer", Range: rng(0, 20)})
	buf.AddContext(buffer.Context{Name: "other", Range: rng(12, 15)})

	names := func(cs []buffer.Context) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}

	assert.Equal(t, []string{"outer", "inner"}, names(buf.GetContextsAt(6)))
	assert.Equal(t, []string{"outer", "other"}, names(buf.GetContextsAt(13)))
	assert.Equal(t, []string{"outer"}, names(buf.GetContextsAt(11)))
	assert.Empty(t, buf.GetContextsAt(20))

	require.NoError(t, buf.Delete(rng(4, 11)))

	contexts := buf.Contexts()
	require.Len(t, contexts, 2)
	assert.Equal(t, "outer", contexts[0].Name)
	assert.Equal(t, rng(0, 13), contexts[0].Range)
	assert.Equal(t, "other", contexts[1].Name)
	assert.Equal(t, rng(5, 8), contexts[1].Range)

	buf.ClearContexts()
	assert.Empty(t, buf.Contexts())
}

func TestBlock(t *testing.T) {
	t.Parallel()

	blk := buffer.NewBlock("ab\ncd\nef", true)
	assert.Equal(t, []buffer.LineStart{{Offset: -1}, {Offset: 2}, {Offset: 5}}, blk.LineStarts())
	require.NoError(t, blk.Validate(true))

	blk.InsertStyleRange(1, 4, buffer.Style{ID: 9}, buffer.LayerOverlay)
	assert.Equal(t, []buffer.StyleRun{
		{Start: 0, Style: buffer.NoStyle},
		{Start: 1, Style: buffer.Style{ID: 9}},
		{Start: 4, Style: buffer.NoStyle},
	}, blk.StyleRuns(buffer.LayerOverlay))

	pieces := blk.Split(3)
	require.Len(t, pieces, 3)
	require.NoError(t, pieces[0].Validate(true))
	for _, piece := range pieces[1:] {
		require.NoError(t, piece.Validate(false))
	}
	assert.Equal(t, []buffer.StyleRun{
		{Start: 0, Style: buffer.Style{ID: 9}},
		{Start: 1, Style: buffer.NoStyle},
	}, pieces[1].StyleRuns(buffer.LayerOverlay))

	blk.Replace(2, 3, "", nil, nil)
	assert.Equal(t, "abcd\nef", blk.Text())
	assert.Equal(t, []buffer.LineStart{{Offset: -1}, {Offset: 4}}, blk.LineStarts())
	require.NoError(t, blk.Validate(true))
}

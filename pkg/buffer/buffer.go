package buffer

import (
	"fmt"
	"slices"
	"sort"

	"github.com/yaklabco/srcbuf/pkg/history"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// DefaultBlockSize is the target block size in characters.
const DefaultBlockSize = 4096

// Options configures a Buffer.
type Options struct {
	// BlockSize is the target number of characters per block. Blocks split
	// above twice this size and merge with a neighbour when both together
	// are smaller than it. 0 means DefaultBlockSize.
	BlockSize int

	// UndoLimit caps the number of undo steps. 0 means unlimited.
	UndoLimit int
}

// Buffer is an editable document.
//
// A Buffer is not safe for concurrent use. One goroutine owns all mutation
// (see package mainloop); analysis workers only ever receive snapshots.
type Buffer struct {
	blocks    []*Block
	length    int
	blockSize int

	version      uint64
	lastVersion  uint64
	savedVersion uint64

	// epoch changes on every layout change and tags block position caches.
	epoch uint64

	history    *history.Graph
	groupDepth int
	groupSteps []history.Replacement

	problems      []*Problem
	nextProblemID int
	contexts      []Context

	publishing bool
}

// New creates a buffer holding content.
func New(content string, opts Options) *Buffer {
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	runes := []rune(content)
	buf := &Buffer{
		blocks:    newBlock(runes, true).Split(blockSize),
		length:    len(runes),
		blockSize: blockSize,
		version:   1,
		epoch:     1,
	}
	buf.lastVersion = buf.version
	buf.savedVersion = buf.version
	buf.history = history.New(buf.version, opts.UndoLimit)
	return buf
}

// Len returns the number of characters in the document.
func (b *Buffer) Len() int {
	return b.length
}

// Version returns the current version. It changes on every edit, undo and
// redo; undo and redo return to the version the target state had before.
func (b *Buffer) Version() uint64 {
	return b.version
}

// MarkSaved records the current version as the saved one.
func (b *Buffer) MarkSaved() {
	b.savedVersion = b.version
}

// IsModified reports whether the text differs from the last saved version.
func (b *Buffer) IsModified() bool {
	return b.version != b.savedVersion
}

// BlockCount returns the number of blocks.
func (b *Buffer) BlockCount() int {
	return len(b.blocks)
}

// Blocks returns the blocks in document order. Callers must not mutate them.
func (b *Buffer) Blocks() []*Block {
	return slices.Clone(b.blocks)
}

// Replace replaces the characters in r with newText and bumps the version.
//
// A range outside the current text is a caller bug and panics. While analysis
// results are being published the edit is rejected with ErrPublishing.
// With recordUndo the inverse is added to the undo history (or to the open
// combined step); without it the undo history is discarded, since it could
// no longer be replayed against the text.
func (b *Buffer) Replace(r text.Range, newText string, recordUndo bool) error {
	if b.publishing {
		return ErrPublishing
	}
	b.checkRange(r)

	var oldText string
	if recordUndo {
		oldText = b.TextRange(r)
	}

	b.apply(r, []rune(newText))
	b.lastVersion++
	b.version = b.lastVersion

	switch {
	case !recordUndo:
		b.groupSteps = nil
		b.history.Reset(b.version)
	case b.groupDepth > 0:
		b.groupSteps = append(b.groupSteps, history.Replacement{Range: r, NewText: newText, OldText: oldText})
	default:
		b.history.Record(b.version, []history.Replacement{{Range: r, NewText: newText, OldText: oldText}})
	}
	return nil
}

// Insert inserts s at loc.
func (b *Buffer) Insert(loc text.Location, s string) error {
	return b.Replace(text.MustRange(loc, loc), s, true)
}

// Delete removes the characters in r.
func (b *Buffer) Delete(r text.Range) error {
	return b.Replace(r, "", true)
}

func (b *Buffer) checkRange(r text.Range) {
	if !r.Start.IsValid() || r.End < r.Start || int(r.End) > b.length {
		panic(fmt.Sprintf("buffer: range %s outside text of length %d", r, b.length))
	}
}

// apply performs the block-level edit without touching version or history.
func (b *Buffer) apply(r text.Range, ins []rune) {
	b.adjustAnnotations(r, len(ins))

	first, last := b.locate(r)
	firstBlk := b.blocks[first]
	start := int(r.Start) - firstBlk.cacheStart

	if first == last {
		firstBlk.replace(start, start+r.Len(), ins, b.blockAt(first-1), b.blockAt(first+1))
	} else {
		lastBlk := b.blocks[last]
		// Deletion suffix, whole-block removal, insertion prefix.
		firstBlk.replace(start, firstBlk.Len(), nil, b.blockAt(first-1), lastBlk)
		lastBlk.replace(0, int(r.End)-lastBlk.cacheStart, ins, firstBlk, b.blockAt(last+1))
		b.blocks = slices.Delete(b.blocks, first+1, last)
	}

	b.length += len(ins) - r.Len()
	b.epoch++
	b.rebalance(first, min(first+1, len(b.blocks)-1))
}

func (b *Buffer) blockAt(idx int) *Block {
	if idx < 0 || idx >= len(b.blocks) {
		return nil
	}
	return b.blocks[idx]
}

// rebalance splits oversized blocks in [first, last] and merges small
// neighbours around them.
func (b *Buffer) rebalance(first, last int) {
	for k := last; k >= first; k-- {
		if b.blocks[k].Len() > 2*b.blockSize {
			pieces := b.blocks[k].Split(b.blockSize)
			b.blocks = slices.Replace(b.blocks, k, k+1, pieces...)
			last += len(pieces) - 1
		}
	}

	k := max(first-1, 0)
	for k < len(b.blocks)-1 && k <= last {
		cur, next := b.blocks[k], b.blocks[k+1]
		if cur.Len() == 0 || next.Len() == 0 || cur.Len()+next.Len() < b.blockSize {
			cur.Append(next)
			b.blocks = slices.Delete(b.blocks, k+1, k+2)
			last--
			continue
		}
		k++
	}
	b.epoch++
}

// reindex refreshes the absolute position caches of all blocks.
func (b *Buffer) reindex() {
	if b.blocks[0].cacheEpoch == b.epoch {
		return
	}
	start, line := 0, 0
	for _, blk := range b.blocks {
		blk.cacheEpoch = b.epoch
		blk.cacheStart = start
		blk.cacheLine = line
		start += blk.Len()
		line += len(blk.lines)
	}
}

// blockIndex returns the block holding loc; the end of the document maps to
// the last block.
func (b *Buffer) blockIndex(loc int) int {
	b.reindex()
	idx := sort.Search(len(b.blocks), func(i int) bool { return b.blocks[i].cacheStart > loc }) - 1
	return max(idx, 0)
}

// locate returns the first and last blocks overlapped by r.
func (b *Buffer) locate(r text.Range) (int, int) {
	first := b.blockIndex(int(r.Start))
	if r.IsEmpty() {
		return first, first
	}
	end := int(r.End)
	last := sort.Search(len(b.blocks), func(i int) bool { return b.blocks[i].cacheStart >= end }) - 1
	return first, max(last, first)
}

// Validate checks the invariants of every block.
func (b *Buffer) Validate() error {
	total := 0
	for i, blk := range b.blocks {
		if err := blk.Validate(i == 0); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		total += blk.Len()
	}
	if total != b.length {
		return fmt.Errorf("%w: blocks hold %d characters, buffer reports %d", ErrCorrupt, total, b.length)
	}
	return nil
}

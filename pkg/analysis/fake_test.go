package analysis_test

import (
	"context"
	"iter"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/mainloop"
	"github.com/yaklabco/srcbuf/pkg/text"
)

// fakeEngine records how it is called. When gate is set every analysis
// blocks until the gate is closed.
type fakeEngine struct {
	mu         sync.Mutex
	parses     int
	reparses   int
	closed     int
	calls      map[string]int
	running    map[string]int
	maxRunning map[string]int
	gate       chan struct{}
	entered    chan string
	fail       error
	panicMsg   string
}

func newFakeEngine(gated bool) *fakeEngine {
	e := &fakeEngine{
		calls:      make(map[string]int),
		running:    make(map[string]int),
		maxRunning: make(map[string]int),
		entered:    make(chan string, 64),
	}
	if gated {
		e.gate = make(chan struct{})
	}
	return e
}

func (e *fakeEngine) setFail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = err
}

func (e *fakeEngine) snapshot() (parses, reparses, closed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parses, e.reparses, e.closed
}

func (e *fakeEngine) callsFor(path string) (calls, maxRunning int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[path], e.maxRunning[path]
}

func (e *fakeEngine) Parse(ctx context.Context, in analysis.Input) (analysis.Unit, error) {
	e.mu.Lock()
	e.parses++
	e.mu.Unlock()

	unit := &fakeUnit{engine: e}
	if err := unit.analyze(ctx, in); err != nil {
		return nil, err
	}
	return unit, nil
}

func (e *fakeEngine) enter(in analysis.Input) (chan struct{}, string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls[in.Path]++
	e.running[in.Path]++
	e.maxRunning[in.Path] = max(e.maxRunning[in.Path], e.running[in.Path])
	return e.gate, e.panicMsg, e.fail
}

func (e *fakeEngine) leave(path string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[path]--
}

type fakeUnit struct {
	engine *fakeEngine
	text   string
}

func (u *fakeUnit) analyze(ctx context.Context, in analysis.Input) error {
	gate, panicMsg, fail := u.engine.enter(in)
	defer u.engine.leave(in.Path)
	u.engine.entered <- in.Path

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if fail != nil {
		return fail
	}
	u.text = in.Text
	return nil
}

func (u *fakeUnit) Reparse(ctx context.Context, in analysis.Input) error {
	u.engine.mu.Lock()
	u.engine.reparses++
	u.engine.mu.Unlock()
	return u.analyze(ctx, in)
}

func (u *fakeUnit) length() text.Location {
	return text.Location(utf8.RuneCountInString(u.text))
}

func (u *fakeUnit) Tokens() iter.Seq[analysis.Token] {
	return func(yield func(analysis.Token) bool) {
		yield(analysis.Token{Kind: analysis.TokenKeyword, Range: text.MustRange(0, min(3, u.length()))})
	}
}

func (u *fakeUnit) Spans() iter.Seq[analysis.StyleSpan] {
	return func(yield func(analysis.StyleSpan) bool) {}
}

func (u *fakeUnit) Scopes() iter.Seq[analysis.Scope] {
	return func(yield func(analysis.Scope) bool) {
		if !yield(analysis.Scope{Name: "doc", Range: text.MustRange(0, u.length())}) {
			return
		}
		// Out of bounds; the scheduler must drop it.
		yield(analysis.Scope{Name: "overflow", Range: text.MustRange(0, u.length()+5)})
	}
}

func (u *fakeUnit) Diagnostics() iter.Seq[analysis.Diagnostic] {
	return func(yield func(analysis.Diagnostic) bool) {
		if u.length() == 0 {
			return
		}
		yield(analysis.Diagnostic{
			Severity: buffer.SeverityWarning,
			Message:  u.text,
			Range:    text.MustRange(0, 1),
		})
	}
}

func (u *fakeUnit) Close() error {
	u.engine.mu.Lock()
	defer u.engine.mu.Unlock()
	u.engine.closed++
	return nil
}

type harness struct {
	loop    *mainloop.Loop
	engine  *fakeEngine
	sched   *analysis.Scheduler
	reports chan analysis.Report
}

func newHarness(t *testing.T, engine *fakeEngine, opts analysis.Options) *harness {
	t.Helper()

	loop := mainloop.New(mainloop.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	h := &harness{loop: loop, engine: engine, reports: make(chan analysis.Report, 64)}
	opts.OnReport = func(r analysis.Report) { h.reports <- r }
	h.sched = analysis.New(engine, loop, opts)
	require.NoError(t, h.sched.Start(ctx))

	t.Cleanup(func() {
		if engine.gate != nil {
			select {
			case <-engine.gate:
			default:
				close(engine.gate)
			}
		}
		h.sched.Stop()
		cancel()
		<-loop.Done()
	})
	return h
}

func (h *harness) onLoop(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, h.loop.Invoke(context.Background(), fn))
}

func (h *harness) open(t *testing.T, path, content string) *buffer.Buffer {
	t.Helper()
	buf := buffer.New(content, buffer.Options{})
	h.onLoop(t, func() { h.sched.Open(path, buf) })
	return buf
}

func (h *harness) request(t *testing.T, path string, buf *buffer.Buffer, mode analysis.Mode) {
	t.Helper()
	var err error
	h.onLoop(t, func() { err = h.sched.Enqueue(analysis.NewRequest(path, buf, nil, mode)) })
	require.NoError(t, err)
}

func (h *harness) waitIdle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.sched.WaitIdle(ctx))
}

func (h *harness) nextReport(t *testing.T) analysis.Report {
	t.Helper()
	select {
	case r := <-h.reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no report")
		return analysis.Report{}
	}
}

func (h *harness) waitEntered(t *testing.T) string {
	t.Helper()
	select {
	case path := <-h.engine.entered:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("engine was not called")
		return ""
	}
}

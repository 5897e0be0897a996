package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/ctxpool"
)

// Scheduler errors
var (
	// ErrUnknownDocument indicates a request for a document that is not open.
	ErrUnknownDocument = errors.New("document is not open")

	// ErrStopped indicates the scheduler no longer accepts requests.
	ErrStopped = errors.New("scheduler stopped")

	// ErrEnginePanic wraps a panic raised inside the engine.
	ErrEnginePanic = errors.New("analysis engine panicked")
)

// Defaults for Options.
const (
	DefaultWorkers  = 2
	DefaultPoolSize = 2
)

// Marshaler runs fn on the designated mutation goroutine and waits for it to
// return. mainloop.Loop implements it.
type Marshaler interface {
	Invoke(ctx context.Context, fn func()) error
}

// Options configures a Scheduler.
type Options struct {
	// Workers is the number of analysis goroutines. 0 means DefaultWorkers.
	Workers int

	// PoolSize is the number of analysis contexts kept per document.
	// 0 means DefaultPoolSize.
	PoolSize int

	// Classifier maps tokens to syntax styles. nil means DefaultClassifier.
	Classifier Classifier

	// Clock orders parse stamps across documents. nil creates one.
	Clock *ctxpool.Clock

	// OnReport, if set, is called from a worker after each request.
	OnReport func(Report)

	Logger *log.Logger
}

type document struct {
	buf  *buffer.Buffer
	open bool
	pool *ctxpool.Pool[Unit]
}

// flight is a request a worker is analysing, tied to the registration it was
// taken for so a close and reopen of the same path is told apart.
type flight struct {
	req Request
	doc *document
}

// Scheduler runs analysis requests on a fixed pool of workers.
//
// Requests for the same document coalesce while pending, and at most one
// request per document is being analysed at any time. Lock order: the
// marshaler's goroutine may call into the scheduler, but workers never hold
// the scheduler's lock while waiting on the marshaler.
type Scheduler struct {
	engine   Engine
	marshal  Marshaler
	classify Classifier
	clock    *ctxpool.Clock
	opts     Options
	logger   *log.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []Request
	inFlight   map[string]flight
	docs       map[string]*document
	active     string
	stats      Stats
	started    bool
	stopped    bool
	idle       chan struct{}
	idleClosed bool
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

// New creates a scheduler. Call Start to launch its workers.
func New(engine Engine, marshal Marshaler, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	classify := opts.Classifier
	if classify == nil {
		classify = DefaultClassifier
	}
	clock := opts.Clock
	if clock == nil {
		clock = &ctxpool.Clock{}
	}

	s := &Scheduler{
		engine:     engine,
		marshal:    marshal,
		classify:   classify,
		clock:      clock,
		opts:       opts,
		logger:     logging.OrDiscard(opts.Logger),
		inFlight:   make(map[string]flight),
		docs:       make(map[string]*document),
		idle:       make(chan struct{}),
		idleClosed: true,
	}
	close(s.idle)
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Open registers an open document and the buffer its results go to.
func (s *Scheduler) Open(path string, buf *buffer.Buffer) {
	s.attach(path, buf, true)
}

// Track registers a document that is loaded but not open, such as a file
// analysed in batch. Its requests run at the lowest priority.
func (s *Scheduler) Track(path string, buf *buffer.Buffer) {
	s.attach(path, buf, false)
}

// attach registers buf under path. Re-registering the same buffer only
// updates its open flag; a different buffer replaces the registration, so
// results computed for the old one are never published to it.
func (s *Scheduler) attach(path string, buf *buffer.Buffer, open bool) {
	s.mu.Lock()
	prev, ok := s.docs[path]
	if ok && prev.buf == buf {
		prev.open = open
		s.mu.Unlock()
		return
	}
	s.docs[path] = &document{
		buf:  buf,
		open: open,
		pool: ctxpool.New[Unit](s.clock, s.opts.PoolSize),
	}
	if ok {
		s.dropPending(path)
	}
	s.mu.Unlock()

	if ok {
		for _, unit := range prev.pool.Close() {
			s.closeUnit(unit)
		}
	}
}

// Close forgets a document. Pending requests for it are dropped; a request
// already in flight finishes without publishing.
func (s *Scheduler) Close(path string) {
	s.mu.Lock()
	doc, ok := s.docs[path]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.docs, path)
	if s.active == path {
		s.active = ""
	}
	s.dropPending(path)
	s.mu.Unlock()

	for _, unit := range doc.pool.Close() {
		s.closeUnit(unit)
	}
	s.logger.Debug("document closed", logging.FieldDocument, path)
}

// SetActive marks path as the active document. An empty path clears it.
func (s *Scheduler) SetActive(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = path
}

// Enqueue adds req to the queue. A pending request for the same document is
// replaced in place, and a request the in-flight analysis already answers is
// dropped.
func (s *Scheduler) Enqueue(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	doc, ok := s.docs[req.Path]
	if !ok {
		return fmt.Errorf("enqueue %s: %w", req.Path, ErrUnknownDocument)
	}

	s.stats.Enqueued++
	if f, busy := s.inFlight[req.Path]; busy && f.doc == doc && covers(f.req, req) {
		s.stats.Coalesced++
		s.logger.Debug("request coalesced with analysis in flight",
			logging.FieldDocument, req.Path,
			logging.FieldVersion, req.Version)
		return nil
	}
	for i := range s.queue {
		if s.queue[i].Path == req.Path {
			s.queue[i] = supersede(s.queue[i], req)
			s.stats.Coalesced++
			s.logger.Debug("request coalesced",
				logging.FieldDocument, req.Path,
				logging.FieldVersion, req.Version)
			s.cond.Signal()
			return nil
		}
	}

	s.queue = append(s.queue, req)
	s.markBusy()
	s.logger.Debug("request enqueued",
		logging.FieldDocument, req.Path,
		logging.FieldVersion, req.Version,
		logging.FieldMode, req.Mode)
	s.cond.Signal()
	return nil
}

// Start launches the workers. Engine calls run under a context derived from
// ctx; cancelling it stops the workers like Stop does.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.cond.Broadcast()
	})

	for id := range s.opts.Workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.worker(ctx, id)
		}()
	}
	s.logger.Debug("scheduler started",
		logging.FieldWorkers, s.opts.Workers,
		logging.FieldPoolSize, s.opts.PoolSize)
	return nil
}

// Stop drops pending requests, waits for the workers and releases every
// pooled context. It must not be called from inside a marshaled function.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.queue = nil
	cancel := s.cancel
	s.cond.Broadcast()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	docs := s.docs
	s.docs = make(map[string]*document)
	s.maybeIdle()
	s.mu.Unlock()

	for _, doc := range docs {
		for _, unit := range doc.pool.Close() {
			s.closeUnit(unit)
		}
	}
	s.logger.Debug("scheduler stopped")
}

// WaitIdle blocks until no request is pending or in flight.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for idle scheduler: %w", ctx.Err())
	}
}

// Query runs fn against the freshest analysis context of path without
// waiting for pending requests. It returns ctxpool.ErrExhausted when no
// parsed context is free.
func (s *Scheduler) Query(ctx context.Context, path string, fn func(Unit) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	doc, ok := s.docs[path]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("query %s: %w", path, ErrUnknownDocument)
	}

	h, ok := doc.pool.TakeMostUpToDate()
	if !ok {
		return fmt.Errorf("query %s: %w", path, ctxpool.ErrExhausted)
	}
	if !h.Built() {
		doc.pool.Put(h, false)
		return fmt.Errorf("query %s: %w", path, ctxpool.ErrExhausted)
	}

	err := fn(h.Value)
	if !doc.pool.Put(h, false) {
		s.closeUnit(h.Value)
	}
	return err
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Pending returns the number of queued requests.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) worker(ctx context.Context, id int) {
	for {
		req, doc, ok := s.next(ctx)
		if !ok {
			return
		}
		report := s.process(ctx, req, doc)
		s.finish(report, id)
	}
}

// next blocks until an eligible request exists and marks its document in
// flight.
func (s *Scheduler) next(ctx context.Context) (Request, *document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.stopped || ctx.Err() != nil {
			return Request{}, nil, false
		}
		if idx := s.pick(); idx >= 0 {
			req := s.queue[idx]
			s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
			doc := s.docs[req.Path]
			s.inFlight[req.Path] = flight{req: req, doc: doc}
			return req, doc, true
		}
		s.cond.Wait()
	}
}

// pick returns the index of the highest-priority request whose document is
// not in flight, or -1. Ties go to the oldest request.
func (s *Scheduler) pick() int {
	best, bestPriority := -1, PriorityNone
	for i, req := range s.queue {
		if _, busy := s.inFlight[req.Path]; busy {
			continue
		}
		if p := s.priority(req.Path); best < 0 || p > bestPriority {
			best, bestPriority = i, p
		}
	}
	return best
}

func (s *Scheduler) priority(path string) Priority {
	switch {
	case path == s.active:
		return PriorityActive
	case s.docs[path] != nil && s.docs[path].open:
		return PriorityOpen
	default:
		return PriorityNone
	}
}

func (s *Scheduler) process(ctx context.Context, req Request, doc *document) Report {
	start := time.Now()
	pool := doc.pool
	report := Report{Path: req.Path, Version: req.Version, Mode: req.Mode}

	h, ok := pool.TakeLeastUpToDate()
	if !ok {
		report.Outcome = OutcomePoolExhausted
		report.Elapsed = time.Since(start)
		return report
	}

	res, reparsed, err := s.run(ctx, req, pool, h)
	if err != nil {
		if h.Built() {
			s.closeUnit(h.Value)
		}
		pool.Discard(h)
		report.Outcome = OutcomeEngineFailure
		report.Err = err
		report.Elapsed = time.Since(start)
		return report
	}
	report.Reparsed = reparsed
	if !pool.Put(h, true) {
		s.closeUnit(h.Value)
	}

	report.Outcome, report.Problems = s.publish(ctx, req, doc, res)
	report.Elapsed = time.Since(start)
	return report
}

// run brings h up to date with req and copies the results out of it.
func (s *Scheduler) run(
	ctx context.Context,
	req Request,
	pool *ctxpool.Pool[Unit],
	h *ctxpool.Handle[Unit],
) (res *results, reparsed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrEnginePanic, r)
		}
	}()

	in := req.input()
	if pool.CanBeReused(h, req.Path, req.Args) {
		if err := h.Value.Reparse(ctx, in); err != nil {
			return nil, true, fmt.Errorf("reparse %s: %w", req.Path, err)
		}
		reparsed = true
	} else {
		if h.Built() {
			s.closeUnit(h.Value)
			h.Reset()
		}
		unit, err := s.engine.Parse(ctx, in)
		if err != nil {
			return nil, false, fmt.Errorf("parse %s: %w", req.Path, err)
		}
		h.Rebuild(unit, req.Path, req.Args)
	}

	res = collect(h.Value, req.Mode, utf8.RuneCountInString(req.Text), s.classify)
	if res.dropped > 0 {
		s.logger.Debug("dropped results outside the document",
			logging.FieldDocument, req.Path,
			"count", res.dropped)
	}
	return res, reparsed, nil
}

// publish hands res to the marshaler. The results land only if doc is still
// the registration for the path and its buffer is still at the request's
// version.
func (s *Scheduler) publish(ctx context.Context, req Request, doc *document, res *results) (Outcome, int) {
	outcome, problems := OutcomeStale, 0
	err := s.marshal.Invoke(ctx, func() {
		s.mu.Lock()
		current := s.docs[req.Path]
		s.mu.Unlock()
		if current != doc {
			return
		}
		if doc.buf.Publish(req.Version, func() { problems = res.apply(doc.buf) }) {
			outcome = OutcomePublished
		}
	})
	if err != nil {
		s.logger.Debug("publication abandoned", logging.FieldDocument, req.Path, logging.FieldError, err)
		return OutcomeStale, 0
	}
	return outcome, problems
}

func (s *Scheduler) finish(report Report, worker int) {
	switch report.Outcome {
	case OutcomeEngineFailure:
		s.logger.Warn("analysis failed",
			logging.FieldDocument, report.Path,
			logging.FieldVersion, report.Version,
			logging.FieldError, report.Err)
	default:
		s.logger.Debug("analysis finished",
			logging.FieldDocument, report.Path,
			logging.FieldVersion, report.Version,
			logging.FieldOutcome, report.Outcome,
			logging.FieldWorker, worker)
	}

	if s.opts.OnReport != nil {
		s.opts.OnReport(report)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, report.Path)
	s.stats.accumulate(report)
	s.maybeIdle()
	s.cond.Broadcast()
}

func (s *Scheduler) closeUnit(unit Unit) {
	if unit == nil {
		return
	}
	if err := unit.Close(); err != nil {
		s.logger.Debug("close analysis unit", logging.FieldError, err)
	}
}

// dropPending removes the queued requests for path. Callers hold mu.
func (s *Scheduler) dropPending(path string) {
	s.queue = slices.DeleteFunc(s.queue, func(req Request) bool { return req.Path == path })
	s.maybeIdle()
}

// markBusy and maybeIdle maintain the idle channel. Callers hold mu.
func (s *Scheduler) markBusy() {
	if s.idleClosed {
		s.idle = make(chan struct{})
		s.idleClosed = false
	}
}

func (s *Scheduler) maybeIdle() {
	if !s.idleClosed && len(s.queue) == 0 && len(s.inFlight) == 0 {
		close(s.idle)
		s.idleClosed = true
	}
}

package runner

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/config"
	"github.com/yaklabco/srcbuf/pkg/engine/markdown"
	"github.com/yaklabco/srcbuf/pkg/fsutil"
	"github.com/yaklabco/srcbuf/pkg/mainloop"
	"github.com/yaklabco/srcbuf/pkg/workspace"
)

// Session is a running main loop, analysis scheduler and workspace built
// from one configuration.
type Session struct {
	Loop      *mainloop.Loop
	Scheduler *analysis.Scheduler
	Workspace *workspace.Workspace

	cancel context.CancelFunc
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	Config *config.Config

	// Engine replaces the Markdown engine. Tests use it.
	Engine analysis.Engine

	// OnReport is passed to the scheduler.
	OnReport func(analysis.Report)

	Logger *log.Logger
}

// NewSession starts a loop and a scheduler. Close must be called to stop them.
func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := logging.OrDiscard(opts.Logger)

	engine := opts.Engine
	if engine == nil {
		engine = markdown.New(markdown.Options{})
	}

	ctx, cancel := context.WithCancel(ctx)
	loop := mainloop.New(mainloop.Options{Logger: logger})
	go func() { _ = loop.Run(ctx) }()

	sched := analysis.New(engine, loop, analysis.Options{
		Workers:  cfg.Analysis.Workers,
		PoolSize: cfg.Analysis.PoolSize,
		OnReport: opts.OnReport,
		Logger:   logger,
	})
	if err := sched.Start(ctx); err != nil {
		cancel()
		loop.Stop()
		<-loop.Done()
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	ws := workspace.New(loop, sched, workspace.Options{
		Buffer: buffer.Options{
			BlockSize: cfg.Buffer.BlockSize,
			UndoLimit: cfg.Buffer.UndoLimit,
		},
		Args:   EngineArgs(cfg),
		Backup: backupConfig(cfg),
		Logger: logger,
	})

	logger.Debug("session started",
		logging.FieldFlavor, cfg.Flavor,
		logging.FieldWorkers, cfg.Analysis.Workers,
		logging.FieldPoolSize, cfg.Analysis.PoolSize,
		logging.FieldBlockSize, cfg.Buffer.BlockSize)

	return &Session{Loop: loop, Scheduler: sched, Workspace: ws, cancel: cancel}, nil
}

// WaitIdle blocks until every issued analysis request has finished.
func (s *Session) WaitIdle(ctx context.Context) error {
	return s.Scheduler.WaitIdle(ctx)
}

// Close stops the scheduler, then the loop.
func (s *Session) Close() {
	s.Scheduler.Stop()
	s.Loop.Stop()
	s.cancel()
	<-s.Loop.Done()
}

// EngineArgs returns the per-document engine arguments for cfg.
func EngineArgs(cfg *config.Config) func(path string) []string {
	args := markdown.Args(string(cfg.Flavor), cfg.Checks.MaxBlankLinesOrDefault())
	if cfg.Checks.CodeBlocksIgnored() {
		args = append(args, markdown.FlagIgnoreCodeBlocks)
	}
	if !cfg.Checks.LinkCheckEnabled() {
		args = append(args, markdown.FlagNoLinkCheck)
	}
	return func(string) []string { return args }
}

func backupConfig(cfg *config.Config) fsutil.BackupConfig {
	if cfg.NoBackups {
		return fsutil.BackupConfig{Enabled: false, Mode: fsutil.BackupModeNone}
	}
	return fsutil.BackupConfig{
		Enabled: cfg.Backups.Enabled,
		Mode:    fsutil.BackupMode(cfg.Backups.Mode),
	}
}

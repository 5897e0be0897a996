package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yaklabco/srcbuf/internal/logging"
	"github.com/yaklabco/srcbuf/internal/ui/pretty"
	"github.com/yaklabco/srcbuf/pkg/analysis"
	"github.com/yaklabco/srcbuf/pkg/buffer"
	"github.com/yaklabco/srcbuf/pkg/config"
	"github.com/yaklabco/srcbuf/pkg/fsutil"
	"github.com/yaklabco/srcbuf/pkg/runner"
	"github.com/yaklabco/srcbuf/pkg/text"
	"github.com/yaklabco/srcbuf/pkg/workspace"
)

const (
	replPrompt      = "srcbuf> "
	replHistoryFile = ".srcbuf_history"
)

type replFlags struct {
	force     bool
	noHistory bool
}

func newReplCommand() *cobra.Command {
	flags := &replFlags{}

	cmd := &cobra.Command{
		Use:   "repl <file>",
		Short: "Edit a document interactively",
		Long: `Open a document in a buffer and edit it from a command prompt.

Every edit is analysed in the background. Commands that show problems,
sections or styles wait for the analysis of the latest edit first.
A file that does not exist is created on the first save.

Positions are written LINE:COLUMN, both starting at 1, or $ for the end of
the document. Text arguments are taken literally, or decoded as a Go string
when they start with a double quote ("line\n").

Type "help" at the prompt for the list of commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "save even if the file changed on disk")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "do not read or write the prompt history")

	return cmd
}

func runRepl(cmd *cobra.Command, path string, flags *replFlags) error {
	cfg, _, err := loadConfig(cmd, &config.Config{})
	if err != nil {
		return err
	}
	ctx := logging.With(commandContext(cmd), logging.FieldDocument, path)
	logger := logging.FromContext(ctx)

	session, err := runner.NewSession(ctx, runner.SessionOptions{Config: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer session.Close()

	colorMode, err := cmd.Flags().GetString("color")
	if err != nil {
		colorMode = "auto"
	}
	out := cmd.OutOrStdout()

	r, err := openRepl(ctx, session, path, out, pretty.NewStyles(pretty.IsColorEnabled(colorMode, out)))
	if err != nil {
		return err
	}
	r.force = flags.force

	input := newLineReader(cmd.InOrStdin(), !flags.noHistory)
	defer input.Close()

	return r.loop(ctx, input)
}

// lineReader is the prompt the REPL reads commands from.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// newLineReader uses liner on a terminal and a plain scanner otherwise, so
// scripts can be piped in.
func newLineReader(in io.Reader, history bool) lineReader {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return &scanReader{scanner: bufio.NewScanner(in)}
	}

	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	reader := &terminalReader{State: ln}
	if !history {
		return reader
	}
	if home, err := os.UserHomeDir(); err == nil {
		reader.historyPath = filepath.Join(home, replHistoryFile)
		if hf, err := os.Open(reader.historyPath); err == nil {
			_, _ = ln.ReadHistory(hf)
			_ = hf.Close()
		}
	}
	return reader
}

type terminalReader struct {
	*liner.State
	historyPath string
}

func (t *terminalReader) Close() error {
	if t.historyPath != "" {
		if hf, err := os.Create(t.historyPath); err == nil {
			_, _ = t.WriteHistory(hf)
			_ = hf.Close()
		}
	}
	return t.State.Close()
}

type scanReader struct {
	scanner *bufio.Scanner
}

func (s *scanReader) Prompt(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) AppendHistory(string) {}

func (s *scanReader) Close() error { return nil }

// errQuit ends the loop.
var errQuit = errors.New("quit")

type repl struct {
	session *runner.Session
	ws      *workspace.Workspace
	path    string
	out     io.Writer
	styles  *pretty.Styles
	force   bool

	// cursor is where the next find starts.
	cursor text.Location

	// quitArmed is set after a quit was refused for unsaved changes.
	quitArmed bool
}

type replCommand struct {
	usage string
	help  string
	run   func(r *repl, ctx context.Context, rest string) error
}

//nolint:gochecknoglobals // Read-only command table.
var replCommands map[string]replCommand

func init() {
	replCommands = map[string]replCommand{
		"help":     {"help", "list the commands", (*repl).help},
		"show":     {"show [FROM [TO]]", "print lines FROM to TO with syntax styles", (*repl).show},
		"styles":   {"styles [syntax|overlay]", "list the style spans of a layer", (*repl).styleSpans},
		"insert":   {"insert POS TEXT", "insert TEXT at POS", (*repl).insert},
		"delete":   {"delete POS POS", "delete the text between two positions", (*repl).delete},
		"replace":  {"replace POS POS TEXT", "replace the text between two positions", (*repl).replace},
		"undo":     {"undo", "revert the last edit", (*repl).undo},
		"redo":     {"redo", "reapply the last undone edit", (*repl).redo},
		"find":     {"find [-i] TEXT", "find the next occurrence of TEXT, wrapping around", (*repl).find},
		"problems": {"problems", "list the current problems", (*repl).problems},
		"contexts": {"contexts", "list the sections of the document", (*repl).contexts},
		"fix":      {"fix ID", "apply the fix-its of problem ID", (*repl).fix},
		"fixall":   {"fixall", "apply the fix-its of every problem", (*repl).fixAll},
		"status":   {"status", "show the document state and analysis counters", (*repl).status},
		"save":     {"save", "write the document to disk (save! ignores changes on disk)", (*repl).save},
		"save!":    {"save!", "", (*repl).forceSave},
		"quit":     {"quit", "leave, refusing once if there are unsaved changes", (*repl).quit},
		"quit!":    {"quit!", "", (*repl).forceQuit},
	}
}

// openRepl opens path in the session's workspace and makes it active.
func openRepl(ctx context.Context, session *runner.Session, path string, out io.Writer, styles *pretty.Styles) (*repl, error) {
	ws := session.Workspace
	canonical, err := ws.Open(ctx, path)
	if errors.Is(err, fsutil.ErrNotFound) {
		canonical, err = ws.OpenText(ctx, path, "")
	}
	if err != nil {
		return nil, err
	}
	if err := ws.Activate(ctx, canonical); err != nil {
		return nil, err
	}
	return &repl{
		session: session,
		ws:      ws,
		path:    canonical,
		out:     out,
		styles:  styles,
	}, nil
}

func (r *repl) loop(ctx context.Context, input lineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := input.Prompt(replPrompt)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			return fmt.Errorf("read command: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		input.AppendHistory(line)

		if err := r.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(r.out, r.styles.Error.Render("error: "+err.Error()))
		}
	}
}

// exec runs one command line.
func (r *repl) exec(ctx context.Context, line string) error {
	name, rest, _ := strings.Cut(line, " ")
	switch name {
	case "q", "exit":
		name = "quit"
	case "p":
		name = "problems"
	}
	command, ok := replCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q; type help for a list", name)
	}
	if name != "quit" {
		r.quitArmed = false
	}
	return command.run(r, ctx, strings.TrimSpace(rest))
}

func (r *repl) help(context.Context, string) error {
	names := make([]string, 0, len(replCommands))
	for name, command := range replCommands {
		if command.help != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		command := replCommands[name]
		fmt.Fprintf(r.out, "  %-24s %s\n", command.usage, r.styles.Dim.Render(command.help))
	}
	return nil
}

// view waits for the analysis of the latest edit, then runs fn.
func (r *repl) view(ctx context.Context, fn func(*buffer.Buffer)) error {
	if err := r.session.WaitIdle(ctx); err != nil {
		return err
	}
	return r.ws.View(ctx, r.path, fn)
}

func (r *repl) show(ctx context.Context, rest string) error {
	args := strings.Fields(rest)
	if len(args) > 2 {
		return fmt.Errorf("%w: show [FROM [TO]]", ErrUsage)
	}
	var lines []string
	err := r.view(ctx, func(buf *buffer.Buffer) {
		highlighted := r.styles.Highlight(buf.Text(), buf.StyleSpans(buffer.LayerSyntax))
		lines = strings.Split(highlighted, "\n")
	})
	if err != nil {
		return err
	}

	from, to := 1, len(lines)
	if len(args) > 0 {
		if from, err = strconv.Atoi(args[0]); err != nil {
			return fmt.Errorf("line %q: %w", args[0], err)
		}
		to = from
	}
	if len(args) > 1 {
		if to, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("line %q: %w", args[1], err)
		}
	}
	from, to = max(from, 1), min(to, len(lines))

	width := len(strconv.Itoa(to))
	for i := from; i <= to; i++ {
		fmt.Fprintf(r.out, "%s  %s\n", r.styles.Location.Render(fmt.Sprintf("%*d", width, i)), lines[i-1])
	}
	return nil
}

func (r *repl) styleSpans(ctx context.Context, rest string) error {
	layer := buffer.LayerSyntax
	switch rest {
	case "", "syntax":
	case "overlay":
		layer = buffer.LayerOverlay
	default:
		return fmt.Errorf("%w: unknown layer %q", ErrUsage, rest)
	}
	return r.view(ctx, func(buf *buffer.Buffer) {
		for _, span := range buf.StyleSpans(layer) {
			if span.Style.ID == buffer.NoStyle.ID {
				continue
			}
			name := analysis.StyleName(span.Style.ID)
			if span.Style.NonCode {
				name += " (non-code)"
			}
			fmt.Fprintf(r.out, "  %s-%s  %s  %q\n",
				position(buf, span.Range.Start), position(buf, span.Range.End),
				r.styles.Bold.Render(name), buf.TextRange(span.Range))
		}
	})
}

func (r *repl) insert(ctx context.Context, rest string) error {
	pos, value, ok := strings.Cut(rest, " ")
	if !ok {
		return fmt.Errorf("%w: insert POS TEXT", ErrUsage)
	}
	return r.edit(ctx, pos, pos, value)
}

func (r *repl) delete(ctx context.Context, rest string) error {
	args := strings.Fields(rest)
	if len(args) != 2 {
		return fmt.Errorf("%w: delete POS POS", ErrUsage)
	}
	return r.edit(ctx, args[0], args[1], "")
}

func (r *repl) replace(ctx context.Context, rest string) error {
	from, rest, ok := strings.Cut(rest, " ")
	if !ok {
		return fmt.Errorf("%w: replace POS POS TEXT", ErrUsage)
	}
	to, value, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	return r.edit(ctx, from, to, value)
}

func (r *repl) edit(ctx context.Context, from, to, value string) error {
	newText, err := decodeText(value)
	if err != nil {
		return err
	}

	var rng text.Range
	var posErr error
	err = r.ws.View(ctx, r.path, func(buf *buffer.Buffer) {
		var start, end text.Location
		if start, posErr = locate(buf, from); posErr != nil {
			return
		}
		if end, posErr = locate(buf, to); posErr != nil {
			return
		}
		if end < start {
			posErr = fmt.Errorf("%s lies before %s", to, from)
			return
		}
		rng = text.MustRange(start, end)
	})
	if err != nil {
		return err
	}
	if posErr != nil {
		return posErr
	}
	return r.ws.Edit(ctx, r.path, rng, newText)
}

func (r *repl) undo(ctx context.Context, _ string) error {
	moved, err := r.ws.Undo(ctx, r.path)
	if err == nil && !moved {
		fmt.Fprintln(r.out, "nothing to undo")
	}
	return err
}

func (r *repl) redo(ctx context.Context, _ string) error {
	moved, err := r.ws.Redo(ctx, r.path)
	if err == nil && !moved {
		fmt.Fprintln(r.out, "nothing to redo")
	}
	return err
}

func (r *repl) find(ctx context.Context, rest string) error {
	matchCase := true
	if after, ok := strings.CutPrefix(rest, "-i "); ok {
		matchCase = false
		rest = after
	}
	needle, err := decodeText(rest)
	if err != nil {
		return err
	}
	if needle == "" {
		return fmt.Errorf("%w: find [-i] TEXT", ErrUsage)
	}

	return r.ws.View(ctx, r.path, func(buf *buffer.Buffer) {
		loc := buf.Find(needle, r.cursor, true, matchCase)
		if loc == text.Invalid && r.cursor > 0 {
			loc = buf.Find(needle, 0, true, matchCase)
		}
		if loc == text.Invalid {
			fmt.Fprintln(r.out, "not found")
			return
		}
		r.cursor = loc + 1
		line, _ := buf.LineOf(loc)
		fmt.Fprintf(r.out, "found at %s\n%s\n", position(buf, loc), r.styles.FormatSourceContext(runner.LineText(buf, line), columnOf(buf, loc)))
	})
}

func (r *repl) problems(ctx context.Context, _ string) error {
	var problems []runner.Problem
	if err := r.view(ctx, func(buf *buffer.Buffer) { problems, _ = runner.Collect(buf) }); err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintln(r.out, r.styles.Success.Render("no problems"))
		return nil
	}
	name := filepath.Base(r.path)
	for _, p := range problems {
		fmt.Fprint(r.out, r.styles.FormatProblem(name, p, p.SourceLine))
	}
	return nil
}

func (r *repl) contexts(ctx context.Context, _ string) error {
	var contexts []runner.Context
	if err := r.view(ctx, func(buf *buffer.Buffer) { _, contexts = runner.Collect(buf) }); err != nil {
		return err
	}
	if len(contexts) == 0 {
		fmt.Fprintln(r.out, "no sections")
		return nil
	}
	for _, c := range contexts {
		fmt.Fprint(r.out, r.styles.FormatContext(c))
	}
	return nil
}

func (r *repl) fix(ctx context.Context, rest string) error {
	id, err := strconv.Atoi(strings.TrimPrefix(rest, "#"))
	if err != nil {
		return fmt.Errorf("%w: fix ID", ErrUsage)
	}
	if err := r.session.WaitIdle(ctx); err != nil {
		return err
	}
	if err := r.ws.ApplyFixits(ctx, r.path, id); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "applied the fix-its of #%d\n", id)
	return nil
}

func (r *repl) fixAll(ctx context.Context, _ string) error {
	if err := r.session.WaitIdle(ctx); err != nil {
		return err
	}
	summary, err := r.ws.ApplyAllFixits(ctx, r.path)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "applied %d edits (%d merged, %d skipped)\n", summary.Applied, summary.Merged, summary.Skipped)
	return nil
}

func (r *repl) status(ctx context.Context, _ string) error {
	if err := r.session.WaitIdle(ctx); err != nil {
		return err
	}
	doc, err := r.ws.Document(ctx, r.path)
	if err != nil {
		return err
	}
	state := "saved"
	if doc.Modified {
		state = "modified"
	}
	fmt.Fprintf(r.out, "%s  %s  version %d  %s\n",
		r.styles.FilePath.Render(doc.Path), doc.Language, doc.Version, state)
	fmt.Fprint(r.out, r.styles.FormatAnalysisStats(runner.Stats{Analysis: r.session.Scheduler.Stats()}))
	return nil
}

func (r *repl) save(ctx context.Context, _ string) error {
	return r.write(ctx, r.force)
}

func (r *repl) forceSave(ctx context.Context, _ string) error {
	return r.write(ctx, true)
}

func (r *repl) write(ctx context.Context, force bool) error {
	err := r.ws.Save(ctx, r.path, workspace.SaveOptions{Force: force})
	if errors.Is(err, workspace.ErrModifiedOnDisk) {
		return fmt.Errorf("%w; use save! to overwrite", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "saved %s\n", r.styles.FilePath.Render(r.path))
	return nil
}

func (r *repl) quit(ctx context.Context, _ string) error {
	doc, err := r.ws.Document(ctx, r.path)
	if err != nil {
		return err
	}
	if doc.Modified && !r.quitArmed {
		r.quitArmed = true
		fmt.Fprintln(r.out, r.styles.Warning.Render("unsaved changes; quit again or use quit! to discard them"))
		return nil
	}
	return errQuit
}

func (r *repl) forceQuit(context.Context, string) error {
	return errQuit
}

// decodeText unquotes s when it is written as a Go string literal.
func decodeText(s string) (string, error) {
	if !strings.HasPrefix(s, `"`) {
		return s, nil
	}
	decoded, err := strconv.Unquote(s)
	if err != nil {
		return "", fmt.Errorf("text %s: %w", s, err)
	}
	return decoded, nil
}

// locate resolves a LINE:COLUMN position (1-based) or $ in buf. The column
// may point one past the last character of the line.
func locate(buf *buffer.Buffer, pos string) (text.Location, error) {
	if pos == "$" {
		return text.Location(buf.Len()), nil
	}
	lineStr, colStr, ok := strings.Cut(pos, ":")
	if !ok {
		colStr = "1"
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		return text.Invalid, fmt.Errorf("position %q: bad line", pos)
	}
	col, err := strconv.Atoi(colStr)
	if err != nil {
		return text.Invalid, fmt.Errorf("position %q: bad column", pos)
	}
	if line < 1 || line > buf.LineCount() {
		return text.Invalid, fmt.Errorf("position %q: line out of range 1-%d", pos, buf.LineCount())
	}
	width := len([]rune(runner.LineText(buf, line-1)))
	if col < 1 || col > width+1 {
		return text.Invalid, fmt.Errorf("position %q: column out of range 1-%d", pos, width+1)
	}
	return buf.LineStart(line-1) + text.Location(col-1), nil
}

func position(buf *buffer.Buffer, loc text.Location) string {
	line, col := buf.LineOf(loc)
	return fmt.Sprintf("%d:%d", line+1, col+1)
}

func columnOf(buf *buffer.Buffer, loc text.Location) int {
	_, col := buf.LineOf(loc)
	return col + 1
}

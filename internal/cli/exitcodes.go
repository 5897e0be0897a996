package cli

import (
	"errors"
	"io/fs"

	"github.com/yaklabco/srcbuf/internal/configloader"
	"github.com/yaklabco/srcbuf/pkg/fsutil"
	"github.com/yaklabco/srcbuf/pkg/runner"
)

// Exit codes for srcbuf.
const (
	// ExitSuccess indicates successful execution with no problems.
	ExitSuccess = 0

	// ExitProblemErrors indicates the analysis found error-severity problems.
	ExitProblemErrors = 1

	// ExitProblemWarnings indicates warnings were found in strict mode.
	ExitProblemWarnings = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// Errors that carry an exit code but are not reported as failures.
var (
	// ErrProblemsFound is returned when error-severity problems were found.
	ErrProblemsFound = errors.New("problems found")

	// ErrWarningsFound is returned in strict mode when only warnings were found.
	ErrWarningsFound = errors.New("warnings found")
)

// ExitCodeFromResult determines the exit code based on result and strict mode.
func ExitCodeFromResult(result *runner.Result, strict bool) int {
	if result == nil {
		return ExitSuccess
	}
	if result.HasFailures() {
		return ExitProblemErrors
	}
	if strict && result.HasIssues() {
		return ExitProblemWarnings
	}
	return ExitSuccess
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	var validation *configloader.ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrProblemsFound):
		return ExitProblemErrors
	case errors.Is(err, ErrWarningsFound):
		return ExitProblemWarnings
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.As(err, &validation), errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission),
		errors.Is(err, fsutil.ErrPermissionDenied):
		return ExitIOError
	default:
		return ExitInternalError
	}
}

// IsSilent reports whether err only signals an exit code and needs no log line.
func IsSilent(err error) bool {
	return errors.Is(err, ErrProblemsFound) || errors.Is(err, ErrWarningsFound)
}

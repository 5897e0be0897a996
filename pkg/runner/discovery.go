package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/yaklabco/srcbuf/pkg/langdetect"
)

// Discover finds Markdown files matching opts under the given working directory.
// It returns a deterministically sorted list of absolute file paths.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	m, err := newMatcher(workDir, opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, inputPath := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		absPath := inputPath
		if !filepath.IsAbs(inputPath) {
			absPath = filepath.Join(workDir, inputPath)
		}
		absPath = filepath.Clean(absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", inputPath, err)
		}

		if !info.IsDir() {
			if m.file(absPath) {
				add(absPath)
			}
			continue
		}

		discovered, err := m.walk(ctx, absPath)
		if err != nil {
			return nil, err
		}
		for _, f := range discovered {
			add(f)
		}
	}

	slices.Sort(files)
	return files, nil
}

// resolveWorkDir resolves the working directory, defaulting to os.Getwd().
func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}

// matcher holds the compiled discovery criteria.
type matcher struct {
	workDir       string
	extensions    []string
	include       []pattern
	exclude       []pattern
	includeVendor bool
	followLinks   bool
}

// pattern is a compiled glob. Patterns without a slash also match the base
// name, and a leading "**/" also matches at the root.
type pattern struct {
	full     glob.Glob
	rooted   glob.Glob
	baseOnly bool
}

func newMatcher(workDir string, opts Options) (*matcher, error) {
	m := &matcher{
		workDir:       workDir,
		includeVendor: opts.IncludeVendor,
		followLinks:   opts.FollowSymlinks,
	}
	for _, ext := range opts.effectiveExtensions() {
		m.extensions = append(m.extensions, strings.ToLower(ext))
	}

	var err error
	if m.include, err = compilePatterns(opts.IncludeGlobs); err != nil {
		return nil, err
	}
	if m.exclude, err = compilePatterns(opts.ExcludeGlobs); err != nil {
		return nil, err
	}
	return m, nil
}

func compilePatterns(globs []string) ([]pattern, error) {
	out := make([]pattern, 0, len(globs))
	for _, g := range globs {
		g = filepath.ToSlash(g)
		full, err := glob.Compile(g, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", g, err)
		}
		p := pattern{full: full, baseOnly: !strings.Contains(g, "/")}
		if rest, ok := strings.CutPrefix(g, "**/"); ok {
			if p.rooted, err = glob.Compile(rest, '/'); err != nil {
				return nil, fmt.Errorf("compile glob %q: %w", g, err)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// match reports whether the slash-separated relative path rel matches p.
// Directories also match patterns ending in "/**".
func (p pattern) match(rel string) bool {
	if p.full.Match(rel) || p.full.Match(rel+"/") {
		return true
	}
	if p.rooted != nil && (p.rooted.Match(rel) || p.rooted.Match(rel+"/")) {
		return true
	}
	return p.baseOnly && p.full.Match(path.Base(rel))
}

func matchAny(patterns []pattern, rel string) bool {
	for _, p := range patterns {
		if p.match(rel) {
			return true
		}
	}
	return false
}

func (m *matcher) rel(path string) string {
	rel, err := filepath.Rel(m.workDir, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

// file checks if a file path matches the inclusion criteria.
func (m *matcher) file(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(m.extensions, ext) {
		return false
	}

	rel := m.rel(path)
	if matchAny(m.exclude, rel) {
		return false
	}
	return len(m.include) == 0 || matchAny(m.include, rel)
}

// skipDir reports whether a directory below root is pruned. Hidden
// directories, excluded ones and vendored trees are skipped. Vendoring is
// judged relative to root so that an explicitly named vendor tree is walked.
func (m *matcher) skipDir(root, name, path string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if matchAny(m.exclude, m.rel(path)) {
		return true
	}
	if m.includeVendor {
		return false
	}
	sub, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return langdetect.IsVendor(sub + "/")
}

// walk recursively walks a directory and returns matching files.
func (m *matcher) walk(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		if entry.IsDir() {
			if path != root && m.skipDir(root, entry.Name(), path) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			target, ok := resolveLink(path)
			if !ok {
				return nil
			}
			if target.IsDir() {
				if !m.followLinks {
					return nil
				}
				// Walk the target so WalkDir's Lstat does not loop on the link.
				realPath, err := filepath.EvalSymlinks(path)
				if err != nil {
					return nil //nolint:nilerr // Link vanished after resolveLink.
				}
				sub, err := m.walk(ctx, realPath)
				if err != nil {
					return err
				}
				files = append(files, sub...)
				return nil
			}
		}

		if m.file(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	return files, nil
}

// resolveLink stats a symlink target. Broken links report false.
func resolveLink(path string) (fs.FileInfo, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	return info, true
}

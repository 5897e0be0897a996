package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
)

// ConfigPaths holds the configuration files found for each layer. Empty
// strings mean the layer has no file.
type ConfigPaths struct {
	System   string
	User     string
	Project  string
	Explicit string

	// Shadowed lists project files next to Project that lost to it, such as
	// a srcbuf.json beside a .srcbuf.yml.
	Shadowed []string
}

// configExtensions is the preference order among files of one layer. JSON
// is read by the YAML decoder.
//
//nolint:gochecknoglobals // Read-only lookup table.
var configExtensions = []string{".yml", ".yaml", ".json"}

// vcsRootMarkers end the upward project search.
//
//nolint:gochecknoglobals // Read-only lookup table.
var vcsRootMarkers = []string{".git", ".hg", ".svn", ".jj"}

// projectNames lists the project config file names in preference order:
// hidden names first, then visible ones, each in extension order.
func projectNames() []string {
	names := make([]string, 0, 2*len(configExtensions))
	for _, base := range []string{".srcbuf", "srcbuf"} {
		for _, ext := range configExtensions {
			names = append(names, base+ext)
		}
	}
	return names
}

// DiscoverPaths finds the system, user and project configuration files.
// The project file is searched upward from workDir.
func DiscoverPaths(ctx context.Context, workDir string) (*ConfigPaths, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("discover config: %w", err)
	}

	paths := &ConfigPaths{
		System: firstIn(systemConfigDir(), "config"),
		User:   firstIn(userConfigDir(), "config"),
	}

	project, shadowed, err := findProject(ctx, workDir)
	if err != nil {
		return nil, err
	}
	paths.Project, paths.Shadowed = project, shadowed
	return paths, nil
}

// FindProjectConfig searches upward from startDir for a project config file
// and returns "" when there is none. The search stops at a VCS root, the
// home directory or the filesystem root.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	path, _, err := findProject(ctx, startDir)
	return path, err
}

func findProject(ctx context.Context, startDir string) (string, []string, error) {
	if startDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("get working directory: %w", err)
		}
		startDir = wd
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	home, _ := os.UserHomeDir()

	names := projectNames()
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, fmt.Errorf("find project config: %w", err)
		}

		var found []string
		for _, name := range names {
			if path := filepath.Join(dir, name); isRegularFile(path) {
				found = append(found, path)
			}
		}
		if len(found) > 0 {
			return found[0], found[1:], nil
		}

		parent := filepath.Dir(dir)
		if parent == dir || dir == home || isVCSRoot(dir) {
			return "", nil, nil
		}
		dir = parent
	}
}

func systemConfigDir() string {
	if runtime.GOOS == "windows" {
		programData := os.Getenv("ProgramData")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		return filepath.Join(programData, "srcbuf")
	}
	return "/etc/srcbuf"
}

func userConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "srcbuf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "srcbuf")
}

// firstIn returns the first existing base+extension file in dir, or "".
func firstIn(dir, base string) string {
	if dir == "" {
		return ""
	}
	for _, ext := range configExtensions {
		if path := filepath.Join(dir, base+ext); isRegularFile(path) {
			return path
		}
	}
	return ""
}

func isVCSRoot(dir string) bool {
	return slices.ContainsFunc(vcsRootMarkers, func(marker string) bool {
		info, err := os.Stat(filepath.Join(dir, marker))
		return err == nil && info.IsDir()
	})
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Package discover finds documentable source files in a project tree.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/nodedocs/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to root
	Language string
}

// Options narrow what Files returns.
type Options struct {
	// Languages restricts results to the named languages when non-empty.
	Languages []string
	// Ignore drops paths matching any pattern. Patterns with glob
	// metacharacters are doublestar globs matched against the slash-separated
	// relative path; plain patterns match as substrings.
	Ignore []string
	// SkipTests drops files IsTestFile recognises.
	SkipTests bool
}

var skipDirs = map[string]struct{}{
	"node_modules":     {},
	"bower_components": {},
	"jspm_packages":    {},
	"dist":             {},
	"build":            {},
	"coverage":         {},
	"out":              {},
	"tmp":              {},
	".git":             {},
	".hg":              {},
	".svn":             {},
}

// SkipDir reports whether a directory is never searched: hidden directories
// and dependency or build output directories.
func SkipDir(name string) bool {
	_, skip := skipDirs[name]
	return skip || strings.HasPrefix(name, ".")
}

// Files discovers documentable source files under root, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	for _, p := range opts.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}

	langSet := make(map[string]struct{}, len(opts.Languages))
	for _, l := range opts.Languages {
		langSet[l] = struct{}{}
	}
	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if SkipDir(name) {
				return filepath.SkipDir
			}
			if ignored(opts.Ignore, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}
		if len(langSet) > 0 {
			if _, ok := langSet[langName]; !ok {
				return nil
			}
		}
		if ignored(opts.Ignore, rel) || (opts.SkipTests && IsTestFile(rel)) {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

var testDirs = map[string]struct{}{
	"test":      {},
	"tests":     {},
	"spec":      {},
	"__tests__": {},
	"__mocks__": {},
}

// IsTestFile reports whether a relative path looks like a test or fixture
// file: it lives under a test directory or is named *.test.* or *.spec.*.
func IsTestFile(rel string) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := testDirs[dir]; ok {
			return true
		}
	}
	base := strings.TrimSuffix(parts[len(parts)-1], filepath.Ext(rel))
	return strings.HasSuffix(base, ".test") || strings.HasSuffix(base, ".spec")
}

// ignored reports whether rel matches any of the patterns.
func ignored(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			if strings.Contains(rel, p) {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

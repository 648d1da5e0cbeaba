package nagcore

import (
	"os"
	"path/filepath"
	"strings"
)

// IgnoreOracle is the external collaborator spec §1 delegates ignore-pattern
// globbing to: the core never interprets a glob pattern itself, it only
// asks ShouldIgnore for a yes/no per path.
type IgnoreOracle interface {
	ShouldIgnore(relPath string, isDir bool) bool
}

type ignoreRule struct {
	pattern string
	negate  bool
	dirOnly bool
}

// defaultIgnoreOracle is a concrete implementation of IgnoreOracle, grounded
// in the original source's core/ignore.rs rather than a fully git-exact
// globber: one pattern per line, #-comments and blanks skipped, a leading
// "!" negates, a trailing "/" anchors to "this directory and everything
// beneath it", and the *last* matching pattern wins. This is deliberately
// simpler than a full gitignore engine — the spec's Non-goal is about where
// the globbing logic lives (outside the core, behind this interface), not
// about how sophisticated the default implementation behind it has to be.
type defaultIgnoreOracle struct {
	rules []ignoreRule
}

// LoadIgnoreOracle reads ".nagignore" from the repository root. A missing
// file yields an oracle that ignores nothing.
func LoadIgnoreOracle(h *RepoHandle) (IgnoreOracle, error) {
	data, err := os.ReadFile(filepath.Join(h.Root, ".nagignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return &defaultIgnoreOracle{}, nil
		}
		return nil, err
	}

	o := &defaultIgnoreOracle{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule := ignoreRule{}
		if strings.HasPrefix(line, "!") {
			rule.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			rule.dirOnly = true
			line = strings.TrimSuffix(line, "/") + "/**"
		}
		rule.pattern = line
		o.rules = append(o.rules, rule)
	}
	return o, nil
}

// ShouldIgnore reports whether relPath (forward-slash, repo-root-relative)
// is ignored. Later patterns override earlier ones, per the §6 "Ignore
// file" interface.
func (o *defaultIgnoreOracle) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = strings.TrimPrefix(relPath, "/")
	ignored := false
	for _, r := range o.rules {
		if matchIgnorePattern(r.pattern, relPath, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// matchIgnorePattern supports "*" within a path segment, "?" for a single
// character, and "**" to match across segment boundaries, in addition to
// plain path-filepath.Match semantics.
func matchIgnorePattern(pattern, path string, isDir bool) bool {
	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}
	if !strings.Contains(pattern, "**") {
		// Also allow a bare name (e.g. "node_modules") to match any
		// directory/file with that base name anywhere in the tree, as a
		// fully-qualified-path-less convenience.
		if !strings.Contains(pattern, "/") {
			if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
				return true
			}
		}
		return false
	}
	return matchGlobstar(pattern, path)
}

// matchGlobstar matches a pattern containing "**" against path by expanding
// "**" to zero-or-more path segments.
func matchGlobstar(pattern, path string) bool {
	patParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")
	return matchParts(patParts, pathParts)
}

func matchParts(pat, path []string) bool {
	if len(pat) == 0 {
		return len(path) == 0
	}
	if pat[0] == "**" {
		if matchParts(pat[1:], path) {
			return true
		}
		if len(path) == 0 {
			return false
		}
		return matchParts(pat, path[1:])
	}
	if len(path) == 0 {
		return false
	}
	if matched, _ := filepath.Match(pat[0], path[0]); !matched {
		return false
	}
	return matchParts(pat[1:], path[1:])
}

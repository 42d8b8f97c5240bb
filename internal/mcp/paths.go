package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines client supplied paths to a root directory
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for root
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &PathGuard{root: realPath(filepath.Clean(abs))}, nil
}

// Root returns the resolved root directory
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve returns the absolute form of path, relative paths being taken from
// the root. Paths that leave the root, directly or through a symlink, are
// rejected. An empty path resolves to the empty string.
func (g *PathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	clean := filepath.Clean(path)

	// the target may not exist yet (outputs), so resolve its directory
	resolved := filepath.Join(realPath(filepath.Dir(clean)), filepath.Base(clean))
	if info, err := os.Lstat(resolved); err == nil && info.Mode()&os.ModeSymlink != 0 {
		resolved = realPath(resolved)
	}

	if !within(g.root, resolved) {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return resolved, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func realPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

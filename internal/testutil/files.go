// Package testutil provides filesystem fixtures and assertions for pipeline tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Tree is a scratch project directory used as the working tree of a test.
type Tree struct {
	t    *testing.T
	Root string
}

// NewTree creates an empty project tree under t.TempDir().
func NewTree(t *testing.T) *Tree {
	t.Helper()
	return &Tree{t: t, Root: t.TempDir()}
}

// Path joins a slash-separated relative path onto the tree root.
func (tr *Tree) Path(rel string) string {
	return filepath.Join(tr.Root, filepath.FromSlash(rel))
}

// Write creates a file (and its parents) relative to the tree root.
func (tr *Tree) Write(rel, content string) string {
	tr.t.Helper()
	full := tr.Path(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		tr.t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		tr.t.Fatalf("write %s: %v", full, err)
	}
	return full
}

// Read returns the content of a file relative to the tree root.
func (tr *Tree) Read(rel string) string {
	tr.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	data, err := os.ReadFile(tr.Path(rel))
	if err != nil {
		tr.t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// Chdir switches the process working directory to the tree root for the
// duration of the test.
func (tr *Tree) Chdir() {
	tr.t.Helper()
	tr.t.Chdir(tr.Root)
}

// AssertExists validates that a file exists.
func (tr *Tree) AssertExists(rel string) *Tree {
	tr.t.Helper()
	if _, err := os.Stat(tr.Path(rel)); err != nil {
		tr.t.Errorf("Expected file to exist: %s", rel)
	}
	return tr
}

// AssertNotExists validates that a file does not exist.
func (tr *Tree) AssertNotExists(rel string) *Tree {
	tr.t.Helper()
	if _, err := os.Stat(tr.Path(rel)); err == nil {
		tr.t.Errorf("Expected file to not exist: %s", rel)
	}
	return tr
}

// AssertContains validates that a file contains expected content.
func (tr *Tree) AssertContains(rel, expected string) *Tree {
	tr.t.Helper()
	content := tr.Read(rel)
	if !strings.Contains(content, expected) {
		tr.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", rel, expected, content)
	}
	return tr
}

// AssertNotContains validates that a file does not contain content.
func (tr *Tree) AssertNotContains(rel, unexpected string) *Tree {
	tr.t.Helper()
	content := tr.Read(rel)
	if strings.Contains(content, unexpected) {
		tr.t.Errorf("Expected file %s to not contain %q\nActual content:\n%s", rel, unexpected, content)
	}
	return tr
}

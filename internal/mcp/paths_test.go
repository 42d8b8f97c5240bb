package mcp

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathGuard_Resolve(t *testing.T) {
	guard, err := NewPathGuard(t.TempDir())
	require.NoError(t, err)
	root := guard.Root()

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{name: "empty", path: "", want: ""},
		{name: "relative", path: "values", want: filepath.Join(root, "values")},
		{name: "nested", path: "forms/a.pdf", want: filepath.Join(root, "forms", "a.pdf")},
		{name: "absolute inside", path: filepath.Join(root, "out.pdf"), want: filepath.Join(root, "out.pdf")},
		{name: "root itself", path: ".", want: root},
		{name: "dot prefixed name", path: "..values", want: filepath.Join(root, "..values")},
		{name: "parent", path: "../values", wantErr: true},
		{name: "climbs out", path: "forms/../../values", wantErr: true},
		{name: "absolute outside", path: filepath.Dir(root), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := guard.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathGuard_Symlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	outside := t.TempDir()
	guard, err := NewPathGuard(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.Symlink(outside, filepath.Join(guard.Root(), "link")))
	_, err = guard.Resolve("link/values")
	assert.Error(t, err)

	target := filepath.Join(outside, "values")
	require.NoError(t, os.WriteFile(target, []byte("a,b\n"), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(guard.Root(), "values")))
	_, err = guard.Resolve("values")
	assert.Error(t, err)
}

func TestNewPathGuard_Empty(t *testing.T) {
	_, err := NewPathGuard("")
	assert.Error(t, err)
}

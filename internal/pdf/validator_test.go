package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-overlay/internal/pdf/pdftest"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	big := filepath.Join(dir, "big.pdf")
	require.NoError(t, os.WriteFile(big, make([]byte, 2048), 0o644))

	good := pdftest.WriteTemplate(t, dir, "good.pdf")

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "empty path", path: "", wantErr: "path cannot be empty"},
		{name: "missing", path: filepath.Join(dir, "missing.pdf"), wantErr: "file does not exist"},
		{name: "directory", path: dir, wantErr: "is a directory"},
		{name: "empty file", path: empty, wantErr: "file is empty"},
		{name: "too large", path: big, wantErr: "file too large"},
		{name: "valid", path: good},
	}

	v := NewValidator(1024 * 1024)
	small := NewValidator(1024)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := v
			if tt.name == "too large" {
				validator = small
			}
			err := validator.ValidateFile(tt.path)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidator_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := pdftest.WriteTemplate(t, dir, "template.pdf", pdftest.A4, pdftest.A4, pdftest.A4)

	doc, err := NewValidator(0).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, doc.PageCount())

	junk := filepath.Join(dir, "junk.pdf")
	require.NoError(t, os.WriteFile(junk, []byte("not a pdf at all"), 0o644))
	_, err = NewValidator(0).LoadFile(junk)
	assert.ErrorContains(t, err, "invalid PDF file")
}

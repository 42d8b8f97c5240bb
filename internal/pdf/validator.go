package pdf

import (
	"fmt"
	"os"
)

// Validator checks input documents before they are loaded
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new validator with the specified size limit.
// A limit of 0 disables the size check.
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile checks that filePath is a readable, non-empty regular file
// within the size limit
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if v.maxFileSize > 0 && fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

// LoadFile validates and loads the document at filePath
func (v *Validator) LoadFile(filePath string) (*Document, error) {
	if err := v.ValidateFile(filePath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF file %s: %w", filePath, err)
	}
	return doc, nil
}

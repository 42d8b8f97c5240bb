// Package pipeline runs one complete overlay pass: read the configuration
// files and the template, parse, resolve, render and write the result.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-overlay/internal/config"
	"github.com/a3tai/pdf-overlay/internal/overlay"
	"github.com/a3tai/pdf-overlay/internal/pdf"
)

// OutputPerm is the file mode of written documents
const OutputPerm = 0o644

// Result summarizes a run
type Result struct {
	Input        string
	Output       string
	Fields       int
	Instructions []overlay.Instruction
	Report       *overlay.Report
	Bytes        int
	Written      bool
}

// Runner executes pipeline runs
type Runner struct {
	log *zap.Logger
}

// NewRunner creates a runner that logs to log
func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log}
}

// Run performs a full run and writes the output document
func (r *Runner) Run(ctx context.Context, s config.Settings) (*Result, error) {
	return r.run(ctx, s, true)
}

// DryRun performs a full run without writing the output document
func (r *Runner) DryRun(ctx context.Context, s config.Settings) (*Result, error) {
	return r.run(ctx, s, false)
}

func (r *Runner) run(ctx context.Context, s config.Settings, write bool) (*Result, error) {
	if err := s.RequirePaths(); err != nil {
		return nil, err
	}
	style, err := s.Style()
	if err != nil {
		return nil, err
	}

	table, report, err := LoadFields(s.Positions)
	if err != nil {
		return nil, err
	}
	values, err := LoadValues(s.Values)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := pdf.NewValidator(s.MaxFileSize).LoadFile(s.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	instructions, resolveReport := overlay.Resolve(table, values, doc)
	report.Merge(resolveReport)
	r.logReport(report)

	result := &Result{
		Input:        s.Input,
		Output:       s.Output,
		Fields:       table.Len(),
		Instructions: instructions,
		Report:       report,
	}

	if err := report.Errors(); err != nil {
		return result, fmt.Errorf("configuration does not match template: %w", err)
	}

	data, err := overlay.Render(doc, instructions, style)
	if err != nil {
		return result, fmt.Errorf("failed to render overlay: %w", err)
	}
	result.Bytes = len(data)

	if !write {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	if err := writeOutput(s.Output, data); err != nil {
		return result, fmt.Errorf("failed to write output: %w", err)
	}
	result.Written = true

	r.log.Info("Overlay written",
		zap.String("output", s.Output),
		zap.Int("fields", result.Fields),
		zap.Int("instructions", len(instructions)),
		zap.Int("warnings", report.Len()),
		zap.Int("bytes", result.Bytes))
	return result, nil
}

func (r *Runner) logReport(report *overlay.Report) {
	for _, d := range report.Diagnostics {
		fields := []zap.Field{zap.Error(d.Err)}
		if d.Line > 0 {
			fields = append(fields, zap.Int("line", d.Line))
		}
		if d.Field != "" {
			fields = append(fields, zap.String("field", d.Field))
		}
		if d.Severity == overlay.SeverityError {
			r.log.Error("Overlay configuration error", fields...)
		} else {
			r.log.Warn("Overlay configuration problem skipped", fields...)
		}
	}
}

// writeOutput replaces path through a temporary file in the same directory
// so readers never observe a partially written document.
func writeOutput(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(OutputPerm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadFields reads and parses a position file. The returned error is an
// I/O error; parse problems are in the report.
func LoadFields(path string) (*overlay.FieldTable, *overlay.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read positions: %w", err)
	}
	table, report := overlay.ParsePositions(bytes.NewReader(data))
	return table, report, nil
}

// LoadValues reads and parses a value file
func LoadValues(path string) (overlay.ValueTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}
	values, err := overlay.ParseValues(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse values: %w", err)
	}
	return values, nil
}

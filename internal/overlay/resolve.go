package overlay

import (
	"fmt"
	"strconv"
	"strings"
)

// NoFieldValue is drawn for text fields that have no value
const NoFieldValue = "no field value specified"

// DrawKind selects the paint operation for an instruction
type DrawKind int

const (
	DrawText DrawKind = iota
	DrawSquare
)

func (k DrawKind) String() string {
	if k == DrawSquare {
		return "square"
	}
	return "text"
}

// Instruction is one resolved paint operation. Page is 0-based and Y is in
// the renderer's bottom-left origin, i.e. page height minus the configured Y.
type Instruction struct {
	Field string
	Page  int
	X     float64
	Y     float64
	Size  float64
	Kind  DrawKind
	Text  string
}

// Layout provides the page geometry needed to flip Y coordinates
type Layout interface {
	PageSize(index int) (width, height float64, err error)
}

// Resolve turns every field of table into zero or more instructions using
// values. Selection problems are reported per field and never abort the
// other fields; a position on a page the layout does not have is reported
// with error severity.
func Resolve(table *FieldTable, values ValueTable, layout Layout) ([]Instruction, *Report) {
	r := &resolver{values: values, layout: layout, report: &Report{}}
	for _, f := range table.Fields() {
		switch f.Kind {
		case KindText:
			r.text(f)
		case KindCheckbox:
			r.checkbox(f)
		case KindRadio:
			r.radio(f)
		case KindMultiSelect:
			r.multiSelect(f)
		}
	}
	return r.instructions, r.report
}

type resolver struct {
	values       ValueTable
	layout       Layout
	report       *Report
	instructions []Instruction
}

func (r *resolver) text(f *Field) {
	value, ok := r.values.Lookup(f.Name)
	if !ok {
		value = NoFieldValue
	}
	r.emit(f, f.Positions[0], DrawText, value)
}

func (r *resolver) checkbox(f *Field) {
	if value, _ := r.values.Lookup(f.Name); value == "1" {
		r.emit(f, f.Positions[0], DrawSquare, "")
	}
}

func (r *resolver) radio(f *Field) {
	value, ok := r.values.Lookup(f.Name)
	if !ok || strings.TrimSpace(value) == "" {
		return
	}
	r.option(f, value)
}

func (r *resolver) multiSelect(f *Field) {
	value, ok := r.values.Lookup(f.Name)
	if !ok {
		return
	}
	for _, token := range strings.Split(value, ";") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		r.option(f, token)
	}
}

// option emits a square for the option selected by token
func (r *resolver) option(f *Field, token string) {
	index, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		r.report.warn(0, f.Name, fmt.Errorf("%w: %q is not an option index", ErrInvalidSelection, token))
		return
	}
	pos, err := f.Option(index)
	if err != nil {
		r.report.warn(0, f.Name, err)
		return
	}
	r.emit(f, pos, DrawSquare, "")
}

func (r *resolver) emit(f *Field, pos Position, kind DrawKind, text string) {
	_, height, err := r.layout.PageSize(pos.PageIndex())
	if err != nil {
		r.report.fail(0, f.Name, err)
		return
	}
	r.instructions = append(r.instructions, Instruction{
		Field: f.Name,
		Page:  pos.PageIndex(),
		X:     pos.X,
		Y:     height - pos.Y,
		Size:  pos.Size,
		Kind:  kind,
		Text:  text,
	})
}

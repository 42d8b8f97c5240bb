// Package overlay turns position and value configuration into draw instructions
// and paints them onto a paged document.
package overlay

import (
	"fmt"
	"sort"
)

// Kind identifies how a field value resolves into drawing
type Kind int

const (
	KindText Kind = iota
	KindRadio
	KindCheckbox
	KindMultiSelect
)

// Default sizes used when a position line leaves the size empty or zero
const (
	DefaultTextSize  = 9
	DefaultShapeSize = 10
)

// ParseKind maps a position file type token to a Kind
func ParseKind(token string) (Kind, error) {
	switch token {
	case "t":
		return KindText, nil
	case "r":
		return KindRadio, nil
	case "c":
		return KindCheckbox, nil
	case "m":
		return KindMultiSelect, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, token)
	}
}

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindRadio:
		return "radio"
	case KindCheckbox:
		return "checkbox"
	case KindMultiSelect:
		return "multiselect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token returns the position file token for the kind
func (k Kind) Token() string {
	switch k {
	case KindText:
		return "t"
	case KindRadio:
		return "r"
	case KindCheckbox:
		return "c"
	case KindMultiSelect:
		return "m"
	default:
		return "?"
	}
}

// MultiPosition reports whether repeated lines append options instead of replacing
func (k Kind) MultiPosition() bool {
	return k == KindRadio || k == KindMultiSelect
}

// DefaultSize returns the fallback size for the kind
func (k Kind) DefaultSize() float64 {
	if k == KindText {
		return DefaultTextSize
	}
	return DefaultShapeSize
}

// Position is one placement on the template. Page is 1-based, X and Y are
// measured from the top-left corner of the page.
type Position struct {
	Page int
	X    float64
	Y    float64
	Size float64
}

// PageIndex returns the 0-based page index
func (p Position) PageIndex() int {
	return p.Page - 1
}

// Field is a named placeholder with one position (text, checkbox) or an
// ordered option sequence (radio, multiselect).
type Field struct {
	Name      string
	Kind      Kind
	Positions []Position
}

// Option returns the option at index for multi-position kinds
func (f *Field) Option(index int) (Position, error) {
	if index < 0 || index >= len(f.Positions) {
		return Position{}, fmt.Errorf("%w: %s %q has %d option(s), got index %d",
			ErrOptionOutOfRange, f.Kind, f.Name, len(f.Positions), index)
	}
	return f.Positions[index], nil
}

// FieldTable holds the parsed fields partitioned by kind
type FieldTable struct {
	Text        map[string]*Field
	Radio       map[string]*Field
	Checkbox    map[string]*Field
	MultiSelect map[string]*Field
}

// NewFieldTable creates an empty field table
func NewFieldTable() *FieldTable {
	return &FieldTable{
		Text:        make(map[string]*Field),
		Radio:       make(map[string]*Field),
		Checkbox:    make(map[string]*Field),
		MultiSelect: make(map[string]*Field),
	}
}

func (t *FieldTable) partition(k Kind) map[string]*Field {
	switch k {
	case KindText:
		return t.Text
	case KindRadio:
		return t.Radio
	case KindCheckbox:
		return t.Checkbox
	case KindMultiSelect:
		return t.MultiSelect
	default:
		return nil
	}
}

// Lookup finds a field by name in any partition
func (t *FieldTable) Lookup(name string) (*Field, bool) {
	for _, k := range []Kind{KindText, KindRadio, KindCheckbox, KindMultiSelect} {
		if f, ok := t.partition(k)[name]; ok {
			return f, true
		}
	}
	return nil, false
}

// Len returns the number of fields across all kinds
func (t *FieldTable) Len() int {
	return len(t.Text) + len(t.Radio) + len(t.Checkbox) + len(t.MultiSelect)
}

// Fields returns every field ordered by kind, then by name
func (t *FieldTable) Fields() []*Field {
	fields := make([]*Field, 0, t.Len())
	for _, k := range []Kind{KindText, KindRadio, KindCheckbox, KindMultiSelect} {
		part := t.partition(k)
		names := make([]string, 0, len(part))
		for name := range part {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fields = append(fields, part[name])
		}
	}
	return fields
}

// add stores a position under name. Single-position kinds are replaced,
// multi-position kinds get the position appended as the next option.
func (t *FieldTable) add(name string, k Kind, pos Position) {
	part := t.partition(k)
	if f, ok := part[name]; ok && k.MultiPosition() {
		f.Positions = append(f.Positions, pos)
		return
	}
	part[name] = &Field{Name: name, Kind: k, Positions: []Position{pos}}
}

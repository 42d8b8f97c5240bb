// Package pdftest builds small template documents for tests.
package pdftest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// LinkURL is the target of the link annotation added by Annotated
const LinkURL = "https://example.com/terms"

// Size is a page size in points
type Size struct {
	Width, Height float64
}

var (
	A4     = Size{Width: 595.28, Height: 841.89}
	Letter = Size{Width: 612, Height: 792}
)

// Template returns a PDF with one page per size. Every page carries the
// label "TEMPLATE" near its top-left corner.
func Template(t testing.TB, sizes ...Size) []byte {
	t.Helper()
	if len(sizes) == 0 {
		sizes = []Size{A4}
	}

	doc := fpdf.New("P", "pt", "", "")
	doc.SetAutoPageBreak(false, 0)
	for _, s := range sizes {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: s.Width, Ht: s.Height})
		doc.SetFont("Helvetica", "", 10)
		doc.Text(20, 30, "TEMPLATE")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to build template PDF: %v", err)
	}
	return buf.Bytes()
}

// WriteTemplate writes Template(sizes...) to dir/name and returns the path
func WriteTemplate(t testing.TB, dir, name string, sizes ...Size) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Template(t, sizes...), 0o644); err != nil {
		t.Fatalf("failed to write template PDF: %v", err)
	}
	return path
}

// Annotated returns a single page template with a document title and one
// link annotation over the label.
func Annotated(t testing.TB, size Size) []byte {
	t.Helper()

	doc := fpdf.New("P", "pt", "", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle("Overlay Template", false)
	doc.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
	doc.SetFont("Helvetica", "", 10)
	doc.Text(20, 30, "TEMPLATE")
	doc.LinkString(20, 20, 60, 12, LinkURL)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("failed to build annotated PDF: %v", err)
	}
	return buf.Bytes()
}

// Optimized rewrites data with pdfcpu, which stores objects in object
// streams behind a cross-reference stream.
func Optimized(t testing.TB, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("failed to optimize PDF: %v", err)
	}
	return buf.Bytes()
}

// Rotated returns data with every page rotated clockwise by degrees
func Rotated(t testing.TB, data []byte, degrees int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := api.Rotate(bytes.NewReader(data), &buf, degrees, nil, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("failed to rotate PDF: %v", err)
	}
	return buf.Bytes()
}

// Inspection reads back a written document
type Inspection struct {
	t   testing.TB
	ctx *model.Context
}

// Inspect parses data for assertions
func Inspect(t testing.TB, data []byte) *Inspection {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatalf("failed to read PDF: %v", err)
	}
	return &Inspection{t: t, ctx: ctx}
}

// PageCount returns the number of pages
func (in *Inspection) PageCount() int {
	return in.ctx.PageCount
}

// XRefStream reports whether the document uses a cross-reference stream
func (in *Inspection) XRefStream() bool {
	return in.ctx.Read.UsingXRefStreams
}

func (in *Inspection) page(page int) (types.Dict, *model.InheritedPageAttrs) {
	in.t.Helper()
	d, _, attrs, err := in.ctx.PageDict(page, false)
	if err != nil {
		in.t.Fatalf("failed to read page %d: %v", page, err)
	}
	return d, attrs
}

// Content returns the decoded content streams of the 1-based page
func (in *Inspection) Content(page int) string {
	in.t.Helper()
	d, _ := in.page(page)
	content, err := in.ctx.PageContent(d, page)
	if err != nil {
		in.t.Fatalf("failed to read content of page %d: %v", page, err)
	}
	return string(content)
}

// Annotations returns the number of annotations on the 1-based page
func (in *Inspection) Annotations(page int) int {
	in.t.Helper()
	d, _ := in.page(page)
	obj, found := d.Find("Annots")
	if !found {
		return 0
	}
	annots, err := in.ctx.DereferenceArray(obj)
	if err != nil {
		in.t.Fatalf("invalid annotations on page %d: %v", page, err)
	}
	return len(annots)
}

// Rotation returns the effective rotation of the 1-based page
func (in *Inspection) Rotation(page int) int {
	in.t.Helper()
	_, attrs := in.page(page)
	return attrs.Rotate
}

// HasInfo reports whether the document information dictionary has key
func (in *Inspection) HasInfo(key string) bool {
	in.t.Helper()
	if in.ctx.Info == nil {
		return false
	}
	d, err := in.ctx.DereferenceDict(*in.ctx.Info)
	if err != nil {
		in.t.Fatalf("invalid info dict: %v", err)
	}
	_, found := d.Find(key)
	return found
}

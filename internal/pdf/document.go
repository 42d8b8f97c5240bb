// Package pdf implements the document capability used by the overlay renderer.
//
// Documents are read and written with pdfcpu. Draw calls are recorded per
// page; Serialize turns them into an additional content stream on each page
// of the loaded document and writes the document back out. Everything else
// in the source (annotations, form fields, outlines, metadata) is kept as
// read.
package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-overlay/internal/overlay"
)

// Common error variables
var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrNoPages       = errors.New("document has no pages")
	ErrInvalidPage   = errors.New("invalid page index")
	ErrFontNotLoaded = errors.New("font not embedded")
)

// Document is a loaded template document that records overlay drawing
type Document struct {
	ctx   *model.Context
	pages []*Page
	fonts map[string]*types.IndirectRef // base font name -> font dict
}

// Load reads a PDF document and its page geometry
func Load(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadAndValidate(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, ErrNoPages
	}

	boundaries, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read page boundaries: %w", err)
	}

	doc := &Document{
		ctx:   ctx,
		pages: make([]*Page, len(boundaries)),
		fonts: make(map[string]*types.IndirectRef),
	}
	for i, pb := range boundaries {
		box := pb.MediaBox()
		if box == nil {
			return nil, fmt.Errorf("page %d has no media box", i+1)
		}
		doc.pages[i] = &Page{doc: doc, number: i + 1, box: *box, rotate: pb.Rot}
	}
	return doc, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.pages)
}

// PageSize returns the unrotated media box size of the page at the 0-based
// index in points
func (d *Document) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= len(d.pages) {
		return 0, 0, fmt.Errorf("%w: page %d (document has %d pages)",
			overlay.ErrPageOutOfRange, index+1, len(d.pages))
	}
	w, h := d.pages[index].Size()
	return w, h, nil
}

// Page returns the page at the 0-based index
func (d *Document) Page(index int) (*Page, error) {
	if index < 0 || index >= len(d.pages) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, index)
	}
	return d.pages[index], nil
}

// Pages returns every page as an overlay.Page
func (d *Document) Pages() []overlay.Page {
	pages := make([]overlay.Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

// EmbedFont adds a core font to the document and returns the handle to
// draw text with. Embedding the same font twice returns the same handle.
func (d *Document) EmbedFont(name string) (string, error) {
	base, err := CoreFont(name)
	if err != nil {
		return "", err
	}
	if _, ok := d.fonts[base]; ok {
		return base, nil
	}

	ref, err := d.ctx.IndRefForNewObject(types.Dict(map[string]types.Object{
		"Type":     types.Name("Font"),
		"Subtype":  types.Name("Type1"),
		"BaseFont": types.Name(base),
		"Encoding": types.Name("WinAnsiEncoding"),
	}))
	if err != nil {
		return "", fmt.Errorf("failed to add font %s: %w", base, err)
	}
	d.fonts[base] = ref
	return base, nil
}

// Serialize writes the document with all recorded drawing on top of the
// existing page content. Recorded operations are consumed.
func (d *Document) Serialize() ([]byte, error) {
	for _, p := range d.pages {
		if err := p.flush(); err != nil {
			return nil, fmt.Errorf("page %d: %w", p.number, err)
		}
	}

	d.ctx.ResetWriteContext()

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

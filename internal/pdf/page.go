package pdf

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/pdf-overlay/internal/overlay"
)

type opKind int

const (
	opText opKind = iota
	opSquare
)

type drawOp struct {
	kind  opKind
	text  string // already transcoded for the core font
	x, y  float64
	size  float64
	font  string
	color overlay.Color
}

// Page is one template page. Draw calls use PDF user space relative to the
// lower-left corner of the unrotated media box, and are recorded until the
// document is serialized.
type Page struct {
	doc    *Document
	number int
	box    types.Rectangle
	rotate int
	ops    []drawOp
}

// Number returns the 1-based page number
func (p *Page) Number() int {
	return p.number
}

// Size returns the unrotated media box width and height in points
func (p *Page) Size() (float64, float64) {
	return p.box.Width(), p.box.Height()
}

// Rotation returns the page rotation in degrees as displayed by viewers
func (p *Page) Rotation() int {
	return p.rotate
}

// DrawText records text with its baseline starting at x, y. style.Font must
// be a handle returned by Document.EmbedFont.
func (p *Page) DrawText(text string, x, y, size float64, style overlay.Style) error {
	if _, ok := p.doc.fonts[style.Font]; !ok {
		return fmt.Errorf("%w: %q", ErrFontNotLoaded, style.Font)
	}
	if size <= 0 {
		return fmt.Errorf("invalid text size %g", size)
	}
	p.ops = append(p.ops, drawOp{
		kind:  opText,
		text:  EncodeText(text),
		x:     x,
		y:     y,
		size:  size,
		font:  style.Font,
		color: style.Color,
	})
	return nil
}

// DrawSquare records a filled square whose lower-left corner is at x, y
func (p *Page) DrawSquare(x, y, size float64, style overlay.Style) error {
	if size <= 0 {
		return fmt.Errorf("invalid square size %g", size)
	}
	p.ops = append(p.ops, drawOp{kind: opSquare, x: x, y: y, size: size, color: style.Color})
	return nil
}

// flush writes the recorded operations into the page as a new content
// stream drawn after the existing content.
func (p *Page) flush() error {
	if len(p.ops) == 0 {
		return nil
	}

	ctx := p.doc.ctx
	d, _, inhPAttrs, err := ctx.PageDict(p.number, false)
	if err != nil {
		return err
	}

	res := inhPAttrs.Resources
	if res == nil {
		res = types.NewDict()
	}
	fontNames, err := p.addFontResources(res)
	if err != nil {
		return err
	}
	d.Update("Resources", res)

	content, err := p.content(fontNames)
	if err != nil {
		return err
	}
	if err := p.appendContent(d, content); err != nil {
		return err
	}

	p.ops = nil
	return nil
}

// addFontResources registers every font used by the page in res under a
// free resource name and returns the names by base font.
func (p *Page) addFontResources(res types.Dict) (map[string]string, error) {
	names := make(map[string]string)
	for _, op := range p.ops {
		if op.kind != opText || names[op.font] != "" {
			continue
		}

		fonts := types.NewDict()
		if obj, ok := res.Find("Font"); ok {
			existing, err := p.doc.ctx.DereferenceDict(obj)
			if err != nil {
				return nil, fmt.Errorf("invalid font resources: %w", err)
			}
			if existing != nil {
				fonts = existing
			}
		}
		res.Update("Font", fonts)

		name := freeName(fonts, "OvF")
		fonts.Insert(name, *p.doc.fonts[op.font])
		names[op.font] = name
	}
	return names, nil
}

func freeName(d types.Dict, prefix string) string {
	for i := 0; ; i++ {
		name := prefix + strconv.Itoa(i)
		if _, found := d.Find(name); !found {
			return name
		}
	}
}

// content renders the operations in content stream syntax
func (p *Page) content(fontNames map[string]string) ([]byte, error) {
	ox, oy := p.box.LL.X, p.box.LL.Y

	var b bytes.Buffer
	b.WriteString("\nQ q\n")
	for _, op := range p.ops {
		r, g, bl := rgb(op.color)
		switch op.kind {
		case opText:
			fmt.Fprintf(&b, "BT /%s %s Tf %s %s %s rg %s %s Td ",
				fontNames[op.font], num(op.size), r, g, bl, num(ox+op.x), num(oy+op.y))
			writeLiteral(&b, op.text)
			b.WriteString(" Tj ET\n")
		case opSquare:
			fmt.Fprintf(&b, "%s %s %s rg %s %s %s %s re f\n",
				r, g, bl, num(ox+op.x), num(oy+op.y), num(op.size), num(op.size))
		default:
			return nil, fmt.Errorf("unknown draw operation %d", op.kind)
		}
	}
	b.WriteString("Q\n")
	return b.Bytes(), nil
}

// appendContent wraps the existing content in q/Q so graphics state it
// leaves behind does not leak into the overlay, then appends content.
func (p *Page) appendContent(d types.Dict, content []byte) error {
	ctx := p.doc.ctx

	var streams types.Array
	if obj, found := d.Find("Contents"); found {
		deref, err := ctx.Dereference(obj)
		if err != nil {
			return fmt.Errorf("invalid page contents: %w", err)
		}
		switch o := deref.(type) {
		case types.Array:
			streams = append(streams, o...)
		case types.StreamDict:
			streams = append(streams, obj)
		case nil:
		default:
			return fmt.Errorf("invalid page contents: unexpected %T", deref)
		}
	}

	open, err := ctx.StreamDictIndRef([]byte("q\n"))
	if err != nil {
		return err
	}
	overlayRef, err := ctx.StreamDictIndRef(content)
	if err != nil {
		return err
	}

	streams = append(types.Array{*open}, streams...)
	d.Update("Contents", append(streams, *overlayRef))
	return nil
}

func writeLiteral(b *bytes.Buffer, text string) {
	b.WriteByte('(')
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func rgb(c overlay.Color) (string, string, string) {
	return channel(c.R), channel(c.G), channel(c.B)
}

func channel(v float64) string {
	return strconv.FormatFloat(math.Max(0, math.Min(1, v)), 'f', 4, 64)
}

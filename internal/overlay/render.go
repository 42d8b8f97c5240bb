package overlay

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an RGB color with components in [0, 1]
type Color struct {
	R, G, B float64
}

// DefaultColor is the overlay red
var DefaultColor = Color{R: 0.95, G: 0.1, B: 0.1}

// DefaultFont is the core font used for text instructions
const DefaultFont = "Helvetica"

// ParseColor parses a six digit hex color such as "f21a1a" or "#F21A1A"
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{
		R: float64((v>>16)&0xff) / 255,
		G: float64((v>>8)&0xff) / 255,
		B: float64(v&0xff) / 255,
	}, nil
}

// Style is the single font and color of a run
type Style struct {
	Font  string
	Color Color
}

// DefaultStyle returns Helvetica in the overlay red
func DefaultStyle() Style {
	return Style{Font: DefaultFont, Color: DefaultColor}
}

// Page is a drawable page. Coordinates are in PDF user space with the origin
// at the bottom-left corner.
type Page interface {
	Size() (width, height float64)
	DrawText(text string, x, y, size float64, style Style) error
	DrawSquare(x, y, size float64, style Style) error
}

// Canvas is a loaded document that can be painted on and serialized
type Canvas interface {
	Pages() []Page
	// EmbedFont resolves a font name to the handle pages draw text with
	EmbedFont(name string) (string, error)
	Serialize() ([]byte, error)
}

// Render paints every instruction onto its page and serializes the canvas.
// An instruction addressing a page the canvas does not have fails the render.
func Render(canvas Canvas, instructions []Instruction, style Style) ([]byte, error) {
	font, err := canvas.EmbedFont(style.Font)
	if err != nil {
		return nil, fmt.Errorf("failed to embed font: %w", err)
	}
	style.Font = font

	pages := canvas.Pages()
	for _, in := range instructions {
		if in.Page < 0 || in.Page >= len(pages) {
			return nil, fmt.Errorf("field %q: %w: page %d (document has %d pages)",
				in.Field, ErrPageOutOfRange, in.Page+1, len(pages))
		}
		page := pages[in.Page]

		var err error
		switch in.Kind {
		case DrawText:
			err = page.DrawText(in.Text, in.X, in.Y, in.Size, style)
		case DrawSquare:
			err = page.DrawSquare(in.X, in.Y, in.Size, style)
		default:
			err = fmt.Errorf("unsupported draw kind %d", in.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("field %q on page %d: %w", in.Field, in.Page+1, err)
		}
	}

	data, err := canvas.Serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize document: %w", err)
	}
	return data, nil
}

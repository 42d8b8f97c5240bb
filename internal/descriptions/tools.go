package descriptions

// Tool descriptions shown to MCP clients

const (
	OverlayRenderDescription = `Paint the configured field values onto the template PDF and write the result.

**When to use:** The position map or value map was edited and a fresh filled document is needed.

**How it works:** Reads the position file (type,key,page,x,y,size lines), the value file (name,value lines) and the template PDF, resolves every field to text or filled squares and writes the overlaid PDF.

**Field types:**
• t - text, drawn verbatim; a missing value draws "no field value specified"
• c - checkbox, filled when the value is exactly 1
• r - radio, the value is the 0-based index of the selected option line
• m - multi-select, the value is a ; separated list of option indexes

**Parameters:** every path is optional and defaults to the server configuration. Paths must stay inside the configured directory.`

	OverlayResolveDescription = `Dry run: resolve the field table against the values and list every draw instruction and diagnostic without writing any file.

**When to use:** Check a position or value map before rendering, or find out why a field does not appear.

**Output:** one line per instruction (field, page, x, y, size, kind, text) followed by the skipped lines and selections with their line numbers.`

	OverlayFieldsDescription = `Parse the position file and list the field table: every field with its kind and option positions.

**When to use:** Inspect how a position map was understood, including the option order of radio and multi-select fields.`
)

// Package icons maps symbolic icon names from the wire protocol to terminal
// glyphs. The widget layer consumes it purely as a lookup function and must
// tolerate unknown names.
package icons

// Lookup returns the glyph for a symbolic icon name, or "" when the name is
// unknown or empty. Widgets render nothing rather than a placeholder.
func Lookup(name string) string {
	return glyphs[name]
}

var glyphs = map[string]string{
	"folder":      "\U0001F4C1",
	"folder-open": "\U0001F4C2",
	"document":    "\U0001F4C4",
	"image":       "\U0001F5BC",
	"music":       "\U0001F3B5",
	"video":       "\U0001F3AC",
	"archive":     "\U0001F4E6",
	"trash":       "\U0001F5D1",
	"star":        "★",
	"tag":         "\U0001F3F7",
	"gear":        "⚙",
	"home":        "⌂",
	"cloud":       "☁",
	"link":        "\U0001F517",
	"lock":        "\U0001F512",
	"search":      "\U0001F50D",
}

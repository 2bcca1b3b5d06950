// Package clipboard holds the collaborator surfaces the capture pipeline
// and the copy-back path consume: a clipboard source/sink and an image
// codec, plus the real implementations backing them.
package clipboard

// Kind discriminates what a clipboard snapshot holds.
type Kind int

const (
	// KindText is plain text.
	KindText Kind = iota
	// KindImage is a decoded raster image.
	KindImage
)

// Content is one clipboard snapshot. Text snapshots carry Text; image
// snapshots carry raw RGBA pixels (4 bytes per pixel, row-major) plus
// their dimensions.
type Content struct {
	Kind   Kind
	Text   string
	Pixels []byte
	Width  int
	Height int
}

// TextContent wraps text as a snapshot.
func TextContent(text string) *Content {
	return &Content{Kind: KindText, Text: text}
}

// ImageContent wraps decoded pixels as a snapshot.
func ImageContent(pixels []byte, width, height int) *Content {
	return &Content{Kind: KindImage, Pixels: pixels, Width: width, Height: height}
}

// Payload returns the bytes that identify this snapshot: the text bytes,
// or the raw pixel bytes for an image.
func (c *Content) Payload() []byte {
	if c.Kind == KindText {
		return []byte(c.Text)
	}
	return c.Pixels
}

// Source reads the current clipboard. A nil Content with a nil error means
// the clipboard holds nothing readable right now.
type Source interface {
	Read() (*Content, error)
}

// Sink writes content back to the clipboard.
type Sink interface {
	WriteText(text string) error
	WriteImage(pixels []byte, width, height int) error
}

// Codec moves raw pixels between memory and encoded side files.
type Codec interface {
	EncodeToFile(pixels []byte, width, height int, path string) error
	DecodeFile(path string) (pixels []byte, width, height int, err error)
}

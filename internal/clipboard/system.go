package clipboard

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"sync"

	xclipboard "golang.design/x/clipboard"
)

// SystemClipboard is the real Source/Sink over the OS clipboard. The
// underlying binding initializes lazily on first use; text is preferred
// over image when both formats are present.
type SystemClipboard struct {
	initOnce sync.Once
	initErr  error
}

// NewSystemClipboard returns an uninitialized system clipboard handle.
func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (c *SystemClipboard) ensureInit() error {
	c.initOnce.Do(func() {
		c.initErr = xclipboard.Init()
	})
	if c.initErr != nil {
		return fmt.Errorf("clipboard unavailable: %w", c.initErr)
	}
	return nil
}

// Read samples the clipboard, decoding an image payload to raw RGBA pixels.
func (c *SystemClipboard) Read() (*Content, error) {
	if err := c.ensureInit(); err != nil {
		return nil, err
	}

	if data := xclipboard.Read(xclipboard.FmtText); len(data) > 0 {
		return TextContent(string(data)), nil
	}

	if data := xclipboard.Read(xclipboard.FmtImage); len(data) > 0 {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode clipboard image: %w", err)
		}
		pixels, width, height := rgbaPixels(img)
		return ImageContent(pixels, width, height), nil
	}

	return nil, nil
}

// WriteText places text on the clipboard.
func (c *SystemClipboard) WriteText(text string) error {
	if err := c.ensureInit(); err != nil {
		return err
	}
	xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}

// WriteImage encodes raw RGBA pixels and places them on the clipboard.
func (c *SystemClipboard) WriteImage(pixels []byte, width, height int) error {
	if err := c.ensureInit(); err != nil {
		return err
	}

	img, err := nrgbaImage(pixels, width, height)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode clipboard image: %w", err)
	}
	xclipboard.Write(xclipboard.FmtImage, buf.Bytes())
	return nil
}

func nrgbaImage(pixels []byte, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel buffer holds %d bytes, want %d for %dx%d RGBA",
			len(pixels), width*height*4, width, height)
	}
	return &image.NRGBA{
		Pix:    pixels,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

func rgbaPixels(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if direct, ok := img.(*image.NRGBA); ok && direct.Stride == width*4 && bounds.Min == (image.Point{}) {
		return direct.Pix, width, height
	}

	converted := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(converted, converted.Bounds(), img, bounds.Min, draw.Src)
	return converted.Pix, width, height
}

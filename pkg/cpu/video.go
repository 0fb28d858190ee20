package cpu

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

var (
	DefaultOnColor  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	DefaultOffColor = color.RGBA{A: 0xFF}
)

// FramebufferRGBA decodes the display into a 64×32 RGBA8888 byte slice
// (length 64*32*4 = 8192), one color for set pixels and one for clear pixels.
func (c *CPU) FramebufferRGBA(on, off color.RGBA) []byte {
	pixels := make([]byte, DisplayWidth*DisplayHeight*4)

	for y := 0; y < DisplayHeight; y++ {
		row := c.Display.Row(y)
		for x := 0; x < DisplayWidth; x++ {
			col := off
			if row&(1<<(DisplayWidth-1-x)) != 0 {
				col = on
			}
			i := (y*DisplayWidth + x) * 4
			pixels[i+0] = col.R
			pixels[i+1] = col.G
			pixels[i+2] = col.B
			pixels[i+3] = col.A
		}
	}

	return pixels
}

// FramebufferImage returns the display as an *image.RGBA using the default colors.
func (c *CPU) FramebufferImage() *image.RGBA {
	pix := c.FramebufferRGBA(DefaultOnColor, DefaultOffColor)
	return &image.RGBA{
		Pix:    pix,
		Stride: DisplayWidth * 4,
		Rect:   image.Rect(0, 0, DisplayWidth, DisplayHeight),
	}
}

// SaveScreenshot encodes the current display as a PNG and writes it to filename.
func (c *CPU) SaveScreenshot(filename string) error {
	img := c.FramebufferImage()
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

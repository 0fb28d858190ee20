package cpu

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestFramebufferRGBA(t *testing.T) {
	c := newTestCPU(t, 0x00E0)
	c.Display.DrawSprite(62, 1, []byte{0xC0 | 0x20})

	on := color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xFF}
	off := color.RGBA{R: 1, G: 2, B: 3, A: 4}
	pix := c.FramebufferRGBA(on, off)
	assert.Len(t, pix, DisplayWidth*DisplayHeight*4)

	at := func(x, y int) color.RGBA {
		i := (y*DisplayWidth + x) * 4
		return color.RGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: pix[i+3]}
	}
	assert.Equal(t, on, at(62, 1))
	assert.Equal(t, on, at(63, 1))
	assert.Equal(t, on, at(0, 1))
	assert.Equal(t, off, at(1, 1))
	assert.Equal(t, off, at(62, 0))
}

func TestFramebufferImage(t *testing.T) {
	c := newTestCPU(t, 0x00E0)
	c.Display.DrawSprite(0, 0, []byte{0x80})

	img := c.FramebufferImage()
	assert.Equal(t, DisplayWidth, img.Bounds().Dx())
	assert.Equal(t, DisplayHeight, img.Bounds().Dy())
	assert.Equal(t, DefaultOnColor, img.RGBAAt(0, 0))
	assert.Equal(t, DefaultOffColor, img.RGBAAt(1, 0))
}

func TestSaveScreenshot(t *testing.T) {
	c := newTestCPU(t, 0x00E0)
	c.Display.DrawSprite(5, 5, []byte{0xFF})

	path := filepath.Join(t.TempDir(), "shot.png")
	assert.NoError(t, c.SaveScreenshot(path))

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	assert.NoError(t, err)
	assert.Equal(t, DisplayWidth, img.Bounds().Dx())
	assert.Equal(t, DisplayHeight, img.Bounds().Dy())

	r, _, _, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
}

package cpu

import "math/bits"

const (
	DisplayWidth  = 64
	DisplayHeight = 32

	// MaxSpriteRows is the tallest sprite a single draw can compose.
	MaxSpriteRows = 15
)

// Display is the monochrome 64x32 bitmap. Each row is a 64-bit mask with
// the most significant bit as the leftmost pixel.
type Display struct {
	rows [DisplayHeight]uint64
}

func (d *Display) Clear() {
	d.rows = [DisplayHeight]uint64{}
}

// Row returns the bitmask of row y (wrapped to the display height).
func (d *Display) Row(y int) uint64 {
	return d.rows[wrap(y, DisplayHeight)]
}

// Rows returns a copy of the whole bitmap.
func (d *Display) Rows() [DisplayHeight]uint64 {
	return d.rows
}

// Pixel reports whether the pixel at column x, row y is set.
func (d *Display) Pixel(x, y int) bool {
	x = wrap(x, DisplayWidth)
	return d.rows[wrap(y, DisplayHeight)]&(1<<(DisplayWidth-1-x)) != 0
}

// DrawSprite XORs up to MaxSpriteRows byte-wide rows onto the bitmap with
// the top-left pixel at (x, y). Sprites wrap around both edges. It returns
// true when any previously set pixel was cleared by the composition.
func (d *Display) DrawSprite(x, y int, sprite []byte) bool {
	if len(sprite) > MaxSpriteRows {
		sprite = sprite[:MaxSpriteRows]
	}
	x = wrap(x, DisplayWidth)
	y = wrap(y, DisplayHeight)

	collision := false
	for i, b := range sprite {
		r := (y + i) % DisplayHeight
		pattern := bits.RotateLeft64(uint64(b)<<(DisplayWidth-8), -x)

		before := d.rows[r]
		after := before ^ pattern
		d.rows[r] = after

		if !collision && bits.OnesCount64(after) < bits.OnesCount64(before)+bits.OnesCount64(pattern) {
			collision = true
		}
	}
	return collision
}

func wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}

package cpu

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDisplayDrawWrapsHorizontally(t *testing.T) {
	var d Display

	collision := d.DrawSprite(60, 0, []byte{0xFF})
	assert.False(t, collision)
	assert.Equal(t, uint64(0xF00000000000000F), d.Row(0))

	for x := 0; x < 4; x++ {
		assert.True(t, d.Pixel(x, 0), "pixel %d", x)
	}
	for x := 60; x < DisplayWidth; x++ {
		assert.True(t, d.Pixel(x, 0), "pixel %d", x)
	}
	assert.False(t, d.Pixel(4, 0))
	assert.False(t, d.Pixel(59, 0))

	collision = d.DrawSprite(60, 0, []byte{0xFF})
	assert.True(t, collision)
	assert.Equal(t, [DisplayHeight]uint64{}, d.Rows())
}

func TestDisplayDrawWrapsVertically(t *testing.T) {
	var d Display

	d.DrawSprite(0, 31, []byte{0x80, 0x40})
	assert.Equal(t, uint64(1)<<63, d.Row(31))
	assert.Equal(t, uint64(1)<<62, d.Row(0))
}

func TestDisplayCoordinatesWrap(t *testing.T) {
	var d Display

	d.DrawSprite(DisplayWidth+1, DisplayHeight+2, []byte{0x80})
	assert.True(t, d.Pixel(1, 2))
}

func TestDisplayCollision(t *testing.T) {
	tests := []struct {
		name     string
		first    []byte
		second   []byte
		x2, y2   int
		expected bool
	}{
		{"disjoint rows", []byte{0xF0}, []byte{0x0F}, 0, 0, false},
		{"single overlapping pixel", []byte{0x01}, []byte{0x80}, 7, 0, true},
		{"overlap on second row", []byte{0x00, 0x10}, []byte{0x00, 0x10}, 0, 0, true},
		{"adjacent row", []byte{0xFF}, []byte{0xFF}, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Display
			assert.False(t, d.DrawSprite(0, 0, tt.first))
			assert.Equal(t, tt.expected, d.DrawSprite(tt.x2, tt.y2, tt.second))
		})
	}
}

func TestDisplaySpriteHeightLimit(t *testing.T) {
	var d Display

	sprite := make([]byte, 20)
	for i := range sprite {
		sprite[i] = 0x80
	}
	d.DrawSprite(0, 0, sprite)

	for y := 0; y < MaxSpriteRows; y++ {
		assert.True(t, d.Pixel(0, y), "row %d", y)
	}
	for y := MaxSpriteRows; y < DisplayHeight; y++ {
		assert.False(t, d.Pixel(0, y), "row %d", y)
	}
}

func TestDisplayClear(t *testing.T) {
	var d Display
	d.DrawSprite(10, 10, []byte{0xAA, 0x55})
	d.Clear()
	assert.Equal(t, [DisplayHeight]uint64{}, d.Rows())
}

func BenchmarkDisplayDrawSprite(b *testing.B) {
	var d Display
	sprite := []byte{0xF0, 0x90, 0x90, 0x90, 0xF0}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d.DrawSprite(i%DisplayWidth, i%DisplayHeight, sprite)
	}
}

// Copyright (C) 2024 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package ledmatrix

// MaxIntensity lights both pixels of a packed byte at full intensity.
const MaxIntensity = 0xFF

// Number of bytes the firmware expects after the pixel data. Their meaning
// belongs to the firmware; they are sent like any other byte.
const trailerSize = 2

// DataSize is the frame payload size of a width x height display with
// 4 bits per pixel.
func DataSize(width, height int) int {
	return width*height/2 + trailerSize
}

// DrawBuffer is the packed frame that is sent to the display.
type DrawBuffer struct {
	data   []byte
	cursor int
	filled int
}

func NewDrawBuffer(width, height int) *DrawBuffer {
	return &DrawBuffer{
		data: make([]byte, DataSize(width, height)),
	}
}

func (b *DrawBuffer) Len() int {
	return len(b.data)
}

// Bytes returns the frame. It aliases the buffer.
func (b *DrawBuffer) Bytes() []byte {
	return b.data
}

// Cursor is the index the next FillNext writes.
func (b *DrawBuffer) Cursor() int {
	return b.cursor
}

// Filled is the number of bytes at MaxIntensity.
func (b *DrawBuffer) Filled() int {
	return b.filled
}

// FillNext sets the byte at the cursor to MaxIntensity and advances the
// cursor, wrapping to 0. It returns the index written.
func (b *DrawBuffer) FillNext() int {
	i := b.cursor
	if b.data[i] != MaxIntensity {
		b.data[i] = MaxIntensity
		b.filled++
	}
	b.cursor++
	if b.cursor >= len(b.data) {
		b.cursor = 0
	}
	return i
}

func (b *DrawBuffer) FillAll() {
	for i := range b.data {
		b.data[i] = MaxIntensity
	}
	b.filled = len(b.data)
}

// Clear zeroes the frame and rewinds the cursor.
func (b *DrawBuffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.filled = 0
	b.cursor = 0
}

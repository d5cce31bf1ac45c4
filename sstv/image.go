package sstv

/*
 * ImageBuilder
 * Ported from connorslade/sstv-log (src/sstv/image.rs)
 */

// Image is a row-major RGB8 pixel buffer, width*height*3 bytes, channels
// in R, G, B order.
type Image struct {
	Width, Height int
	Pix           []uint8
}

func newImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

func (img *Image) set(x, y int, r, g, b uint8) {
	i := (y*img.Width + x) * 3
	img.Pix[i] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
}

// ImageBuilder owns the pixel buffer being assembled for one decode
// cycle. Ownership of the buffer transfers to the caller on Finish; the
// builder is unusable afterward.
type ImageBuilder struct {
	sampleRate  float64
	rowDuration float64 // expected seconds per displayed row
	img         *Image
	y           int
}

// NewImageBuilder returns a builder for the given resolution.
// rowDuration is the nominal seconds-per-displayed-row used to split a
// raw row sequence that may contain more than one displayed row glued
// together (Martin 1's expected row duration is 0.48s).
func NewImageBuilder(sampleRate float64, width, height int, rowDuration float64) *ImageBuilder {
	return &ImageBuilder{
		sampleRate:  sampleRate,
		rowDuration: rowDuration,
		img:         newImage(width, height),
	}
}

// Progress returns y/height, non-decreasing over the builder's lifetime.
func (b *ImageBuilder) Progress() float32 {
	return float32(b.y) / float32(b.img.Height)
}

// Finished reports whether every row has been written.
func (b *ImageBuilder) Finished() bool {
	return b.y >= b.img.Height
}

// PushRow consumes one raw row sequence, which may glue together 1+
// displayed rows when the decoder's sync detector missed an internal
// sync within the mode's timing. It partitions the sequence into
// round(len/expected) equal chunks and renders one pixel row per chunk
// that still fits before height.
func (b *ImageBuilder) PushRow(row []float32) {
	expected := b.rowDuration * b.sampleRate
	rows := int(roundHalfAwayFromZero(float64(len(row)) / expected))
	if rows == 0 {
		return
	}

	chunkSize := len(row) / rows
	for i := 0; i < rows; i++ {
		if b.y >= b.img.Height {
			return
		}

		start := i * chunkSize
		end := start + chunkSize
		if i == rows-1 {
			end = len(row)
		}
		b.renderRow(row[start:end])
		b.y++
	}
}

// renderRow samples chunk at three interleaved phase-shifted positions
// per column to produce Martin-family GBR output.
func (b *ImageBuilder) renderRow(chunk []float32) {
	width := b.img.Width
	get := func(t float64) uint8 {
		return sampleLerp(chunk, t)
	}

	for x := 0; x < width; x++ {
		t := float64(x) / float64(width) / 3.0
		r := get(t + 2.0/3.0)
		g := get(t)
		bch := get(t + 1.0/3.0)
		b.img.set(x, b.y, r, g, bch)
	}
}

// sampleLerp linearly interpolates chunk at normalized position u in
// [0,1) and scales to a byte.
func sampleLerp(chunk []float32, u float64) uint8 {
	n := len(chunk)
	idx := float64(n) * u

	lo := int(idx)
	hi := lo + 1
	if hi > n-1 {
		hi = n - 1
	}
	if lo > n-1 {
		lo = n - 1
	}

	frac := idx - float64(int(idx))
	v := float64(chunk[lo]) + (float64(chunk[hi])-float64(chunk[lo]))*frac
	return uint8(v * 255)
}

// Finish transfers ownership of the pixel buffer to the caller. The
// builder must not be used afterward.
func (b *ImageBuilder) Finish() *Image {
	img := b.img
	b.img = nil
	return img
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return float64(int64(x + 0.5))
	}
	return float64(int64(x - 0.5))
}

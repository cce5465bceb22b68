package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// RawImage holds the bytes of one image and decodes them on first use.
// It is immutable after construction and safe for concurrent readers.
type RawImage struct {
	data []byte

	once sync.Once
	grid *Grid
	err  error
}

// NewRawImage wraps data without copying it; callers must not mutate the slice afterwards.
func NewRawImage(data []byte) *RawImage {
	return &RawImage{data: data}
}

// Bytes returns the undecoded buffer.
func (r *RawImage) Bytes() []byte {
	return r.data
}

func (r *RawImage) Len() int {
	return len(r.data)
}

// Reader returns a fresh reader over the buffer.
func (r *RawImage) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// Decode returns the RGB pixel grid, decoding at most once.
func (r *RawImage) Decode() (*Grid, error) {
	r.once.Do(func() {
		img, _, err := image.Decode(r.Reader())
		if err != nil {
			r.err = fmt.Errorf("failed to decode image: %w", err)
			return
		}
		r.grid = FromImage(img)
		if r.grid.Width == 0 || r.grid.Height == 0 {
			r.err = fmt.Errorf("failed to decode image: empty %dx%d bounds", r.grid.Width, r.grid.Height)
			r.grid = nil
		}
	})
	return r.grid, r.err
}

// DecodeConfig reads only the header of the image.
func (r *RawImage) DecodeConfig() (image.Config, string, error) {
	return image.DecodeConfig(r.Reader())
}

// Package imagingtest builds synthetic images and encoded fixtures for tests.
package imagingtest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"sort"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Solid returns a width x height image filled with c.
func Solid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Gradient returns a diagonal gray ramp.
func Gradient(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x + y) * 255 / (width + height))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

// Noise returns deterministic uniform RGB noise.
func Noise(width, height int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

// CopyPatch copies the size x size block at (sx, sy) onto (dx, dy) in place.
func CopyPatch(img *image.RGBA, sx, sy, dx, dy, size int) {
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetRGBA(dx+x, dy+y, img.RGBAAt(sx+x, sy+y))
		}
	}
}

func JPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func PNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func BMP(img image.Image) []byte {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func TIFF(img image.Image) []byte {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Common IFD0 ASCII tag IDs.
const (
	TagImageDescription uint16 = 0x010E
	TagMake             uint16 = 0x010F
	TagModel            uint16 = 0x0110
	TagSoftware         uint16 = 0x0131
	TagDateTime         uint16 = 0x0132
	TagArtist           uint16 = 0x013B
	TagCopyright        uint16 = 0x8298
)

// WithExif inserts an APP1 EXIF segment holding the given ASCII tags right
// after the SOI marker of a JPEG stream.
func WithExif(jpegData []byte, tags map[uint16]string) []byte {
	payload := append([]byte("Exif\x00\x00"), exifTIFF(tags)...)

	out := make([]byte, 0, len(jpegData)+len(payload)+4)
	out = append(out, jpegData[:2]...)
	out = append(out, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(len(payload)+2))
	out = append(out, payload...)
	return append(out, jpegData[2:]...)
}

// exifTIFF builds a little-endian TIFF header with a single IFD of ASCII entries.
func exifTIFF(tags map[uint16]string) []byte {
	ids := make([]int, 0, len(tags))
	for id := range tags {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	const headerLen = 8
	ifdLen := 2 + 12*len(ids) + 4
	dataOffset := headerLen + ifdLen

	le := binary.LittleEndian
	buf := []byte{'I', 'I', 0x2A, 0x00}
	buf = le.AppendUint32(buf, headerLen)
	buf = le.AppendUint16(buf, uint16(len(ids)))

	var data []byte
	for _, id := range ids {
		value := append([]byte(tags[uint16(id)]), 0)
		buf = le.AppendUint16(buf, uint16(id))
		buf = le.AppendUint16(buf, 2) // ASCII
		buf = le.AppendUint32(buf, uint32(len(value)))
		if len(value) <= 4 {
			inline := make([]byte, 4)
			copy(inline, value)
			buf = append(buf, inline...)
			continue
		}
		buf = le.AppendUint32(buf, uint32(dataOffset+len(data)))
		data = append(data, value...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	buf = le.AppendUint32(buf, 0)
	return append(buf, data...)
}

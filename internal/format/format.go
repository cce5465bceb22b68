// Package format classifies image bytes by their leading signature.
package format

import "bytes"

type Format string

const (
	JPEG    Format = "jpeg"
	PNG     Format = "png"
	BMP     Format = "bmp"
	TIFF    Format = "tiff"
	Unknown Format = "unknown"
)

type signature struct {
	format Format
	magic  []byte
}

// Signatures are mutually exclusive so table order does not affect the result.
var signatures = []signature{
	{JPEG, []byte{0xFF, 0xD8, 0xFF}},
	{PNG, []byte{0x89, 0x50, 0x4E, 0x47}},
	{BMP, []byte{0x42, 0x4D}},
	{TIFF, []byte{0x49, 0x49, 0x2A, 0x00}},
	{TIFF, []byte{0x4D, 0x4D, 0x00, 0x2A}},
}

// Detect returns the container format of data. It reports false for
// buffers shorter than four bytes or without a known signature.
func Detect(data []byte) (Format, bool) {
	if len(data) < 4 {
		return Unknown, false
	}
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.format, true
		}
	}
	return Unknown, false
}

// Parse maps a format name, including the "jpg" and "tif" aliases, to a Format.
func Parse(name string) Format {
	switch name {
	case "jpeg", "jpg":
		return JPEG
	case "png":
		return PNG
	case "bmp":
		return BMP
	case "tiff", "tif":
		return TIFF
	}
	return Unknown
}

// Lossy reports whether recompression artifacts are meaningful for f.
func (f Format) Lossy() bool {
	return f == JPEG
}

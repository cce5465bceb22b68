package imaging

import (
	"image"
	"image/color"
)

// Grid is a decoded image as interleaved 8-bit RGB samples, row-major.
// Alpha is discarded.
type Grid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrid allocates a black grid.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// FromImage converts any decoded image to a Grid.
func FromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := NewGrid(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.YCbCr:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				yi := src.YOffset(b.Min.X+x, b.Min.Y+y)
				ci := src.COffset(b.Min.X+x, b.Min.Y+y)
				r, gg, bb := color.YCbCrToRGB(src.Y[yi], src.Cb[ci], src.Cr[ci])
				g.Set(x, y, r, gg, bb)
			}
		}
	case *image.Gray:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				v := src.GrayAt(b.Min.X+x, b.Min.Y+y).Y
				g.Set(x, y, v, v, v)
			}
		}
	case *image.NRGBA:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				c := src.NRGBAAt(b.Min.X+x, b.Min.Y+y)
				g.Set(x, y, c.R, c.G, c.B)
			}
		}
	default:
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				g.Set(x, y, c.R, c.G, c.B)
			}
		}
	}
	return g
}

func (g *Grid) offset(x, y int) int {
	return (y*g.Width + x) * 3
}

func (g *Grid) Set(x, y int, r, gr, b uint8) {
	i := g.offset(x, y)
	g.Pix[i], g.Pix[i+1], g.Pix[i+2] = r, gr, b
}

// At returns channel c (0=R, 1=G, 2=B) of pixel (x, y).
func (g *Grid) At(x, y, c int) uint8 {
	return g.Pix[g.offset(x, y)+c]
}

// Pixels returns the number of pixels.
func (g *Grid) Pixels() int {
	return g.Width * g.Height
}

// Channel extracts one color plane as float64 samples.
func (g *Grid) Channel(c int) []float64 {
	out := make([]float64, g.Pixels())
	for i := range out {
		out[i] = float64(g.Pix[i*3+c])
	}
	return out
}

// Samples returns every sample of every channel as float64.
func (g *Grid) Samples() []float64 {
	out := make([]float64, len(g.Pix))
	for i, v := range g.Pix {
		out[i] = float64(v)
	}
	return out
}

// Intensity returns the unweighted mean of the three channels per pixel.
func (g *Grid) Intensity() []float64 {
	out := make([]float64, g.Pixels())
	for i := range out {
		p := g.Pix[i*3 : i*3+3]
		out[i] = (float64(p[0]) + float64(p[1]) + float64(p[2])) / 3.0
	}
	return out
}

// Gray converts to 8-bit luma using the ITU-R 601 weights.
func (g *Grid) Gray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for i := 0; i < g.Pixels(); i++ {
		p := g.Pix[i*3 : i*3+3]
		out.Pix[i] = color.GrayModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}).(color.Gray).Y
	}
	return out
}

// RGBA converts to an opaque *image.RGBA suitable for encoders.
func (g *Grid) RGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for i := 0; i < g.Pixels(); i++ {
		copy(out.Pix[i*4:i*4+3], g.Pix[i*3:i*3+3])
		out.Pix[i*4+3] = 0xff
	}
	return out
}

// Cells partitions a width x height plane into n x n equal cells.
// Cell size is the floor of each dimension divided by n; remainder rows
// and columns fall outside every cell. Empty cells are omitted.
func Cells(width, height, n int) []image.Rectangle {
	if n <= 0 {
		return nil
	}
	cw, ch := width/n, height/n
	if cw == 0 || ch == 0 {
		return nil
	}
	cells := make([]image.Rectangle, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cells = append(cells, image.Rect(j*cw, i*ch, (j+1)*cw, (i+1)*ch))
		}
	}
	return cells
}

// CellMean averages a single-plane buffer of the given width over r.
func CellMean(plane []float64, width int, r image.Rectangle) float64 {
	n := r.Dx() * r.Dy()
	if n == 0 {
		return 0
	}
	sum := 0.0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := plane[y*width : (y+1)*width]
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += row[x]
		}
	}
	return sum / float64(n)
}

package render

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	svg "github.com/ajstarks/svgo"
	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// glyphUnits is the side of the square viewBox every piece is drawn in.
const glyphUnits = 45

const (
	lightPieceFill = "#f8f8f6"
	darkPieceFill  = "#262421"
	pieceStroke    = "#000000"
	darkDetail     = "#e8e8e8"
)

type glyphKey struct {
	piece nchess.Piece
	size  int
}

type glyphCache struct {
	mu     sync.RWMutex
	images map[glyphKey]image.Image
}

var glyphs = &glyphCache{images: map[glyphKey]image.Image{}}

func (c *glyphCache) get(piece nchess.Piece, size int) (image.Image, error) {
	key := glyphKey{piece: piece, size: size}
	c.mu.RLock()
	img, ok := c.images[key]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	img, err := rasterizeGlyph(glyphSVG(piece), size)
	if err != nil {
		return nil, fmt.Errorf("piece %s: %w", piece, err)
	}

	c.mu.Lock()
	c.images[key] = img
	c.mu.Unlock()
	return img, nil
}

func rasterizeGlyph(doc []byte, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(normalizeStyle(doc)), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse glyph svg: %w", err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		icon.ViewBox.W, icon.ViewBox.H = glyphUnits, glyphUnits
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

// normalizeStyle drops the blank after "fill:" and "stroke:" that oksvg
// refuses to parse in inline styles.
func normalizeStyle(doc []byte) []byte {
	out := bytes.ReplaceAll(doc, []byte("fill: #"), []byte("fill:#"))
	out = bytes.ReplaceAll(out, []byte("stroke: #"), []byte("stroke:#"))
	return out
}

// glyphSVG draws a piece silhouette on a 45x45 grid.
func glyphSVG(piece nchess.Piece) []byte {
	fill, detail := lightPieceFill, pieceStroke
	if piece.Color() == nchess.Black {
		fill, detail = darkPieceFill, darkDetail
	}
	body := fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.5", fill, pieceStroke)
	accent := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", detail)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(glyphUnits, glyphUnits, 0, 0, glyphUnits, glyphUnits)

	switch piece.Type() {
	case nchess.Pawn:
		canvas.Polygon([]int{17, 28, 32, 13}, []int{20, 20, 36, 36}, body)
		canvas.Circle(22, 14, 6, body)
		canvas.Rect(11, 36, 23, 4, body)
	case nchess.Rook:
		canvas.Polygon(
			[]int{12, 12, 16, 16, 20, 20, 25, 25, 29, 29, 33, 33},
			[]int{15, 8, 8, 11, 11, 8, 8, 11, 11, 8, 8, 15},
			body,
		)
		canvas.Rect(15, 15, 15, 17, body)
		canvas.Rect(11, 32, 23, 4, body)
		canvas.Rect(9, 36, 27, 4, body)
	case nchess.Knight:
		canvas.Polygon(
			[]int{15, 15, 19, 13, 11, 18, 22, 24, 30, 33, 32},
			[]int{36, 30, 24, 22, 18, 12, 8, 10, 12, 20, 36},
			body,
		)
		canvas.Circle(20, 15, 1, accent)
		canvas.Rect(10, 36, 25, 4, body)
	case nchess.Bishop:
		canvas.Polygon([]int{16, 29, 33, 12}, []int{28, 28, 36, 36}, body)
		canvas.Ellipse(22, 21, 7, 9, body)
		canvas.Circle(22, 9, 3, body)
		canvas.Line(19, 17, 25, 23, accent)
		canvas.Rect(10, 36, 25, 4, body)
	case nchess.Queen:
		canvas.Polygon(
			[]int{9, 15, 16, 22, 28, 30, 36, 31, 14},
			[]int{13, 27, 11, 25, 11, 27, 13, 36, 36},
			body,
		)
		for _, x := range []int{9, 16, 28, 36} {
			canvas.Circle(x, 11, 2, body)
		}
		canvas.Circle(22, 8, 2, body)
		canvas.Rect(11, 36, 23, 4, body)
	case nchess.King:
		canvas.Rect(20, 3, 5, 13, body)
		canvas.Rect(16, 6, 13, 4, body)
		canvas.Polygon([]int{11, 34, 31, 14}, []int{17, 17, 36, 36}, body)
		canvas.Line(14, 27, 31, 27, accent)
		canvas.Rect(10, 36, 25, 4, body)
	}

	canvas.End()
	return buf.Bytes()
}

package render

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func newFiller(img *image.RGBA, clr color.Color) *rasterx.Filler {
	b := img.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), img, b)
	f := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	f.SetColor(clr)
	return f
}

func fillRoundRect(img *image.RGBA, r image.Rectangle, radius float64, clr color.Color) {
	if r.Empty() {
		return
	}
	if limit := math.Min(float64(r.Dx()), float64(r.Dy())) / 2; radius > limit {
		radius = limit
	}
	f := newFiller(img, clr)
	rasterx.AddRoundRect(
		float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y),
		radius, radius, 0, rasterx.RoundGap, f,
	)
	f.Draw()
}

// fillArrow draws a shaft plus head from the centre of one rect to the centre
// of another.
func fillArrow(img *image.RGBA, from, to image.Rectangle, clr color.Color) {
	if from == to {
		return
	}
	side := float64(from.Dx())
	sx, sy := centre(from)
	ex, ey := centre(to)
	dx, dy := ex-sx, ey-sy
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	px, py := -uy, ux

	neck := length - side*0.45
	if neck < side*0.35 {
		neck = length * 0.6
	}
	shaft := side * 0.18
	head := side * 0.32
	nx, ny := sx+ux*neck, sy+uy*neck

	f := newFiller(img, clr)
	f.Start(rasterx.ToFixedP(sx-px*shaft, sy-py*shaft))
	f.Line(rasterx.ToFixedP(nx-px*shaft, ny-py*shaft))
	f.Line(rasterx.ToFixedP(nx-px*head, ny-py*head))
	f.Line(rasterx.ToFixedP(ex, ey))
	f.Line(rasterx.ToFixedP(nx+px*head, ny+py*head))
	f.Line(rasterx.ToFixedP(nx+px*shaft, ny+py*shaft))
	f.Line(rasterx.ToFixedP(sx+px*shaft, sy+py*shaft))
	f.Stop(true)
	f.Draw()
}

func centre(r image.Rectangle) (float64, float64) {
	return float64(r.Min.X) + float64(r.Dx())/2, float64(r.Min.Y) + float64(r.Dy())/2
}

// ellipsize shortens text until it fits maxWidth pixels.
func ellipsize(face font.Face, text string, maxWidth int) string {
	text = strings.TrimSpace(text)
	if text == "" || maxWidth <= 0 {
		return text
	}
	measure := func(s string) int { return font.MeasureString(face, s).Round() }
	if measure(text) <= maxWidth {
		return text
	}
	const dots = "..."
	if measure(dots) > maxWidth {
		return ""
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if candidate := string(runes) + dots; measure(candidate) <= maxWidth {
			return candidate
		}
	}
	return dots
}

// drawCentred writes text centred horizontally at cx with its baseline at y.
func drawCentred(d *font.Drawer, text string, cx, baseline int, clr color.Color) {
	if text == "" {
		return
	}
	w := d.MeasureString(text).Round()
	d.Src = image.NewUniform(clr)
	d.Dot = fixed.P(cx-w/2, baseline)
	d.DrawString(text)
}

// drawInPanel centres text inside r both ways.
func drawInPanel(d *font.Drawer, r image.Rectangle, text string, clr color.Color) {
	m := d.Face.Metrics()
	baseline := r.Min.Y + (r.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	drawCentred(d, text, r.Min.X+r.Dx()/2, baseline, clr)
}

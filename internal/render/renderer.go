package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/Cheese-chess-coach/internal/chess"
)

var ErrNilGame = errors.New("render: game is nil")

const (
	defaultSquareSize = 64
	minSquareSize     = 24
)

var (
	lightSquare      = color.RGBA{233, 207, 163, 255}
	darkSquare       = color.RGBA{187, 136, 96, 255}
	whiteMoveFill    = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow   = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralMoveArrow = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	backgroundColor  = color.RGBA{20, 22, 33, 255}
	panelColor       = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	turnPanelColor   = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	panelShadow      = color.NRGBA{0, 0, 0, 50}
	textPrimary      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	textTurn         = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateColor  = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// Highlight marks the last move by square name, e.g. {"e2", "e4"}.
type Highlight struct {
	From string
	To   string
}

type Options struct {
	Highlight *Highlight
	Title     string
	Turn      string
	// Flip draws the board from Black's side.
	Flip bool
}

type Renderer struct {
	square int
	face   font.Face
}

type Option func(*Renderer)

func WithSquareSize(px int) Option {
	return func(r *Renderer) {
		if px >= minSquareSize {
			r.square = px
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{square: defaultSquareSize, face: basicfont.Face7x13}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// layout places the HUD above the board and the coordinates around it.
type layout struct {
	square int
	margin int
	top    int
	bottom int
}

func (r *Renderer) layout() layout {
	return layout{
		square: r.square,
		margin: r.square / 2,
		top:    r.square + r.square/2 + 8,
		bottom: r.square / 2,
	}
}

func (l layout) boardRect() image.Rectangle {
	side := l.square * 8
	return image.Rect(l.margin, l.top, l.margin+side, l.top+side)
}

func (l layout) canvas() image.Rectangle {
	b := l.boardRect()
	return image.Rect(0, 0, b.Max.X+l.margin, b.Max.Y+l.bottom)
}

func (l layout) squareRect(sq nchess.Square, flip bool) image.Rectangle {
	col, row := int(sq.File()), 7-int(sq.Rank())
	if flip {
		col, row = 7-col, 7-row
	}
	b := l.boardRect()
	x, y := b.Min.X+col*l.square, b.Min.Y+row*l.square
	return image.Rect(x, y, x+l.square, y+l.square)
}

// RenderPNG draws the current position of g and encodes it as PNG.
func (r *Renderer) RenderPNG(ctx context.Context, g *chess.Game, opts Options) ([]byte, error) {
	img, err := r.Render(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) Render(ctx context.Context, g *chess.Game, opts Options) (*image.RGBA, error) {
	if g == nil {
		return nil, ErrNilGame
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := r.layout()
	img := image.NewRGBA(l.canvas())
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	board := g.Board()
	material, _ := chess.ComputeMaterial(g)

	r.drawHUD(img, l, opts, material.Diff())
	r.drawSquares(img, l, opts.Flip)
	if err := r.drawPieces(img, l, board, opts.Flip); err != nil {
		return nil, err
	}
	r.drawHighlight(img, l, board, opts)
	r.drawCoordinates(img, l, opts.Flip)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *Renderer) drawSquares(img *image.RGBA, l layout, flip bool) {
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		clr := lightSquare
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			clr = darkSquare
		}
		draw.Draw(img, l.squareRect(sq, flip), image.NewUniform(clr), image.Point{}, draw.Src)
	}
}

func (r *Renderer) drawPieces(img *image.RGBA, l layout, board *nchess.Board, flip bool) error {
	for i := 0; i < 64; i++ {
		sq := nchess.Square(i)
		piece := board.Piece(sq)
		if piece == nchess.NoPiece {
			continue
		}
		glyph, err := glyphs.get(piece, l.square)
		if err != nil {
			return err
		}
		draw.Draw(img, l.squareRect(sq, flip), glyph, image.Point{}, draw.Over)
	}
	return nil
}

// drawHighlight fills both squares of a white move and draws an arrow for
// a black one. The mover is whoever now stands on the destination.
func (r *Renderer) drawHighlight(img *image.RGBA, l layout, board *nchess.Board, opts Options) {
	if opts.Highlight == nil {
		return
	}
	from, errFrom := chess.ParseSquare(opts.Highlight.From)
	to, errTo := chess.ParseSquare(opts.Highlight.To)
	if errFrom != nil || errTo != nil {
		return
	}
	fromRect, toRect := l.squareRect(from, opts.Flip), l.squareRect(to, opts.Flip)

	mover := board.Piece(to)
	if mover == nchess.NoPiece {
		mover = board.Piece(from)
	}
	switch mover.Color() {
	case nchess.White:
		draw.Draw(img, fromRect, image.NewUniform(whiteMoveFill), image.Point{}, draw.Over)
		draw.Draw(img, toRect, image.NewUniform(whiteMoveFill), image.Point{}, draw.Over)
	case nchess.Black:
		fillArrow(img, fromRect, toRect, blackMoveArrow)
	default:
		fillArrow(img, fromRect, toRect, neutralMoveArrow)
	}
}

func (r *Renderer) drawHUD(img *image.RGBA, l layout, opts Options, diff int) {
	const (
		radius   = 10
		padX     = 16
		shadowDY = 4
		gap      = 8
	)
	board := l.boardRect()
	d := &font.Drawer{Dst: img, Face: r.face}

	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Player vs Bot"
	}
	turn := strings.TrimSpace(opts.Turn)
	score := formatDiff(diff)

	rowH := (l.top - gap*3) / 2
	titleRect := image.Rect(board.Min.X, gap, board.Max.X, gap+rowH)

	scoreW := d.MeasureString(score).Round() + padX*2
	if scoreW < 64 {
		scoreW = 64
	}
	lowerTop := titleRect.Max.Y + gap
	scoreRect := image.Rect(board.Max.X-scoreW, lowerTop, board.Max.X, lowerTop+rowH)
	turnRect := image.Rect(board.Min.X, lowerTop, scoreRect.Min.X-gap, lowerTop+rowH)

	for _, rect := range []image.Rectangle{titleRect, scoreRect, turnRect} {
		fillRoundRect(img, rect.Add(image.Pt(0, shadowDY)), radius, panelShadow)
	}
	fillRoundRect(img, titleRect, radius, panelColor)
	fillRoundRect(img, scoreRect, radius, panelColor)
	fillRoundRect(img, turnRect, radius, turnPanelColor)

	drawInPanel(d, titleRect, ellipsize(r.face, title, titleRect.Dx()-padX*2), textPrimary)
	drawInPanel(d, scoreRect, score, textPrimary)
	drawInPanel(d, turnRect, ellipsize(r.face, turn, turnRect.Dx()-padX*2), textTurn)
}

func (r *Renderer) drawCoordinates(img *image.RGBA, l layout, flip bool) {
	d := &font.Drawer{Dst: img, Face: r.face}
	ascent := r.face.Metrics().Ascent.Ceil()
	board := l.boardRect()
	for i := 0; i < 8; i++ {
		file := nchess.File(i)
		rank := nchess.Rank(i)
		fileRect := l.squareRect(nchess.NewSquare(file, nchess.Rank1), flip)
		rankRect := l.squareRect(nchess.NewSquare(nchess.FileA, rank), flip)
		drawCentred(d, file.String(), fileRect.Min.X+l.square/2, board.Max.Y+ascent+2, coordinateColor)
		drawCentred(d, rank.String(), board.Min.X-l.margin/2, rankRect.Min.Y+l.square/2+ascent/2, coordinateColor)
	}
}

func formatDiff(diff int) string {
	if diff == 0 {
		return "0"
	}
	return fmt.Sprintf("%+d", diff)
}

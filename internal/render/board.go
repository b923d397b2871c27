// Package render produces board PNGs for the presentation layer.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

// Board reports square occupancy; satisfied by *rules.Authority.
type Board interface {
	PieceAt(square string) (rules.Color, string, bool)
}

// Options control one render. Zero value renders the plain board.
type Options struct {
	// SquareSize in pixels; defaults to 72.
	SquareSize int
	// HighlightFrom/HighlightTo tint the last move's squares when both set.
	HighlightFrom string
	HighlightTo   string
}

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	highlightColor = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
)

// RenderPNG draws the position, white at the bottom, and encodes it as PNG.
func RenderPNG(ctx context.Context, board Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	squareSize := opts.SquareSize
	if squareSize <= 0 {
		squareSize = 72
	}
	boardSize := squareSize * 8

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, boardSize, boardSize))

	for rank := 8; rank >= 1; rank-- {
		for file := 0; file < 8; file++ {
			sq := fmt.Sprintf("%c%d", 'a'+file, rank)
			rect := squareRect(sq, squareSize)

			clr := lightSquare
			if (file+rank)%2 == 0 {
				clr = darkSquare
			}
			draw.Draw(img, rect, image.NewUniform(clr), image.Point{}, draw.Src)

			if sq == opts.HighlightFrom || sq == opts.HighlightTo {
				draw.Draw(img, rect, image.NewUniform(highlightColor), image.Point{}, draw.Over)
			}

			pcolor, piece, ok := board.PieceAt(sq)
			if !ok {
				continue
			}
			sprite, err := pieceImage(string(pcolor), piece, squareSize)
			if err != nil {
				return nil, err
			}
			draw.Draw(img, rect, sprite, image.Point{}, draw.Over)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// squareRect maps "e4" onto pixel coordinates, rank 8 at the top.
func squareRect(sq string, squareSize int) image.Rectangle {
	col := int(sq[0] - 'a')
	row := 7 - int(sq[1]-'1')
	x := col * squareSize
	y := row * squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

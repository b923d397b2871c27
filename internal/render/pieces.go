package render

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

// Pieces are drawn from simple built-in geometric paths on a 100x100 viewbox,
// rasterized once at a base size and rescaled per board size. No external
// asset files.
const pieceBaseSize = 128

// %s slots: fill, stroke.
var pieceBodies = map[string]string{
	"p": `<circle cx="50" cy="32" r="13" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<path d="M 38 44 L 62 44 L 68 78 L 32 78 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<rect x="26" y="78" width="48" height="10" rx="3" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
	"n": `<path d="M 30 86 L 34 52 Q 24 46 28 32 Q 34 16 54 14 L 56 22 Q 72 26 74 48 L 70 86 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<circle cx="48" cy="30" r="3" fill="%[2]s"/>
<rect x="24" y="84" width="52" height="8" rx="3" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
	"b": `<ellipse cx="50" cy="40" rx="16" ry="24" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<line x1="50" y1="24" x2="50" y2="42" stroke="%[2]s" stroke-width="4"/>
<circle cx="50" cy="12" r="5" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<path d="M 34 68 L 66 68 L 70 86 L 30 86 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
	"r": `<path d="M 30 22 L 30 12 L 40 12 L 40 18 L 46 18 L 46 12 L 54 12 L 54 18 L 60 18 L 60 12 L 70 12 L 70 22 L 64 30 L 64 70 L 70 78 L 70 86 L 30 86 L 30 78 L 36 70 L 36 30 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
	"q": `<path d="M 22 30 L 34 62 L 66 62 L 78 30 L 64 44 L 50 24 L 36 44 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<circle cx="22" cy="26" r="5" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>
<circle cx="50" cy="18" r="5" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>
<circle cx="78" cy="26" r="5" fill="%[1]s" stroke="%[2]s" stroke-width="3"/>
<path d="M 34 64 L 66 64 L 70 86 L 30 86 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
	"k": `<line x1="50" y1="8" x2="50" y2="26" stroke="%[2]s" stroke-width="5"/>
<line x1="42" y1="15" x2="58" y2="15" stroke="%[2]s" stroke-width="5"/>
<path d="M 36 30 Q 50 22 64 30 Q 74 40 64 54 L 66 62 L 34 62 L 36 54 Q 26 40 36 30 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>
<path d="M 34 64 L 66 64 L 70 86 L 30 86 Z" fill="%[1]s" stroke="%[2]s" stroke-width="4"/>`,
}

type pieceKey struct {
	color string // "white" or "black"
	piece string // lowercase letter
	size  int
}

var (
	pieceCache   = map[pieceKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceImage(colorName, piece string, size int) (image.Image, error) {
	key := pieceKey{color: colorName, piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	body, ok := pieceBodies[piece]
	if !ok {
		return nil, fmt.Errorf("unknown piece %q", piece)
	}
	fill, stroke := "#f5f1e6", "#2b2b2b"
	if colorName == "black" {
		fill, stroke = "#2b2b2b", "#e8e4da"
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">` +
		fmt.Sprintf(body, fill, stroke) + `</svg>`

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s%s: %w", colorName, piece, err)
	}
	icon.SetTarget(0, 0, pieceBaseSize, pieceBaseSize)

	base := image.NewRGBA(image.Rect(0, 0, pieceBaseSize, pieceBaseSize))
	scanner := rasterx.NewScannerGV(pieceBaseSize, pieceBaseSize, base, base.Bounds())
	raster := rasterx.NewDasher(pieceBaseSize, pieceBaseSize, scanner)
	icon.Draw(raster, 1.0)

	var img image.Image = base
	if size != pieceBaseSize {
		scaled := image.NewRGBA(image.Rect(0, 0, size, size))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), base, base.Bounds(), xdraw.Over, nil)
		img = scaled
	}

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}

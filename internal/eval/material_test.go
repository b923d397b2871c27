package eval

import (
	"context"
	"testing"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestMaterialEstimateBalanced(t *testing.T) {
	res := MaterialEstimate(startFEN)
	if res.Centipawns != 0 {
		t.Fatalf("start position = %d cp, want 0", res.Centipawns)
	}
	if !res.Degraded() {
		t.Fatalf("material estimate must be degraded")
	}
}

func TestMaterialEstimateCountsPieces(t *testing.T) {
	// black queen missing
	res := MaterialEstimate("rnb1kbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1")
	if res.Centipawns != 900 {
		t.Fatalf("missing black queen = %d cp, want +900", res.Centipawns)
	}
	// white rook and knight missing
	res = MaterialEstimate("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/2BQKBNR w KQkq - 0 1")
	if res.Centipawns != -800 {
		t.Fatalf("missing white R+N = %d cp, want -800", res.Centipawns)
	}
}

func TestMaterialEstimateMalformedFEN(t *testing.T) {
	if res := MaterialEstimate(""); res.Centipawns != 0 || res.Depth != 0 {
		t.Fatalf("empty fen = %+v", res)
	}
}

func TestUnavailableEngineFallsBack(t *testing.T) {
	e := NewEngine("", 12, 0, nil)
	if e.Available() {
		t.Fatalf("engine with no binary should be unavailable")
	}
	res := e.Evaluate(context.Background(), startFEN)
	if !res.Degraded() {
		t.Fatalf("expected degraded result, got %+v", res)
	}
}

func TestWhiteToMove(t *testing.T) {
	if !whiteToMove(startFEN) {
		t.Fatalf("start position is white to move")
	}
	if whiteToMove("8/8/8/8/8/8/8/8 b - - 0 1") {
		t.Fatalf("b field means black to move")
	}
}

func TestParseInfoLine(t *testing.T) {
	var res Result
	parseInfoLine("info depth 10 seldepth 14 score cp 35 nodes 1000", &res)
	if res.Depth != 10 || res.Centipawns != 35 {
		t.Fatalf("res = %+v", res)
	}
	parseInfoLine("info depth 12 score mate 3", &res)
	if res.Depth != 12 || res.Mate != 3 {
		t.Fatalf("res = %+v", res)
	}
	// shallower line must not regress depth
	parseInfoLine("info depth 5 score cp 10", &res)
	if res.Depth != 12 {
		t.Fatalf("depth regressed: %+v", res)
	}
}

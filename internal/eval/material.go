package eval

import "strings"

var pieceCentipawns = map[byte]int{
	'P': 100, 'N': 300, 'B': 300, 'R': 500, 'Q': 900,
	'p': -100, 'n': -300, 'b': -300, 'r': -500, 'q': -900,
}

// MaterialEstimate is the degraded fallback when the real engine is
// unavailable or times out: a plain material count from the FEN board field,
// white-positive, marked Depth 0 so consumers can tell it apart from genuine
// search output.
func MaterialEstimate(fen string) Result {
	fields := strings.Fields(fen)
	score := 0
	if len(fields) > 0 {
		for i := 0; i < len(fields[0]); i++ {
			score += pieceCentipawns[fields[0][i]]
		}
	}
	return Result{Centipawns: score, Depth: 0}
}

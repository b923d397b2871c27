package session

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kapu/llm-chess-arena/internal/memory"
)

// candidateLineRe matches one scored candidate in the oracle's analysis, e.g.
// "1. e2->e4: +1.5 controls the center" or "- Nf3 (+0.8): develops".
var candidateLineRe = regexp.MustCompile(
	`^[\s\-*]*(?:\d+[.)]\s*)?([a-hKQRNBO][a-zA-Z0-9+#=x>-]{1,9})\s*[:(]\s*([+-]?\d+(?:\.\d+)?)\)?\s*[:\-,]?\s*(.*)$`)

// extractEvaluations pulls the top-scored candidate rankings out of free-form
// analysis text. Best-effort: an analysis with no recognizable rankings yields
// nil and the previous cache stays untouched.
func extractEvaluations(analysis string) []memory.MoveEvaluation {
	var out []memory.MoveEvaluation
	for _, line := range strings.Split(analysis, "\n") {
		m := candidateLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out = append(out, memory.MoveEvaluation{
			Move:      m[1],
			Score:     clampScore(score),
			Reasoning: strings.TrimSpace(m[3]),
		})
	}
	if len(out) == 0 {
		return nil
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func clampScore(s float64) float64 {
	if s > 10 {
		return 10
	}
	if s < -10 {
		return -10
	}
	return s
}

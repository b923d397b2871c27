package session

import (
	"strings"

	"github.com/kapu/llm-chess-arena/internal/mover"
	"github.com/kapu/llm-chess-arena/internal/rules"
)

// MatchCandidate resolves an unverified candidate against the authoritative
// legal-move set. Promotion must match exactly: a promoting legal move is
// matched only by a candidate naming the same promotion piece, and a
// non-promoting one only by a candidate with no promotion. Returns nil when
// nothing matches.
func MatchCandidate(c *mover.Candidate, legal []rules.LegalMove) *rules.LegalMove {
	if c == nil {
		return nil
	}
	from := strings.ToLower(strings.TrimSpace(c.From))
	to := strings.ToLower(strings.TrimSpace(c.To))
	promo := mover.NormalizePromotion(c.Promotion)
	for i := range legal {
		lm := &legal[i]
		if lm.From == from && lm.To == to && lm.Promotion == promo {
			return lm
		}
	}
	return nil
}

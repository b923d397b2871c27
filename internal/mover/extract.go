package mover

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

// Pure extraction helpers. These must tolerate arbitrary malformed input and
// return nil rather than fail; each is unit-testable without a network call.

var (
	jsonFragmentRe = regexp.MustCompile(`\{[^{}]*"from"[^{}]*\}`)
	fromFieldRe    = regexp.MustCompile(`"from"\s*:\s*"([a-h][1-8])"`)
	toFieldRe      = regexp.MustCompile(`"to"\s*:\s*"([a-h][1-8])"`)
	promoFieldRe   = regexp.MustCompile(`"promotion"\s*:\s*"([a-z]+)"`)
	moveNumberRe   = regexp.MustCompile(`\d+\.(\.\.)?`)
)

// ExtractCandidate scans free text for a JSON-like move fragment. It first
// tries to parse a {"from": ...} object; if that fails it falls back to
// independent field captures and assembles them when both squares are
// present.
func ExtractCandidate(text string) *Candidate {
	if frag := jsonFragmentRe.FindString(text); frag != "" {
		var raw struct {
			From      string  `json:"from"`
			To        string  `json:"to"`
			Promotion *string `json:"promotion"`
		}
		if err := json.Unmarshal([]byte(frag), &raw); err == nil {
			if c := candidateFrom(raw.From, raw.To, deref(raw.Promotion)); c != nil {
				return c
			}
		}
	}

	from := firstGroup(fromFieldRe, text)
	to := firstGroup(toFieldRe, text)
	promo := firstGroup(promoFieldRe, text)
	return candidateFrom(from, to, promo)
}

func candidateFrom(from, to, promotion string) *Candidate {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if !isSquare(from) || !isSquare(to) {
		return nil
	}
	return &Candidate{From: from, To: to, Promotion: NormalizePromotion(promotion)}
}

// NormalizePromotion collapses the promotion spellings the oracle uses
// (word or letter) to the single-letter form; anything unrecognized is
// treated as no promotion.
func NormalizePromotion(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "q", "queen":
		return "q"
	case "r", "rook":
		return "r"
	case "b", "bishop":
		return "b"
	case "n", "knight":
		return "n"
	default:
		return ""
	}
}

// LastSANToken extracts the final algebraic token from the unconsumed tail
// of a PGN-continuation reply: header lines are stripped, the echoed
// transcript is skipped, and the remainder is split on move-number markers.
func LastSANToken(reply, sentMovetext string) string {
	var body []string
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "[") {
			continue
		}
		body = append(body, line)
	}
	text := strings.Join(body, " ")

	// Skip everything up to and including the transcript we sent.
	sent := strings.TrimSpace(sentMovetext)
	if sent != "" {
		if i := strings.Index(text, sent); i >= 0 {
			text = text[i+len(sent):]
		}
	}

	text = moveNumberRe.ReplaceAllString(text, " ")
	var last string
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, "*")
		switch tok {
		case "", "1-0", "0-1", "1/2-1/2":
			continue
		}
		last = tok
	}
	return last
}

// ResolveSAN matches a SAN token against the legal-move set and returns the
// corresponding candidate, or nil if no legal move carries that notation.
// Check and annotation suffixes are ignored on both sides.
func ResolveSAN(token string, legal []rules.LegalMove) *Candidate {
	want := normalizeSAN(token)
	if want == "" {
		return nil
	}
	for _, mv := range legal {
		if normalizeSAN(mv.SAN) == want {
			return &Candidate{From: mv.From, To: mv.To, Promotion: mv.Promotion}
		}
	}
	return nil
}

func normalizeSAN(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), "+#!?")
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

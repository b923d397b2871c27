package memory

import (
	"strings"

	"github.com/kapu/llm-chess-arena/internal/rules"
)

const (
	maxGoals           = 3
	maxReflections     = 5
	maxMoveEvaluations = 3

	shortTermStalePlies = 3
	longTermStalePlies  = 6
)

// MoveEvaluation is one cached candidate ranking from the most recent
// move-generation pass. Score is in [-10, +10].
type MoveEvaluation struct {
	Move      string
	Score     float64
	Reasoning string
}

// PlayerMemory is the strategic state for one color. Lifecycle is the game
// session; Reset wipes it. Goals and opening are advisory context only;
// legality is always the rules authority's call.
type PlayerMemory struct {
	Opening         string
	ShortTermGoals  []string
	LongTermGoals   []string
	shortTermPly    int
	longTermPly     int
	reflections     ring
	MoveHistory     []rules.Move
	PieceActivity   map[string]int
	MoveEvaluations []MoveEvaluation
}

// Reflections returns the retained reflections, oldest first.
func (p *PlayerMemory) Reflections() []string { return p.reflections.items() }

// Clone deep-copies the memory so a reader outside the owning session's lock
// never aliases slices or maps the next turn will mutate.
func (p *PlayerMemory) Clone() *PlayerMemory {
	if p == nil {
		return nil
	}
	out := &PlayerMemory{
		Opening:         p.Opening,
		ShortTermGoals:  append([]string(nil), p.ShortTermGoals...),
		LongTermGoals:   append([]string(nil), p.LongTermGoals...),
		shortTermPly:    p.shortTermPly,
		longTermPly:     p.longTermPly,
		reflections:     p.reflections.clone(),
		MoveHistory:     append([]rules.Move(nil), p.MoveHistory...),
		PieceActivity:   make(map[string]int, len(p.PieceActivity)),
		MoveEvaluations: append([]MoveEvaluation(nil), p.MoveEvaluations...),
	}
	for k, v := range p.PieceActivity {
		out.PieceActivity[k] = v
	}
	return out
}

// Store holds per-color strategic memory for a single game session. All
// operations are total; none can fail. The store is owned by the active turn
// and needs no locking under sequential play.
type Store struct {
	players map[rules.Color]*PlayerMemory
}

func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset wipes both colors back to empty memory.
func (s *Store) Reset() {
	s.players = map[rules.Color]*PlayerMemory{
		rules.White: newPlayerMemory(),
		rules.Black: newPlayerMemory(),
	}
}

func newPlayerMemory() *PlayerMemory {
	return &PlayerMemory{
		reflections:   ring{cap: maxReflections},
		PieceActivity: map[string]int{},
	}
}

// Player returns the memory slot for a color.
func (s *Store) Player(color rules.Color) *PlayerMemory {
	return s.players[color]
}

// RecordMove appends a committed move to the color's history and bumps the
// piece-activity counter keyed by piece letter + origin square (e.g. "pe2").
func (s *Store) RecordMove(color rules.Color, mv rules.Move) {
	p := s.players[color]
	p.MoveHistory = append(p.MoveHistory, mv)
	p.PieceActivity[mv.Piece+mv.From]++
}

// SetOpening stores a short opening label, cut at the first '.', ',' or ':'
// so a verbose description collapses to a stable tag.
func (s *Store) SetOpening(color rules.Color, opening string) {
	s.players[color].Opening = openingLabel(opening)
}

func openingLabel(raw string) string {
	label := strings.TrimSpace(raw)
	if i := strings.IndexAny(label, ".,:"); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}

// SetShortTermGoals replaces the short-term goal list (capped at 3) and
// stamps the ply of this update.
func (s *Store) SetShortTermGoals(color rules.Color, goals []string, ply int) {
	p := s.players[color]
	p.ShortTermGoals = capGoals(goals)
	p.shortTermPly = ply
}

// SetLongTermGoals replaces the long-term goal list (capped at 3) and stamps
// the ply of this update.
func (s *Store) SetLongTermGoals(color rules.Color, goals []string, ply int) {
	p := s.players[color]
	p.LongTermGoals = capGoals(goals)
	p.longTermPly = ply
}

func capGoals(goals []string) []string {
	out := make([]string, 0, maxGoals)
	for _, g := range goals {
		g = strings.TrimSpace(g)
		if g == "" {
			continue
		}
		out = append(out, g)
		if len(out) == maxGoals {
			break
		}
	}
	return out
}

// AddReflection appends a reflection, evicting the oldest past capacity 5.
func (s *Store) AddReflection(color rules.Color, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.players[color].reflections.push(text)
}

// SetMoveEvaluations replaces the cached candidate rankings (capped at 3,
// assumed already sorted descending by score).
func (s *Store) SetMoveEvaluations(color rules.Color, evals []MoveEvaluation) {
	if len(evals) > maxMoveEvaluations {
		evals = evals[:maxMoveEvaluations]
	}
	s.players[color].MoveEvaluations = append([]MoveEvaluation(nil), evals...)
}

// ShortTermStale reports whether at least 3 plies have passed since the last
// short-term goal update.
func (s *Store) ShortTermStale(color rules.Color, ply int) bool {
	return ply-s.players[color].shortTermPly >= shortTermStalePlies
}

// LongTermStale reports whether at least 6 plies have passed since the last
// long-term goal update.
func (s *Store) LongTermStale(color rules.Color, ply int) bool {
	return ply-s.players[color].longTermPly >= longTermStalePlies
}

// ring is a fixed-capacity FIFO queue; pushing past capacity evicts the
// oldest entry. The bound is structural, not a call-site convention.
type ring struct {
	cap   int
	buf   []string
	start int
}

func (r *ring) push(v string) {
	if len(r.buf) < r.cap {
		r.buf = append(r.buf, v)
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % r.cap
}

func (r ring) clone() ring {
	return ring{cap: r.cap, buf: append([]string(nil), r.buf...), start: r.start}
}

func (r *ring) items() []string {
	out := make([]string, 0, len(r.buf))
	for i := 0; i < len(r.buf); i++ {
		out = append(out, r.buf[(r.start+i)%len(r.buf)])
	}
	return out
}

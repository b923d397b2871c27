// Package arenadto holds the JSON shapes exchanged with the presentation
// layer. Conversions live here so internal types never leak field names onto
// the wire.
package arenadto

import (
	"time"

	"github.com/kapu/llm-chess-arena/internal/archive"
	"github.com/kapu/llm-chess-arena/internal/eval"
	"github.com/kapu/llm-chess-arena/internal/memory"
	"github.com/kapu/llm-chess-arena/internal/rules"
	"github.com/kapu/llm-chess-arena/internal/session"
)

type Snapshot struct {
	FEN        string   `json:"fen"`
	PGN        string   `json:"pgn"`
	Turn       string   `json:"turn"`
	HistorySAN []string `json:"history_san"`
	Ply        int      `json:"ply"`
	GameOver   bool     `json:"game_over"`
	Checkmate  bool     `json:"checkmate"`
	Draw       bool     `json:"draw"`
	InCheck    bool     `json:"in_check"`
	Winner     *string  `json:"winner,omitempty"`
}

type Move struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Promotion string    `json:"promotion,omitempty"`
	Piece     string    `json:"piece"`
	Color     string    `json:"color"`
	SAN       string    `json:"san"`
	Timestamp time.Time `json:"timestamp"`
}

type Evaluation struct {
	Centipawns int  `json:"centipawns"`
	Mate       int  `json:"mate,omitempty"`
	Depth      int  `json:"depth"`
	Degraded   bool `json:"degraded"`
}

type TurnReport struct {
	Move       *Move      `json:"move,omitempty"`
	Fallback   bool       `json:"fallback"`
	Analysis   string     `json:"analysis,omitempty"`
	Snapshot   Snapshot   `json:"snapshot"`
	Evaluation Evaluation `json:"evaluation"`
}

type MoveEvaluation struct {
	Move      string  `json:"move"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning,omitempty"`
}

type MemoryView struct {
	Opening         string           `json:"opening,omitempty"`
	ShortTermGoals  []string         `json:"short_term_goals,omitempty"`
	LongTermGoals   []string         `json:"long_term_goals,omitempty"`
	Reflections     []string         `json:"reflections,omitempty"`
	MoveEvaluations []MoveEvaluation `json:"move_evaluations,omitempty"`
	PieceActivity   map[string]int   `json:"piece_activity,omitempty"`
}

type GameCreated struct {
	SessionID  string   `json:"session_id"`
	WhiteModel string   `json:"white_model"`
	BlackModel string   `json:"black_model"`
	Snapshot   Snapshot `json:"snapshot"`
}

type ArchivedGame struct {
	GameID     string    `json:"game_id"`
	WhiteModel string    `json:"white_model"`
	BlackModel string    `json:"black_model"`
	Result     string    `json:"result"`
	Method     string    `json:"method"`
	PGN        string    `json:"pgn"`
	Fallbacks  int       `json:"fallbacks"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DurationMS int64     `json:"duration_ms"`
}

func FromSnapshot(s rules.Snapshot) Snapshot {
	out := Snapshot{
		FEN:        s.FEN,
		PGN:        s.PGN,
		Turn:       string(s.Turn),
		HistorySAN: s.HistorySAN,
		Ply:        s.Ply,
		GameOver:   s.GameOver,
		Checkmate:  s.Checkmate,
		Draw:       s.Draw,
		InCheck:    s.InCheck,
	}
	if s.Winner != nil {
		w := string(*s.Winner)
		out.Winner = &w
	}
	return out
}

func FromMove(m *rules.Move) *Move {
	if m == nil {
		return nil
	}
	return &Move{
		From:      m.From,
		To:        m.To,
		Promotion: m.Promotion,
		Piece:     m.Piece,
		Color:     string(m.Color),
		SAN:       m.SAN,
		Timestamp: m.Timestamp,
	}
}

func FromEvaluation(r eval.Result) Evaluation {
	return Evaluation{
		Centipawns: r.Centipawns,
		Mate:       r.Mate,
		Depth:      r.Depth,
		Degraded:   r.Degraded(),
	}
}

func FromTurnReport(r *session.TurnReport) TurnReport {
	return TurnReport{
		Move:       FromMove(r.Move),
		Fallback:   r.Fallback,
		Analysis:   r.Analysis,
		Snapshot:   FromSnapshot(r.Snapshot),
		Evaluation: FromEvaluation(r.Evaluation),
	}
}

func FromMemory(m *memory.PlayerMemory) MemoryView {
	if m == nil {
		return MemoryView{}
	}
	evals := make([]MoveEvaluation, 0, len(m.MoveEvaluations))
	for _, ev := range m.MoveEvaluations {
		evals = append(evals, MoveEvaluation{Move: ev.Move, Score: ev.Score, Reasoning: ev.Reasoning})
	}
	return MemoryView{
		Opening:         m.Opening,
		ShortTermGoals:  m.ShortTermGoals,
		LongTermGoals:   m.LongTermGoals,
		Reflections:     m.Reflections(),
		MoveEvaluations: evals,
		PieceActivity:   m.PieceActivity,
	}
}

func FromArchivedGame(g archive.ArenaGame) ArchivedGame {
	return ArchivedGame{
		GameID:     g.GameID,
		WhiteModel: g.WhiteModel,
		BlackModel: g.BlackModel,
		Result:     g.Result,
		Method:     g.Method,
		PGN:        g.PGN,
		Fallbacks:  g.Fallbacks,
		StartedAt:  g.StartedAt,
		EndedAt:    g.EndedAt,
		DurationMS: g.Duration().Milliseconds(),
	}
}
